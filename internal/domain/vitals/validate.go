package vitals

import (
	"regexp"
	"strconv"
	"strings"
)

var bloodPressureRe = regexp.MustCompile(`^(\d{2,3})/(\d{2,3})$`)

const (
	minSystolic  = 70
	maxSystolic  = 200
	minDiastolic = 40
	maxDiastolic = 120

	minRespiratoryRate = 5
	maxRespiratoryRate = 40

	minOxygenLevel = 0
	maxOxygenLevel = 100

	minHeartbeatRate = 30
	maxHeartbeatRate = 200
)

// ParseBloodPressure solo valida el formato "SS/DD" (2-3 dígitos cada uno), no los rangos.
func ParseBloodPressure(raw string) (BloodPressure, error) {
	m := bloodPressureRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return BloodPressure{}, &ValidationError{Field: "bloodPressure", Rule: "must be in the format '120/80'"}
	}
	// el regex garantiza dígitos
	sys, _ := strconv.Atoi(m[1])
	dia, _ := strconv.Atoi(m[2])
	return BloodPressure{Systolic: sys, Diastolic: dia}, nil
}

// ValidateBloodPressure parsea y valida rangos.
func ValidateBloodPressure(raw string) (BloodPressure, error) {
	bp, err := ParseBloodPressure(raw)
	if err != nil {
		return BloodPressure{}, err
	}
	if err := validateBloodPressureRange(bp); err != nil {
		return BloodPressure{}, err
	}
	return bp, nil
}

func validateBloodPressureRange(bp BloodPressure) error {
	if bp.Systolic < minSystolic || bp.Systolic > maxSystolic {
		return &ValidationError{Field: "bloodPressure", Rule: "systolic must be between 70 and 200"}
	}
	if bp.Diastolic < minDiastolic || bp.Diastolic > maxDiastolic {
		return &ValidationError{Field: "bloodPressure", Rule: "diastolic must be between 40 and 120"}
	}
	return nil
}

// Validate revisa los rangos de cada campo y devuelve el primer error encontrado.
// Orden: bloodPressure, respiratoryRate, oxygenLevel, heartbeatRate.
func Validate(s Snapshot) error {
	if err := validateBloodPressureRange(s.BloodPressure); err != nil {
		return err
	}
	if s.RespiratoryRate < minRespiratoryRate || s.RespiratoryRate > maxRespiratoryRate {
		return &ValidationError{Field: "respiratoryRate", Rule: "must be between 5 and 40"}
	}
	if s.OxygenLevel < minOxygenLevel || s.OxygenLevel > maxOxygenLevel {
		return &ValidationError{Field: "oxygenLevel", Rule: "must be between 0 and 100"}
	}
	if s.HeartbeatRate < minHeartbeatRate || s.HeartbeatRate > maxHeartbeatRate {
		return &ValidationError{Field: "heartbeatRate", Rule: "must be between 30 and 200"}
	}
	return nil
}
