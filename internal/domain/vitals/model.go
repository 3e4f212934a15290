package vitals

import (
	"fmt"
	"strings"
)

// Status es la etiqueta de salud derivada de los signos vitales.
// @Enum Stable, At Risk, Under Observation, Critical, Normal, Abnormal
type Status string

const (
	StatusStable           Status = "Stable"
	StatusAtRisk           Status = "At Risk"
	StatusUnderObservation Status = "Under Observation"
	StatusCritical         Status = "Critical"

	// Etiquetas heredadas de versiones anteriores del cliente móvil.
	// El clasificador no las produce, pero se aceptan en ediciones directas.
	StatusNormal   Status = "Normal"
	StatusAbnormal Status = "Abnormal"
)

var knownStatuses = map[Status]struct{}{
	StatusStable:           {},
	StatusAtRisk:           {},
	StatusUnderObservation: {},
	StatusCritical:         {},
	StatusNormal:           {},
	StatusAbnormal:         {},
}

// ParseStatus acepta solo etiquetas conocidas; ignora espacios alrededor, el resto es match exacto.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if _, ok := knownStatuses[st]; !ok {
		return "", &ValidationError{Field: "healthStatus", Rule: "must be one of Stable, At Risk, Under Observation, Critical, Normal, Abnormal"}
	}
	return st, nil
}

// BloodPressure es la presión arterial en mmHg.
type BloodPressure struct {
	Systolic  int
	Diastolic int
}

// String devuelve el formato "SS/DD" usado en el documento del paciente.
func (bp BloodPressure) String() string {
	return fmt.Sprintf("%d/%d", bp.Systolic, bp.Diastolic)
}

// Snapshot es una lectura de los cuatro signos vitales en un momento dado.
type Snapshot struct {
	BloodPressure   BloodPressure
	RespiratoryRate int // respiraciones/min
	OxygenLevel     int // % SpO2
	HeartbeatRate   int // bpm
}

// ValidationError identifica el campo inválido y la regla violada.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Rule
}
