package vitals

// rule es un umbral evaluado en orden; gana el primero que dispara.
type rule struct {
	status  Status
	matches func(s Snapshot) bool
}

var rules = []rule{
	{
		status: StatusCritical,
		matches: func(s Snapshot) bool {
			return s.BloodPressure.Systolic > 180 ||
				s.BloodPressure.Diastolic > 120 ||
				s.HeartbeatRate > 120 ||
				s.OxygenLevel < 90
		},
	},
	{
		status: StatusAtRisk,
		matches: func(s Snapshot) bool {
			return s.BloodPressure.Systolic > 140 ||
				s.BloodPressure.Diastolic > 90 ||
				s.OxygenLevel < 95
		},
	},
}

// Classify deriva la etiqueta de salud de un snapshot.
// Es una función pura: no valida rangos y nunca falla.
func Classify(s Snapshot) Status {
	for _, r := range rules {
		if r.matches(s) {
			return r.status
		}
	}
	return StatusStable
}

// ClassifyReading valida la lectura cruda (formato del formulario) y la clasifica.
func ClassifyReading(bloodPressure string, respiratoryRate, oxygenLevel, heartbeatRate int) (Status, error) {
	bp, err := ParseBloodPressure(bloodPressure)
	if err != nil {
		return "", err
	}
	s := Snapshot{
		BloodPressure:   bp,
		RespiratoryRate: respiratoryRate,
		OxygenLevel:     oxygenLevel,
		HeartbeatRate:   heartbeatRate,
	}
	if err := Validate(s); err != nil {
		return "", err
	}
	return Classify(s), nil
}
