package patients

import (
	"time"

	"patient-clinical-history/internal/domain/vitals"
)

// Patient es el documento completo del paciente. Se persiste y reescribe entero.
type Patient struct {
	ID string

	Name string
	DOB  time.Time

	HealthStatus vitals.Status
	LastVisit    time.Time
	Vitals       vitals.Snapshot

	// History es append-only: orden de inserción = orden cronológico.
	History []HistoryEntry

	// Version aumenta en cada escritura; el store la usa para escrituras condicionales.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry es una lectura de signos vitales con su estado calculado al insertarla.
// Nunca se recalcula ni se modifica después.
type HistoryEntry struct {
	Date         time.Time
	Vitals       vitals.Snapshot
	HealthStatus vitals.Status
	RecordedBy   string // user id del que registró la lectura (opcional)
}

// Clone copia el slice de historia para que el llamador pueda hacer append sin aliasing.
func (p Patient) Clone() Patient {
	if p.History != nil {
		h := make([]HistoryEntry, len(p.History))
		copy(h, p.History)
		p.History = h
	}
	return p
}

// Age devuelve años cumplidos a la fecha now.
func (p Patient) Age(now time.Time) int {
	if p.DOB.IsZero() {
		return 0
	}
	dob := p.DOB.UTC()
	now = now.UTC()

	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
