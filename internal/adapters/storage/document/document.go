// Package document define el formato JSON con el que los stores persisten
// el documento del paciente (jsonb en Postgres, string en Redis).
package document

import (
	"encoding/json"
	"fmt"
	"time"

	"patient-clinical-history/internal/domain/patients"
	"patient-clinical-history/internal/domain/vitals"
)

type vitalsDoc struct {
	BloodPressure   string `json:"bloodPressure"`
	RespiratoryRate int    `json:"respiratoryRate"`
	OxygenLevel     int    `json:"oxygenLevel"`
	HeartbeatRate   int    `json:"heartbeatRate"`
}

type historyDoc struct {
	Date time.Time `json:"date"`
	vitalsDoc
	HealthStatus string `json:"healthStatus"`
	RecordedBy   string `json:"recordedBy,omitempty"`
}

type patientDoc struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DOB          time.Time `json:"dob"`
	HealthStatus string    `json:"healthStatus"`
	LastVisit    time.Time `json:"lastVisit"`
	vitalsDoc
	History   []historyDoc `json:"history"`
	Version   int64        `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func Encode(p patients.Patient) ([]byte, error) {
	d := patientDoc{
		ID:           p.ID,
		Name:         p.Name,
		DOB:          p.DOB,
		HealthStatus: string(p.HealthStatus),
		LastVisit:    p.LastVisit,
		vitalsDoc:    fromSnapshot(p.Vitals),
		History:      make([]historyDoc, 0, len(p.History)),
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, e := range p.History {
		d.History = append(d.History, historyDoc{
			Date:         e.Date,
			vitalsDoc:    fromSnapshot(e.Vitals),
			HealthStatus: string(e.HealthStatus),
			RecordedBy:   e.RecordedBy,
		})
	}
	return json.Marshal(d)
}

func Decode(raw []byte) (patients.Patient, error) {
	var d patientDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return patients.Patient{}, fmt.Errorf("decode patient document: %w", err)
	}

	snap, err := d.vitalsDoc.toSnapshot()
	if err != nil {
		return patients.Patient{}, fmt.Errorf("decode patient %s: %w", d.ID, err)
	}

	p := patients.Patient{
		ID:           d.ID,
		Name:         d.Name,
		DOB:          d.DOB,
		HealthStatus: vitals.Status(d.HealthStatus),
		LastVisit:    d.LastVisit,
		Vitals:       snap,
		History:      make([]patients.HistoryEntry, 0, len(d.History)),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for i, h := range d.History {
		hs, err := h.vitalsDoc.toSnapshot()
		if err != nil {
			return patients.Patient{}, fmt.Errorf("decode patient %s history[%d]: %w", d.ID, i, err)
		}
		p.History = append(p.History, patients.HistoryEntry{
			Date:         h.Date,
			Vitals:       hs,
			HealthStatus: vitals.Status(h.HealthStatus),
			RecordedBy:   h.RecordedBy,
		})
	}
	return p, nil
}

func fromSnapshot(s vitals.Snapshot) vitalsDoc {
	return vitalsDoc{
		BloodPressure:   s.BloodPressure.String(),
		RespiratoryRate: s.RespiratoryRate,
		OxygenLevel:     s.OxygenLevel,
		HeartbeatRate:   s.HeartbeatRate,
	}
}

// toSnapshot solo parsea el formato; los documentos guardados ya pasaron validación.
func (v vitalsDoc) toSnapshot() (vitals.Snapshot, error) {
	bp, err := vitals.ParseBloodPressure(v.BloodPressure)
	if err != nil {
		return vitals.Snapshot{}, err
	}
	return vitals.Snapshot{
		BloodPressure:   bp,
		RespiratoryRate: v.RespiratoryRate,
		OxygenLevel:     v.OxygenLevel,
		HeartbeatRate:   v.HeartbeatRate,
	}, nil
}
