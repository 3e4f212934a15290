package patients

import (
	"context"
	"errors"
	"strings"
	"time"

	"patient-clinical-history/internal/domain/vitals"
	"patient-clinical-history/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// maxClockSkew es la tolerancia para fechas de lectura levemente adelantadas
// respecto del reloj del servidor.
const maxClockSkew = time.Minute

// defaultMaxWriteAttempts acota los reintentos de read-modify-write ante conflictos de versión.
const defaultMaxWriteAttempts = 5

type Options struct {
	// SyncStatusOnAppend copia el estado (y la fecha como lastVisit) de cada
	// entrada nueva al paciente. Por defecto el append no toca el estado top-level.
	SyncStatusOnAppend bool

	// MaxWriteAttempts acota los reintentos ante conflicto (0 => defaultMaxWriteAttempts).
	MaxWriteAttempts int

	Logger logger.Logger
}

type Service struct {
	repo        Repository
	now         func() time.Time
	log         logger.Logger
	syncStatus  bool
	maxAttempts int
}

func NewService(repo Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	attempts := opts.MaxWriteAttempts
	if attempts <= 0 {
		attempts = defaultMaxWriteAttempts
	}
	return &Service{
		repo:        repo,
		now:         time.Now,
		log:         log.With(map[string]any{"component": "patients"}),
		syncStatus:  opts.SyncStatusOnAppend,
		maxAttempts: attempts,
	}
}

// VitalsInput es la lectura tal como llega del formulario: presión "SS/DD" y enteros.
type VitalsInput struct {
	BloodPressure   string
	RespiratoryRate int
	OxygenLevel     int
	HeartbeatRate   int
}

type CreateInput struct {
	Name      string
	DOB       time.Time
	LastVisit time.Time // zero => now
	Vitals    VitalsInput
}

type UpdateInput struct {
	Name      string
	DOB       time.Time
	LastVisit time.Time
	Vitals    VitalsInput

	// HealthStatus vacío => se recalcula desde los vitals. Si viene, es una edición directa.
	HealthStatus string

	// ExpectedVersion > 0 => escritura condicional; si no coincide, ErrVersionConflict.
	ExpectedVersion int64
}

type AppendInput struct {
	Date       time.Time // zero => now
	Vitals     VitalsInput
	RecordedBy string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Patient, error) {
	now := s.now()

	name, err := validateProfile(in.Name, in.DOB, now)
	if err != nil {
		return Patient{}, err
	}
	snap, err := toSnapshot(in.Vitals)
	if err != nil {
		return Patient{}, err
	}

	lastVisit := in.LastVisit
	if lastVisit.IsZero() {
		lastVisit = now
	}

	p := Patient{
		ID:           uuid.NewString(),
		Name:         name,
		DOB:          in.DOB.UTC(),
		HealthStatus: vitals.Classify(snap),
		LastVisit:    lastVisit.UTC(),
		Vitals:       snap,
		History:      []HistoryEntry{},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Patient{}, err
	}

	s.log.Debug("patient created", map[string]any{"patient_id": p.ID, "health_status": string(p.HealthStatus)})
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Debug("patient deleted", map[string]any{"patient_id": id})
	return nil
}

// Update reemplaza los campos editables. La historia no se toca.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrInvalidInput
	}

	now := s.now()
	name, err := validateProfile(in.Name, in.DOB, now)
	if err != nil {
		return Patient{}, err
	}
	snap, err := toSnapshot(in.Vitals)
	if err != nil {
		return Patient{}, err
	}

	status := vitals.Classify(snap)
	if strings.TrimSpace(in.HealthStatus) != "" {
		status, err = vitals.ParseStatus(in.HealthStatus)
		if err != nil {
			return Patient{}, err
		}
	}

	return s.mutate(ctx, id, in.ExpectedVersion, func(p *Patient) {
		p.Name = name
		p.DOB = in.DOB.UTC()
		if !in.LastVisit.IsZero() {
			p.LastVisit = in.LastVisit.UTC()
		}
		p.Vitals = snap
		p.HealthStatus = status
	})
}

// AppendHistory agrega una entrada al historial del paciente.
// La validación ocurre antes de cualquier acceso al store.
func (s *Service) AppendHistory(ctx context.Context, id string, in AppendInput) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrInvalidInput
	}

	snap, err := toSnapshot(in.Vitals)
	if err != nil {
		return Patient{}, err
	}

	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	if date.After(now.Add(maxClockSkew)) {
		return Patient{}, &vitals.ValidationError{Field: "date", Rule: "cannot be in the future"}
	}

	entry := HistoryEntry{
		Date:         date.UTC(),
		Vitals:       snap,
		HealthStatus: vitals.Classify(snap),
		RecordedBy:   strings.TrimSpace(in.RecordedBy),
	}

	p, err := s.mutate(ctx, id, 0, func(p *Patient) {
		p.History = append(p.History, entry)
		if s.syncStatus {
			p.HealthStatus = entry.HealthStatus
			if entry.Date.After(p.LastVisit) {
				p.LastVisit = entry.Date
			}
		}
	})
	if err != nil {
		return Patient{}, err
	}

	s.log.Debug("history entry appended", map[string]any{
		"patient_id":    id,
		"entries":       len(p.History),
		"health_status": string(entry.HealthStatus),
	})
	return p, nil
}

// History devuelve las entradas en orden de inserción.
func (s *Service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.History == nil {
		return []HistoryEntry{}, nil
	}
	return p.History, nil
}

// mutate hace read-modify-write con escritura condicional por versión.
// Sin expectedVersion, un conflicto se reintenta releyendo el documento;
// con expectedVersion el conflicto se devuelve al llamador.
func (s *Service) mutate(ctx context.Context, id string, expectedVersion int64, apply func(p *Patient)) (Patient, error) {
	for attempt := 1; ; attempt++ {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Patient{}, err
		}
		if expectedVersion > 0 && p.Version != expectedVersion {
			return Patient{}, ErrVersionConflict
		}

		current := p.Version
		p = p.Clone()
		apply(&p)
		p.Version = current + 1
		p.UpdatedAt = s.now()

		err = s.repo.Update(ctx, p, current)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrVersionConflict) || expectedVersion > 0 || attempt >= s.maxAttempts {
			return Patient{}, err
		}

		s.log.Warn("version conflict, retrying", map[string]any{
			"patient_id": id,
			"attempt":    attempt,
		})
		if err := ctx.Err(); err != nil {
			return Patient{}, err
		}
	}
}

func validateProfile(name string, dob time.Time, now time.Time) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &vitals.ValidationError{Field: "name", Rule: "is required"}
	}
	if dob.IsZero() {
		return "", &vitals.ValidationError{Field: "dob", Rule: "is required"}
	}
	if dob.After(now) {
		return "", &vitals.ValidationError{Field: "dob", Rule: "cannot be in the future"}
	}
	return name, nil
}

func toSnapshot(in VitalsInput) (vitals.Snapshot, error) {
	bp, err := vitals.ParseBloodPressure(in.BloodPressure)
	if err != nil {
		return vitals.Snapshot{}, err
	}
	snap := vitals.Snapshot{
		BloodPressure:   bp,
		RespiratoryRate: in.RespiratoryRate,
		OxygenLevel:     in.OxygenLevel,
		HeartbeatRate:   in.HeartbeatRate,
	}
	if err := vitals.Validate(snap); err != nil {
		return vitals.Snapshot{}, err
	}
	return snap, nil
}
