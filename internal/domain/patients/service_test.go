package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"patient-clinical-history/internal/domain/vitals"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Patient

	calls int // accesos totales al store

	// conflictsLeft fuerza N conflictos de versión en Update antes de aceptar.
	conflictsLeft int
	updates       int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Patient{}}
}

func (r *testRepo) Create(ctx context.Context, p Patient) error {
	r.calls++
	if p.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[p.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Patient, expectedVersion int64) error {
	r.calls++
	cur, ok := r.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return ErrVersionConflict
	}
	if cur.Version != expectedVersion {
		return ErrVersionConflict
	}
	r.updates++
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Patient, error) {
	r.calls++
	p, ok := r.byID[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.calls++
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) List(ctx context.Context) ([]Patient, error) {
	r.calls++
	out := make([]Patient, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p.Clone())
	}
	return out, nil
}

// -------------------------
// Helpers
// -------------------------

var fixedNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, opts Options) *Service {
	s := NewService(repo, opts)
	s.now = func() time.Time { return fixedNow }
	return s
}

func stableVitals() VitalsInput {
	return VitalsInput{BloodPressure: "120/80", RespiratoryRate: 16, OxygenLevel: 98, HeartbeatRate: 72}
}

func mustCreate(t *testing.T, s *Service) Patient {
	t.Helper()
	p, err := s.Create(context.Background(), CreateInput{
		Name:   "John Doe",
		DOB:    time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC),
		Vitals: stableVitals(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr *vitals.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Field
}

// -------------------------
// Create / Update
// -------------------------

func TestCreate_ClassifiesAndDefaults(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})

	p, err := s.Create(context.Background(), CreateInput{
		Name:   "  Jane Smith ",
		DOB:    time.Date(1985, 7, 20, 0, 0, 0, 0, time.UTC),
		Vitals: VitalsInput{BloodPressure: "150/85", RespiratoryRate: 18, OxygenLevel: 96, HeartbeatRate: 80},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
	if p.Name != "Jane Smith" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if p.HealthStatus != vitals.StatusAtRisk {
		t.Fatalf("expected At Risk, got %q", p.HealthStatus)
	}
	if !p.LastVisit.Equal(fixedNow) {
		t.Fatalf("expected lastVisit=now, got %v", p.LastVisit)
	}
	if p.Version != 1 || p.History == nil || len(p.History) != 0 {
		t.Fatalf("unexpected initial state: version=%d history=%v", p.Version, p.History)
	}
}

func TestCreate_Validation(t *testing.T) {
	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing name", CreateInput{DOB: fixedNow.AddDate(-30, 0, 0), Vitals: stableVitals()}, "name"},
		{"missing dob", CreateInput{Name: "x", Vitals: stableVitals()}, "dob"},
		{"future dob", CreateInput{Name: "x", DOB: fixedNow.AddDate(0, 0, 1), Vitals: stableVitals()}, "dob"},
		{"bad bp", CreateInput{Name: "x", DOB: fixedNow.AddDate(-30, 0, 0), Vitals: VitalsInput{BloodPressure: "250/80", RespiratoryRate: 16, OxygenLevel: 98, HeartbeatRate: 72}}, "bloodPressure"},
		{"bad hr", CreateInput{Name: "x", DOB: fixedNow.AddDate(-30, 0, 0), Vitals: VitalsInput{BloodPressure: "120/80", RespiratoryRate: 16, OxygenLevel: 98, HeartbeatRate: 250}}, "heartbeatRate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newTestRepo()
			s := newTestService(repo, Options{})
			_, err := s.Create(context.Background(), tc.in)
			if got := fieldOf(t, err); got != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, got)
			}
			if repo.calls != 0 {
				t.Fatalf("expected no store access, got %d calls", repo.calls)
			}
		})
	}
}

func TestUpdate_RecomputesStatusAndKeepsHistory(t *testing.T) {
	repo := newTestRepo()
	s := newTestService(repo, Options{})
	p := mustCreate(t, s)

	if _, err := s.AppendHistory(context.Background(), p.ID, AppendInput{Vitals: stableVitals()}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Update(context.Background(), p.ID, UpdateInput{
		Name:   "John Doe",
		DOB:    p.DOB,
		Vitals: VitalsInput{BloodPressure: "190/100", RespiratoryRate: 20, OxygenLevel: 92, HeartbeatRate: 110},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.HealthStatus != vitals.StatusCritical {
		t.Fatalf("expected Critical, got %q", got.HealthStatus)
	}
	if len(got.History) != 1 {
		t.Fatalf("expected history untouched, got %d entries", len(got.History))
	}
	if got.Version != 3 {
		t.Fatalf("expected version 3, got %d", got.Version)
	}
}

func TestUpdate_DirectStatusEdit(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)

	got, err := s.Update(context.Background(), p.ID, UpdateInput{
		Name:         p.Name,
		DOB:          p.DOB,
		Vitals:       stableVitals(),
		HealthStatus: "Under Observation",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.HealthStatus != vitals.StatusUnderObservation {
		t.Fatalf("expected direct status, got %q", got.HealthStatus)
	}

	_, err = s.Update(context.Background(), p.ID, UpdateInput{
		Name:         p.Name,
		DOB:          p.DOB,
		Vitals:       stableVitals(),
		HealthStatus: "Dying",
	})
	if got := fieldOf(t, err); got != "healthStatus" {
		t.Fatalf("expected healthStatus field, got %q", got)
	}
}

func TestUpdate_ExpectedVersionMismatch(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)

	_, err := s.Update(context.Background(), p.ID, UpdateInput{
		Name:            p.Name,
		DOB:             p.DOB,
		Vitals:          stableVitals(),
		ExpectedVersion: 7,
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, err := s.Update(context.Background(), p.ID, UpdateInput{
		Name:            "Renamed",
		DOB:             p.DOB,
		Vitals:          stableVitals(),
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("update with matching version: %v", err)
	}
	if got.Name != "Renamed" || got.Version != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestUpdate_ExpectedVersionDoesNotRetry(t *testing.T) {
	repo := newTestRepo()
	s := newTestService(repo, Options{})
	p := mustCreate(t, s)

	repo.conflictsLeft = 1
	_, err := s.Update(context.Background(), p.ID, UpdateInput{
		Name:            p.Name,
		DOB:             p.DOB,
		Vitals:          stableVitals(),
		ExpectedVersion: 1,
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected conflict surfaced, got %v", err)
	}
}

// -------------------------
// History
// -------------------------

func TestAppendHistory_UnknownPatient(t *testing.T) {
	repo := newTestRepo()
	s := newTestService(repo, Options{})
	existing := mustCreate(t, s)

	_, err := s.AppendHistory(context.Background(), "does-not-exist", AppendInput{Vitals: stableVitals()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("store should be unchanged, got %d patients", len(repo.byID))
	}
	if got := repo.byID[existing.ID]; len(got.History) != 0 || got.Version != 1 {
		t.Fatalf("existing patient modified: %+v", got)
	}
}

func TestAppendHistory_PreservesOrderAndPriorEntries(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)
	ctx := context.Background()

	first, err := s.AppendHistory(ctx, p.ID, AppendInput{
		Date:       fixedNow.Add(-2 * time.Hour),
		Vitals:     VitalsInput{BloodPressure: "150/85", RespiratoryRate: 18, OxygenLevel: 96, HeartbeatRate: 80},
		RecordedBy: "nurse-1",
	})
	if err != nil {
		t.Fatalf("append 1: %v", err)
	}
	firstEntry := first.History[0]

	got, err := s.AppendHistory(ctx, p.ID, AppendInput{
		Date:   fixedNow.Add(-time.Hour),
		Vitals: VitalsInput{BloodPressure: "185/95", RespiratoryRate: 22, OxygenLevel: 93, HeartbeatRate: 100},
	})
	if err != nil {
		t.Fatalf("append 2: %v", err)
	}

	if len(got.History) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.History))
	}
	if got.History[0] != firstEntry {
		t.Fatalf("first entry changed: %+v vs %+v", got.History[0], firstEntry)
	}
	if got.History[0].HealthStatus != vitals.StatusAtRisk || got.History[1].HealthStatus != vitals.StatusCritical {
		t.Fatalf("unexpected entry statuses: %q, %q", got.History[0].HealthStatus, got.History[1].HealthStatus)
	}
	if got.History[0].RecordedBy != "nurse-1" {
		t.Fatalf("expected recordedBy kept, got %q", got.History[0].RecordedBy)
	}

	// por defecto el estado top-level no cambia
	if got.HealthStatus != vitals.StatusStable {
		t.Fatalf("expected top-level status unchanged, got %q", got.HealthStatus)
	}

	hist, err := s.History(ctx, p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || !hist[1].Date.Equal(fixedNow.Add(-time.Hour)) {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestAppendHistory_ValidatesBeforeStoreAccess(t *testing.T) {
	repo := newTestRepo()
	s := newTestService(repo, Options{})
	p := mustCreate(t, s)
	repo.calls = 0

	_, err := s.AppendHistory(context.Background(), p.ID, AppendInput{
		Vitals: VitalsInput{BloodPressure: "120-80", RespiratoryRate: 16, OxygenLevel: 98, HeartbeatRate: 72},
	})
	if got := fieldOf(t, err); got != "bloodPressure" {
		t.Fatalf("expected bloodPressure, got %q", got)
	}

	_, err = s.AppendHistory(context.Background(), p.ID, AppendInput{
		Date:   fixedNow.Add(maxClockSkew + time.Second),
		Vitals: stableVitals(),
	})
	if got := fieldOf(t, err); got != "date" {
		t.Fatalf("expected date, got %q", got)
	}

	if repo.calls != 0 {
		t.Fatalf("expected no store access, got %d calls", repo.calls)
	}
}

func TestAppendHistory_ToleratesSmallClockSkew(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)

	ahead := fixedNow.Add(2 * time.Second)
	got, err := s.AppendHistory(context.Background(), p.ID, AppendInput{Date: ahead, Vitals: stableVitals()})
	if err != nil {
		t.Fatalf("append with reading slightly ahead: %v", err)
	}
	if !got.History[0].Date.Equal(ahead) {
		t.Fatalf("expected date kept as sent, got %v", got.History[0].Date)
	}

	_, err = s.AppendHistory(context.Background(), p.ID, AppendInput{Date: fixedNow.Add(maxClockSkew), Vitals: stableVitals()})
	if err != nil {
		t.Fatalf("append at the skew limit: %v", err)
	}

	_, err = s.AppendHistory(context.Background(), p.ID, AppendInput{Date: fixedNow.Add(2 * maxClockSkew), Vitals: stableVitals()})
	if got := fieldOf(t, err); got != "date" {
		t.Fatalf("expected date, got %q", got)
	}
}

func TestAppendHistory_DefaultsDateToNow(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)

	got, err := s.AppendHistory(context.Background(), p.ID, AppendInput{Vitals: stableVitals()})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !got.History[0].Date.Equal(fixedNow) {
		t.Fatalf("expected date=now, got %v", got.History[0].Date)
	}
}

func TestAppendHistory_SyncStatus(t *testing.T) {
	s := newTestService(newTestRepo(), Options{SyncStatusOnAppend: true})
	p := mustCreate(t, s)

	got, err := s.AppendHistory(context.Background(), p.ID, AppendInput{
		Vitals: VitalsInput{BloodPressure: "120/80", RespiratoryRate: 16, OxygenLevel: 85, HeartbeatRate: 72},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if got.HealthStatus != vitals.StatusCritical {
		t.Fatalf("expected synced Critical, got %q", got.HealthStatus)
	}
	if !got.LastVisit.Equal(fixedNow) {
		t.Fatalf("expected lastVisit moved to entry date, got %v", got.LastVisit)
	}

	// una entrada más vieja no retrocede lastVisit
	got, err = s.AppendHistory(context.Background(), p.ID, AppendInput{
		Date:   fixedNow.AddDate(0, -1, 0),
		Vitals: stableVitals(),
	})
	if err != nil {
		t.Fatalf("append old: %v", err)
	}
	if !got.LastVisit.Equal(fixedNow) {
		t.Fatalf("lastVisit went backwards: %v", got.LastVisit)
	}
	if got.HealthStatus != vitals.StatusStable {
		t.Fatalf("expected Stable, got %q", got.HealthStatus)
	}
}

func TestAppendHistory_RetriesOnConflict(t *testing.T) {
	repo := newTestRepo()
	s := newTestService(repo, Options{})
	p := mustCreate(t, s)

	repo.conflictsLeft = 2
	got, err := s.AppendHistory(context.Background(), p.ID, AppendInput{Vitals: stableVitals()})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(got.History) != 1 || repo.updates != 1 {
		t.Fatalf("expected one committed update, got history=%d updates=%d", len(got.History), repo.updates)
	}
}

func TestAppendHistory_ConflictExhaustsAttempts(t *testing.T) {
	repo := newTestRepo()
	s := newTestService(repo, Options{})
	p := mustCreate(t, s)

	repo.conflictsLeft = defaultMaxWriteAttempts
	_, err := s.AppendHistory(context.Background(), p.ID, AppendInput{Vitals: stableVitals()})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if len(repo.byID[p.ID].History) != 0 {
		t.Fatalf("nothing should have been written")
	}
}

func TestHistory_UnknownAndEmpty(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)

	hist, err := s.History(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if hist == nil || len(hist) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", hist)
	}

	if _, err := s.History(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.History(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestService(newTestRepo(), Options{})
	p := mustCreate(t, s)

	if err := s.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(context.Background(), p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
