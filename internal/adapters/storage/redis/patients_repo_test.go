package redis

import (
	"context"
	"testing"
	"time"

	"patient-clinical-history/internal/domain/patients"
	"patient-clinical-history/internal/domain/vitals"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *PatientsRepo) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewPatientsRepo(client, "test:")
}

func newPatient(id string, created time.Time) patients.Patient {
	return patients.Patient{
		ID:           id,
		Name:         "Patient " + id,
		DOB:          time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC),
		HealthStatus: vitals.StatusStable,
		LastVisit:    created,
		Vitals: vitals.Snapshot{
			BloodPressure:   vitals.BloodPressure{Systolic: 110, Diastolic: 70},
			RespiratoryRate: 16,
			OxygenLevel:     98,
			HeartbeatRate:   70,
		},
		History:   []patients.HistoryEntry{},
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestPatientsRepo_CreateAndGet(t *testing.T) {
	mr, repo := setupTestRedis(t)
	ctx := context.Background()
	now := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)

	p := newPatient("p-1", now)
	require.NoError(t, repo.Create(ctx, p))

	assert.True(t, mr.Exists("test:patient:p-1"))

	got, err := repo.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Vitals, got.Vitals)
	assert.Equal(t, int64(1), got.Version)
	assert.True(t, got.CreatedAt.Equal(now))

	// duplicado
	assert.Error(t, repo.Create(ctx, p))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, patients.ErrNotFound)
}

func TestPatientsRepo_UpdateConditional(t *testing.T) {
	_, repo := setupTestRedis(t)
	ctx := context.Background()
	now := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)

	p := newPatient("p-1", now)
	require.NoError(t, repo.Create(ctx, p))

	next := p.Clone()
	next.History = append(next.History, patients.HistoryEntry{
		Date:         now.Add(time.Hour),
		Vitals:       p.Vitals,
		HealthStatus: vitals.StatusStable,
	})
	next.Version = 2

	require.NoError(t, repo.Update(ctx, next, 1))

	// versión vieja => conflicto, el documento no cambia
	stale := next.Clone()
	stale.Name = "stale write"
	stale.Version = 2
	assert.ErrorIs(t, repo.Update(ctx, stale, 1), patients.ErrVersionConflict)

	got, err := repo.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, p.Name, got.Name)
	assert.Len(t, got.History, 1)

	missing := newPatient("nope", now)
	assert.ErrorIs(t, repo.Update(ctx, missing, 1), patients.ErrNotFound)
}

func TestPatientsRepo_ListAndDelete(t *testing.T) {
	mr, repo := setupTestRedis(t)
	ctx := context.Background()
	base := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newPatient("b", base.Add(2*time.Second))))
	require.NoError(t, repo.Create(ctx, newPatient("a", base.Add(1*time.Second))))
	require.NoError(t, repo.Create(ctx, newPatient("c", base.Add(3*time.Second))))

	out, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})

	require.NoError(t, repo.Delete(ctx, "b"))
	assert.ErrorIs(t, repo.Delete(ctx, "b"), patients.ErrNotFound)
	assert.False(t, mr.Exists("test:patient:b"))

	out, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestPatientsRepo_ListEmpty(t *testing.T) {
	_, repo := setupTestRedis(t)

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}
