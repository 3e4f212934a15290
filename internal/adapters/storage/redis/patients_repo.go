package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"patient-clinical-history/internal/adapters/storage/document"
	"patient-clinical-history/internal/domain/patients"

	"github.com/go-redis/redis/v8"
)

const DefaultKeyPrefix = "pch:"

// PatientsRepo guarda cada paciente como JSON en "<prefix>patient:<id>" y mantiene
// un sorted set "<prefix>patients" (score = created_at en ms) para listar en orden.
// Las escrituras usan WATCH/MULTI: si la key cambia entre lectura y EXEC, la
// transacción falla y se reporta ErrVersionConflict.
type PatientsRepo struct {
	client *redis.Client
	prefix string
}

func NewPatientsRepo(client *redis.Client, prefix string) *PatientsRepo {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultKeyPrefix
	}
	return &PatientsRepo{client: client, prefix: prefix}
}

func (r *PatientsRepo) docKey(id string) string { return r.prefix + "patient:" + id }
func (r *PatientsRepo) indexKey() string        { return r.prefix + "patients" }

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("patient id required")
	}
	raw, err := document.Encode(p)
	if err != nil {
		return err
	}

	key := r.docKey(p.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.New("patient already exists")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			pipe.ZAdd(ctx, r.indexKey(), &redis.Z{
				Score:  float64(p.CreatedAt.UnixMilli()),
				Member: p.ID,
			})
			return nil
		})
		return err
	}, key)
	return translate("create patient", err)
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient, expectedVersion int64) error {
	raw, err := document.Encode(p)
	if err != nil {
		return err
	}

	key := r.docKey(p.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return patients.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	return translate("update patient", err)
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	p, err := r.get(ctx, r.client, r.docKey(id))
	if err != nil {
		return patients.Patient{}, translate("get patient", err)
	}
	return p, nil
}

func (r *PatientsRepo) Delete(ctx context.Context, id string) error {
	key := r.docKey(id)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return patients.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, r.indexKey(), id)
			return nil
		})
		return err
	}, key)
	return translate("delete patient", err)
}

func (r *PatientsRepo) List(ctx context.Context) ([]patients.Patient, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	out := make([]patients.Patient, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.docKey(id))
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// índice huérfano (borrado concurrente): se ignora
			continue
		}
		p, err := document.Decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// getter es lo común entre *redis.Client y *redis.Tx que necesitamos.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *PatientsRepo) get(ctx context.Context, g getter, key string) (patients.Patient, error) {
	raw, err := g.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return patients.Patient{}, patients.ErrNotFound
	}
	if err != nil {
		return patients.Patient{}, err
	}
	return document.Decode(raw)
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return patients.ErrVersionConflict
	case errors.Is(err, patients.ErrNotFound), errors.Is(err, patients.ErrVersionConflict):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
