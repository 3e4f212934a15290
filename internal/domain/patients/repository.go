package patients

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("patient not found")
	ErrVersionConflict = errors.New("patient was modified concurrently")
)

// Repository es el document store: operaciones por id, sin append de sub-documentos.
//
// Update reescribe el documento completo solo si la versión guardada es
// expectedVersion; si no, devuelve ErrVersionConflict. Un id desconocido
// devuelve ErrNotFound en GetByID, Update y Delete.
type Repository interface {
	Create(ctx context.Context, p Patient) error
	GetByID(ctx context.Context, id string) (Patient, error)
	Update(ctx context.Context, p Patient, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Patient, error)
}
