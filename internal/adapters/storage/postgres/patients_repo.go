package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"patient-clinical-history/internal/adapters/storage/document"
	"patient-clinical-history/internal/domain/patients"
)

// PatientsRepo guarda cada paciente como un documento jsonb con columna version
// para escrituras condicionales.
type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	raw, err := document.Encode(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO patients (id, doc, version, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $4, $5)
	`,
		p.ID,
		string(raw),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient, expectedVersion int64) error {
	raw, err := document.Encode(p)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET
			doc = $3::jsonb,
			version = $4,
			updated_at = $5
		WHERE id = $1 AND version = $2
	`,
		p.ID,
		expectedVersion,
		string(raw),
		p.Version,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if n > 0 {
		return nil
	}

	// 0 filas: o no existe, o cambió la versión.
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id = $1`, p.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return patients.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return patients.ErrVersionConflict
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return patients.Patient{}, patients.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT doc, version
		FROM patients
		WHERE id = $1
	`, id)

	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return patients.Patient{}, patients.ErrNotFound
	}
	if err != nil {
		return patients.Patient{}, err
	}
	return p, nil
}

func (r *PatientsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) List(ctx context.Context) ([]patients.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc, version
		FROM patients
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPatient decodifica el documento; la columna version manda sobre la del jsonb.
func scanPatient(s scanner) (patients.Patient, error) {
	var raw []byte
	var version int64
	if err := s.Scan(&raw, &version); err != nil {
		return patients.Patient{}, err
	}

	p, err := document.Decode(raw)
	if err != nil {
		return patients.Patient{}, err
	}
	p.Version = version
	return p, nil
}
