package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Technique mirrors the 'trabajos' catalog table.  Names are globally
// unique; move-to-history matches them case-insensitively against task
// descriptions.
type Technique struct {
	ID          uint64  `json:"id"`
	TipoTrabajo string  `json:"tipo_trabajo"`
	Fecha       *string `json:"fecha"`
}

type TechniqueRepo struct{ DB *sql.DB }

func NewTechniqueRepo(db *sql.DB) *TechniqueRepo { return &TechniqueRepo{DB: db} }

// List returns the whole catalog, newest first.
func (r *TechniqueRepo) List(ctx context.Context) ([]Technique, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, tipo_trabajo, fecha FROM trabajos ORDER BY fecha DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Technique{}
	for rows.Next() {
		var (
			t     Technique
			fecha sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.TipoTrabajo, &fecha); err != nil {
			return nil, err
		}
		t.Fecha = dateStr(fecha)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a technique.  A name already in use — caught by the
// pre-check or by the unique index during a race — yields ErrConflict.
func (r *TechniqueRepo) Create(ctx context.Context, tipoTrabajo string, fecha *string) (uint64, error) {
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM trabajos WHERE tipo_trabajo = ?", tipoTrabajo).Scan(&existing)
	if err == nil {
		return 0, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO trabajos (tipo_trabajo, fecha) VALUES (?, ?)", tipoTrabajo, fecha)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update renames a technique.  The uniqueness check excludes the row itself.
func (r *TechniqueRepo) Update(ctx context.Context, id uint64, tipoTrabajo string, fecha *string) error {
	var other uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM trabajos WHERE tipo_trabajo = ? AND id != ?", tipoTrabajo, id).Scan(&other)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE trabajos SET tipo_trabajo = ?, fecha = ? WHERE id = ?", tipoTrabajo, fecha, id); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Delete removes a technique from the catalog.
func (r *TechniqueRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM trabajos WHERE id = ?", id)
	return err
}
