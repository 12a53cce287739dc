package repository

import (
	"context"
	"database/sql"
)

// Fertilizer mirrors the 'abonos' table.  Rows are strictly owner-scoped:
// every statement filters by user_id, so cross-owner access never reaches a
// row.
type Fertilizer struct {
	ID            uint64  `json:"id"`
	Nombre        string  `json:"nombre"`
	Tipo          *string `json:"tipo"`
	Observaciones *string `json:"observaciones"`
	UserID        uint64  `json:"user_id"`
}

type FertilizerRepo struct{ DB *sql.DB }

func NewFertilizerRepo(db *sql.DB) *FertilizerRepo { return &FertilizerRepo{DB: db} }

// ListByOwner returns a user's fertilizers ordered by name.
func (r *FertilizerRepo) ListByOwner(ctx context.Context, userID uint64) ([]Fertilizer, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, nombre, tipo, observaciones, user_id FROM abonos WHERE user_id = ? ORDER BY nombre",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Fertilizer{}
	for rows.Next() {
		var (
			f    Fertilizer
			tipo sql.NullString
			obs  sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Nombre, &tipo, &obs, &f.UserID); err != nil {
			return nil, err
		}
		f.Tipo = strPtr(tipo)
		f.Observaciones = strPtr(obs)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Create inserts a fertilizer for a user and returns its id.
func (r *FertilizerRepo) Create(ctx context.Context, f *Fertilizer) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO abonos (nombre, tipo, observaciones, user_id) VALUES (?, ?, ?, ?)",
		f.Nombre, f.Tipo, f.Observaciones, f.UserID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update rewrites a fertilizer, owner-scoped; no matching row means not
// found (or not owned).
func (r *FertilizerRepo) Update(ctx context.Context, f *Fertilizer) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE abonos SET nombre = ?, tipo = ?, observaciones = ? WHERE id = ? AND user_id = ?",
		f.Nombre, f.Tipo, f.Observaciones, f.ID, f.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a fertilizer, owner-scoped.
func (r *FertilizerRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM abonos WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
