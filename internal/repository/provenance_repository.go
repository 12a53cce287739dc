package repository

import (
	"context"
	"database/sql"
)

// Provenance mirrors the 'procedencias' catalog of origin locations.
type Provenance struct {
	ID     uint64 `json:"id"`
	Nombre string `json:"nombre"`
}

type ProvenanceRepo struct{ DB *sql.DB }

func NewProvenanceRepo(db *sql.DB) *ProvenanceRepo { return &ProvenanceRepo{DB: db} }

// List returns every provenance ordered by name.
func (r *ProvenanceRepo) List(ctx context.Context) ([]Provenance, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, nombre FROM procedencias ORDER BY nombre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Provenance{}
	for rows.Next() {
		var p Provenance
		if err := rows.Scan(&p.ID, &p.Nombre); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a provenance; a duplicate name yields ErrConflict.
func (r *ProvenanceRepo) Create(ctx context.Context, nombre string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO procedencias (nombre) VALUES (?)", nombre)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update renames a provenance; a duplicate name yields ErrConflict.
func (r *ProvenanceRepo) Update(ctx context.Context, id uint64, nombre string) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE procedencias SET nombre = ? WHERE id = ?", nombre, id); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Delete removes a provenance (admin only, enforced by the router).
func (r *ProvenanceRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM procedencias WHERE id = ?", id)
	return err
}
