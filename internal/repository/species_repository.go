package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SpeciesCare mirrors the 'cuidados_especie' table: one free-text care card
// per (user, species) pair, enforced by a composite unique key.
type SpeciesCare struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"user_id"`
	Especie     string  `json:"especie"`
	Descripcion *string `json:"descripcion"`
}

type SpeciesRepo struct{ DB *sql.DB }

func NewSpeciesRepo(db *sql.DB) *SpeciesRepo { return &SpeciesRepo{DB: db} }

// ListByUser returns a user's care cards ordered by species.
func (r *SpeciesRepo) ListByUser(ctx context.Context, userID uint64) ([]SpeciesCare, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, especie, descripcion FROM cuidados_especie WHERE user_id = ? ORDER BY especie ASC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SpeciesCare{}
	for rows.Next() {
		var (
			s    SpeciesCare
			desc sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Especie, &desc); err != nil {
			return nil, err
		}
		s.Descripcion = strPtr(desc)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByUserSpecies fetches one care card, or ErrNotFound.
func (r *SpeciesRepo) GetByUserSpecies(ctx context.Context, userID uint64, especie string) (*SpeciesCare, error) {
	var (
		s    SpeciesCare
		desc sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, especie, descripcion FROM cuidados_especie WHERE user_id = ? AND especie = ?",
		userID, especie).Scan(&s.ID, &s.UserID, &s.Especie, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Descripcion = strPtr(desc)
	return &s, nil
}

// Upsert creates a care card or, when one exists for the (user, species)
// pair, replaces its description.  The composite unique key makes this a
// single atomic statement.  The resulting row is returned.
func (r *SpeciesRepo) Upsert(ctx context.Context, userID uint64, especie string, descripcion *string) (*SpeciesCare, error) {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO cuidados_especie (user_id, especie, descripcion)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE descripcion = VALUES(descripcion)`,
		userID, especie, descripcion); err != nil {
		return nil, err
	}
	return r.GetByUserSpecies(ctx, userID, especie)
}

// Update rewrites a card by id, owner-scoped.  Renaming a card onto a
// species that already has one yields ErrConflict.
func (r *SpeciesRepo) Update(ctx context.Context, id, userID uint64, especie string, descripcion *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cuidados_especie SET especie = ?, descripcion = ? WHERE id = ? AND user_id = ?",
		especie, descripcion, id, userID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a card by id, owner-scoped; ErrNotFound when no owned row
// matched.
func (r *SpeciesRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM cuidados_especie WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUserSpecies removes the card for a species, owner-scoped.
func (r *SpeciesRepo) DeleteByUserSpecies(ctx context.Context, userID uint64, especie string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM cuidados_especie WHERE user_id = ? AND especie = ?", userID, especie)
	return err
}
