package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Pot mirrors the 'macetas' table.  The libre flag is derived state: it is
// true exactly when bonsai_id is NULL, and every write path below keeps the
// two in lockstep.
type Pot struct {
	ID           uint64  `json:"id"`
	Foto         *string `json:"foto"`
	Ancho        *string `json:"ancho"`
	Largo        *string `json:"largo"`
	Profundo     *string `json:"profundo"`
	Libre        bool    `json:"libre"`
	BonsaiID     *uint64 `json:"bonsai_id"`
	UserID       uint64  `json:"user_id"`
	BonsaiNombre *string `json:"bonsai_nombre,omitempty"` // joined in listings
}

type PotRepo struct{ DB *sql.DB }

func NewPotRepo(db *sql.DB) *PotRepo { return &PotRepo{DB: db} }

// ListByOwner returns a user's pots, newest first, with the assigned
// bonsai's name joined in.
func (r *PotRepo) ListByOwner(ctx context.Context, userID uint64) ([]*Pot, error) {
	const q = `SELECT m.id, m.foto, m.ancho, m.largo, m.profundo, m.libre, m.bonsai_id, m.user_id, b.nombre
	FROM macetas m
	LEFT JOIN bonsais b ON m.bonsai_id = b.id
	WHERE m.user_id = ? ORDER BY m.id DESC`

	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Pot{}
	for rows.Next() {
		var (
			p      Pot
			foto   sql.NullString
			ancho  sql.NullString
			largo  sql.NullString
			prof   sql.NullString
			bonsai sql.NullInt64
			nombre sql.NullString
		)
		if err := rows.Scan(&p.ID, &foto, &ancho, &largo, &prof, &p.Libre, &bonsai, &p.UserID, &nombre); err != nil {
			return nil, err
		}
		p.Foto = strPtr(foto)
		p.Ancho = strPtr(ancho)
		p.Largo = strPtr(largo)
		p.Profundo = strPtr(prof)
		p.BonsaiID = u64Ptr(bonsai)
		p.BonsaiNombre = strPtr(nombre)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Get fetches one pot by id.
func (r *PotRepo) Get(ctx context.Context, id uint64) (*Pot, error) {
	var (
		p      Pot
		foto   sql.NullString
		ancho  sql.NullString
		largo  sql.NullString
		prof   sql.NullString
		bonsai sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, foto, ancho, largo, profundo, libre, bonsai_id, user_id FROM macetas WHERE id = ?", id).
		Scan(&p.ID, &foto, &ancho, &largo, &prof, &p.Libre, &bonsai, &p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Foto = strPtr(foto)
	p.Ancho = strPtr(ancho)
	p.Largo = strPtr(largo)
	p.Profundo = strPtr(prof)
	p.BonsaiID = u64Ptr(bonsai)
	return &p, nil
}

// Create inserts a free pot and returns its id.
func (r *PotRepo) Create(ctx context.Context, p *Pot) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO macetas (ancho, largo, profundo, foto, user_id) VALUES (?, ?, ?, ?, ?)",
		p.Ancho, p.Largo, p.Profundo, p.Foto, p.UserID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update rewrites a pot and reassigns it.  When the pot is being assigned to
// a bonsai, any other pot pointing at that bonsai is freed in the same
// transaction, keeping the one-pot-per-bonsai rule intact even under
// concurrent reassignments.  The libre flag is derived from the assignment.
func (r *PotRepo) Update(ctx context.Context, p *Pot) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if p.BonsaiID != nil {
		if _, err = tx.ExecContext(ctx,
			"UPDATE macetas SET bonsai_id = NULL, libre = true WHERE bonsai_id = ? AND id != ?",
			*p.BonsaiID, p.ID); err != nil {
			return err
		}
	}

	libre := p.BonsaiID == nil
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		"UPDATE macetas SET ancho=?, largo=?, profundo=?, foto=?, bonsai_id=?, libre=? WHERE id=? AND user_id=?",
		p.Ancho, p.Largo, p.Profundo, p.Foto, p.BonsaiID, libre, p.ID, p.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	p.Libre = libre
	return nil
}

// Delete removes a pot.
func (r *PotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM macetas WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
