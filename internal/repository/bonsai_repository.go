// Bonsai rows are the center of the schema: tasks, work logs, pots and
// species cards all hang off them.  The repository keeps the denormalized
// fecha_ultimo_trabajo column in sync through the work-log repository's
// helpers; nothing here writes it directly.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Bonsai mirrors the 'bonsais' table.
type Bonsai struct {
	ID                 uint64  `json:"id"`
	Nombre             *string `json:"nombre"`
	Especie            *string `json:"especie"`
	Edad               *int    `json:"edad"`
	Procedencia        *string `json:"procedencia"`
	FechaUltimoTrabajo *string `json:"fecha_ultimo_trabajo"`
	Foto               *string `json:"foto"`
	UserID             uint64  `json:"user_id"`
	AbonoID            *uint64 `json:"abono_id"`
	OwnerEmail         *string `json:"owner_email,omitempty"` // joined for moderators/admins, nil otherwise
}

// BonsaiDetail adds the joined pot dimensions and fertilizer name used by
// the detail view.
type BonsaiDetail struct {
	Bonsai
	MacetaID       *uint64 `json:"maceta_id"`
	MacetaAncho    *string `json:"maceta_ancho"`
	MacetaLargo    *string `json:"maceta_largo"`
	MacetaProfundo *string `json:"maceta_profundo"`
	AbonoNombre    *string `json:"abono_nombre"`
}

type BonsaiRepo struct{ DB *sql.DB }

func NewBonsaiRepo(db *sql.DB) *BonsaiRepo { return &BonsaiRepo{DB: db} }

const bonsaiCols = "b.id, b.nombre, b.especie, b.edad, b.procedencia, b.fecha_ultimo_trabajo, b.foto, b.user_id, b.abono_id"

func scanBonsai(scan func(dest ...any) error, withOwner bool) (*Bonsai, error) {
	var (
		b       Bonsai
		nombre  sql.NullString
		especie sql.NullString
		edad    sql.NullInt64
		proc    sql.NullString
		fecha   sql.NullTime
		foto    sql.NullString
		abono   sql.NullInt64
		owner   sql.NullString
	)
	dest := []any{&b.ID, &nombre, &especie, &edad, &proc, &fecha, &foto, &b.UserID, &abono}
	if withOwner {
		dest = append(dest, &owner)
	}
	if err := scan(dest...); err != nil {
		return nil, err
	}
	b.Nombre = strPtr(nombre)
	b.Especie = strPtr(especie)
	if edad.Valid {
		v := int(edad.Int64)
		b.Edad = &v
	}
	b.Procedencia = strPtr(proc)
	b.FechaUltimoTrabajo = dateStr(fecha)
	b.Foto = strPtr(foto)
	b.AbonoID = u64Ptr(abono)
	b.OwnerEmail = strPtr(owner)
	return &b, nil
}

// ListByOwner returns the bonsais belonging to one user.
func (r *BonsaiRepo) ListByOwner(ctx context.Context, userID uint64) ([]*Bonsai, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bonsaiCols+" FROM bonsais b WHERE b.user_id = ? ORDER BY b.id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Bonsai{}
	for rows.Next() {
		b, err := scanBonsai(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListAllWithOwner returns every bonsai with the owner's email joined in,
// for the moderator view.
func (r *BonsaiRepo) ListAllWithOwner(ctx context.Context) ([]*Bonsai, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bonsaiCols+", u.email FROM bonsais b JOIN users u ON b.user_id = u.id ORDER BY b.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Bonsai{}
	for rows.Next() {
		b, err := scanBonsai(rows.Scan, true)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetDetail fetches one bonsai with its assigned pot's dimensions and the
// fertilizer name, as the detail page shows them.
func (r *BonsaiRepo) GetDetail(ctx context.Context, id uint64) (*BonsaiDetail, error) {
	const q = `SELECT ` + bonsaiCols + `,
		m.id, m.ancho, m.largo, m.profundo, a.nombre
	FROM bonsais b
	LEFT JOIN macetas m ON b.id = m.bonsai_id
	LEFT JOIN abonos a ON b.abono_id = a.id
	WHERE b.id = ?`

	var (
		d       BonsaiDetail
		nombre  sql.NullString
		especie sql.NullString
		edad    sql.NullInt64
		proc    sql.NullString
		fecha   sql.NullTime
		foto    sql.NullString
		abono   sql.NullInt64
		mID     sql.NullInt64
		mAncho  sql.NullString
		mLargo  sql.NullString
		mProf   sql.NullString
		aNombre sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &nombre, &especie, &edad, &proc, &fecha, &foto, &d.UserID, &abono,
		&mID, &mAncho, &mLargo, &mProf, &aNombre)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Nombre = strPtr(nombre)
	d.Especie = strPtr(especie)
	if edad.Valid {
		v := int(edad.Int64)
		d.Edad = &v
	}
	d.Procedencia = strPtr(proc)
	d.FechaUltimoTrabajo = dateStr(fecha)
	d.Foto = strPtr(foto)
	d.AbonoID = u64Ptr(abono)
	d.MacetaID = u64Ptr(mID)
	d.MacetaAncho = strPtr(mAncho)
	d.MacetaLargo = strPtr(mLargo)
	d.MacetaProfundo = strPtr(mProf)
	d.AbonoNombre = strPtr(aNombre)
	return &d, nil
}

// Owner returns the owning user id, that user's role and the bonsai's photo
// path.  It backs permission checks and photo cleanup on delete.
func (r *BonsaiRepo) Owner(ctx context.Context, id uint64) (ownerID uint64, ownerRole string, foto *string, err error) {
	var f sql.NullString
	err = r.DB.QueryRowContext(ctx,
		`SELECT b.user_id, u.role, b.foto FROM bonsais b JOIN users u ON b.user_id = u.id WHERE b.id = ?`,
		id).Scan(&ownerID, &ownerRole, &f)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil, ErrNotFound
	}
	return ownerID, ownerRole, strPtr(f), err
}

// SpeciesOwned returns the species of a bonsai owned by the given user, or
// ErrNotFound when the bonsai does not exist or belongs to someone else.
func (r *BonsaiRepo) SpeciesOwned(ctx context.Context, id, userID uint64) (string, error) {
	var especie sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT especie FROM bonsais WHERE id = ? AND user_id = ?", id, userID).Scan(&especie)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return especie.String, err
}

// Create inserts a bonsai and returns its id.
func (r *BonsaiRepo) Create(ctx context.Context, b *Bonsai) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bonsais (nombre, especie, edad, fecha_ultimo_trabajo, foto, user_id, procedencia, abono_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Nombre, b.Especie, b.Edad, b.FechaUltimoTrabajo, b.Foto, b.UserID, b.Procedencia, b.AbonoID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update rewrites a bonsai's editable attributes.  fecha_ultimo_trabajo is
// deliberately not in the statement; the work-log helpers own that column.
// The statement is owner-scoped; no matching row means not found (or not
// owned).
func (r *BonsaiRepo) Update(ctx context.Context, b *Bonsai) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bonsais SET nombre=?, especie=?, edad=?, foto=?, procedencia=?, abono_id=?
		 WHERE id=? AND user_id=?`,
		b.Nombre, b.Especie, b.Edad, b.Foto, b.Procedencia, b.AbonoID, b.ID, b.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Photo returns the stored photo path of a bonsai.
func (r *BonsaiRepo) Photo(ctx context.Context, id uint64) (*string, error) {
	var f sql.NullString
	err := r.DB.QueryRowContext(ctx, "SELECT foto FROM bonsais WHERE id = ?", id).Scan(&f)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return strPtr(f), err
}

// MediaPaths collects the bonsai photo plus all of its work-log photos so a
// delete can clean up the media directory.
func (r *BonsaiRepo) MediaPaths(ctx context.Context, id uint64) ([]*string, error) {
	var out []*string

	var foto sql.NullString
	if err := r.DB.QueryRowContext(ctx, "SELECT foto FROM bonsais WHERE id = ?", id).Scan(&foto); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out = append(out, strPtr(foto))

	rows, err := r.DB.QueryContext(ctx,
		"SELECT foto_antes, foto_despues FROM trabajos_bonsai WHERE bonsai_id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var antes, despues sql.NullString
		if err := rows.Scan(&antes, &despues); err != nil {
			return nil, err
		}
		out = append(out, strPtr(antes), strPtr(despues))
	}
	return out, rows.Err()
}

// Delete removes a bonsai.  Tasks and work logs cascade at the database
// level.  Any pot assigned to the bonsai is explicitly freed first, in the
// same transaction, so the libre flag stays consistent with the cleared
// reference.
func (r *BonsaiRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"UPDATE macetas SET bonsai_id = NULL, libre = true WHERE bonsai_id = ?", id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM bonsais WHERE id = ?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// Count returns the total number of bonsais, for the admin stats endpoint.
func (r *BonsaiRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM bonsais").Scan(&n)
	return n, err
}

// DistinctSpecies lists every species in use, for the gallery filters.
func (r *BonsaiRepo) DistinctSpecies(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT especie FROM bonsais WHERE especie IS NOT NULL ORDER BY especie ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
