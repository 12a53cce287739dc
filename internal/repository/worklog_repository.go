// Work logs record maintenance performed on a bonsai.  Every mutation that
// touches them is also responsible for the bonsai's denormalized
// fecha_ultimo_trabajo column; the two helpers below are the only code that
// writes it, so create, update, delete and move-to-history cannot drift
// apart.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// WorkLog mirrors the 'trabajos_bonsai' table.
type WorkLog struct {
	ID            uint64
	BonsaiID      uint64
	TrabajoID     uint64
	Fecha         string
	FotoAntes     *string
	FotoDespues   *string
	Observaciones *string
	AbonoID       *uint64
}

// WorkLogRow is the listing projection with the technique and fertilizer
// names joined in.
type WorkLogRow struct {
	ID            uint64  `json:"id"`
	Fecha         string  `json:"fecha"`
	FotoAntes     *string `json:"foto_antes"`
	FotoDespues   *string `json:"foto_despues"`
	TipoTrabajo   string  `json:"tipo_trabajo"`
	TrabajoID     uint64  `json:"trabajo_id"`
	Observaciones *string `json:"observaciones"`
	AbonoID       *uint64 `json:"abono_id"`
	AbonoNombre   *string `json:"abono_nombre"`
}

// WorkLogOwnership backs the permission check and photo cleanup when
// deleting a work log.
type WorkLogOwnership struct {
	FotoAntes   *string
	FotoDespues *string
	BonsaiID    uint64
	OwnerID     uint64
	OwnerRole   string
}

type WorkLogRepo struct{ DB *sql.DB }

func NewWorkLogRepo(db *sql.DB) *WorkLogRepo { return &WorkLogRepo{DB: db} }

// execer covers *sql.DB and *sql.Tx for the shared date helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// setLastWorked writes the denormalized last-worked date of a bonsai.
func setLastWorked(ctx context.Context, q execer, bonsaiID uint64, fecha *string) error {
	_, err := q.ExecContext(ctx,
		"UPDATE bonsais SET fecha_ultimo_trabajo = ? WHERE id = ?", fecha, bonsaiID)
	return err
}

// recomputeLastWorked derives the last-worked date from the most recent work
// log of the bonsai, ignoring excludeID (the row about to be deleted), and
// writes it — NULL when no log remains.  Excluding the row up front means
// the result already reflects the post-deletion state even though the DELETE
// is sequenced afterwards inside the same transaction.
func recomputeLastWorked(ctx context.Context, q execer, bonsaiID, excludeID uint64) error {
	var latest sql.NullTime
	err := q.QueryRowContext(ctx,
		"SELECT fecha FROM trabajos_bonsai WHERE bonsai_id = ? AND id != ? ORDER BY fecha DESC LIMIT 1",
		bonsaiID, excludeID).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return setLastWorked(ctx, q, bonsaiID, dateStr(latest))
}

// ListByBonsai returns a bonsai's history, newest first.
func (r *WorkLogRepo) ListByBonsai(ctx context.Context, bonsaiID uint64) ([]*WorkLogRow, error) {
	const q = `SELECT tb.id, tb.fecha, tb.foto_antes, tb.foto_despues, t.tipo_trabajo,
		tb.trabajo_id, tb.observaciones, tb.abono_id, a.nombre
	FROM trabajos_bonsai tb
	JOIN trabajos t ON tb.trabajo_id = t.id
	LEFT JOIN abonos a ON tb.abono_id = a.id
	WHERE tb.bonsai_id = ?
	ORDER BY tb.fecha DESC, tb.id DESC`

	rows, err := r.DB.QueryContext(ctx, q, bonsaiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*WorkLogRow{}
	for rows.Next() {
		var (
			w      WorkLogRow
			fecha  sql.NullTime
			antes  sql.NullString
			desp   sql.NullString
			obs    sql.NullString
			abono  sql.NullInt64
			nombre sql.NullString
		)
		if err := rows.Scan(&w.ID, &fecha, &antes, &desp, &w.TipoTrabajo, &w.TrabajoID, &obs, &abono, &nombre); err != nil {
			return nil, err
		}
		if s := dateStr(fecha); s != nil {
			w.Fecha = *s
		}
		w.FotoAntes = strPtr(antes)
		w.FotoDespues = strPtr(desp)
		w.Observaciones = strPtr(obs)
		w.AbonoID = u64Ptr(abono)
		w.AbonoNombre = strPtr(nombre)
		out = append(out, &w)
	}
	return out, rows.Err()
}

// Create inserts a work log and advances the bonsai's last-worked date to
// the log's date, in one transaction.
func (r *WorkLogRepo) Create(ctx context.Context, w *WorkLog) (id uint64, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO trabajos_bonsai (bonsai_id, trabajo_id, fecha, foto_antes, foto_despues, observaciones, abono_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.BonsaiID, w.TrabajoID, w.Fecha, w.FotoAntes, w.FotoDespues, w.Observaciones, w.AbonoID)
	if err != nil {
		return 0, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err = setLastWorked(ctx, tx, w.BonsaiID, &w.Fecha); err != nil {
		return 0, err
	}
	return uint64(lastID), nil
}

// CreateFromTask inserts a work log for the bonsai of an existing pending
// task, deletes the task and updates the last-worked date, transactionally.
// Unlike MoveToHistory the caller chooses the technique, date and photos.
func (r *WorkLogRepo) CreateFromTask(ctx context.Context, taskID uint64, w *WorkLog) (id uint64, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = tx.QueryRowContext(ctx,
		"SELECT bonsai_id FROM tareas_pendientes WHERE id = ?", taskID).Scan(&w.BonsaiID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO trabajos_bonsai (bonsai_id, trabajo_id, fecha, foto_antes, foto_despues, observaciones, abono_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.BonsaiID, w.TrabajoID, w.Fecha, w.FotoAntes, w.FotoDespues, w.Observaciones, w.AbonoID)
	if err != nil {
		return 0, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM tareas_pendientes WHERE id = ?", taskID); err != nil {
		return 0, err
	}
	if err = setLastWorked(ctx, tx, w.BonsaiID, &w.Fecha); err != nil {
		return 0, err
	}
	return uint64(lastID), nil
}

// Photos returns the stored photo paths and bonsai of a work log, so an
// update can delete replaced files.
func (r *WorkLogRepo) Photos(ctx context.Context, id uint64) (bonsaiID uint64, antes, despues *string, err error) {
	var a, d sql.NullString
	err = r.DB.QueryRowContext(ctx,
		"SELECT bonsai_id, foto_antes, foto_despues FROM trabajos_bonsai WHERE id = ?", id).
		Scan(&bonsaiID, &a, &d)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil, ErrNotFound
	}
	return bonsaiID, strPtr(a), strPtr(d), err
}

// Update rewrites a work log and refreshes the bonsai's last-worked date to
// the log's (possibly changed) date, in one transaction.
func (r *WorkLogRepo) Update(ctx context.Context, w *WorkLog) (err error) {
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

	_, err = tx.ExecContext(ctx,
		`UPDATE trabajos_bonsai SET trabajo_id=?, fecha=?, foto_antes=?, foto_despues=?, observaciones=?, abono_id=?
		 WHERE id=?`,
		w.TrabajoID, w.Fecha, w.FotoAntes, w.FotoDespues, w.Observaciones, w.AbonoID, w.ID)
	if err != nil {
		return err
	}
	return setLastWorked(ctx, tx, w.BonsaiID, &w.Fecha)
}

// Ownership resolves the photos, bonsai and owner of a work log for the
// delete permission check.
func (r *WorkLogRepo) Ownership(ctx context.Context, id uint64) (*WorkLogOwnership, error) {
	const q = `SELECT tb.foto_antes, tb.foto_despues, tb.bonsai_id, b.user_id, u.role
	FROM trabajos_bonsai tb
	JOIN bonsais b ON tb.bonsai_id = b.id
	JOIN users u ON b.user_id = u.id
	WHERE tb.id = ?`

	var (
		o     WorkLogOwnership
		antes sql.NullString
		desp  sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&antes, &desp, &o.BonsaiID, &o.OwnerID, &o.OwnerRole)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.FotoAntes = strPtr(antes)
	o.FotoDespues = strPtr(desp)
	return &o, nil
}

// Delete removes a work log and recomputes the bonsai's last-worked date
// from the remaining logs — or NULL when none remain — in one transaction.
func (r *WorkLogRepo) Delete(ctx context.Context, id, bonsaiID uint64) (err error) {
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

	if err = recomputeLastWorked(ctx, tx, bonsaiID, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM trabajos_bonsai WHERE id = ?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}
