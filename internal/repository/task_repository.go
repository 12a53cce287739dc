package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Task mirrors the 'tareas_pendientes' table.
type Task struct {
	ID            uint64  `json:"id"`
	BonsaiID      uint64  `json:"bonsai_id"`
	Descripcion   string  `json:"descripcion"`
	Completada    bool    `json:"completada"`
	FechaCreacion string  `json:"fecha_creacion"`
	FechaLimite   *string `json:"fecha_limite"`
	Observaciones *string `json:"observaciones"`
}

// DueTask is a pending task at or past its due date, for notifications.
type DueTask struct {
	Descripcion  string  `json:"descripcion"`
	FechaLimite  *string `json:"fecha_limite"`
	BonsaiNombre *string `json:"bonsai_nombre"`
	BonsaiID     uint64  `json:"bonsai_id"`
	OwnerID      uint64  `json:"-"`
}

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskCols = "id, bonsai_id, descripcion, completada, fecha_creacion, fecha_limite, observaciones"

func scanTask(scan func(dest ...any) error) (*Task, error) {
	var (
		t        Task
		creacion sql.NullTime
		limite   sql.NullTime
		obs      sql.NullString
	)
	if err := scan(&t.ID, &t.BonsaiID, &t.Descripcion, &t.Completada, &creacion, &limite, &obs); err != nil {
		return nil, err
	}
	if s := dateTimeStr(creacion); s != nil {
		t.FechaCreacion = *s
	}
	t.FechaLimite = dateStr(limite)
	t.Observaciones = strPtr(obs)
	return &t, nil
}

// ListByBonsai returns a bonsai's tasks, open ones first, newest first.
func (r *TaskRepo) ListByBonsai(ctx context.Context, bonsaiID uint64) ([]*Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskCols+" FROM tareas_pendientes WHERE bonsai_id = ? ORDER BY completada ASC, fecha_creacion DESC",
		bonsaiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get fetches one task by id.
func (r *TaskRepo) Get(ctx context.Context, id uint64) (*Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM tareas_pendientes WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// Create inserts a pending task dated now and returns it.
func (r *TaskRepo) Create(ctx context.Context, bonsaiID uint64, descripcion string, fechaLimite, observaciones *string) (*Task, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tareas_pendientes (bonsai_id, descripcion, fecha_creacion, fecha_limite, observaciones)
		 VALUES (?, ?, UTC_TIMESTAMP(), ?, ?)`,
		bonsaiID, descripcion, fechaLimite, observaciones)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, uint64(id))
}

// SetCompleted flips the completed flag and returns the updated row.
func (r *TaskRepo) SetCompleted(ctx context.Context, id uint64, done bool) (*Task, error) {
	// The follow-up Get returns the row and turns a missing id into
	// ErrNotFound.
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE tareas_pendientes SET completada = ? WHERE id = ?", done, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes a pending task.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tareas_pendientes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Owner resolves the owning user (and their role) of a task through its
// bonsai, for permission checks on delete.
func (r *TaskRepo) Owner(ctx context.Context, id uint64) (ownerID uint64, ownerRole string, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT b.user_id, u.role
		 FROM tareas_pendientes tp
		 JOIN bonsais b ON tp.bonsai_id = b.id
		 JOIN users u ON b.user_id = u.id
		 WHERE tp.id = ?`, id).Scan(&ownerID, &ownerRole)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	return ownerID, ownerRole, err
}

// MoveToHistory converts a pending task into a work-log entry dated today.
// The task description must match an existing technique name
// (case-insensitively); otherwise a TechniqueNotFoundError naming the missing
// technique is returned so the caller can create it first.  The insert, the
// task deletion and the bonsai's last-worked-date update happen in one
// transaction: either the task is fully converted or nothing changes.
func (r *TaskRepo) MoveToHistory(ctx context.Context, id uint64) (workLogID uint64, err error) {
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

	var (
		bonsaiID uint64
		desc     string
		obs      sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		"SELECT bonsai_id, descripcion, observaciones FROM tareas_pendientes WHERE id = ?", id).
		Scan(&bonsaiID, &desc, &obs)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	var trabajoID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM trabajos WHERE LOWER(tipo_trabajo) = LOWER(?)", desc).Scan(&trabajoID)
	if errors.Is(err, sql.ErrNoRows) {
		err = &TechniqueNotFoundError{Name: desc}
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	fecha := Today()
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		"INSERT INTO trabajos_bonsai (bonsai_id, trabajo_id, fecha, observaciones) VALUES (?, ?, ?, ?)",
		bonsaiID, trabajoID, fecha, obs)
	if err != nil {
		return 0, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM tareas_pendientes WHERE id = ?", id); err != nil {
		return 0, err
	}
	if err = setLastWorked(ctx, tx, bonsaiID, &fecha); err != nil {
		return 0, err
	}
	return uint64(lastID), nil
}

// DueEvents returns calendar entries for open tasks with a due date.
func (r *TaskRepo) DueEvents(ctx context.Context) ([]CalendarEvent, error) {
	const q = `SELECT tp.fecha_limite, b.nombre, tp.descripcion, b.id, b.user_id
		FROM tareas_pendientes tp
		JOIN bonsais b ON tp.bonsai_id = b.id
		WHERE tp.fecha_limite IS NOT NULL AND tp.completada = false`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CalendarEvent{}
	for rows.Next() {
		var (
			fecha  sql.NullTime
			nombre sql.NullString
			desc   string
			bID    uint64
			owner  uint64
		)
		if err := rows.Scan(&fecha, &nombre, &desc, &bID, &owner); err != nil {
			return nil, err
		}
		out = append(out, newCalendarEvent(eventKindTask, fecha, nombre.String, desc, bID, owner))
	}
	return out, rows.Err()
}

// Due returns open tasks due today or earlier.  A nil owner lists them for
// every user (moderator view); otherwise results are scoped to that owner.
func (r *TaskRepo) Due(ctx context.Context, owner *uint64) ([]DueTask, error) {
	q := `SELECT tp.descripcion, tp.fecha_limite, b.nombre, b.id, b.user_id
		FROM tareas_pendientes tp
		JOIN bonsais b ON tp.bonsai_id = b.id
		WHERE tp.completada = false
		AND tp.fecha_limite IS NOT NULL
		AND tp.fecha_limite <= CURDATE()`
	args := []any{}
	if owner != nil {
		q += " AND b.user_id = ?"
		args = append(args, *owner)
	}
	q += " ORDER BY tp.fecha_limite ASC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DueTask{}
	for rows.Next() {
		var (
			t      DueTask
			limite sql.NullTime
			nombre sql.NullString
		)
		if err := rows.Scan(&t.Descripcion, &limite, &nombre, &t.BonsaiID, &t.OwnerID); err != nil {
			return nil, err
		}
		t.FechaLimite = dateStr(limite)
		t.BonsaiNombre = strPtr(nombre)
		out = append(out, t)
	}
	return out, rows.Err()
}
