package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveToHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepo(db)

	today := Today()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT bonsai_id, descripcion, observaciones FROM tareas_pendientes WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"bonsai_id", "descripcion", "observaciones"}).
			AddRow(3, "Trasplante", "primavera"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM trabajos WHERE LOWER(tipo_trabajo) = LOWER(?)")).
		WithArgs("Trasplante").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO trabajos_bonsai (bonsai_id, trabajo_id, fecha, observaciones) VALUES (?, ?, ?, ?)")).
		WithArgs(3, 8, today, "primavera").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tareas_pendientes WHERE id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE bonsais SET fecha_ultimo_trabajo = ? WHERE id = ?")).
		WithArgs(today, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	logID, err := repo.MoveToHistory(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(21), logID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToHistoryTaskMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT bonsai_id, descripcion, observaciones FROM tareas_pendientes WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"bonsai_id", "descripcion", "observaciones"}))
	mock.ExpectRollback()

	_, err = repo.MoveToHistory(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToHistoryUnknownTechnique(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT bonsai_id, descripcion, observaciones FROM tareas_pendientes WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"bonsai_id", "descripcion", "observaciones"}).
			AddRow(3, "Defoliado parcial", nil))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM trabajos WHERE LOWER(tipo_trabajo) = LOWER(?)")).
		WithArgs("Defoliado parcial").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.MoveToHistory(context.Background(), 5)

	var missing *TechniqueNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Defoliado parcial", missing.Name)
	assert.Contains(t, err.Error(), "Defoliado parcial")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tareas_pendientes WHERE id = ?")).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskListByBonsaiOrdersOpenFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTaskRepo(db)

	created := mustDate(t, "2026-08-20")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, bonsai_id, descripcion, completada, fecha_creacion, fecha_limite, observaciones FROM tareas_pendientes WHERE bonsai_id = ? ORDER BY completada ASC, fecha_creacion DESC")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bonsai_id", "descripcion", "completada", "fecha_creacion", "fecha_limite", "observaciones"}).
			AddRow(1, 3, "Pinzado", false, created, mustDate(t, "2026-09-01"), nil).
			AddRow(2, 3, "Abonado", true, created, nil, "hecho"))

	tasks, err := repo.ListByBonsai(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.False(t, tasks[0].Completada)
	assert.Equal(t, "2026-09-01", *tasks[0].FechaLimite)
	assert.Nil(t, tasks[1].FechaLimite)
	assert.Equal(t, "hecho", *tasks[1].Observaciones)
	assert.NoError(t, mock.ExpectationsWereMet())
}
