package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkLogCreateAdvancesLastWorked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWorkLogRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO trabajos_bonsai (bonsai_id, trabajo_id, fecha, foto_antes, foto_despues, observaciones, abono_id)`)).
		WithArgs(4, 2, "2026-08-30", nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE bonsais SET fecha_ultimo_trabajo = ? WHERE id = ?")).
		WithArgs("2026-08-30", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), &WorkLog{BonsaiID: 4, TrabajoID: 2, Fecha: "2026-08-30"})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkLogCreateRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWorkLogRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO trabajos_bonsai`)).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), &WorkLog{BonsaiID: 4, TrabajoID: 2, Fecha: "2026-08-30"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkLogDeleteRecomputesFromRemainingLogs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWorkLogRepo(db)

	// The most recent remaining log (excluding the one being deleted) dates
	// the bonsai again.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT fecha FROM trabajos_bonsai WHERE bonsai_id = ? AND id != ? ORDER BY fecha DESC LIMIT 1")).
		WithArgs(4, 9).
		WillReturnRows(sqlmock.NewRows([]string{"fecha"}).AddRow(mustDate(t, "2026-05-01")))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE bonsais SET fecha_ultimo_trabajo = ? WHERE id = ?")).
		WithArgs("2026-05-01", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trabajos_bonsai WHERE id = ?")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 9, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkLogDeleteClearsDateWhenHistoryEmpties(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWorkLogRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT fecha FROM trabajos_bonsai WHERE bonsai_id = ? AND id != ? ORDER BY fecha DESC LIMIT 1")).
		WithArgs(4, 9).
		WillReturnRows(sqlmock.NewRows([]string{"fecha"}))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE bonsais SET fecha_ultimo_trabajo = ? WHERE id = ?")).
		WithArgs(nil, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trabajos_bonsai WHERE id = ?")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 9, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkLogDeleteMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWorkLogRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT fecha FROM trabajos_bonsai")).
		WithArgs(4, 9).
		WillReturnRows(sqlmock.NewRows([]string{"fecha"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bonsais SET fecha_ultimo_trabajo = ? WHERE id = ?")).
		WithArgs(nil, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trabajos_bonsai WHERE id = ?")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Delete(context.Background(), 9, 4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
