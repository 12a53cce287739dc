package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPotUpdateReassignFreesOtherPot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPotRepo(db)

	bonsaiID := uint64(6)
	ancho := "30"

	mock.ExpectBegin()
	// Whatever pot held bonsai 6 before is released first.
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE macetas SET bonsai_id = NULL, libre = true WHERE bonsai_id = ? AND id != ?")).
		WithArgs(6, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE macetas SET ancho=?, largo=?, profundo=?, foto=?, bonsai_id=?, libre=? WHERE id=? AND user_id=?")).
		WithArgs("30", nil, nil, nil, 6, false, 2, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &Pot{ID: 2, UserID: 7, Ancho: &ancho, BonsaiID: &bonsaiID}
	require.NoError(t, repo.Update(context.Background(), p))
	assert.False(t, p.Libre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPotUpdateUnassignedSkipsRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPotRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE macetas SET ancho=?, largo=?, profundo=?, foto=?, bonsai_id=?, libre=? WHERE id=? AND user_id=?")).
		WithArgs(nil, nil, nil, nil, nil, true, 2, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &Pot{ID: 2, UserID: 7}
	require.NoError(t, repo.Update(context.Background(), p))
	assert.True(t, p.Libre)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPotUpdateNotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPotRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE macetas SET ancho=?, largo=?, profundo=?, foto=?, bonsai_id=?, libre=? WHERE id=? AND user_id=?")).
		WithArgs(nil, nil, nil, nil, nil, true, 2, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Update(context.Background(), &Pot{ID: 2, UserID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
