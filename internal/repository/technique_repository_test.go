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

func TestTechniqueCreateDuplicateName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTechniqueRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM trabajos WHERE tipo_trabajo = ?")).
		WithArgs("Alambrado").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	_, err = repo.Create(context.Background(), "Alambrado", nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTechniqueCreateDuplicateRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTechniqueRepo(db)

	// The pre-check sees nothing but the unique index fires during the
	// insert, the race the pre-check cannot close.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM trabajos WHERE tipo_trabajo = ?")).
		WithArgs("Alambrado").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trabajos (tipo_trabajo, fecha) VALUES (?, ?)")).
		WithArgs("Alambrado", nil).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'Alambrado'"))

	_, err = repo.Create(context.Background(), "Alambrado", nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTechniqueUpdateExcludesSelfFromUniqueCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTechniqueRepo(db)

	fecha := "2026-01-15"
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM trabajos WHERE tipo_trabajo = ? AND id != ?")).
		WithArgs("Alambrado", 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE trabajos SET tipo_trabajo = ?, fecha = ? WHERE id = ?")).
		WithArgs("Alambrado", fecha, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 3, "Alambrado", &fecha))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)")).
		WithArgs("ana@example.com", "hash", "user", "pending").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ana@example.com'"))

	_, err = repo.Create(context.Background(), " Ana@Example.com ", "hash", "user", "pending")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
