package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmforte/bonsai-registry/internal/auth"
	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

const ownerSelect = `SELECT b.user_id, u.role, b.foto FROM bonsais b JOIN users u ON b.user_id = u.id WHERE b.id = ?`

// authedRequest builds a context carrying an authenticated identity, the way
// the JWT middleware leaves it.
func authedRequest(method, target string, id auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("identity", id)
	return c, rec
}

func TestBonsaiDeleteModeratorBlockedOnAdminRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)
	h := NewBonsaiHandler(repository.NewBonsaiRepo(db), repository.NewUserRepo(db), store)

	mock.ExpectQuery(regexp.QuoteMeta(ownerSelect)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "foto"}).AddRow(1, "admin", nil))

	c, rec := authedRequest(http.MethodDelete, "/api/bonsais/5", auth.Identity{ID: 20, Role: auth.RoleModerator})
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBonsaiDeleteModeratorAllowedOnUserRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)
	h := NewBonsaiHandler(repository.NewBonsaiRepo(db), repository.NewUserRepo(db), store)

	mock.ExpectQuery(regexp.QuoteMeta(ownerSelect)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "role", "foto"}).AddRow(7, "user", nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT foto FROM bonsais WHERE id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"foto"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT foto_antes, foto_despues FROM trabajos_bonsai WHERE bonsai_id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"foto_antes", "foto_despues"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE macetas SET bonsai_id = NULL, libre = true WHERE bonsai_id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bonsais WHERE id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := authedRequest(http.MethodDelete, "/api/bonsais/5", auth.Identity{ID: 20, Role: auth.RoleModerator})
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBonsaiUpdateLeavesLastWorkedDateAlone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)
	h := NewBonsaiHandler(repository.NewBonsaiRepo(db), repository.NewUserRepo(db), store)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT foto FROM bonsais WHERE id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"foto"}).AddRow("/uploads/old.jpg"))
	// The statement must not touch fecha_ultimo_trabajo; only the work-log
	// helpers write that column.
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE bonsais SET nombre=?, especie=?, edad=?, foto=?, procedencia=?, abono_id=?
		 WHERE id=? AND user_id=?`)).
		WithArgs("Pino", nil, nil, "/uploads/old.jpg", nil, nil, 7, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/bonsais/7", strings.NewReader("nombre=Pino"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("identity", auth.Identity{ID: 8, Role: auth.RoleUser})
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBonsaiGetStrangerDenied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)
	h := NewBonsaiHandler(repository.NewBonsaiRepo(db), repository.NewUserRepo(db), store)

	detailCols := []string{
		"id", "nombre", "especie", "edad", "procedencia", "fecha_ultimo_trabajo", "foto", "user_id", "abono_id",
		"m_id", "m_ancho", "m_largo", "m_profundo", "a_nombre",
	}
	mock.ExpectQuery("SELECT .+ FROM bonsais b").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow(5, "Olmo", "Ulmus", 12, nil, nil, nil, 7, nil, nil, nil, nil, nil, nil))

	c, rec := authedRequest(http.MethodGet, "/api/bonsais/5", auth.Identity{ID: 8, Role: auth.RoleUser})
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
