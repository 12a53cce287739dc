package handler

import (
	"encoding/json"
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
	"github.com/jmforte/bonsai-registry/internal/config"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		BcryptCost:     4,
		BootstrapAdmin: "root@example.com",
	}
}

func postJSON(target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const userSelect = "SELECT id,email,password_hash,status,role,foto_perfil FROM users WHERE email=? LIMIT 1"
const userInsert = "INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)"

var userCols = []string{"id", "email", "password_hash", "status", "role", "foto_perfil"}

func TestRegisterCreatesPendingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec(regexp.QuoteMeta(userInsert)).
		WithArgs("ana@example.com", sqlmock.AnyArg(), auth.RoleUser, auth.StatusPending).
		WillReturnResult(sqlmock.NewResult(12, 1))

	c, rec := postJSON("/api/register", `{"email":" Ana@Example.com ","password":"pw"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(12), resp["id"])
	assert.Equal(t, "ana@example.com", resp["email"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec(regexp.QuoteMeta(userInsert)).
		WithArgs("root@example.com", sqlmock.AnyArg(), auth.RoleAdmin, auth.StatusApproved).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := postJSON("/api/register", `{"email":"root@example.com","password":"pw"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "ana@example.com", "h", "approved", "user", nil))

	c, rec := postJSON("/api/register", `{"email":"ana@example.com","password":"pw"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterMissingFields(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	c, rec := postJSON("/api/register", `{"email":"ana@example.com"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "ana@example.com", hash, "approved", "user", nil))

	c, rec := postJSON("/api/login", `{"email":"ana@example.com","password":"pw"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(3), resp.ID)
	assert.Equal(t, "user", resp.Role)

	id, err := auth.VerifyToken("test-secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id.ID)
	assert.Equal(t, "user", id.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "ana@example.com", hash, "approved", "user", nil))

	c, rec := postJSON("/api/login", `{"email":"ana@example.com","password":"nope"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmailSameAnswer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	c, rec := postJSON("/api/login", `{"email":"ghost@example.com","password":"pw"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginPendingAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "ana@example.com", hash, "pending", "user", nil))

	c, rec := postJSON("/api/login", `{"email":"ana@example.com","password":"pw"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending approval")
}

func TestLoginAdminSkipsApprovalGate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))

	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(userSelect)).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "root@example.com", hash, "pending", "admin", nil))

	c, rec := postJSON("/api/login", `{"email":"root@example.com","password":"pw"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
