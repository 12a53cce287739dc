package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/auth"
	"github.com/jmforte/bonsai-registry/internal/config"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

// AuthHandler bundles dependencies for the register and login endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResp struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

type loginResp struct {
	ID         uint64  `json:"id"`
	Role       string  `json:"role"`
	Email      string  `json:"email"`
	FotoPerfil *string `json:"foto_perfil"`
	Token      string  `json:"token"`
}

// Register creates an account.  New accounts start as pending users and must
// be approved before they can log in; the configured bootstrap email is the
// exception and becomes an approved admin right away.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// Pre-check gives the common duplicate a clean 409; the unique index
	// catches the race.
	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	role, status := auth.RoleUser, auth.StatusPending
	if req.Email == strings.ToLower(strings.TrimSpace(h.Cfg.BootstrapAdmin)) {
		role, status = auth.RoleAdmin, auth.StatusApproved
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	uid, err := h.Users.Create(ctx, req.Email, hash, role, status)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, registerResp{ID: uid, Email: req.Email})
}

// Login verifies credentials and issues the session token.  Unknown email
// and wrong password produce the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	// Admins skip the approval gate so the bootstrap account can always get
	// in and approve the rest.
	if u.Role != auth.RoleAdmin && u.Status != auth.StatusApproved {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account pending approval"})
	}

	token, err := auth.NewToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, u.FotoPerfil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, loginResp{
		ID:         u.ID,
		Role:       u.Role,
		Email:      u.Email,
		FotoPerfil: u.FotoPerfil,
		Token:      token,
	})
}
