package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/auth"
	"github.com/jmforte/bonsai-registry/internal/config"
	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

// ProfileHandler serves the caller's own account endpoints.
type ProfileHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Media *media.Store
}

func NewProfileHandler(cfg config.Config, u *repository.UserRepo, m *media.Store) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: u, Media: m}
}

type profileResp struct {
	ID         uint64  `json:"id"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Status     string  `json:"status"`
	FotoPerfil *string `json:"foto_perfil"`
}

// Get returns the caller's account row.
func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get profile failed"})
	}
	return c.JSON(http.StatusOK, profileResp{ID: u.ID, Email: u.Email, Role: u.Role, Status: u.Status, FotoPerfil: u.FotoPerfil})
}

// UpdatePhoto replaces the caller's profile photo and deletes the old file.
// A fresh token is returned because the photo path travels in the claims.
func (h *ProfileHandler) UpdatePhoto(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	fh, err := formFile(c, "foto")
	if err != nil {
		return err
	}
	if fh == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "foto required"})
	}

	path, err := h.Media.Save(fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	old, err := h.Users.UpdatePhoto(ctx, id.ID, path)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update photo failed"})
	}
	if old != nil && *old != path {
		h.Media.Remove(*old)
	}

	token, err := auth.NewToken(h.Cfg.JWTSecret, id.ID, id.Email, id.Role, &path)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"foto_perfil": path, "token": token})
}
