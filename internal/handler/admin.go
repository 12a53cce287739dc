package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/auth"
	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

// AdminHandler serves the user-administration panel. Every route sits
// behind the admin-role middleware; admin rows themselves are untouchable
// so admins cannot demote or delete each other.
type AdminHandler struct {
	Users   *repository.UserRepo
	Bonsais *repository.BonsaiRepo
	Media   *media.Store
}

func NewAdminHandler(u *repository.UserRepo, b *repository.BonsaiRepo, m *media.Store) *AdminHandler {
	return &AdminHandler{Users: u, Bonsais: b, Media: m}
}

// Stats returns the panel's headline numbers.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	bonsais, err := h.Bonsais.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"totalUsers": users, "totalBonsais": bonsais})
}

// ListUsers returns every account except the caller's own.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Users.ListOthers(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// guardTarget loads the target user's role and rejects operations against
// admin rows.
func (h *AdminHandler) guardTarget(c echo.Context) (uint64, error) {
	targetID, err := pathID(c, "id")
	if err != nil {
		return 0, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	role, err := h.Users.GetRole(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "load user failed")
	}
	if role == auth.RoleAdmin {
		return 0, echo.NewHTTPError(http.StatusForbidden, "cannot modify an admin account")
	}
	return targetID, nil
}

// refreshedList re-reads the user list after a mutation so the panel can
// re-render without a second request.
func (h *AdminHandler) refreshedList(c echo.Context, callerID uint64) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Users.ListOthers(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, out)
}

type userStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus approves or suspends an account.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req userStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !auth.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	targetID, err := h.guardTarget(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateStatus(ctx, targetID, req.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	return h.refreshedList(c, id.ID)
}

type userRoleReq struct {
	Role string `json:"role"`
}

// UpdateRole promotes or demotes an account.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req userRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !auth.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	targetID, err := h.guardTarget(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, targetID, req.Role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	return h.refreshedList(c, id.ID)
}

// DeleteUser removes an account together with its media files. Bonsais,
// pots, tasks and work logs cascade in the database.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	targetID, err := h.guardTarget(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	paths, err := h.Users.MediaPaths(ctx, targetID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if err := h.Users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	h.Media.RemoveAll(paths)
	return h.refreshedList(c, id.ID)
}
