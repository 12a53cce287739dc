package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/policy"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

// BonsaiHandler serves the bonsai collection and detail endpoints.
type BonsaiHandler struct {
	Bonsais *repository.BonsaiRepo
	Users   *repository.UserRepo
	Media   *media.Store
}

func NewBonsaiHandler(b *repository.BonsaiRepo, u *repository.UserRepo, m *media.Store) *BonsaiHandler {
	return &BonsaiHandler{Bonsais: b, Users: u, Media: m}
}

// List returns the caller's bonsais.  Moderators get everyone's, with the
// owner's email joined in so the panel can group them.
func (h *BonsaiHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var out []*repository.Bonsai
	if id.IsModerator() {
		out, err = h.Bonsais.ListAllWithOwner(ctx)
	} else {
		out, err = h.Bonsais.ListByOwner(ctx, id.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bonsais failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one bonsai with its pot and fertilizer joined in.  Elevated
// callers also get the owner's email.
func (h *BonsaiHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	bonsaiID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Bonsais.GetDetail(ctx, bonsaiID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bonsai not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get bonsai failed"})
	}
	if err := policy.Authorize(policy.Bonsai, policy.Read, id, policy.Target{OwnerID: d.UserID}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	if id.IsModerator() || id.IsAdmin() {
		if owner, err := h.Users.GetByID(ctx, d.UserID); err == nil {
			d.OwnerEmail = &owner.Email
		}
	}
	return c.JSON(http.StatusOK, d)
}

// bindBonsaiForm reads the multipart fields shared by create and update.
func bindBonsaiForm(c echo.Context, b *repository.Bonsai) error {
	b.Nombre = formStr(c, "nombre")
	b.Especie = formStr(c, "especie")
	b.Procedencia = formStr(c, "procedencia")
	if v := strings.TrimSpace(c.FormValue("edad")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid edad")
		}
		b.Edad = &n
	}
	abono, err := formUint(c, "abono_id")
	if err != nil {
		return err
	}
	b.AbonoID = abono
	return nil
}

// Create registers a bonsai for the caller, with an optional photo.
func (h *BonsaiHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	b := repository.Bonsai{UserID: id.ID}
	if err := bindBonsaiForm(c, &b); err != nil {
		return err
	}
	if b.Nombre == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre required"})
	}
	if fh, err := formFile(c, "foto"); err != nil {
		return err
	} else if fh != nil {
		p, err := h.Media.Save(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
		}
		b.Foto = &p
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	bonsaiID, err := h.Bonsais.Create(ctx, &b)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create bonsai failed"})
	}
	b.ID = bonsaiID
	return c.JSON(http.StatusCreated, b)
}

// Update rewrites a bonsai the caller owns.  When no new photo is uploaded
// the stored one is kept; when one is, the old file is removed.
func (h *BonsaiHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	bonsaiID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	oldFoto, err := h.Bonsais.Photo(ctx, bonsaiID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bonsai not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update bonsai failed"})
	}

	b := repository.Bonsai{ID: bonsaiID, UserID: id.ID, Foto: oldFoto}
	if err := bindBonsaiForm(c, &b); err != nil {
		return err
	}

	var newFoto *string
	if fh, err := formFile(c, "foto"); err != nil {
		return err
	} else if fh != nil {
		p, err := h.Media.Save(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
		}
		newFoto = &p
		b.Foto = &p
	}

	if err := h.Bonsais.Update(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The row exists (the photo lookup found it), so the owner scope
			// is what failed.
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update bonsai failed"})
	}
	if newFoto != nil && oldFoto != nil && *oldFoto != *newFoto {
		h.Media.Remove(*oldFoto)
	}
	return c.JSON(http.StatusOK, b)
}

// Delete removes a bonsai, its photo and every work-log photo attached to
// it.  Tasks and work logs cascade in the database.
func (h *BonsaiHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	bonsaiID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, _, err := h.Bonsais.Owner(ctx, bonsaiID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bonsai not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bonsai failed"})
	}
	if err := policy.Authorize(policy.Bonsai, policy.Delete, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	paths, err := h.Bonsais.MediaPaths(ctx, bonsaiID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bonsai failed"})
	}
	if err := h.Bonsais.Delete(ctx, bonsaiID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bonsai not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bonsai failed"})
	}
	h.Media.RemoveAll(paths)
	return c.JSON(http.StatusOK, echo.Map{"message": "bonsai deleted"})
}
