package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/policy"
	"github.com/jmforte/bonsai-registry/internal/repository"
)

// PotHandler serves the pot endpoints. Assignment changes run through the
// repository's reassign transaction so a bonsai never keeps two pots.
type PotHandler struct {
	Pots  *repository.PotRepo
	Users *repository.UserRepo
	Media *media.Store
}

func NewPotHandler(p *repository.PotRepo, u *repository.UserRepo, m *media.Store) *PotHandler {
	return &PotHandler{Pots: p, Users: u, Media: m}
}

// List returns the caller's pots with assigned bonsai names joined in.
func (h *PotHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Pots.ListByOwner(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list pots failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Create registers a free pot for the caller.
func (h *PotHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	p := repository.Pot{
		UserID:   id.ID,
		Ancho:    formStr(c, "ancho"),
		Largo:    formStr(c, "largo"),
		Profundo: formStr(c, "profundo"),
		Libre:    true,
	}
	if fh, err := formFile(c, "foto"); err != nil {
		return err
	} else if fh != nil {
		path, err := h.Media.Save(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
		}
		p.Foto = &path
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	potID, err := h.Pots.Create(ctx, &p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pot failed"})
	}
	p.ID = potID
	return c.JSON(http.StatusCreated, p)
}

// Update rewrites a pot the caller owns and reassigns it. Sending an empty
// bonsai_id frees the pot; sending one steals the bonsai from whichever pot
// held it before.
func (h *PotHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	potID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	current, err := h.Pots.Get(ctx, potID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update pot failed"})
	}
	if err := policy.Authorize(policy.Pot, policy.Write, id, policy.Target{OwnerID: current.UserID}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	bonsaiID, err := formUint(c, "bonsai_id")
	if err != nil {
		return err
	}
	p := repository.Pot{
		ID:       potID,
		UserID:   current.UserID,
		Ancho:    formStr(c, "ancho"),
		Largo:    formStr(c, "largo"),
		Profundo: formStr(c, "profundo"),
		Foto:     current.Foto,
		BonsaiID: bonsaiID,
	}

	var oldFoto *string
	if fh, err := formFile(c, "foto"); err != nil {
		return err
	} else if fh != nil {
		path, err := h.Media.Save(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store photo failed"})
		}
		oldFoto = current.Foto
		p.Foto = &path
	}

	if err := h.Pots.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update pot failed"})
	}
	if oldFoto != nil && (p.Foto == nil || *oldFoto != *p.Foto) {
		h.Media.Remove(*oldFoto)
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a pot and its photo.
func (h *PotHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	potID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	current, err := h.Pots.Get(ctx, potID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete pot failed"})
	}
	ownerRole, err := h.Users.GetRole(ctx, current.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete pot failed"})
	}
	if err := policy.Authorize(policy.Pot, policy.Delete, id, policy.Target{OwnerID: current.UserID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if err := h.Pots.Delete(ctx, potID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete pot failed"})
	}
	if current.Foto != nil {
		h.Media.Remove(*current.Foto)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pot deleted"})
}
