package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/repository"
)

// SpeciesHandler serves the per-user species-care cards, both as a flat
// collection and through a bonsai (resolved by the bonsai's species).
type SpeciesHandler struct {
	Species *repository.SpeciesRepo
	Bonsais *repository.BonsaiRepo
}

func NewSpeciesHandler(s *repository.SpeciesRepo, b *repository.BonsaiRepo) *SpeciesHandler {
	return &SpeciesHandler{Species: s, Bonsais: b}
}

type speciesReq struct {
	Especie     string  `json:"especie"`
	Descripcion *string `json:"descripcion"`
}

// List returns the caller's care cards ordered by species.
func (h *SpeciesHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Species.ListByUser(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list species failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Upsert creates the caller's care card for a species, or replaces its
// description when one already exists.
func (h *SpeciesHandler) Upsert(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req speciesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Especie = strings.TrimSpace(req.Especie)
	if req.Especie == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "especie required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	card, err := h.Species.Upsert(ctx, id.ID, req.Especie, req.Descripcion)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save species care failed"})
	}
	return c.JSON(http.StatusCreated, card)
}

// Update rewrites a care card by id.
func (h *SpeciesHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	cardID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req speciesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Especie = strings.TrimSpace(req.Especie)
	if req.Especie == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "especie required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Species.Update(ctx, cardID, id.ID, req.Especie, req.Descripcion); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "species care not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "species care already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update species care failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "species care updated"})
}

// Delete removes a care card by id.
func (h *SpeciesHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	cardID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Species.Delete(ctx, cardID, id.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "species care not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete species care failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "species care deleted"})
}

// bonsaiSpecies resolves a bonsai the caller owns to its species.
func (h *SpeciesHandler) bonsaiSpecies(c echo.Context, userID uint64) (string, error) {
	bonsaiID, err := pathID(c, "id")
	if err != nil {
		return "", err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	especie, err := h.Bonsais.SpeciesOwned(ctx, bonsaiID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", echo.NewHTTPError(http.StatusNotFound, "bonsai not found")
		}
		return "", echo.NewHTTPError(http.StatusInternalServerError, "resolve bonsai failed")
	}
	if especie == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "bonsai has no species")
	}
	return especie, nil
}

// GetForBonsai returns the care card matching a bonsai's species. An
// empty-description stub comes back when no card exists yet, so the detail
// page can render the editor directly.
func (h *SpeciesHandler) GetForBonsai(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	especie, err := h.bonsaiSpecies(c, id.ID)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	card, err := h.Species.GetByUserSpecies(ctx, id.ID, especie)
	if errors.Is(err, repository.ErrNotFound) {
		empty := ""
		return c.JSON(http.StatusOK, repository.SpeciesCare{UserID: id.ID, Especie: especie, Descripcion: &empty})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get species care failed"})
	}
	return c.JSON(http.StatusOK, card)
}

// UpsertForBonsai saves the care card for a bonsai's species.
func (h *SpeciesHandler) UpsertForBonsai(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	especie, err := h.bonsaiSpecies(c, id.ID)
	if err != nil {
		return err
	}
	var req speciesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	card, err := h.Species.Upsert(ctx, id.ID, especie, req.Descripcion)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save species care failed"})
	}
	return c.JSON(http.StatusOK, card)
}

// DeleteForBonsai removes the care card for a bonsai's species.
func (h *SpeciesHandler) DeleteForBonsai(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	especie, err := h.bonsaiSpecies(c, id.ID)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Species.DeleteByUserSpecies(ctx, id.ID, especie); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete species care failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "species care deleted"})
}
