package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/repository"
)

// FertilizerHandler serves the per-user fertilizer endpoints.
type FertilizerHandler struct {
	Fertilizers *repository.FertilizerRepo
}

func NewFertilizerHandler(f *repository.FertilizerRepo) *FertilizerHandler {
	return &FertilizerHandler{Fertilizers: f}
}

type fertilizerReq struct {
	Nombre        string  `json:"nombre"`
	Tipo          *string `json:"tipo"`
	Observaciones *string `json:"observaciones"`
}

// List returns the caller's fertilizers ordered by name.
func (h *FertilizerHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Fertilizers.ListByOwner(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list fertilizers failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a fertilizer for the caller.
func (h *FertilizerHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req fertilizerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	if req.Nombre == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f := repository.Fertilizer{Nombre: req.Nombre, Tipo: req.Tipo, Observaciones: req.Observaciones, UserID: id.ID}
	fid, err := h.Fertilizers.Create(ctx, &f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create fertilizer failed"})
	}
	f.ID = fid
	return c.JSON(http.StatusCreated, f)
}

// Update rewrites a fertilizer the caller owns.
func (h *FertilizerHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	fid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req fertilizerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	if req.Nombre == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f := repository.Fertilizer{ID: fid, Nombre: req.Nombre, Tipo: req.Tipo, Observaciones: req.Observaciones, UserID: id.ID}
	if err := h.Fertilizers.Update(ctx, &f); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fertilizer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update fertilizer failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Delete removes a fertilizer the caller owns. Bonsais referencing it fall
// back to no fertilizer at the database level.
func (h *FertilizerHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	fid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Fertilizers.Delete(ctx, fid, id.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fertilizer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete fertilizer failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "fertilizer deleted"})
}
