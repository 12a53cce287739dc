package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/repository"
)

// TechniqueHandler serves the shared technique catalog. Write access for
// moderators is cut off at the router; everyone else may curate the list.
type TechniqueHandler struct {
	Techniques *repository.TechniqueRepo
}

func NewTechniqueHandler(t *repository.TechniqueRepo) *TechniqueHandler {
	return &TechniqueHandler{Techniques: t}
}

type techniqueReq struct {
	TipoTrabajo string  `json:"tipo_trabajo"`
	Fecha       *string `json:"fecha"`
}

// List returns every technique, newest first.
func (h *TechniqueHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Techniques.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list techniques failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a technique; names are unique across the catalog.
func (h *TechniqueHandler) Create(c echo.Context) error {
	var req techniqueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TipoTrabajo = strings.TrimSpace(req.TipoTrabajo)
	if req.TipoTrabajo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tipo_trabajo required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Techniques.Create(ctx, req.TipoTrabajo, req.Fecha)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "technique already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create technique failed"})
	}
	return c.JSON(http.StatusCreated, repository.Technique{ID: id, TipoTrabajo: req.TipoTrabajo, Fecha: req.Fecha})
}

// Update renames a technique or changes its date.
func (h *TechniqueHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req techniqueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TipoTrabajo = strings.TrimSpace(req.TipoTrabajo)
	if req.TipoTrabajo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tipo_trabajo required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Techniques.Update(ctx, id, req.TipoTrabajo, req.Fecha); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "technique already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update technique failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "technique updated"})
}

// Delete removes a technique from the catalog.
func (h *TechniqueHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Techniques.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete technique failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "technique deleted"})
}
