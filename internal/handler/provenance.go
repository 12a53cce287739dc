package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/repository"
)

// ProvenanceHandler serves the shared origin-location catalog. The router
// blocks moderator writes and restricts delete to admins.
type ProvenanceHandler struct {
	Provenances *repository.ProvenanceRepo
}

func NewProvenanceHandler(p *repository.ProvenanceRepo) *ProvenanceHandler {
	return &ProvenanceHandler{Provenances: p}
}

type provenanceReq struct {
	Nombre string `json:"nombre"`
}

// List returns every provenance ordered by name.
func (h *ProvenanceHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Provenances.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list provenances failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a provenance; names are unique.
func (h *ProvenanceHandler) Create(c echo.Context) error {
	var req provenanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	if req.Nombre == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Provenances.Create(ctx, req.Nombre)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "provenance already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create provenance failed"})
	}
	return c.JSON(http.StatusCreated, repository.Provenance{ID: id, Nombre: req.Nombre})
}

// Update renames a provenance.
func (h *ProvenanceHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req provenanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	if req.Nombre == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Provenances.Update(ctx, id, req.Nombre); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "provenance already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update provenance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "provenance updated"})
}

// Delete removes a provenance. Admin-only, enforced by the router.
func (h *ProvenanceHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Provenances.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete provenance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "provenance deleted"})
}
