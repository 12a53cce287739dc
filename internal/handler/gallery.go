package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/repository"
)

// GalleryHandler serves the shared before/after photo gallery.
type GalleryHandler struct {
	Logs    *repository.WorkLogRepo
	Bonsais *repository.BonsaiRepo
	Users   *repository.UserRepo
}

func NewGalleryHandler(l *repository.WorkLogRepo, b *repository.BonsaiRepo, u *repository.UserRepo) *GalleryHandler {
	return &GalleryHandler{Logs: l, Bonsais: b, Users: u}
}

// List returns work logs carrying both photos. Plain users only see their
// own trees; moderators and admins browse the whole collection.
func (h *GalleryHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	f := repository.GalleryFilter{
		Species:   strings.TrimSpace(c.QueryParam("especie")),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: strings.ToUpper(c.QueryParam("sort_order")),
	}
	if !id.IsModerator() && !id.IsAdmin() {
		owner := id.ID
		f.Owner = &owner
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Logs.Gallery(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gallery failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// Filters returns the dropdown values for the gallery page.
func (h *GalleryHandler) Filters(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	species, err := h.Bonsais.DistinctSpecies(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gallery filters failed"})
	}
	emails, err := h.Users.DistinctEmails(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gallery filters failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"especies": species, "usuarios": emails})
}
