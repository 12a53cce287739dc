package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/repository"
)

// CalendarHandler serves the unified care calendar and the due-task
// notification counter.
type CalendarHandler struct {
	Logs  *repository.WorkLogRepo
	Tasks *repository.TaskRepo
}

func NewCalendarHandler(l *repository.WorkLogRepo, t *repository.TaskRepo) *CalendarHandler {
	return &CalendarHandler{Logs: l, Tasks: t}
}

// Events merges completed work (green) with open due tasks (red) into one
// event feed. Moderators see every user's events; everyone else their own.
func (h *CalendarHandler) Events(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	done, err := h.Logs.CompletedEvents(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "calendar failed"})
	}
	due, err := h.Tasks.DueEvents(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "calendar failed"})
	}

	all := append(done, due...)
	if id.IsModerator() {
		return c.JSON(http.StatusOK, all)
	}
	own := []repository.CalendarEvent{}
	for _, ev := range all {
		if ev.OwnerID == id.ID {
			own = append(own, ev)
		}
	}
	return c.JSON(http.StatusOK, own)
}

// PendingCount returns the open tasks due today or earlier, plus their
// number for the navbar badge.
func (h *CalendarHandler) PendingCount(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var owner *uint64
	if !id.IsModerator() {
		owner = &id.ID
	}
	tasks, err := h.Tasks.Due(ctx, owner)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pending count failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(tasks), "tareas": tasks})
}
