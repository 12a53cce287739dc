package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/policy"
	"github.com/jmforte/bonsai-registry/internal/queue"
	"github.com/jmforte/bonsai-registry/internal/repository"
	queue_publisher "github.com/jmforte/bonsai-registry/internal/service"
)

// WorkLogHandler serves the work-history endpoints.
type WorkLogHandler struct {
	Logs    *repository.WorkLogRepo
	Tasks   *repository.TaskRepo
	Bonsais *repository.BonsaiRepo
	Media   *media.Store
}

func NewWorkLogHandler(l *repository.WorkLogRepo, t *repository.TaskRepo, b *repository.BonsaiRepo, m *media.Store) *WorkLogHandler {
	return &WorkLogHandler{Logs: l, Tasks: t, Bonsais: b, Media: m}
}

// publishRecorded fires the worklog.recorded event without blocking the
// response; delivery is best-effort.
func publishRecorded(ev queue.WorkLogRecordedEvent) {
	ev.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishWorkLogRecorded(ctx, ev)
	}()
}

// ListByBonsai returns a bonsai's history, newest first, with technique and
// fertilizer names joined in.
func (h *WorkLogHandler) ListByBonsai(c echo.Context) error {
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
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list work logs failed"})
	}
	if err := policy.Authorize(policy.WorkLog, policy.Read, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	logs, err := h.Logs.ListByBonsai(ctx, bonsaiID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list work logs failed"})
	}
	return c.JSON(http.StatusOK, logs)
}

// bindWorkLogForm reads the multipart fields shared by the write endpoints.
// bonsai_id is bound only when required is true (update and from-task derive
// it elsewhere).
func bindWorkLogForm(c echo.Context, w *repository.WorkLog, bindBonsai bool) error {
	if bindBonsai {
		b, err := formUint(c, "bonsai_id")
		if err != nil {
			return err
		}
		if b == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "bonsai_id required")
		}
		w.BonsaiID = *b
	}
	t, err := formUint(c, "trabajo_id")
	if err != nil {
		return err
	}
	if t == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "trabajo_id required")
	}
	w.TrabajoID = *t

	fecha := formStr(c, "fecha")
	if fecha == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "fecha required")
	}
	w.Fecha = *fecha

	w.Observaciones = formStr(c, "observaciones")
	abono, err := formUint(c, "abono_id")
	if err != nil {
		return err
	}
	w.AbonoID = abono
	return nil
}

// savePhoto stores an optionally uploaded photo field.
func (h *WorkLogHandler) savePhoto(c echo.Context, field string) (*string, error) {
	fh, err := formFile(c, field)
	if err != nil || fh == nil {
		return nil, err
	}
	p, err := h.Media.Save(fh)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "store photo failed")
	}
	return &p, nil
}

// Create records a work log on a bonsai the caller owns and advances the
// bonsai's last-worked date.
func (h *WorkLogHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var w repository.WorkLog
	if err := bindWorkLogForm(c, &w, true); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, _, err := h.Bonsais.Owner(ctx, w.BonsaiID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bonsai not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create work log failed"})
	}
	if err := policy.Authorize(policy.WorkLog, policy.Write, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if w.FotoAntes, err = h.savePhoto(c, "foto_antes"); err != nil {
		return err
	}
	if w.FotoDespues, err = h.savePhoto(c, "foto_despues"); err != nil {
		return err
	}

	logID, err := h.Logs.Create(ctx, &w)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create work log failed"})
	}
	publishRecorded(queue.WorkLogRecordedEvent{
		WorkLogID: logID,
		BonsaiID:  w.BonsaiID,
		UserID:    ownerID,
		Fecha:     w.Fecha,
		Source:    "manual",
	})
	return c.JSON(http.StatusCreated, echo.Map{"id": logID, "fecha": w.Fecha})
}

// CreateFromTask records a work log for the bonsai of a pending task and
// deletes the task in the same transaction. Unlike mover-a-historial the
// caller picks the technique, date and photos.
func (h *WorkLogHandler) CreateFromTask(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "taskId")
	if err != nil {
		return err
	}

	var w repository.WorkLog
	if err := bindWorkLogForm(c, &w, false); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, err := h.Tasks.Owner(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create work log failed"})
	}
	if err := policy.Authorize(policy.WorkLog, policy.Write, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if w.FotoAntes, err = h.savePhoto(c, "foto_antes"); err != nil {
		return err
	}
	if w.FotoDespues, err = h.savePhoto(c, "foto_despues"); err != nil {
		return err
	}

	logID, err := h.Logs.CreateFromTask(ctx, taskID, &w)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create work log failed"})
	}
	publishRecorded(queue.WorkLogRecordedEvent{
		WorkLogID: logID,
		BonsaiID:  w.BonsaiID,
		UserID:    ownerID,
		Fecha:     w.Fecha,
		Source:    "task",
	})
	return c.JSON(http.StatusCreated, echo.Map{"id": logID, "fecha": w.Fecha})
}

// Update rewrites a work log. Newly uploaded photos replace the stored
// files; fields left out of the form reset to NULL, matching the edit form
// which always sends the full record.
func (h *WorkLogHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	logID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	own, err := h.Logs.Ownership(ctx, logID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "work log not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update work log failed"})
	}
	if err := policy.Authorize(policy.WorkLog, policy.Write, id, policy.Target{OwnerID: own.OwnerID, OwnerRole: own.OwnerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	w := repository.WorkLog{ID: logID, BonsaiID: own.BonsaiID, FotoAntes: own.FotoAntes, FotoDespues: own.FotoDespues}
	if err := bindWorkLogForm(c, &w, false); err != nil {
		return err
	}

	var replaced []*string
	if p, err := h.savePhoto(c, "foto_antes"); err != nil {
		return err
	} else if p != nil {
		replaced = append(replaced, own.FotoAntes)
		w.FotoAntes = p
	}
	if p, err := h.savePhoto(c, "foto_despues"); err != nil {
		return err
	} else if p != nil {
		replaced = append(replaced, own.FotoDespues)
		w.FotoDespues = p
	}

	if err := h.Logs.Update(ctx, &w); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update work log failed"})
	}
	h.Media.RemoveAll(replaced)
	publishRecorded(queue.WorkLogRecordedEvent{
		WorkLogID: logID,
		BonsaiID:  own.BonsaiID,
		UserID:    own.OwnerID,
		Fecha:     w.Fecha,
		Source:    "update",
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "work log updated"})
}

// Delete removes a work log and its photos, then recomputes the bonsai's
// last-worked date from whatever history remains.
func (h *WorkLogHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	logID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	own, err := h.Logs.Ownership(ctx, logID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "work log not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete work log failed"})
	}
	if err := policy.Authorize(policy.WorkLog, policy.Delete, id, policy.Target{OwnerID: own.OwnerID, OwnerRole: own.OwnerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if err := h.Logs.Delete(ctx, logID, own.BonsaiID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "work log not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete work log failed"})
	}
	h.Media.RemoveAll([]*string{own.FotoAntes, own.FotoDespues})
	return c.JSON(http.StatusOK, echo.Map{"message": "work log deleted"})
}
