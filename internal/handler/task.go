package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/policy"
	"github.com/jmforte/bonsai-registry/internal/queue"
	"github.com/jmforte/bonsai-registry/internal/repository"
	queue_publisher "github.com/jmforte/bonsai-registry/internal/service"
)

// TaskHandler serves the pending-task endpoints of a bonsai.
type TaskHandler struct {
	Tasks   *repository.TaskRepo
	Bonsais *repository.BonsaiRepo
}

func NewTaskHandler(t *repository.TaskRepo, b *repository.BonsaiRepo) *TaskHandler {
	return &TaskHandler{Tasks: t, Bonsais: b}
}

type createTaskReq struct {
	Descripcion   string  `json:"descripcion"`
	FechaLimite   *string `json:"fecha_limite"`
	Observaciones *string `json:"observaciones"`
}

type toggleTaskReq struct {
	Completada bool `json:"completada"`
}

// ListByBonsai returns the pending tasks of one bonsai, open ones first.
func (h *TaskHandler) ListByBonsai(c echo.Context) error {
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
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tasks failed"})
	}
	if err := policy.Authorize(policy.Task, policy.Read, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	tasks, err := h.Tasks.ListByBonsai(ctx, bonsaiID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tasks failed"})
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create adds a pending task to a bonsai the caller owns.
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	bonsaiID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Descripcion == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "descripcion required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, _, err := h.Bonsais.Owner(ctx, bonsaiID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bonsai not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	if err := policy.Authorize(policy.Task, policy.Write, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	task, err := h.Tasks.Create(ctx, bonsaiID, req.Descripcion, req.FechaLimite, req.Observaciones)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	return c.JSON(http.StatusCreated, task)
}

// SetCompleted toggles the completed flag and returns the updated task.
func (h *TaskHandler) SetCompleted(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req toggleTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, err := h.Tasks.Owner(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	if err := policy.Authorize(policy.Task, policy.Write, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	task, err := h.Tasks.SetCompleted(ctx, taskID, req.Completada)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a pending task.
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, err := h.Tasks.Owner(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}
	if err := policy.Authorize(policy.Task, policy.Delete, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if err := h.Tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// MoveToHistory converts a pending task into a work-log entry dated today.
// The task's description must name an existing technique; the 404 carries
// the missing name so the frontend can offer to create it.
func (h *TaskHandler) MoveToHistory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, ownerRole, err := h.Tasks.Owner(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move task failed"})
	}
	if err := policy.Authorize(policy.Task, policy.Write, id, policy.Target{OwnerID: ownerID, OwnerRole: ownerRole}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	// Snapshot before the workflow deletes the row; the event needs it.
	task, err := h.Tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move task failed"})
	}

	workLogID, err := h.Tasks.MoveToHistory(ctx, taskID)
	if err != nil {
		var missing *repository.TechniqueNotFoundError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		case errors.As(err, &missing):
			return c.JSON(http.StatusNotFound, echo.Map{"error": missing.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move task failed"})
		}
	}

	fecha := repository.Today()
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishWorkLogRecorded(pubCtx, queue.WorkLogRecordedEvent{
			WorkLogID:  workLogID,
			BonsaiID:   task.BonsaiID,
			UserID:     ownerID,
			Technique:  task.Descripcion,
			Fecha:      fecha,
			Source:     "task",
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "task moved to history",
		"work_log_id": workLogID,
	})
}
