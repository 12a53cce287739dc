// Package router wires every endpoint of the API onto an Echo instance and
// attaches the cross-cutting middleware: JWT authentication on the whole
// /api group, the moderator write block on mutating routes, admin gating on
// the administration panel, Redis rate limiting on the auth gateway and the
// Redis response cache on the heavier read endpoints.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jmforte/bonsai-registry/internal/config"
	"github.com/jmforte/bonsai-registry/internal/handler"
	"github.com/jmforte/bonsai-registry/internal/middleware"
)

// Handlers bundles every handler the route table needs.
type Handlers struct {
	Auth        *handler.AuthHandler
	Bonsais     *handler.BonsaiHandler
	Tasks       *handler.TaskHandler
	WorkLogs    *handler.WorkLogHandler
	Techniques  *handler.TechniqueHandler
	Provenances *handler.ProvenanceHandler
	Species     *handler.SpeciesHandler
	Pots        *handler.PotHandler
	Fertilizers *handler.FertilizerHandler
	Profile     *handler.ProfileHandler
	Admin       *handler.AdminHandler
	Gallery     *handler.GalleryHandler
	Calendar    *handler.CalendarHandler
}

// Register mounts the whole route table. rdb may be nil, in which case the
// rate limiter and response cache turn into no-ops.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	noModWrites := middleware.BlockModeratorWrites()
	adminOnly := middleware.RequireAdmin()

	// Public auth gateway, rate limited per client IP.
	e.POST("/api/register", h.Auth.Register, limiter)
	e.POST("/api/login", h.Auth.Login, limiter)

	api := e.Group("/api")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	// Bonsais and their nested collections.
	api.GET("/bonsais", h.Bonsais.List)
	api.POST("/bonsais", h.Bonsais.Create, noModWrites)
	api.GET("/bonsais/:id", h.Bonsais.Get)
	api.PUT("/bonsais/:id", h.Bonsais.Update, noModWrites)
	api.DELETE("/bonsais/:id", h.Bonsais.Delete)

	api.GET("/bonsais/:id/trabajos", h.WorkLogs.ListByBonsai)
	api.GET("/bonsais/:id/tareas", h.Tasks.ListByBonsai)
	api.POST("/bonsais/:id/tareas", h.Tasks.Create, noModWrites)
	api.GET("/bonsais/:id/cuidados", h.Species.GetForBonsai)
	api.POST("/bonsais/:id/cuidados", h.Species.UpsertForBonsai, noModWrites)
	api.DELETE("/bonsais/:id/cuidados", h.Species.DeleteForBonsai, noModWrites)

	// Pending tasks.
	api.PUT("/tareas/:id", h.Tasks.SetCompleted, noModWrites)
	api.DELETE("/tareas/:id", h.Tasks.Delete)
	api.POST("/tareas/:id/mover-a-historial", h.Tasks.MoveToHistory, noModWrites)

	// Technique catalog.
	api.GET("/trabajos", h.Techniques.List, cache)
	api.POST("/trabajos", h.Techniques.Create, noModWrites)
	api.PUT("/trabajos/:id", h.Techniques.Update, noModWrites)
	api.DELETE("/trabajos/:id", h.Techniques.Delete, noModWrites)

	// Work history.
	api.POST("/trabajos_bonsai", h.WorkLogs.Create, noModWrites)
	api.POST("/trabajos_bonsai/from-task/:taskId", h.WorkLogs.CreateFromTask, noModWrites)
	api.PUT("/trabajos_bonsai/:id", h.WorkLogs.Update, noModWrites)
	api.DELETE("/trabajos_bonsai/:id", h.WorkLogs.Delete)

	// Provenance catalog; removal is reserved for admins.
	api.GET("/procedencias", h.Provenances.List, cache)
	api.POST("/procedencias", h.Provenances.Create, noModWrites)
	api.PUT("/procedencias/:id", h.Provenances.Update, noModWrites)
	api.DELETE("/procedencias/:id", h.Provenances.Delete, adminOnly)

	// Species-care cards.
	api.GET("/species", h.Species.List)
	api.POST("/species", h.Species.Upsert, noModWrites)
	api.PUT("/species/:id", h.Species.Update, noModWrites)
	api.DELETE("/species/:id", h.Species.Delete, noModWrites)

	// Pots.
	api.GET("/macetas", h.Pots.List)
	api.POST("/macetas", h.Pots.Create, noModWrites)
	api.PUT("/macetas/:id", h.Pots.Update, noModWrites)
	api.DELETE("/macetas/:id", h.Pots.Delete)

	// Fertilizers.
	api.GET("/abonos", h.Fertilizers.List)
	api.POST("/abonos", h.Fertilizers.Create, noModWrites)
	api.PUT("/abonos/:id", h.Fertilizers.Update, noModWrites)
	api.DELETE("/abonos/:id", h.Fertilizers.Delete, noModWrites)

	// Own profile.
	api.GET("/perfil", h.Profile.Get)
	api.PUT("/perfil/foto", h.Profile.UpdatePhoto)

	// Administration panel.
	admin := api.Group("/admin", adminOnly)
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/user-status/:id", h.Admin.UpdateStatus)
	admin.PUT("/user-role/:id", h.Admin.UpdateRole)
	admin.DELETE("/user/:id", h.Admin.DeleteUser)

	// Read models.
	api.GET("/gallery", h.Gallery.List, cache)
	api.GET("/gallery/filters", h.Gallery.Filters, cache)
	api.GET("/calendar/events", h.Calendar.Events, cache)
	api.GET("/notifications/pending-count", h.Calendar.PendingCount)
}
