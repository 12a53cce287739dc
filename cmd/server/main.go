package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jmforte/bonsai-registry/internal/config"
	"github.com/jmforte/bonsai-registry/internal/database"
	"github.com/jmforte/bonsai-registry/internal/handler"
	"github.com/jmforte/bonsai-registry/internal/media"
	"github.com/jmforte/bonsai-registry/internal/queue"
	"github.com/jmforte/bonsai-registry/internal/repository"
	"github.com/jmforte/bonsai-registry/internal/router"
)

func main() {
	_ = godotenv.Load() // read .env when present; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	store, err := media.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable; features degrade

	users := repository.NewUserRepo(db)
	bonsais := repository.NewBonsaiRepo(db)
	tasks := repository.NewTaskRepo(db)
	logs := repository.NewWorkLogRepo(db)
	techniques := repository.NewTechniqueRepo(db)
	provenances := repository.NewProvenanceRepo(db)
	species := repository.NewSpeciesRepo(db)
	pots := repository.NewPotRepo(db)
	fertilizers := repository.NewFertilizerRepo(db)

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users),
		Bonsais:     handler.NewBonsaiHandler(bonsais, users, store),
		Tasks:       handler.NewTaskHandler(tasks, bonsais),
		WorkLogs:    handler.NewWorkLogHandler(logs, tasks, bonsais, store),
		Techniques:  handler.NewTechniqueHandler(techniques),
		Provenances: handler.NewProvenanceHandler(provenances),
		Species:     handler.NewSpeciesHandler(species, bonsais),
		Pots:        handler.NewPotHandler(pots, users, store),
		Fertilizers: handler.NewFertilizerHandler(fertilizers),
		Profile:     handler.NewProfileHandler(cfg, users, store),
		Admin:       handler.NewAdminHandler(users, bonsais, store),
		Gallery:     handler.NewGalleryHandler(logs, bonsais, users),
		Calendar:    handler.NewCalendarHandler(logs, tasks),
	}

	e := echo.New()
	e.Static(media.URLPrefix, store.Dir())
	router.Register(e, h, cfg, rdb)

	// Background consumer turning worklog.recorded events into audit lines.
	go func() {
		if err := queue.StartWorkLogConsumer(); err != nil {
			log.Printf("worklog consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
