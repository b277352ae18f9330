// Package app wires the whole service into one running process: the metadata store, object store,
// ingestion clients, the LLM enricher, the orchestrator they compose into, and the HTTP
// surface in front of it.
package app

import (
	"context"
	"fmt"
	"strings"

	gohttp "github.com/chaptered/core/internal/http"

	"github.com/chaptered/core/internal/clients/gcp"
	"github.com/chaptered/core/internal/clients/openai"
	"github.com/chaptered/core/internal/data/db"
	"github.com/chaptered/core/internal/data/repos"
	"github.com/chaptered/core/internal/enrich"
	"github.com/chaptered/core/internal/http/handlers"
	"github.com/chaptered/core/internal/http/middleware"
	"github.com/chaptered/core/internal/ingest/subtitles"
	"github.com/chaptered/core/internal/ingest/youtube"
	"github.com/chaptered/core/internal/orchestrator"
	"github.com/chaptered/core/internal/pkg/allowlist"
	"github.com/chaptered/core/internal/pkg/logger"
	"github.com/chaptered/core/internal/platform/envutil"
)

// App bundles the long-lived handles the process holds for its entire lifetime: the
// logger, the database connection, and the gin engine built over everything else.
type App struct {
	Log      *logger.Logger
	postgres *db.PostgresService
	server   *gohttp.Server
}

// New builds the full dependency graph: the leaf components are constructed first,
// the orchestrator composes them, and the HTTP handlers sit in front of the
// orchestrator and the read-mostly repos it doesn't otherwise need.
func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	postgres, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgres.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	store, err := gcp.NewObjectStore(log)
	if err != nil {
		return nil, fmt.Errorf("build object store: %w", err)
	}

	youtubeAPIKey := envutil.String("YOUTUBE_API_KEY", "")
	if youtubeAPIKey == "" {
		return nil, fmt.Errorf("missing env var YOUTUBE_API_KEY")
	}
	fetcher, err := youtube.NewFetcher(context.Background(), log, youtubeAPIKey)
	if err != nil {
		return nil, fmt.Errorf("build youtube fetcher: %w", err)
	}

	extractor := subtitles.NewExtractor(log, envutil.String("YTDLP_PATH", ""))

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("build openai client: %w", err)
	}
	enricher := enrich.NewEnricher(log, openaiClient)

	gormDB := postgres.DB()
	resourceRepo := repos.NewResourceRepo(gormDB, log)
	chunkRepo := repos.NewChunkRepo(gormDB, log)
	noteRepo := repos.NewNoteRepo(gormDB, log)
	promptSetRepo := repos.NewPromptSetRepo(gormDB, log)

	orc := orchestrator.New(log, fetcher, extractor, store, enricher, resourceRepo, chunkRepo, promptSetRepo)

	allowed := allowlist.New(envutil.String("VERIFIED_EMAIL_SHA256", ""))

	jwtSecret := envutil.String("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("missing env var JWT_SECRET")
	}
	authMW := middleware.NewAuthMiddleware(log, jwtSecret, allowed)

	var origins []string
	if corsOrigins := envutil.String("CORS_ORIGINS", ""); corsOrigins != "" {
		for _, o := range strings.Split(corsOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	server := gohttp.NewServer(gohttp.RouterConfig{
		Log:            log,
		CORSOrigins:    origins,
		AuthMiddleware: authMW,
		HealthHandler:  handlers.NewHealthHandler(),
		AuthHandler:    handlers.NewAuthHandler(allowed),
		VideoHandler:   handlers.NewVideoHandler(log, orc),
		BookHandler:    handlers.NewBookHandler(log, orc, resourceRepo, chunkRepo, store),
		NoteHandler:    handlers.NewNoteHandler(log, noteRepo),
		ChunksHandler:  handlers.NewChunksHandler(log, chunkRepo),
		PromptsHandler: handlers.NewPromptsHandler(log, promptSetRepo),
	})

	return &App{Log: log, postgres: postgres, server: server}, nil
}

// Run starts the HTTP server and blocks until it exits.
func (a *App) Run(address string) error {
	return a.server.Run(address)
}

// Close releases the database connection.
func (a *App) Close() {
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			a.Log.Warn("error closing postgres connection", "error", err.Error())
		}
	}
	a.Log.Sync()
}
