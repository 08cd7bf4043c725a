package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/data/db"
	"github.com/classloop/classloop-backend/internal/http/middleware"
	"github.com/classloop/classloop-backend/internal/observability"
	"github.com/classloop/classloop-backend/internal/platform/logger"
	"github.com/classloop/classloop-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Hub      *realtime.Hub

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.Init(context.Background(), log, observability.Config{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: "classloop-backend",
		Environment: cfg.Mode,
		Endpoint:    cfg.Otel.Endpoint,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	pg, err := db.NewPostgresService(cfg.DB.DSN(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := realtime.NewHub(log)

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(cfg, reposet, hub, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub)
	auth := middleware.NewAuthMiddleware(log, cfg.Auth.JWTSecret)
	router := wireRouter(RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		Auth:         auth,
		Plan:         handlerset.Plan,
		Assignment:   handlerset.Assignment,
		Settlement:   handlerset.Settlement,
		Progress:     handlerset.Progress,
		Events:       handlerset.Events,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Hub:          hub,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := fmt.Sprintf(":%d", a.Cfg.Server.Port)
	a.Log.Info("listening", "addr", addr)
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
