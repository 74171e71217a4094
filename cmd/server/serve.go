package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kolaboree-backend/internal/config"
	"kolaboree-backend/internal/handler"
	"kolaboree-backend/internal/pkg/cloud"
	"kolaboree-backend/internal/pkg/events"
	"kolaboree-backend/internal/pkg/guacamole"
	"kolaboree-backend/internal/pkg/logger"
	"kolaboree-backend/internal/pkg/metrics"
	"kolaboree-backend/internal/router"
	"kolaboree-backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

func loadConfig() (*config.Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return config.LoadConfig()
}

func newManager(cfg *config.Config, log *logger.Logger, pub events.Publisher) *cloud.Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return cloud.NewManager(cloud.Options{
		GCPDefaultZone:     cfg.Cloud.GCPDefaultZone,
		LXDDefaultEndpoint: cfg.Cloud.LXDDefaultEndpoint,
		CredentialDir:      cfg.Cloud.CredentialDir,
	}, log, cloud.WithPublisher(pub))
}

func runServer(addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Addr()
	}

	// logger
	appLogger := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	defer appLogger.Sync()
	zap.ReplaceGlobals(appLogger.Zap())

	publisher, err := events.New(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		appLogger.Warnf("event publishing disabled: %v", err)
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	manager := newManager(cfg, appLogger, publisher)
	defer manager.Close()

	// services
	cloudService := service.NewCloudService(manager, appLogger)
	workspaceService := service.NewWorkspaceService(manager, appLogger)
	guac := guacamole.NewClient(
		cfg.Guacamole.BaseURL,
		cfg.Guacamole.Username,
		cfg.Guacamole.Password,
		cfg.Guacamole.DataSource,
		time.Duration(cfg.Guacamole.Timeout)*time.Second,
		appLogger,
	)
	racService := service.NewRACService(guac, appLogger)
	consoleService := service.NewConsoleService(appLogger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	router.RegisterRoutes(r, router.Handlers{
		Admin:   handler.NewAdminHandler(cloudService),
		User:    handler.NewUserHandler(workspaceService),
		RAC:     handler.NewRACHandler(racService),
		Console: handler.NewConsoleHandler(consoleService, cfg.Server.AllowedOrigins),
		Health: handler.NewHealthHandler(Version, func() int {
			return len(manager.ConnectionIDs())
		}),
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Infof("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		appLogger.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
