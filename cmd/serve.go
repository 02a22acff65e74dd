package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/config"
	redisdb "practice-service/internal/database/redis"
	"practice-service/internal/discovery"
	"practice-service/internal/event"
	"practice-service/internal/handlers"
	"practice-service/internal/logger"
	"practice-service/internal/repository"
	"practice-service/internal/selection"
	"practice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	startCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	policy := adaptive.NewManager(&cfg.Engine.Thresholds)
	s, err := openStores(startCtx, cfg, policy, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	sessions, closeSessions, err := openSessionStore(startCtx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()

	publisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pools := newPoolManager(s, policy, log)
	selector := selection.NewSelector(pools, cfg.Engine.MaxSessionSize)
	recorder := service.NewAttemptService(s.attempts, s.mastery, s.catalog, publisher, log)
	sessionService := service.NewSessionService(selector, s.catalog, sessions, recorder, publisher, log, cfg.Engine.DefaultSessionSize)
	progressService := service.NewProgressService(s.mastery, s.catalog, pools, policy)

	if cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:    cfg.Server.ServiceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, handlers.NewSessionHandler(sessionService, log), handlers.NewProgressHandler(progressService, log), log)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("practice service listening", "addr", srv.Addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	registry, err := discovery.NewServiceRegistry(cfg.Consul, cfg.Server, log)
	if err != nil {
		log.Warn("service discovery unavailable", "error", err)
	}
	if registry != nil {
		if err := registry.Register(); err != nil {
			log.Warn("failed to register with Consul", "error", err)
			registry = nil
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		log.Error("server failed", "error", err)
		return err
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Warn("failed to deregister from Consul", "error", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		return err
	}
	log.Info("server exited")
	return nil
}

// openSessionStore uses redis when configured and an in-process store
// otherwise. The in-process store only works for a single instance.
func openSessionStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.SessionStore, func(), error) {
	client, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("REDIS_ADDR is empty, sessions are kept in memory")
		return repository.NewMemorySessionStore(cfg.Redis.SessionTTL), func() {}, nil
	}
	log.Info("connected to Redis", "addr", cfg.Redis.Address)
	return repository.NewSessionRepository(client, cfg.Redis.SessionTTL), func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}, nil
}
