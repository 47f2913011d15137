package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/logging"
	"github.com/yukikurage/project-tracker-api/internal/server"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.LogLevel, cfg.Server.GinMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	if cfg.GeneratedJWTSecret {
		logger.Warn("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
	}

	// Connect to database
	db, err := database.Connect(cfg.Database, !cfg.IsRelease(), logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.Migrate(db, logger); err != nil {
		return err
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.AI.Enabled() {
		aiService = services.NewAIService(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel)
	} else {
		logger.Info("OPENAI_API_KEY is not set, task suggestions are disabled")
	}

	srv, err := server.New(server.Options{
		DB:                  db,
		SessionStore:        store,
		Tokens:              services.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTTTL),
		AIService:           aiService,
		Logger:              logger,
		RealtimeRequireAuth: cfg.Realtime.RequireAuth,
		AllowedOrigins:      cfg.Realtime.Origins(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = srv.Hub.Run(ctx)
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-hubDone
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	<-hubDone
	return err
}

// newSessionStore builds the Redis backed store, or a cookie store when
// SESSION_STORE=cookie.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Session.Store {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	default:
		s, err := redisStore.NewStore(
			10,               // Redis pool size
			"tcp",            // network type
			cfg.Redis.Addr(), // Redis address from config
			"",               // username (empty for default user)
			cfg.Redis.Password,
			[]byte(cfg.Session.Secret), // authentication key
		)
		if err != nil {
			return nil, err
		}
		store = s
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
