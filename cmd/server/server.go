package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/flux/internal/config"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/handlers"
	"github.com/thereayou/flux/internal/middleware"
	"github.com/thereayou/flux/internal/realtime"
	"github.com/thereayou/flux/internal/storage"
	ws "github.com/thereayou/flux/internal/websocket"
	"github.com/thereayou/flux/pkg/auth"
)

const (
	maxMultipartMemory = 32 << 20
	relayRetryDelay    = 5 * time.Second
	shutdownTimeout    = 15 * time.Second
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Relay  *realtime.Relay

	cfg *config.Config
	log *slog.Logger
}

func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		// лента и лимиты продолжают работать без Redis на одном экземпляре
		log.Warn("redis unavailable at startup", "error", err)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	var relay *realtime.Relay
	a := wiring{
		cfg:    cfg,
		db:     db,
		store:  store,
		jwt:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		tokens: auth.NewBlacklist(rdb),
		checks: map[string]handlers.Check{
			"postgres": db.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		log: log,
		publisher: func(sink realtime.Sink) realtime.Publisher {
			relay = realtime.NewRelay(rdb, sink, log)
			return realtime.NewRedisPublisher(rdb).WithLocalFallback(relay.ServeEvent)
		},
	}.build()

	router := newRouter(cfg, log, middleware.NewRedisCounter(rdb), store, a)

	return &Server{
		Router: router,
		DB:     db,
		Redis:  rdb,
		Hub:    a.hub,
		Relay:  relay,
		cfg:    cfg,
		log:    log,
	}, nil
}

// newRouter limiter nil отключает ограничение частоты
func newRouter(cfg *config.Config, log *slog.Logger, limiter middleware.WindowCounter, store storage.ObjectStore, a api) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(gin.Recovery(), middleware.RequestLogger(log), cors.New(corsConfig(cfg.CORSOrigins)))
	if limiter != nil {
		router.Use(middleware.RateLimiter(limiter, cfg.RateLimit, log))
	}

	if local, ok := store.(*storage.LocalStore); ok {
		router.Static("/files", local.Root())
	}

	APIEndpoints(router, a.handlers, a.guards)
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// Run обслуживает HTTP до отмены ctx, затем корректно останавливается
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()
	go s.runRelay(ctx)

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "port", s.cfg.Port, "storage", s.cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.Hub.Stop()
	err := srv.Shutdown(shutdownCtx)
	s.close()
	return err
}

// runRelay переподключается к Redis, пока сервер работает
func (s *Server) runRelay(ctx context.Context) {
	if s.Relay == nil {
		return
	}
	for {
		if err := s.Relay.Run(ctx); err != nil {
			s.log.Warn("activity relay stopped", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(relayRetryDelay):
		}
	}
}

func (s *Server) close() {
	if err := s.Redis.Close(); err != nil {
		s.log.Warn("redis close", "error", err)
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("postgres close", "error", err)
	}
}
