package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/config"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/handlers"
	"github.com/thereayou/flux/internal/middleware"
	"github.com/thereayou/flux/internal/realtime"
	"github.com/thereayou/flux/internal/services"
	"github.com/thereayou/flux/internal/storage"
	ws "github.com/thereayou/flux/internal/websocket"
	"github.com/thereayou/flux/pkg/auth"
)

// tokenStore черный список: отзыв при выходе и проверка в middleware
type tokenStore interface {
	services.TokenRevoker
	middleware.RevocationChecker
}

// wiring зависимости, из которых собираются сервисы и обработчики
type wiring struct {
	cfg    *config.Config
	db     *database.Database
	store  storage.ObjectStore
	jwt    *auth.JWTManager
	tokens tokenStore
	checks map[string]handlers.Check
	log    *slog.Logger

	// publisher получает hub как локального получателя событий
	publisher func(sink realtime.Sink) realtime.Publisher
}

type api struct {
	handlers Handlers
	guards   Guards
	hub      *ws.Hub
}

func (w wiring) build() api {
	evaluator := access.NewEvaluator(w.db, w.db)

	// hub проверяет подписку через GroupService, а тот сообщает hub-у об исключениях
	var groups *services.GroupService
	hub := ws.NewHub(func(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
		return groups.CanSubscribe(ctx, userID, groupID)
	}, w.log)

	var publisher realtime.Publisher = realtime.NopPublisher{}
	if w.publisher != nil {
		publisher = w.publisher(hub)
	}
	feed := services.NewFeed(publisher, w.log)

	groups = services.NewGroupService(w.db, evaluator, feed, w.store, hub, w.log)
	files := services.NewFileService(w.db, evaluator, feed, w.store, w.log)
	repos := services.NewRepositoryService(w.db, evaluator, w.store, w.log)
	tasks := services.NewTaskService(w.db, evaluator)
	profile := services.NewProfileService(w.db, w.store, w.log)
	search := services.NewSearchService(w.db)
	authService := services.NewAuthService(w.db, w.jwt, w.tokens, w.cfg.AllowedEmailDom, w.log)

	return api{
		hub: hub,
		handlers: Handlers{
			Auth:       handlers.NewAuthHandler(authService, w.log),
			User:       handlers.NewUserHandler(profile, w.log),
			Group:      handlers.NewGroupHandler(groups, w.log),
			File:       handlers.NewFileHandler(files, w.log),
			Task:       handlers.NewTaskHandler(tasks, w.log),
			Repository: handlers.NewRepositoryHandler(repos, w.log),
			Search:     handlers.NewSearchHandler(search, w.log),
			WebSocket:  handlers.NewWebSocketHandler(hub, w.cfg.CORSOrigins, w.log),
			Health:     handlers.NewHealthHandler(w.checks, w.log),
		},
		guards: Guards{
			Auth:     middleware.AuthMiddleware(w.jwt, w.tokens),
			Optional: middleware.OptionalAuth(w.jwt, w.tokens),
			WS:       middleware.WSAuthMiddleware(w.jwt, w.tokens),
			Timeout:  middleware.Timeout(w.cfg.RequestTimeout),
		},
	}
}
