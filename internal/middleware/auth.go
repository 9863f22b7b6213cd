package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/pkg/auth"
)

const (
	UserIDKey = "userID"
	TokenKey  = "token"
)

// RevocationChecker черный список токенов (Redis в проде)
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

var errUnauthenticated = apperr.New(apperr.KindUnauthenticated, "invalid token")

// verify проверяет токен целиком: черный список, подпись, subject.
// Сбой черного списка возвращается как BackendUnavailable, а не как отказ.
func verify(ctx context.Context, jwtManager *auth.JWTManager, revoked RevocationChecker, token string) (uuid.UUID, error) {
	if revoked != nil {
		isRevoked, err := revoked.IsRevoked(ctx, token)
		if err != nil {
			return uuid.Nil, apperr.Backend(err)
		}
		if isRevoked {
			return uuid.Nil, apperr.New(apperr.KindUnauthenticated, "token is blacklisted")
		}
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		return uuid.Nil, errUnauthenticated.Wrap(err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindUnauthenticated, "invalid user id").Wrap(err)
	}
	return userID, nil
}

func abortAuth(c *gin.Context, err error) {
	body := gin.H{"error": apperr.MessageOf(err)}
	if apperr.Retryable(err) {
		body["retryable"] = true
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), body)
}

// AuthMiddleware проверяет JWT токен
func AuthMiddleware(jwtManager *auth.JWTManager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		userID, err := verify(c.Request.Context(), jwtManager, revoked, token)
		if err != nil {
			abortAuth(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// OptionalAuth как AuthMiddleware, но без токена запрос идёт дальше анонимно.
// Неверный токен всё равно отклоняется.
func OptionalAuth(jwtManager *auth.JWTManager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		userID, err := verify(c.Request.Context(), jwtManager, revoked, token)
		if err != nil {
			abortAuth(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: токен можно передать в ?token=
func WSAuthMiddleware(jwtManager *auth.JWTManager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := verify(c.Request.Context(), jwtManager, revoked, token)
		if err != nil {
			abortAuth(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID id пользователя, установленный AuthMiddleware
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// OptionalUserID nil для анонимного запроса
func OptionalUserID(c *gin.Context) *uuid.UUID {
	if id, ok := UserID(c); ok {
		return &id
	}
	return nil
}
