package middleware

import (
	"strings"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/logger"
	"portfolio_backend/pkg/apperrors"
	"portfolio_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - middleware проверки JWT, без токена запрос отклоняется
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}
		if !authenticate(c, jwtManager, tokenStr) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware - публичные маршруты: без заголовка запрос анонимный,
// с неверным токеном отклоняется
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		tokenStr, ok := bearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}
		if !authenticate(c, jwtManager, tokenStr) {
			return
		}
		c.Next()
	}
}

// StaffMiddleware - только staff или superuser. Ставится после AuthMiddleware.
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetActor(c).IsPrivileged() {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// GetActor - актор запроса; анонимный, если токена не было
func GetActor(c *gin.Context) auth.Actor {
	val, exists := c.Get(string(contextkeys.ActorContextKey))
	if !exists {
		return auth.Actor{}
	}
	actor, _ := val.(auth.Actor)
	return actor
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return GetActor(c).ID
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func authenticate(c *gin.Context, jwtManager *auth.JWTManager, tokenStr string) bool {
	claims, err := jwtManager.ParseToken(tokenStr)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "Invalid access token", "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid token"))
		return false
	}

	c.Set(string(contextkeys.ActorContextKey), claims.Actor())
	c.Set(string(contextkeys.UserIDContextKey), claims.UserID)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
	return true
}
