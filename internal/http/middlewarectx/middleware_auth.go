// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware проверяет access-токен в cookie accessToken или в заголовке
// Authorization, и в случае успеха добавляет в контекст uid и имя пользователя
// для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/videohub-backend/internal/http/response"
	"github.com/magabrotheeeer/videohub-backend/internal/http/session"
	libjwt "github.com/magabrotheeeer/videohub-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для uid пользователя в контексте
	UserUID Key = "useruid"
	// Username — ключ для имени пользователя в контексте
	Username Key = "username"
)

// Service описывает интерфейс сервиса для валидации access-токена.
type Service interface {
	ValidateAccessToken(ctx context.Context, token string) (*libjwt.AccessClaims, error)
}

// extractToken достает access-токен из cookie, затем из заголовка Authorization.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(session.AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// JWTMiddleware возвращает HTTP middleware, который проверяет access-токен.
//
// Если токен валиден, добавляет uid и имя пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := extractToken(r)
			if tokenStr == "" {
				log.Error("missing access token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(http.StatusUnauthorized, "unauthorized request"))
				return
			}

			claims, err := authService.ValidateAccessToken(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired access token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(http.StatusUnauthorized, "invalid access token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Username, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
