// Package me реализует HTTP-обработчик чтения профиля текущего пользователя.
// Профиль отдается в санитизированном виде и кэшируется в Redis.
package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/videohub-backend/internal/cache"
	"github.com/magabrotheeeer/videohub-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/videohub-backend/internal/http/response"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/sl"
	"github.com/magabrotheeeer/videohub-backend/internal/models"
	services "github.com/magabrotheeeer/videohub-backend/internal/services/auth"
)

// cacheTTL — время жизни закэшированного профиля.
const cacheTTL = 5 * time.Minute

// Service описывает интерфейс чтения пользователя.
type Service interface {
	GetUser(ctx context.Context, userUID string) (*models.SanitizedUser, error)
}

// UserCache описывает интерфейс кэша профилей.
type UserCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Handler обрабатывает HTTP-запросы чтения текущего пользователя.
type Handler struct {
	log         *slog.Logger
	authService Service
	cache       UserCache
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service, cache UserCache) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		cache:       cache,
	}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Возвращает санитизированный профиль аутентифицированного пользователя.
// @Tags User
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Запрос без аутентификации"
// @Failure 404 {object} response.ErrorResponse "Пользователь не существует"
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid is missing in request context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	cacheKey := cache.UserProfileKey(userUID)
	if h.cache != nil {
		var cached models.SanitizedUser
		found, err := h.cache.Get(r.Context(), cacheKey, &cached)
		if err != nil {
			log.Warn("cache lookup failed", sl.Err(err))
		}
		if found {
			render.JSON(w, r, response.OKWithData(http.StatusOK, &cached, "current user"))
			return
		}
	}

	user, err := h.authService.GetUser(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user does not exist", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(http.StatusNotFound, "user does not exist"))
			return
		}
		log.Error("failed to load user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(http.StatusInternalServerError, "failed to load user"))
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cacheKey, user, cacheTTL); err != nil {
			log.Warn("cache set failed", sl.Err(err))
		}
	}

	render.JSON(w, r, response.OKWithData(http.StatusOK, user, "current user"))
}
