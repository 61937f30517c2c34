// Package logout реализует HTTP-обработчик выхода пользователя из системы.
//
// Обработчик требует прошедшей аутентификации (uid берется из контекста
// запроса), дожидается обнуления refresh-токена в хранилище и очищает
// обе cookie сессии. Повторный выход идемпотентен.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/videohub-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/videohub-backend/internal/http/response"
	"github.com/magabrotheeeer/videohub-backend/internal/http/session"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы выхода.
type Handler struct {
	log         *slog.Logger
	authService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Обнуляет refresh-токен пользователя и очищает cookie сессии.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Успешный выход"
// @Failure 401 {object} response.ErrorResponse "Запрос без аутентификации"
// @Failure 500 {object} response.ErrorResponse "Не удалось обнулить refresh-токен"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	if err := h.authService.Logout(r.Context(), userUID); err != nil {
		log.Error("failed to clear refresh token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(http.StatusInternalServerError, "failed to log out user"))
		return
	}

	session.ClearTokenCookies(w)

	username, _ := r.Context().Value(middlewarectx.Username).(string)
	log.Info("logout success",
		slog.String("useruid", userUID),
		slog.String("username", username))
	render.JSON(w, r, response.OKWithData(http.StatusOK, map[string]any{}, "user logged out"))
}
