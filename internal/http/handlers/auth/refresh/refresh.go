// Package refresh реализует HTTP-обработчик обновления пары токенов
// по действующему refresh-токену. Токен берется из cookie или из тела
// запроса; при успехе пара ротируется и cookie переустанавливаются.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/videohub-backend/internal/http/response"
	"github.com/magabrotheeeer/videohub-backend/internal/http/session"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/sl"
	services "github.com/magabrotheeeer/videohub-backend/internal/services/auth"
)

// Request — тело запроса на обновление токенов, используется,
// когда refresh-токен не передан в cookie.
type Request struct {
	RefreshToken string `json:"refreshToken"`
}

// Data — полезная нагрузка успешного ответа.
type Data struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service описывает интерфейс бизнес-логики обновления токенов.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// Handler обрабатывает HTTP-запросы обновления токенов.
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

// extractToken достает refresh-токен из cookie, затем из тела запроса.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(session.RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// ServeHTTP godoc
// @Summary Обновление пары токенов
// @Description Проверяет refresh-токен, ротирует его и возвращает новую пару токенов.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Новая пара токенов"
// @Failure 401 {object} response.ErrorResponse "Невалидный или ротированный refresh-токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokenStr := extractToken(r)
	if tokenStr == "" {
		log.Error("refresh token is missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(http.StatusUnauthorized, "unauthorized request"))
		return
	}

	pair, err := h.authService.Refresh(r.Context(), tokenStr)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			log.Error("invalid refresh token", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(http.StatusUnauthorized, "invalid or expired refresh token"))
			return
		}
		log.Error("token issuance failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(http.StatusInternalServerError, "token generation failed"))
		return
	}

	session.SetTokenCookies(w, pair.AccessToken, pair.RefreshToken)

	log.Info("tokens refreshed")
	render.JSON(w, r, response.OKWithData(http.StatusOK, Data{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "access token refreshed"))
}
