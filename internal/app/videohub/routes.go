// Package videohub предоставляет маршруты для основного приложения.
package videohub

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/videohub-backend/internal/cache"
	"github.com/magabrotheeeer/videohub-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/videohub-backend/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/videohub-backend/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/videohub-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/videohub-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/videohub-backend/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/videohub-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/videohub-backend/internal/media"
	services "github.com/magabrotheeeer/videohub-backend/internal/services/auth"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *services.AuthService, uploader media.Uploader, cacheRedis *cache.Cache) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService, uploader).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Post("/refresh", refresh.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Post("/logout", logout.New(logger, authService).ServeHTTP)
			r.Get("/users/me", me.New(logger, authService, cacheRedis).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
