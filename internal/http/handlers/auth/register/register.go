// Package register реализует HTTP-обработчик регистрации пользователей.
//
// Запрос приходит в формате multipart/form-data: четыре текстовых поля
// плюс обязательный файл avatar и опциональный coverImage. Файлы уходят
// во внешнее медиахранилище, пользователь создается только после успешной
// загрузки аватара.
package register

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/videohub-backend/internal/http/response"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/sl"
	"github.com/magabrotheeeer/videohub-backend/internal/media"
	"github.com/magabrotheeeer/videohub-backend/internal/models"
	services "github.com/magabrotheeeer/videohub-backend/internal/services/auth"
)

// maxFormMemory ограничивает объём multipart-формы, удерживаемый в памяти.
const maxFormMemory = 32 << 20

// Request — текстовые поля формы регистрации.
type Request struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=6"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	CheckAvailability(ctx context.Context, username, email string) error
	Register(ctx context.Context, input services.RegisterInput) (*models.SanitizedUser, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
type Handler struct {
	log         *slog.Logger
	authService Service
	uploader    media.Uploader
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service, uploader media.Uploader) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		uploader:    uploader,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя с загрузкой аватара и обложки профиля.
// @Tags Auth
// @Accept  mpfd
// @Produce  json
// @Param fullName formData string true "Полное имя"
// @Param email formData string true "Email"
// @Param userName formData string true "Имя пользователя"
// @Param password formData string true "Пароль"
// @Param avatar formData file true "Аватар"
// @Param coverImage formData file false "Обложка профиля"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректные входные данные"
// @Failure 409 {object} response.ErrorResponse "Username или email уже заняты"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(http.StatusBadRequest, "invalid request body"))
		return
	}

	req := Request{
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Username: strings.TrimSpace(r.FormValue("userName")),
		Password: strings.TrimSpace(r.FormValue("password")),
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	// Дубликат отсекается до загрузки файлов, чтобы повторная регистрация
	// не оставляла осиротевших объектов в медиахранилище.
	if err := h.authService.CheckAvailability(r.Context(), req.Username, req.Email); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			log.Error("user already exists", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(http.StatusConflict, "user with email or username already exists"))
			return
		}
		log.Error("availability check failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(http.StatusInternalServerError, "something went wrong while registering user"))
		return
	}

	avatarURL, ok := h.uploadAvatar(w, r, log)
	if !ok {
		return
	}
	coverImageURL := h.uploadCoverImage(r, log)

	user, err := h.authService.Register(r.Context(), services.RegisterInput{
		FullName:      req.FullName,
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserExists):
			log.Error("user already exists", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(http.StatusConflict, "user with email or username already exists"))
		default:
			log.Error("registration failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(http.StatusInternalServerError, "something went wrong while registering user"))
		}
		return
	}

	log.Info("user registered", slog.String("username", user.Username))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(http.StatusOK, user, "user registered successfully"))
}

// uploadAvatar загружает обязательный аватар. При отсутствии файла или
// неудачной загрузке пишет ответ 400 и возвращает ok=false.
func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		log.Error("avatar file is missing", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(http.StatusBadRequest, "avatar file is required"))
		return "", false
	}
	defer func() {
		_ = file.Close()
	}()

	url, err := h.uploader.Upload(r.Context(), file, contentType(header))
	if err != nil {
		log.Error("avatar upload failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(http.StatusBadRequest, "avatar file is required"))
		return "", false
	}
	if url == "" {
		log.Error("avatar upload returned empty url")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(http.StatusBadRequest, "avatar file is required"))
		return "", false
	}
	return url, true
}

// uploadCoverImage загружает опциональную обложку. Любая неудача
// деградирует до пустой ссылки и не прерывает регистрацию.
func (h *Handler) uploadCoverImage(r *http.Request, log *slog.Logger) string {
	file, header, err := r.FormFile("coverImage")
	if err != nil {
		return ""
	}
	defer func() {
		_ = file.Close()
	}()

	url, err := h.uploader.Upload(r.Context(), file, contentType(header))
	if err != nil {
		log.Warn("cover image upload failed", sl.Err(err))
		return ""
	}
	return url
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
