// Package services содержит логику бизнес-уровня для работы с пользователями,
// сессиями и выпуском токенов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/videohub-backend/internal/cache"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/password"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/sl"
	"github.com/magabrotheeeer/videohub-backend/internal/models"
	"github.com/magabrotheeeer/videohub-backend/internal/storage/repository"
)

// Ошибки бизнес-правил, транслируемые обработчиками в HTTP-статусы.
var (
	// ErrUserExists — пользователь с таким username или email уже зарегистрирован.
	ErrUserExists = errors.New("user with email or username already exists")
	// ErrUserNotFound — пользователь с таким идентификатором не существует.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrInvalidCredentials — пароль не совпал с сохранённым хэшем.
	ErrInvalidCredentials = errors.New("invalid user credentials")
	// ErrUserGone — созданная запись не читается обратно после регистрации.
	ErrUserGone = errors.New("failed to load user after registration")
	// ErrInvalidToken — refresh-токен не прошёл проверку или был ротирован.
	ErrInvalidToken = errors.New("invalid or expired refresh token")
)

// Ошибки выпуска токенов. Наружу все три уходят одним обезличенным
// сообщением и статусом 500, теги нужны для логов и метрик.
var (
	// ErrTokenUserNotFound — запись пользователя не загрузилась перед подписью.
	ErrTokenUserNotFound = errors.New("issue tokens: user not found")
	// ErrTokenSigning — подпись access- или refresh-токена не удалась.
	ErrTokenSigning = errors.New("issue tokens: signing failed")
	// ErrTokenPersistence — ротированный refresh-токен не сохранился.
	ErrTokenPersistence = errors.New("issue tokens: persisting refresh token failed")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// FindByUsernameOrEmail возвращает пользователя по username или email.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)

	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)

	// UpdateRefreshToken сохраняет ротированный refresh-токен.
	UpdateRefreshToken(ctx context.Context, userUID, refreshToken string) error

	// ClearRefreshToken обнуляет refresh-токен пользователя.
	ClearRefreshToken(ctx context.Context, userUID string) error
}

// EventPublisher публикует доменные события для внешних консьюмеров.
type EventPublisher interface {
	PublishUserRegistered(event models.UserRegisteredEvent) error
}

// ProfileCache описывает контракт инвалидации кэша профилей.
type ProfileCache interface {
	Invalidate(ctx context.Context, key string) error
}

// RegisterInput — входные данные регистрации с уже загруженными медиафайлами.
type RegisterInput struct {
	FullName      string
	Email         string
	Username      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// TokenPair — пара выпущенных токенов сессии.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService отвечает за регистрацию, авторизацию, выпуск токенов и выход.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	events   EventPublisher
	profiles ProfileCache
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, events EventPublisher, profiles ProfileCache, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		events:   events,
		profiles: profiles,
		log:      log,
	}
}

// CheckAvailability проверяет, свободны ли username и email.
// Возвращает ErrUserExists, если запись с такими идентификаторами уже есть.
// Проверка выполняется до загрузки медиафайлов, чтобы дубликат не оставлял
// осиротевших объектов в хранилище.
func (s *AuthService) CheckAvailability(ctx context.Context, username, email string) error {
	const op = "services.CheckAvailability"

	_, err := s.users.FindByUsernameOrEmail(ctx, strings.ToLower(username), email)
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Register создает нового пользователя: проверяет уникальность, хэширует пароль,
// приводит username к нижнему регистру и перечитывает созданную запись.
// Уникальные ограничения БД остаются источником истины — предварительная
// проверка даёт только быстрый путь к ошибке ErrUserExists.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.SanitizedUser, error) {
	const op = "services.Register"

	_, err := s.users.FindByUsernameOrEmail(ctx, strings.ToLower(input.Username), input.Email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		FullName:      input.FullName,
		Email:         input.Email,
		Username:      strings.ToLower(input.Username),
		PasswordHash:  hashed,
		AvatarURL:     input.AvatarURL,
		CoverImageURL: input.CoverImageURL,
	}
	newUID, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.users.GetUser(ctx, newUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserGone
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.events != nil {
		if err := s.events.PublishUserRegistered(models.UserRegisteredEvent{
			UserUID:  created.UID,
			Username: created.Username,
			Email:    created.Email,
		}); err != nil {
			s.log.Warn("failed to publish user.registered event", sl.Err(err))
		}
	}

	return created.Sanitize(), nil
}

// Login ищет пользователя по username или email (достаточно одного
// идентификатора), сверяет пароль и выпускает пару токенов.
func (s *AuthService) Login(ctx context.Context, username, email, rawPassword string) (*models.SanitizedUser, *TokenPair, error) {
	const op = "services.Login"

	user, err := s.users.FindByUsernameOrEmail(ctx, strings.ToLower(username), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, user.UID)
	if err != nil {
		return nil, nil, err
	}
	return user.Sanitize(), pair, nil
}

// IssueTokens загружает пользователя, подписывает access- и refresh-токены
// и сохраняет ротированный refresh-токен отдельным обновлением одной колонки.
// Каждая стадия помечена своим вариантом ошибки, наружу обработчики отдают
// одно обезличенное сообщение.
func (s *AuthService) IssueTokens(ctx context.Context, userUID string) (*TokenPair, error) {
	const op = "services.IssueTokens"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenUserNotFound, err)
	}

	accessToken, err := s.jwtMaker.GenerateAccessToken(user.UID, user.Username, user.Email, user.FullName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenSigning, err)
	}
	refreshToken, err := s.jwtMaker.GenerateRefreshToken(user.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenSigning, err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.UID, refreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenPersistence, err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh проверяет refresh-токен, сверяет его с сохранённым ротированным
// значением и выпускает новую пару токенов.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "services.Refresh"

	claims, err := s.jwtMaker.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, ErrInvalidToken
	}

	pair, err := s.IssueTokens(ctx, user.UID)
	if err != nil {
		return nil, err
	}
	s.invalidateProfile(ctx, user.UID)
	return pair, nil
}

// Logout обнуляет сохранённый refresh-токен пользователя. Операция
// дожидается подтверждения записи; ошибка уходит наверх как InternalError.
// Повторный выход — не ошибка.
func (s *AuthService) Logout(ctx context.Context, userUID string) error {
	const op = "services.Logout"
	if err := s.users.ClearRefreshToken(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProfile(ctx, userUID)
	return nil
}

// invalidateProfile сбрасывает закэшированный профиль пользователя.
// Ошибка кэша не прерывает операцию: запись доживет до истечения TTL.
func (s *AuthService) invalidateProfile(ctx context.Context, userUID string) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.Invalidate(ctx, cache.UserProfileKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate cached profile", sl.Err(err))
	}
}

// GetUser возвращает санитизированного пользователя по UID.
func (s *AuthService) GetUser(ctx context.Context, userUID string) (*models.SanitizedUser, error) {
	const op = "services.GetUser"
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user.Sanitize(), nil
}

// ValidateAccessToken проверяет access-токен и возвращает его claims.
func (s *AuthService) ValidateAccessToken(_ context.Context, token string) (*jwt.AccessClaims, error) {
	claims, err := s.jwtMaker.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
