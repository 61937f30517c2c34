package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/videohub-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/videohub-backend/internal/lib/password"
	"github.com/magabrotheeeer/videohub-backend/internal/models"
	services "github.com/magabrotheeeer/videohub-backend/internal/services/auth"
	"github.com/magabrotheeeer/videohub-backend/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateRefreshToken(ctx context.Context, userUID, refreshToken string) error {
	args := m.Called(ctx, userUID, refreshToken)
	return args.Error(0)
}

func (m *UserRepoMock) ClearRefreshToken(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateAccessToken(useruid, username, email, fullName string) (string, error) {
	args := m.Called(useruid, username, email, fullName)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) GenerateRefreshToken(useruid string) (string, error) {
	args := m.Called(useruid)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseAccessToken(token string) (*customjwt.AccessClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.AccessClaims), args.Error(1)
}

func (m *JwtMakerMock) ParseRefreshToken(token string) (*customjwt.RefreshClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.RefreshClaims), args.Error(1)
}

// Мок для EventPublisher
type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) PublishUserRegistered(event models.UserRegisteredEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// Мок для ProfileCache
type ProfileCacheMock struct {
	mock.Mock
}

func (m *ProfileCacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testUser(refreshToken string) *models.User {
	u := &models.User{
		UID:          "uid-1",
		FullName:     "Ada Lovelace",
		Email:        "ada@x.com",
		Username:     "ada",
		AvatarURL:    "https://cdn.example.com/a.png",
		PasswordHash: "hash",
	}
	if refreshToken != "" {
		u.RefreshToken = &refreshToken
	}
	return u
}

func TestAuthService_Register(t *testing.T) {
	input := services.RegisterInput{
		FullName:  "Ada Lovelace",
		Email:     "ada@x.com",
		Username:  "Ada",
		Password:  "secret123",
		AvatarURL: "https://cdn.example.com/a.png",
	}

	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, e *EventPublisherMock)
		wantErr    error
	}{
		{
			name: "successful registration lowercases username and publishes event",
			setupMocks: func(r *UserRepoMock, e *EventPublisherMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(nil, repository.ErrNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Username == "ada" &&
						user.Email == "ada@x.com" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "secret123" &&
						user.AvatarURL == "https://cdn.example.com/a.png"
				})).Return("uid-1", nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").Return(testUser(""), nil).Once()
				e.On("PublishUserRegistered", models.UserRegisteredEvent{
					UserUID:  "uid-1",
					Username: "ada",
					Email:    "ada@x.com",
				}).Return(nil).Once()
			},
		},
		{
			name: "duplicate found by pre-check",
			setupMocks: func(r *UserRepoMock, _ *EventPublisherMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(testUser(""), nil).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "duplicate caught by unique constraint",
			setupMocks: func(r *UserRepoMock, _ *EventPublisherMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(nil, repository.ErrNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", repository.ErrAlreadyExists).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "created record does not read back",
			setupMocks: func(r *UserRepoMock, _ *EventPublisherMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(nil, repository.ErrNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).Return("uid-1", nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrUserGone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			events := new(EventPublisherMock)
			svc := services.NewAuthService(repo, new(JwtMakerMock), events, nil, newNoopLogger())

			tt.setupMocks(repo, events)

			got, err := svc.Register(context.Background(), input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ada", got.Username)
				assert.Equal(t, "ada@x.com", got.Email)
			}

			repo.AssertExpectations(t)
			events.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_EventFailureDoesNotFail(t *testing.T) {
	repo := new(UserRepoMock)
	events := new(EventPublisherMock)
	svc := services.NewAuthService(repo, new(JwtMakerMock), events, nil, newNoopLogger())

	repo.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
		Return(nil, repository.ErrNotFound).Once()
	repo.On("CreateUser", mock.Anything, mock.Anything).Return("uid-1", nil).Once()
	repo.On("GetUser", mock.Anything, "uid-1").Return(testUser(""), nil).Once()
	events.On("PublishUserRegistered", mock.Anything).Return(errors.New("amqp down")).Once()

	got, err := svc.Register(context.Background(), services.RegisterInput{
		FullName:  "Ada Lovelace",
		Email:     "ada@x.com",
		Username:  "Ada",
		Password:  "secret123",
		AvatarURL: "https://cdn.example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	events.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hash, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	storedUser := testUser("")
	storedUser.PasswordHash = hash

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name:     "successful login persists rotated refresh token",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(storedUser, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()
				j.On("GenerateAccessToken", "uid-1", "ada", "ada@x.com", "Ada Lovelace").
					Return("access-token", nil).Once()
				j.On("GenerateRefreshToken", "uid-1").Return("refresh-token", nil).Once()
				r.On("UpdateRefreshToken", mock.Anything, "uid-1", "refresh-token").
					Return(nil).Once()
			},
		},
		{
			name:     "unknown user",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
		{
			name:     "wrong password",
			password: "wrong",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(storedUser, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock, nil, nil, newNoopLogger())

			tt.setupMocks(repo, jwtMock)

			user, pair, err := svc.Login(context.Background(), "Ada", "ada@x.com", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ada", user.Username)
				assert.Equal(t, "access-token", pair.AccessToken)
				assert.Equal(t, "refresh-token", pair.RefreshToken)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_IssueTokens_TaggedErrors(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name: "user load failure",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-1").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrTokenUserNotFound,
		},
		{
			name: "signing failure",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(testUser(""), nil).Once()
				j.On("GenerateAccessToken", "uid-1", "ada", "ada@x.com", "Ada Lovelace").
					Return("", errors.New("bad key")).Once()
			},
			wantErr: services.ErrTokenSigning,
		},
		{
			name: "persistence failure",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(testUser(""), nil).Once()
				j.On("GenerateAccessToken", "uid-1", "ada", "ada@x.com", "Ada Lovelace").
					Return("access-token", nil).Once()
				j.On("GenerateRefreshToken", "uid-1").Return("refresh-token", nil).Once()
				r.On("UpdateRefreshToken", mock.Anything, "uid-1", "refresh-token").
					Return(errors.New("db down")).Once()
			},
			wantErr: services.ErrTokenPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock, nil, nil, newNoopLogger())

			tt.setupMocks(repo, jwtMock)

			_, err := svc.IssueTokens(context.Background(), "uid-1")
			assert.ErrorIs(t, err, tt.wantErr)

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name:  "successful rotation",
			token: "stored-refresh",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseRefreshToken", "stored-refresh").
					Return(&customjwt.RefreshClaims{UserUID: "uid-1"}, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").
					Return(testUser("stored-refresh"), nil).Twice()
				j.On("GenerateAccessToken", "uid-1", "ada", "ada@x.com", "Ada Lovelace").
					Return("new-access", nil).Once()
				j.On("GenerateRefreshToken", "uid-1").Return("new-refresh", nil).Once()
				r.On("UpdateRefreshToken", mock.Anything, "uid-1", "new-refresh").
					Return(nil).Once()
			},
		},
		{
			name:  "unparseable token",
			token: "garbage",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseRefreshToken", "garbage").
					Return(nil, errors.New("bad signature")).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
		{
			name:  "rotated out token",
			token: "old-refresh",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseRefreshToken", "old-refresh").
					Return(&customjwt.RefreshClaims{UserUID: "uid-1"}, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").
					Return(testUser("stored-refresh"), nil).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
		{
			name:  "token cleared by logout",
			token: "old-refresh",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseRefreshToken", "old-refresh").
					Return(&customjwt.RefreshClaims{UserUID: "uid-1"}, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").
					Return(testUser(""), nil).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock, nil, nil, newNoopLogger())

			tt.setupMocks(repo, jwtMock)

			pair, err := svc.Refresh(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "new-access", pair.AccessToken)
				assert.Equal(t, "new-refresh", pair.RefreshToken)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("clear is awaited and repeated logout succeeds", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock), nil, nil, newNoopLogger())

		repo.On("ClearRefreshToken", mock.Anything, "uid-1").Return(nil).Twice()

		require.NoError(t, svc.Logout(context.Background(), "uid-1"))
		require.NoError(t, svc.Logout(context.Background(), "uid-1"))
		repo.AssertExpectations(t)
	})

	t.Run("clear failure surfaces", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock), nil, nil, newNoopLogger())

		repo.On("ClearRefreshToken", mock.Anything, "uid-1").
			Return(errors.New("db down")).Once()

		err := svc.Logout(context.Background(), "uid-1")
		assert.Error(t, err)
		repo.AssertExpectations(t)
	})
}

func TestAuthService_CheckAvailability(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock)
		wantErr    error
		wantAnyErr bool
	}{
		{
			name: "identifiers are free",
			setupMocks: func(r *UserRepoMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(nil, repository.ErrNotFound).Once()
			},
		},
		{
			name: "username lowercased and duplicate reported",
			setupMocks: func(r *UserRepoMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(testUser(""), nil).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "storage failure is not a duplicate",
			setupMocks: func(r *UserRepoMock) {
				r.On("FindByUsernameOrEmail", mock.Anything, "ada", "ada@x.com").
					Return(nil, errors.New("db down")).Once()
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := services.NewAuthService(repo, new(JwtMakerMock), nil, nil, newNoopLogger())

			tt.setupMocks(repo)

			err := svc.CheckAvailability(context.Background(), "Ada", "ada@x.com")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, services.ErrUserExists)
			default:
				require.NoError(t, err)
			}

			repo.AssertExpectations(t)
		})
	}
}

// Выход и ротация refresh-токена сбрасывают закэшированный профиль,
// ошибка кэша при этом операцию не ломает.
func TestAuthService_ProfileCacheInvalidation(t *testing.T) {
	t.Run("logout invalidates cached profile", func(t *testing.T) {
		repo := new(UserRepoMock)
		profiles := new(ProfileCacheMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock), nil, profiles, newNoopLogger())

		repo.On("ClearRefreshToken", mock.Anything, "uid-1").Return(nil).Once()
		profiles.On("Invalidate", mock.Anything, "users:uid-1").Return(nil).Once()

		require.NoError(t, svc.Logout(context.Background(), "uid-1"))
		repo.AssertExpectations(t)
		profiles.AssertExpectations(t)
	})

	t.Run("refresh rotation invalidates cached profile", func(t *testing.T) {
		repo := new(UserRepoMock)
		jwtMock := new(JwtMakerMock)
		profiles := new(ProfileCacheMock)
		svc := services.NewAuthService(repo, jwtMock, nil, profiles, newNoopLogger())

		jwtMock.On("ParseRefreshToken", "stored-refresh").
			Return(&customjwt.RefreshClaims{UserUID: "uid-1"}, nil).Once()
		repo.On("GetUser", mock.Anything, "uid-1").
			Return(testUser("stored-refresh"), nil).Twice()
		jwtMock.On("GenerateAccessToken", "uid-1", "ada", "ada@x.com", "Ada Lovelace").
			Return("new-access", nil).Once()
		jwtMock.On("GenerateRefreshToken", "uid-1").Return("new-refresh", nil).Once()
		repo.On("UpdateRefreshToken", mock.Anything, "uid-1", "new-refresh").
			Return(nil).Once()
		profiles.On("Invalidate", mock.Anything, "users:uid-1").Return(nil).Once()

		pair, err := svc.Refresh(context.Background(), "stored-refresh")
		require.NoError(t, err)
		assert.Equal(t, "new-access", pair.AccessToken)
		profiles.AssertExpectations(t)
	})

	t.Run("invalidation failure does not fail logout", func(t *testing.T) {
		repo := new(UserRepoMock)
		profiles := new(ProfileCacheMock)
		svc := services.NewAuthService(repo, new(JwtMakerMock), nil, profiles, newNoopLogger())

		repo.On("ClearRefreshToken", mock.Anything, "uid-1").Return(nil).Once()
		profiles.On("Invalidate", mock.Anything, "users:uid-1").
			Return(errors.New("redis down")).Once()

		require.NoError(t, svc.Logout(context.Background(), "uid-1"))
		profiles.AssertExpectations(t)
	})
}
