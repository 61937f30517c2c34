package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/videohub-backend/internal/models"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения.
const uniqueViolationCode = "23505"

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Нарушение уникальности username или email транслируется в ErrAlreadyExists:
// уникальные ограничения БД — источник истины, предварительная проверка в
// сервисе даёт только быстрый путь.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (full_name, email, username, password_hash, avatar_url, cover_image_url)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.Username, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return "", fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// FindByUsernameOrEmail возвращает пользователя, чей username или email
// совпадает с переданными значениями.
func (s *Storage) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	const op = "storage.FindByUsernameOrEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, full_name, email, username, password_hash, avatar_url,
			      cover_image_url, refresh_token, created_at, updated_at
			  FROM users
			  WHERE username = $1 OR email = $2`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, username, email), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, full_name, email, username, password_hash, avatar_url,
			      cover_image_url, refresh_token, created_at, updated_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// UpdateRefreshToken сохраняет новый refresh-токен пользователя.
// Обновляется только одна колонка, остальные поля записи не трогаются.
func (s *Storage) UpdateRefreshToken(ctx context.Context, userUID, refreshToken string) error {
	const op = "storage.UpdateRefreshToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET refresh_token = $1,
			      updated_at = NOW()
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, refreshToken, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ClearRefreshToken обнуляет refresh-токен пользователя.
// Операция идемпотентна: обнуление уже отсутствующего токена не является ошибкой.
func (s *Storage) ClearRefreshToken(ctx context.Context, userUID string) error {
	const op = "storage.ClearRefreshToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET refresh_token = NULL,
			      updated_at = NOW()
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// scanUser читает строку результата в модель пользователя,
// транслируя sql.ErrNoRows в ErrNotFound.
func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var refreshToken sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(&u.UID, &u.FullName, &u.Email, &u.Username, &u.PasswordHash,
		&u.AvatarURL, &u.CoverImageURL, &refreshToken, &u.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if refreshToken.Valid {
		u.RefreshToken = &refreshToken.String
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return u, nil
}
