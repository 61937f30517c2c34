// Package jwt реализует генерацию и парсинг пары JWT токенов (access + refresh)
// с пользовательскими claim полями.
//
// Maker определяет интерфейс для создания и проверки токенов.
// MakerImpl — конкретная реализация с отдельными секретными ключами
// и сроками жизни для access- и refresh-токенов.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims описывает данные access-токена: полную идентичность пользователя.
type AccessClaims struct {
	UserUID              string `json:"uid"`      // Уникальный идентификатор пользователя
	Username             string `json:"username"` // Имя пользователя
	Email                string `json:"email"`    // Электронная почта
	FullName             string `json:"fullName"` // Полное имя
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// RefreshClaims описывает данные refresh-токена — только идентификатор пользователя.
type RefreshClaims struct {
	UserUID string `json:"uid"`
	jwt.RegisteredClaims
}

// Maker описывает интерфейс для генерации и парсинга пары JWT токенов.
type Maker interface {
	// GenerateAccessToken создает короткоживущий access-токен с идентичностью пользователя.
	GenerateAccessToken(useruid, username, email, fullName string) (string, error)
	// GenerateRefreshToken создает долгоживущий refresh-токен с uid пользователя.
	GenerateRefreshToken(useruid string) (string, error)
	// ParseAccessToken возвращает *AccessClaims, если токен корректен.
	ParseAccessToken(tokenStr string) (*AccessClaims, error)
	// ParseRefreshToken возвращает *RefreshClaims, если токен корректен.
	ParseRefreshToken(tokenStr string) (*RefreshClaims, error)
}

// MakerImpl реализует интерфейс Maker с отдельными секретными ключами
// и временем жизни (TTL) для каждого вида токена.
type MakerImpl struct {
	accessSecretKey  string        // Секретный ключ для подписи access-токенов.
	refreshSecretKey string        // Секретный ключ для подписи refresh-токенов.
	accessTTL        time.Duration // Время жизни access-токена.
	refreshTTL       time.Duration // Время жизни refresh-токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретных ключей и TTL.
func NewJWTMaker(accessSecretKey, refreshSecretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		accessSecretKey:  accessSecretKey,
		refreshSecretKey: refreshSecretKey,
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
	}
}
