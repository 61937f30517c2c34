// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля, ссылки на медиафайлы
// и текущий refresh-токен. Структуры используются в бизнес‑логике
// и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID           string     // Уникальный идентификатор пользователя
	FullName      string     // Полное имя
	Email         string     // Электронная почта (уникальная)
	Username      string     // Имя пользователя (уникальное, в нижнем регистре)
	PasswordHash  string     // Хэш пароля пользователя
	AvatarURL     string     // Ссылка на аватар (обязательная)
	CoverImageURL string     // Ссылка на обложку профиля (опциональная)
	RefreshToken  *string    // Текущий refresh-токен, nil после выхода
	CreatedAt     time.Time  // Дата создания записи
	UpdatedAt     *time.Time // Дата последнего обновления
}

// SanitizedUser — представление пользователя без хэша пароля и refresh-токена.
// Только эта форма уходит наружу в HTTP-ответах.
type SanitizedUser struct {
	UID           string    `json:"uid"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Username      string    `json:"userName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitize возвращает представление пользователя без чувствительных полей.
func (u *User) Sanitize() *SanitizedUser {
	return &SanitizedUser{
		UID:           u.UID,
		FullName:      u.FullName,
		Email:         u.Email,
		Username:      u.Username,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}
