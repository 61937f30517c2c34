// Package session управляет cookie сессии с access- и refresh-токенами.
// Обе cookie выставляются и очищаются с одинаковым набором флагов:
// HttpOnly и Secure.
package session

import "net/http"

const (
	// AccessTokenCookie — имя cookie с access-токеном.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie — имя cookie с refresh-токеном.
	RefreshTokenCookie = "refreshToken"
)

func newCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
	}
}

// SetTokenCookies выставляет обе cookie сессии.
func SetTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, newCookie(AccessTokenCookie, accessToken, 0))
	http.SetCookie(w, newCookie(RefreshTokenCookie, refreshToken, 0))
}

// ClearTokenCookies очищает обе cookie сессии.
func ClearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, newCookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, newCookie(RefreshTokenCookie, "", -1))
}
