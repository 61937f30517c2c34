// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру успешного JSON‑ответа сервера.
// Поле Code — числовой код результата (исторически 200 даже при HTTP 201).
// Поле Data — полезная нагрузка ответа.
// Поле Message — человекочитаемое сообщение.
// Поле Success — true, когда Code < 400.
type Response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// ErrorResponse — структура ответа с ошибкой. StatusCode определяет
// транспортный HTTP-статус, Errors содержит детализацию (обычно пустую).
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
	Data       any      `json:"data"`
}

// OKWithData возвращает успешный Response с переданным кодом, данными и сообщением.
func OKWithData(code int, data any, message string) Response {
	return Response{
		Code:    code,
		Data:    data,
		Message: message,
		Success: code < http.StatusBadRequest,
	}
}

// Error возвращает ErrorResponse с переданным статусом и сообщением.
func Error(statusCode int, msg string) ErrorResponse {
	return ErrorResponse{
		StatusCode: statusCode,
		Message:    msg,
		Success:    false,
		Errors:     []string{},
		Data:       nil,
	}
}

// ValidationError формирует ErrorResponse со статусом 400 на основе ошибок валидации.
// Каждое нарушение превращается в человеко‑читаемый текст в списке Errors.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    "all fields are required",
		Success:    false,
		Errors:     errsMsgs,
		Data:       nil,
	}
}
