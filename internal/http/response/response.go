// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: ошибок, сообщений
// и ошибок валидации.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

const (
	// StatusOK - значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError - значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// ErrorResponse описывает ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// MessageResponse - ответ с одним текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// Message возвращает MessageResponse.
func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}

// ValidationError формирует ErrorResponse на основе ошибок валидации.
// Каждое нарушение превращается в человеко‑читаемый текст, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "maxbytes":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s bytes", err.Field(), err.Param()))
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than or equal to %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
