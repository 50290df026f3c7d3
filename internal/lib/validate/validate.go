// Package validate собирает валидатор запросов с дополнительными тегами.
package validate

import (
	"strconv"

	"github.com/go-playground/validator"
)

// TagMaxBytes ограничивает длину строки в байтах, а не в символах.
// Нужен для паролей: bcrypt принимает не более 72 байт.
const TagMaxBytes = "maxbytes"

// New возвращает валидатор с зарегистрированным тегом maxbytes.
func New() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(TagMaxBytes, maxBytes); err != nil {
		panic(err)
	}
	return v
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic("validate: bad maxbytes parameter " + fl.Param())
	}
	return len(fl.Field().String()) <= limit
}
