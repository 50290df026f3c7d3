// Package password реализует функции для безопасного хеширования и проверки паролей.
//
// Hash создает bcrypt-хеш пароля со случайной солью для безопасного хранения.
// Verify сообщает, соответствует ли введённый пароль сохранённому хешу.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher хеширует пароли bcrypt с заданной стоимостью.
type Hasher struct {
	cost int
}

// NewHasher создаёт Hasher. Стоимость вне допустимого диапазона bcrypt
// заменяется на bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash возвращает bcrypt‑хэш пароля. Соль генерируется при каждом вызове,
// поэтому два хэша одного пароля различаются.
func (h *Hasher) Hash(password string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Verify возвращает true, только если пароль соответствует хэшу.
// Повреждённый или пустой хэш считается несовпадением.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
