// Package models содержит доменные модели сервиса: пользователя с его
// статистикой фокус-сессий и аватар, открываемый по числу сессий.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "strconv"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                   int64  `json:"id"`                   // Синтетический идентификатор
	Email                string `json:"email"`                // Электронная почта (уникальная)
	Username             string `json:"username"`             // Имя пользователя (уникальное)
	PasswordHash         string `json:"-"`                    // bcrypt-хэш пароля, никогда не отдаётся клиенту
	NrFocusSessions      int    `json:"nrFocusSessions"`      // Всего завершённых фокус-сессий
	TotalFocusTime       int    `json:"totalFocusTime"`       // Суммарное время фокуса
	NrFocusSessionsToday int    `json:"nrFocusSessionsToday"` // Сессий за сегодня
	FocusTimeToday       string `json:"focusTimeToday"`       // Время фокуса за сегодня
	Avatar               Avatar `json:"avatar"`               // Текущий аватар
}

// Profile - упорядоченный набор полей профиля в том виде, в каком его ждёт клиент.
type Profile struct {
	Username             string
	Email                string
	NrFocusSessions      int
	TotalFocusTime       int
	NrFocusSessionsToday int
	FocusTimeToday       string
	Avatar               string
}

// ProfileOf собирает профиль из пользователя.
func ProfileOf(u User) Profile {
	return Profile{
		Username:             u.Username,
		Email:                u.Email,
		NrFocusSessions:      u.NrFocusSessions,
		TotalFocusTime:       u.TotalFocusTime,
		NrFocusSessionsToday: u.NrFocusSessionsToday,
		FocusTimeToday:       u.FocusTimeToday,
		Avatar:               u.Avatar.ImageURL,
	}
}

// Strings возвращает профиль массивом из семи строк в фиксированном порядке:
// имя, почта, число сессий, суммарное время, сессии за сегодня, время за сегодня, аватар.
func (p Profile) Strings() []string {
	return []string{
		p.Username,
		p.Email,
		strconv.Itoa(p.NrFocusSessions),
		strconv.Itoa(p.TotalFocusTime),
		strconv.Itoa(p.NrFocusSessionsToday),
		p.FocusTimeToday,
		p.Avatar,
	}
}
