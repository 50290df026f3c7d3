package models

import "time"

// AvatarUnlocked публикуется, когда пересчёт аватара после новой сессии
// назначил пользователю другой аватар.
type AvatarUnlocked struct {
	EventID         string    `json:"eventId"`
	UserID          int64     `json:"userId"`
	AvatarName      string    `json:"avatarName"`
	ImageURL        string    `json:"imageUrl"`
	NrFocusSessions int       `json:"nrFocusSessions"`
	OccurredAt      time.Time `json:"occurredAt"`
}
