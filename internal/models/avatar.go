package models

// Avatar - косметическое украшение профиля, открываемое при достижении
// порога UnlockCriteria завершённых фокус-сессий.
type Avatar struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ImageURL       string `json:"imageUrl"`
	UnlockCriteria int    `json:"unlockCriteria"`
}

// IsDefault сообщает, доступен ли аватар без единой сессии.
func (a Avatar) IsDefault() bool {
	return a.UnlockCriteria == 0
}

// UnlockedBy сообщает, открыт ли аватар при данном числе сессий.
func (a Avatar) UnlockedBy(sessions int) bool {
	return a.UnlockCriteria <= sessions
}
