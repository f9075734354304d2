package models

import "time"

// Article — нормализованная новость в агрегированной коллекции.
// PublishedAt сериализуется в ISO-8601 (RFC3339).
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"pub_date"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	Image       string    `json:"image,omitempty"`
	IsFavorite  bool      `json:"is_favorite"`
}

type RefreshPhase string

const (
	RefreshIdle    RefreshPhase = "idle"
	RefreshLoading RefreshPhase = "loading"
	RefreshSuccess RefreshPhase = "success"
	RefreshError   RefreshPhase = "error"
)

// RefreshStatus — состояние цикла обновления для отдачи клиенту.
type RefreshStatus struct {
	Phase       RefreshPhase `json:"phase"`
	LastUpdated time.Time    `json:"last_updated,omitzero"`
	Articles    int          `json:"articles"`
	LastError   string       `json:"last_error,omitempty"`
}
