package domain

import "time"

// Feed — сконфигурированный RSS-источник. Ядро меняет только IsActive.
type Feed struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	IsActive bool   `json:"is_active"`
}

// Item — один разобранный элемент <item> до валидации и категоризации.
type Item struct {
	Title       string
	Link        string
	Description string
	Image       string
	PubDate     time.Time
}

// ParsedFeed — результат разбора одного RSS-документа.
type ParsedFeed struct {
	Title string
	Items []Item
}
