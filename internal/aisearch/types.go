package aisearch

import "github.com/blitzkrieg267/newsHub/internal/models"

// Card — одна секция ответа AI-поиска с цитатами-источниками.
type Card struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Citations []string `json:"citations,omitempty"`
}

// Result — полный ответ на поисковый запрос.
type Result struct {
	Query    string           `json:"query"`
	Provider string           `json:"provider"`
	Cards    []Card           `json:"cards"`
	Related  []models.Article `json:"related,omitempty"`
}
