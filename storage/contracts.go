package storage

import (
	"context"
	"errors"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/models"
)

var ErrArticleNotFound = errors.New("article not found")

// ListQuery — параметры фильтрации списка новостей.
// Пустые поля означают «без фильтра».
type ListQuery struct {
	Category      string
	Search        string
	FavoritesOnly bool
	From          time.Time
	To            time.Time
}

type NewsStorage interface {
	GetDetailedNews(ctx context.Context, id string) (models.Article, error)
	GetNewsList(ctx context.Context, q ListQuery) ([]models.Article, error)
	Replace(ctx context.Context, articles []models.Article, at time.Time) error
	FavoriteLinks(ctx context.Context) map[string]struct{}
	ToggleFavorite(ctx context.Context, id string) (models.Article, error)
	LastUpdated(ctx context.Context) time.Time
	Close()
}
