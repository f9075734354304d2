package usecase

import (
	"context"

	"github.com/blitzkrieg267/newsHub/internal/domain"
	"github.com/blitzkrieg267/newsHub/internal/models"
)

// ContentFetcher — интерфейс получения сырого XML фида (через цепочку прокси).
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FeedParser — интерфейс разбора XML в доменную модель.
type FeedParser interface {
	Parse(ctx context.Context, payload string) (*domain.ParsedFeed, error)
}

// FeedPipeline — полный цикл обработки одного фида.
type FeedPipeline interface {
	ProcessFeed(ctx context.Context, feed domain.Feed) []models.Article
}

// RefreshNotifier — необязательный приёмник событий об успешном обновлении.
type RefreshNotifier interface {
	RefreshCompleted(ctx context.Context, articles int, sources int)
}
