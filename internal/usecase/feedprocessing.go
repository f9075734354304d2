package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/categorizer"
	"github.com/blitzkrieg267/newsHub/internal/domain"
	"github.com/blitzkrieg267/newsHub/internal/models"

	"github.com/google/uuid"
)

// Окно приёма публикаций: не старше года и не из будущего.
const maxArticleAge = 365 * 24 * time.Hour

type FeedProcessingUseCase struct {
	fetcher ContentFetcher
	parser  FeedParser
	log     *slog.Logger
	now     func() time.Time
}

func NewFeedProcessingUseCase(
	fetcher ContentFetcher,
	parser FeedParser,
	log *slog.Logger,
) *FeedProcessingUseCase {
	return &FeedProcessingUseCase{
		fetcher: fetcher,
		parser:  parser,
		log:     log,
		now:     time.Now,
	}
}

// ProcessFeed выполняет полный цикл одного фида: получение, разбор,
// валидация, категоризация и сортировка. Никогда не возвращает ошибку
// наружу: любой сбой уровня фида деградирует до пустого списка, чтобы
// один мёртвый источник не срывал всё обновление.
func (uc *FeedProcessingUseCase) ProcessFeed(ctx context.Context, feed domain.Feed) []models.Article {
	start := uc.now()
	log := uc.log.With(
		slog.String("component", "feed-processor"),
		slog.String("feed", feed.Title),
		slog.String("url", feed.URL),
	)

	payload, err := uc.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		log.Warn("Feed fetch failed, contributing zero items",
			slog.String("stage", "fetch"),
			slog.Any("error", err),
		)
		return []models.Article{}
	}

	parsed, err := uc.parser.Parse(ctx, payload)
	if err != nil {
		log.Warn("Feed parsing failed, contributing zero items",
			slog.String("stage", "parse"),
			slog.Any("error", err),
		)
		return []models.Article{}
	}

	now := uc.now()
	oldest := now.Add(-maxArticleAge)
	seen := make(map[string]struct{}, len(parsed.Items))
	articles := make([]models.Article, 0, len(parsed.Items))

	for i, item := range parsed.Items {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.Link) == "" {
			continue
		}
		// Первое вхождение ссылки выигрывает, дубликаты внутри фида отбрасываются.
		if _, dup := seen[item.Link]; dup {
			continue
		}
		// Публикации из будущего считаются невалидными, это не эмбарго.
		if item.PubDate.After(now) || item.PubDate.Before(oldest) {
			continue
		}
		seen[item.Link] = struct{}{}

		articles = append(articles, models.Article{
			ID:          generateID(feed.Title, i, now),
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			PublishedAt: item.PubDate,
			Category:    categorizer.Categorize(item.Title, item.Description),
			Source:      feed.Title,
			Image:       item.Image,
		})
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	log.Debug("Feed processing completed",
		slog.Int("items_parsed", len(parsed.Items)),
		slog.Int("items_accepted", len(articles)),
		slog.Duration("duration", uc.now().Sub(start)),
	)
	return articles
}

// generateID собирает идентификатор из источника, порядкового номера,
// времени и случайного суффикса. Уникальность гарантируется только в
// рамках одного вызова ProcessFeed; ключом между обновлениями служит Link.
func generateID(source string, ordinal int, now time.Time) string {
	slug := strings.ToLower(strings.Join(strings.Fields(source), "-"))
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s-%d-%d-%s", slug, ordinal, now.UnixNano(), suffix)
}
