package storage

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/models"
)

// MemoryStorage держит агрегированную коллекцию текущей сессии в памяти.
// Коллекция заменяется целиком на каждом успешном обновлении; частичных
// мутаций, видимых читателям, нет. Безопасен для конкурентного доступа.
type MemoryStorage struct {
	mu          sync.RWMutex
	articles    []models.Article
	lastUpdated time.Time
	log         *slog.Logger
}

func NewMemoryStorage(log *slog.Logger) *MemoryStorage {
	return &MemoryStorage{
		log: log,
	}
}

// Replace атомарно устанавливает новую коллекцию.
func (s *MemoryStorage) Replace(ctx context.Context, articles []models.Article, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := make([]models.Article, len(articles))
	copy(copied, articles)

	s.mu.Lock()
	s.articles = copied
	s.lastUpdated = at
	s.mu.Unlock()

	s.log.Info(
		"Collection replaced",
		slog.Int("articles", len(copied)),
		slog.Time("last_updated", at),
	)
	return nil
}

func (s *MemoryStorage) GetDetailedNews(ctx context.Context, id string) (models.Article, error) {
	if err := ctx.Err(); err != nil {
		return models.Article{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.ID == id {
			return a, nil
		}
	}
	s.log.Warn("News not found", slog.String("id", id))
	return models.Article{}, ErrArticleNotFound
}

// GetNewsList возвращает отфильтрованную проекцию коллекции.
// Порядок коллекции (pubDate по убыванию) сохраняется.
func (s *MemoryStorage) GetNewsList(ctx context.Context, q ListQuery) ([]models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if !matches(a, q) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func matches(a models.Article, q ListQuery) bool {
	if q.Category != "" && !strings.EqualFold(a.Category, q.Category) {
		return false
	}
	if q.FavoritesOnly && !a.IsFavorite {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(a.Title), needle) &&
			!strings.Contains(strings.ToLower(a.Description), needle) {
			return false
		}
	}
	if !q.From.IsZero() && a.PublishedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && a.PublishedAt.After(q.To) {
		return false
	}
	return true
}

// FavoriteLinks возвращает ссылки текущих избранных — естественный ключ
// для переноса отметок на новую коллекцию при обновлении.
func (s *MemoryStorage) FavoriteLinks(ctx context.Context) map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make(map[string]struct{})
	for _, a := range s.articles {
		if a.IsFavorite {
			links[a.Link] = struct{}{}
		}
	}
	return links
}

func (s *MemoryStorage) ToggleFavorite(ctx context.Context, id string) (models.Article, error) {
	if err := ctx.Err(); err != nil {
		return models.Article{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.articles {
		if s.articles[i].ID == id {
			s.articles[i].IsFavorite = !s.articles[i].IsFavorite
			return s.articles[i], nil
		}
	}
	return models.Article{}, ErrArticleNotFound
}

func (s *MemoryStorage) LastUpdated(ctx context.Context) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

func (s *MemoryStorage) Close() {}
