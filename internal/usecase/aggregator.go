package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/domain"
	"github.com/blitzkrieg267/newsHub/internal/models"
	"github.com/blitzkrieg267/newsHub/storage"

	"golang.org/x/sync/errgroup"
)

// Потолок количества фидов за одно обновление.
const maxFeedsPerRefresh = 25

var (
	ErrNoActiveFeeds      = errors.New("no active feeds configured")
	ErrFeedNotFound       = errors.New("feed not found")
	ErrRefreshSuperseded  = errors.New("refresh superseded by a newer one")
	errRefreshAggregation = errors.New("refresh failed, previous data retained")
)

// AggregatorUseCase владеет списком фидов и циклом обновления коллекции.
//
// Цикл обновления: Idle -> Loading -> Success|Error, после чего агрегатор
// снова готов к следующему обновлению. Пересекающиеся обновления разрешает
// счётчик поколений: устаревший результат не может затереть более новый.
type AggregatorUseCase struct {
	pipeline FeedPipeline
	store    storage.NewsStorage
	notifier RefreshNotifier
	log      *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	feeds      []domain.Feed
	generation uint64
	status     models.RefreshStatus
}

func NewAggregatorUseCase(
	pipeline FeedPipeline,
	store storage.NewsStorage,
	notifier RefreshNotifier,
	feeds []domain.Feed,
	log *slog.Logger,
) *AggregatorUseCase {
	return &AggregatorUseCase{
		pipeline: pipeline,
		store:    store,
		notifier: notifier,
		feeds:    append([]domain.Feed(nil), feeds...),
		log:      log,
		now:      time.Now,
		status:   models.RefreshStatus{Phase: models.RefreshIdle},
	}
}

// RefreshAll опрашивает все активные фиды конкурентно, сливает результаты,
// убирает дубликаты ссылок между фидами, сортирует по дате публикации и
// переносит отметки избранного на новую коллекцию по ссылке.
func (uc *AggregatorUseCase) RefreshAll(ctx context.Context) (articles []models.Article, updatedAt time.Time, err error) {
	uc.mu.Lock()
	active := make([]domain.Feed, 0, len(uc.feeds))
	for _, f := range uc.feeds {
		if f.IsActive {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		// Ошибка конфигурации: состояние и прежняя коллекция не трогаются.
		uc.status = models.RefreshStatus{
			Phase:       models.RefreshError,
			LastUpdated: uc.status.LastUpdated,
			Articles:    uc.status.Articles,
			LastError:   ErrNoActiveFeeds.Error(),
		}
		uc.mu.Unlock()
		return nil, time.Time{}, ErrNoActiveFeeds
	}
	if len(active) > maxFeedsPerRefresh {
		uc.log.Warn("Too many active feeds, capping refresh batch",
			slog.Int("active", len(active)),
			slog.Int("cap", maxFeedsPerRefresh),
		)
		active = active[:maxFeedsPerRefresh]
	}
	uc.generation++
	gen := uc.generation
	uc.status.Phase = models.RefreshLoading
	uc.mu.Unlock()

	defer func() {
		// Неожиданный сбой всей пачки выдаёт общую повторяемую ошибку,
		// прежняя коллекция остаётся на месте.
		if r := recover(); r != nil {
			uc.log.Error("Refresh panicked", slog.Any("panic", r))
			uc.setError(fmt.Sprintf("%v", r))
			articles, updatedAt, err = nil, time.Time{}, errRefreshAggregation
		}
	}()

	merged := uc.fetchAndMerge(ctx, active)

	uc.mu.Lock()
	stale := gen != uc.generation
	uc.mu.Unlock()
	if stale {
		uc.log.Warn("Refresh result discarded, superseded by newer refresh")
		return nil, time.Time{}, ErrRefreshSuperseded
	}

	// Перенос избранного по естественному ключу — ссылке, а не по
	// нестабильному сгенерированному идентификатору.
	favorites := uc.store.FavoriteLinks(ctx)
	for i := range merged {
		if _, ok := favorites[merged[i].Link]; ok {
			merged[i].IsFavorite = true
		}
	}

	now := uc.now()
	if err := uc.store.Replace(ctx, merged, now); err != nil {
		uc.setError(err.Error())
		return nil, time.Time{}, fmt.Errorf("failed to install new collection: %w", err)
	}

	uc.mu.Lock()
	uc.status = models.RefreshStatus{
		Phase:       models.RefreshSuccess,
		LastUpdated: now,
		Articles:    len(merged),
	}
	uc.mu.Unlock()

	if uc.notifier != nil {
		uc.notifier.RefreshCompleted(ctx, len(merged), len(active))
	}

	uc.log.Info("Refresh completed",
		slog.Int("feeds", len(active)),
		slog.Int("articles", len(merged)),
	)
	return merged, now, nil
}

// fetchAndMerge — fan-out/fan-in: все фиды запускаются вместе, агрегатор
// ждёт завершения каждого. Отказ одной задачи изолирован и превращается в
// пустой вклад; порядок слияния детерминирован порядком конфигурации.
func (uc *AggregatorUseCase) fetchAndMerge(ctx context.Context, feeds []domain.Feed) []models.Article {
	results := make([][]models.Article, len(feeds))

	g := new(errgroup.Group)
	g.SetLimit(maxFeedsPerRefresh)
	for i, feed := range feeds {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					uc.log.Error("Feed task panicked, substituting empty result",
						slog.String("feed", feed.Title),
						slog.Any("panic", r),
					)
					results[i] = nil
				}
			}()
			results[i] = uc.pipeline.ProcessFeed(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	merged := make([]models.Article, 0)
	for _, batch := range results {
		for _, a := range batch {
			if _, dup := seen[a.Link]; dup {
				continue
			}
			seen[a.Link] = struct{}{}
			merged = append(merged, a)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	return merged
}

func (uc *AggregatorUseCase) setError(msg string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.status = models.RefreshStatus{
		Phase:       models.RefreshError,
		LastUpdated: uc.status.LastUpdated,
		Articles:    uc.status.Articles,
		LastError:   msg,
	}
}

// Status возвращает снимок состояния цикла обновления.
func (uc *AggregatorUseCase) Status() models.RefreshStatus {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.status
}

// Feeds возвращает копию текущей конфигурации фидов.
func (uc *AggregatorUseCase) Feeds() []domain.Feed {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.Feed(nil), uc.feeds...)
}

// ToggleFeedActive переключает активность фида. Изменение живёт только в
// памяти процесса, конфигурационный файл не переписывается.
func (uc *AggregatorUseCase) ToggleFeedActive(feedID string) (domain.Feed, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for i := range uc.feeds {
		if uc.feeds[i].ID == feedID {
			uc.feeds[i].IsActive = !uc.feeds[i].IsActive
			return uc.feeds[i], nil
		}
	}
	return domain.Feed{}, fmt.Errorf("%w: %s", ErrFeedNotFound, feedID)
}

// ToggleFavorite помечает или снимает отметку избранного по идентификатору.
func (uc *AggregatorUseCase) ToggleFavorite(ctx context.Context, id string) (models.Article, error) {
	return uc.store.ToggleFavorite(ctx, id)
}
