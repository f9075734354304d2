package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/domain"
	"github.com/blitzkrieg267/newsHub/internal/models"
	"github.com/blitzkrieg267/newsHub/storage"
)

type fakePipeline struct {
	fn func(feed domain.Feed) []models.Article
}

func (p *fakePipeline) ProcessFeed(ctx context.Context, feed domain.Feed) []models.Article {
	return p.fn(feed)
}

type fakeNotifier struct {
	articles int32
	calls    int32
}

func (n *fakeNotifier) RefreshCompleted(ctx context.Context, articles, sources int) {
	atomic.AddInt32(&n.calls, 1)
	atomic.StoreInt32(&n.articles, int32(articles))
}

func article(id, link string, published time.Time) models.Article {
	return models.Article{
		ID:          id,
		Title:       "title " + id,
		Link:        link,
		PublishedAt: published,
		Source:      "src",
		Category:    "General",
	}
}

func twoFeeds() []domain.Feed {
	return []domain.Feed{
		{ID: "f1", Title: "Feed One", URL: "https://one.example/rss", IsActive: true},
		{ID: "f2", Title: "Feed Two", URL: "https://two.example/rss", IsActive: true},
	}
}

func TestRefreshAllMergesAndSorts(t *testing.T) {
	now := time.Now()
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		if feed.ID == "f1" {
			return []models.Article{article("a", "https://e.com/a", now.Add(-3*time.Hour))}
		}
		return []models.Article{article("b", "https://e.com/b", now.Add(-1*time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	uc := NewAggregatorUseCase(pipeline, store, nil, twoFeeds(), testLogger())

	merged, updatedAt, err := uc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("got %d articles, want 2", len(merged))
	}
	if merged[0].ID != "b" {
		t.Errorf("first article = %q, want newest across feeds", merged[0].ID)
	}
	if updatedAt.IsZero() {
		t.Error("updatedAt is zero")
	}
	if st := uc.Status(); st.Phase != models.RefreshSuccess || st.Articles != 2 {
		t.Errorf("status = %+v, want success with 2 articles", st)
	}
}

func TestRefreshAllCrossFeedDedupFirstWins(t *testing.T) {
	now := time.Now()
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		// Оба фида отдают одну и ту же ссылку.
		return []models.Article{article(feed.ID, "https://e.com/same", now.Add(-time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	uc := NewAggregatorUseCase(pipeline, store, nil, twoFeeds(), testLogger())

	merged, _, err := uc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("got %d articles, want 1 after cross-feed dedup", len(merged))
	}
	if merged[0].ID != "f1" {
		t.Errorf("kept article from %q, want first-configured feed", merged[0].ID)
	}
}

func TestRefreshAllPartialFailureStillSucceeds(t *testing.T) {
	now := time.Now()
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		if feed.ID == "f1" {
			// Фид A «упал»: конвейер деградировал до пустого списка.
			return []models.Article{}
		}
		return []models.Article{article("b", "https://e.com/b", now.Add(-time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	uc := NewAggregatorUseCase(pipeline, store, nil, twoFeeds(), testLogger())

	merged, _, err := uc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not surface an error, got: %v", err)
	}
	if len(merged) != 1 || merged[0].ID != "b" {
		t.Fatalf("merged = %+v, want only feed B's article", merged)
	}
	if st := uc.Status(); st.Phase != models.RefreshSuccess {
		t.Errorf("status phase = %q, want success", st.Phase)
	}
}

func TestRefreshAllNoActiveFeeds(t *testing.T) {
	now := time.Now()
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		return []models.Article{article("a", "https://e.com/a", now.Add(-time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	uc := NewAggregatorUseCase(pipeline, store, nil, twoFeeds(), testLogger())

	// Первое обновление наполняет коллекцию.
	if _, _, err := uc.RefreshAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, f := range uc.Feeds() {
		if _, err := uc.ToggleFeedActive(f.ID); err != nil {
			t.Fatal(err)
		}
	}

	_, _, err := uc.RefreshAll(context.Background())
	if !errors.Is(err, ErrNoActiveFeeds) {
		t.Fatalf("err = %v, want ErrNoActiveFeeds", err)
	}

	// Прежняя коллекция не тронута.
	list, err := store.GetNewsList(context.Background(), storage.ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("previous collection cleared: got %d articles, want 1", len(list))
	}
	if st := uc.Status(); st.Phase != models.RefreshError || st.Articles != 1 {
		t.Errorf("status = %+v, want error phase with prior counters", st)
	}
}

func TestRefreshAllPreservesFavoritesByLink(t *testing.T) {
	now := time.Now()
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		if feed.ID != "f1" {
			return nil
		}
		// Каждый вызов генерирует новый id для той же ссылки.
		return []models.Article{article("gen-"+time.Now().String(), "https://e.com/stable", now.Add(-time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	uc := NewAggregatorUseCase(pipeline, store, nil, twoFeeds(), testLogger())

	merged, _, err := uc.RefreshAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uc.ToggleFavorite(context.Background(), merged[0].ID); err != nil {
		t.Fatal(err)
	}

	merged, _, err = uc.RefreshAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("got %d articles, want 1", len(merged))
	}
	if !merged[0].IsFavorite {
		t.Error("favorite flag lost across refresh despite matching link")
	}
}

func TestRefreshAllSupersededByNewerRefresh(t *testing.T) {
	now := time.Now()
	release := make(chan struct{})
	var first int32
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		if atomic.CompareAndSwapInt32(&first, 0, 1) {
			<-release
			return []models.Article{article("old", "https://e.com/old", now.Add(-2*time.Hour))}
		}
		return []models.Article{article("new", "https://e.com/new", now.Add(-time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	feeds := []domain.Feed{{ID: "f1", Title: "Feed One", URL: "https://one.example/rss", IsActive: true}}
	uc := NewAggregatorUseCase(pipeline, store, nil, feeds, testLogger())

	firstErr := make(chan error, 1)
	go func() {
		_, _, err := uc.RefreshAll(context.Background())
		firstErr <- err
	}()

	// Ждём, пока первое обновление зависнет в конвейере.
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&first) == 0 {
		select {
		case <-deadline:
			t.Fatal("first refresh never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, _, err := uc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	close(release)

	if err := <-firstErr; !errors.Is(err, ErrRefreshSuperseded) {
		t.Fatalf("first refresh err = %v, want ErrRefreshSuperseded", err)
	}

	// Победил результат более нового обновления.
	list, err := store.GetNewsList(context.Background(), storage.ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("collection = %+v, want the newer refresh result", list)
	}
}

func TestRefreshAllNotifies(t *testing.T) {
	now := time.Now()
	pipeline := &fakePipeline{fn: func(feed domain.Feed) []models.Article {
		return []models.Article{article(feed.ID, "https://e.com/"+feed.ID, now.Add(-time.Hour))}
	}}
	store := storage.NewMemoryStorage(testLogger())
	notifier := &fakeNotifier{}
	uc := NewAggregatorUseCase(pipeline, store, notifier, twoFeeds(), testLogger())

	if _, _, err := uc.RefreshAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&notifier.calls) != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.calls)
	}
	if atomic.LoadInt32(&notifier.articles) != 2 {
		t.Errorf("notified articles = %d, want 2", notifier.articles)
	}
}

func TestToggleFeedActive(t *testing.T) {
	store := storage.NewMemoryStorage(testLogger())
	uc := NewAggregatorUseCase(&fakePipeline{fn: func(domain.Feed) []models.Article { return nil }}, store, nil, twoFeeds(), testLogger())

	f, err := uc.ToggleFeedActive("f1")
	if err != nil {
		t.Fatalf("ToggleFeedActive returned error: %v", err)
	}
	if f.IsActive {
		t.Error("feed still active after toggle")
	}

	if _, err := uc.ToggleFeedActive("ghost"); !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("err = %v, want ErrFeedNotFound", err)
	}
}
