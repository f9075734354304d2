package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/aisearch"
	"github.com/blitzkrieg267/newsHub/internal/domain"
	"github.com/blitzkrieg267/newsHub/internal/models"
	"github.com/blitzkrieg267/newsHub/internal/pagination"
	"github.com/blitzkrieg267/newsHub/internal/usecase"
	"github.com/blitzkrieg267/newsHub/storage"

	httputils "github.com/Fau1con/renderresponse"
)

// Refresher — операции агрегатора, доступные слою представления.
type Refresher interface {
	RefreshAll(ctx context.Context) ([]models.Article, time.Time, error)
	Status() models.RefreshStatus
	Feeds() []domain.Feed
	ToggleFeedActive(feedID string) (domain.Feed, error)
	ToggleFavorite(ctx context.Context, id string) (models.Article, error)
}

// Searcher — контракт AI-поиска; nil означает, что поиск не сконфигурирован.
type Searcher interface {
	Search(ctx context.Context, query string) (aisearch.Result, error)
}

type Api struct {
	mux        *http.ServeMux
	db         storage.NewsStorage
	aggregator Refresher
	search     Searcher
	log        *slog.Logger
}

func NewApi(db storage.NewsStorage, aggregator Refresher, search Searcher, log *slog.Logger) *Api {
	api := Api{
		mux:        http.NewServeMux(),
		db:         db,
		aggregator: aggregator,
		search:     search,
		log:        log,
	}
	api.endpoints()
	return &api
}

func (api *Api) Router() http.Handler {
	return api.mux
}

// Метод регистратор endpoint-ов, настраивающий саброутинг.
func (api *Api) endpoints() {
	//список новостей с фильтрами и пагинацией
	api.mux.HandleFunc("/newslist/", api.GetNewsListHandler)
	//детальная информация об одной новости
	api.mux.HandleFunc("/newsdetail/", api.GetDetailedNewsHandler)
	//ручной запуск цикла обновления
	api.mux.HandleFunc("/refresh/", api.RefreshHandler)
	//состояние цикла обновления
	api.mux.HandleFunc("/refresh/status/", api.RefreshStatusHandler)
	//переключение избранного
	api.mux.HandleFunc("/favorites/toggle/", api.ToggleFavoriteHandler)
	//список фидов и переключение активности
	api.mux.HandleFunc("/feeds/", api.GetFeedsHandler)
	api.mux.HandleFunc("/feeds/toggle/", api.ToggleFeedHandler)
	//AI-поиск с карточками-секциями
	api.mux.HandleFunc("/aisearch/", api.AISearchHandler)
	api.mux.HandleFunc("/health/", api.HealthHandler)
}

func (api *Api) GetNewsListHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodGet, http.MethodOptions) {
		return
	}

	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		pageStr = "1"
	}
	page, _ := strconv.Atoi(pageStr)

	query := storage.ListQuery{
		Category:      r.URL.Query().Get("category"),
		Search:        r.URL.Query().Get("q"),
		FavoritesOnly: r.URL.Query().Get("favorites") == "true",
	}
	var err error
	if query.From, err = parseDateParam(r.URL.Query().Get("from")); err != nil {
		httputils.RenderError(w, "Invalid from parameter", http.StatusBadRequest)
		return
	}
	if query.To, err = parseDateParam(r.URL.Query().Get("to")); err != nil {
		httputils.RenderError(w, "Invalid to parameter", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := api.db.GetNewsList(ctx, query)
	if err != nil {
		httputils.RenderError(w, "Failed to get news list", http.StatusInternalServerError)
		return
	}

	pag := pagination.New(len(list), page)
	pag.Results = pag.Slice(list)

	httputils.RenderJSON(w, pag, http.StatusOK)
}

func (api *Api) GetDetailedNewsHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodGet, http.MethodOptions) {
		return
	}

	newsID := r.URL.Query().Get("id")
	if newsID == "" {
		httputils.RenderError(w, "Invalid newsID parameter", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	detailPost, err := api.db.GetDetailedNews(ctx, newsID)
	if err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			httputils.RenderError(w, "News not found", http.StatusNotFound)
			return
		}
		httputils.RenderError(w, "Failed to get detailed post", http.StatusInternalServerError)
		return
	}

	httputils.RenderJSON(w, detailPost, http.StatusOK)
}

// RefreshHandler запускает обновление синхронно: у самого цикла нет
// общего таймаута, ограничены только отдельные запросы к прокси.
func (api *Api) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodPost, http.MethodOptions) {
		return
	}

	articles, updatedAt, err := api.aggregator.RefreshAll(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoActiveFeeds):
			httputils.RenderError(w, "No active feeds configured", http.StatusBadRequest)
		case errors.Is(err, usecase.ErrRefreshSuperseded):
			httputils.RenderError(w, "Refresh superseded by a newer one", http.StatusConflict)
		default:
			api.log.Error("Refresh failed", slog.Any("error", err))
			httputils.RenderError(w, "Refresh failed, please try again", http.StatusInternalServerError)
		}
		return
	}

	httputils.RenderJSON(w, map[string]any{
		"articles":     len(articles),
		"last_updated": updatedAt,
	}, http.StatusOK)
}

func (api *Api) RefreshStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodGet, http.MethodOptions) {
		return
	}
	httputils.RenderJSON(w, api.aggregator.Status(), http.StatusOK)
}

func (api *Api) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodPost, http.MethodOptions) {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httputils.RenderError(w, "Invalid id parameter", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	article, err := api.aggregator.ToggleFavorite(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			httputils.RenderError(w, "News not found", http.StatusNotFound)
			return
		}
		httputils.RenderError(w, "Failed to toggle favorite", http.StatusInternalServerError)
		return
	}

	httputils.RenderJSON(w, article, http.StatusOK)
}

func (api *Api) GetFeedsHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodGet, http.MethodOptions) {
		return
	}
	httputils.RenderJSON(w, api.aggregator.Feeds(), http.StatusOK)
}

func (api *Api) ToggleFeedHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodPost, http.MethodOptions) {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httputils.RenderError(w, "Invalid id parameter", http.StatusBadRequest)
		return
	}

	feed, err := api.aggregator.ToggleFeedActive(id)
	if err != nil {
		httputils.RenderError(w, "Feed not found", http.StatusNotFound)
		return
	}

	httputils.RenderJSON(w, feed, http.StatusOK)
}

func (api *Api) AISearchHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodGet, http.MethodOptions) {
		return
	}

	if api.search == nil {
		httputils.RenderError(w, "AI search is not configured", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		httputils.RenderError(w, "Invalid q parameter", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := api.search.Search(ctx, query)
	if err != nil {
		api.log.Error("AI search failed", slog.Any("error", err))
		httputils.RenderError(w, "AI search failed, please try again", http.StatusBadGateway)
		return
	}

	httputils.RenderJSON(w, result, http.StatusOK)
}

func (api *Api) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !httputils.ValidateMethod(w, r, http.MethodGet, http.MethodOptions) {
		return
	}
	httputils.RenderJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// parseDateParam принимает RFC3339 или короткую дату YYYY-MM-DD.
func parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
