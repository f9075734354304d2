package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/aisearch"
	"github.com/blitzkrieg267/newsHub/internal/domain"
	"github.com/blitzkrieg267/newsHub/internal/events"
	"github.com/blitzkrieg267/newsHub/internal/fetcher"
	"github.com/blitzkrieg267/newsHub/internal/infrastructure/config"
	"github.com/blitzkrieg267/newsHub/internal/parser"
	transport "github.com/blitzkrieg267/newsHub/internal/transport/http"
	"github.com/blitzkrieg267/newsHub/internal/usecase"
	"github.com/blitzkrieg267/newsHub/storage"

	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config.yaml"

// Run собирает и запускает приложение newsHub.
func Run() error {
	ctxmain := context.Background()

	// .env необязателен: в контейнере переменные приходят из окружения.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using process environment")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg.Logging)

	db := storage.NewMemoryStorage(log)
	defer db.Close()

	proxies := make([]fetcher.Proxy, 0, len(cfg.Proxies))
	for _, p := range cfg.Proxies {
		proxies = append(proxies, fetcher.Proxy{
			Name:     p.Name,
			Prefix:   p.Prefix,
			Envelope: fetcher.Envelope(p.Envelope),
		})
	}
	feedFetcher := fetcher.New(proxies, fetcher.DefaultTimeout, log)
	feedParser := parser.New(log)
	pipeline := usecase.NewFeedProcessingUseCase(feedFetcher, feedParser, log)

	feeds := make([]domain.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds = append(feeds, domain.Feed{
			ID:       f.ID,
			Title:    f.Name,
			URL:      f.URL,
			IsActive: f.Active,
		})
	}

	// Kafka необязательна: без брокеров события обновления просто не шлются.
	var notifier usecase.RefreshNotifier
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic != "" {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("Kafka creating producer error", slog.Any("error", err))
			return err
		}
		notifier = publisher
		log.Info("Kafka producer created",
			slog.String("brokers", strings.Join(cfg.Kafka.Brokers, ",")),
			slog.String("topic", cfg.Kafka.Topic),
		)
	}

	aggregator := usecase.NewAggregatorUseCase(pipeline, db, notifier, feeds, log)

	search := buildAISearch(cfg.AISearch, db, log)
	if search == nil {
		log.Warn("AI search is not configured, /aisearch/ will answer 503")
	}

	apiInstance := transport.NewApi(db, aggregator, search, log)

	// Фоновое обновление по интервалу из конфигурации.
	if interval := cfg.GetAppProcessingInterval(); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				if _, _, err := aggregator.RefreshAll(ctxmain); err != nil {
					log.Warn("Scheduled refresh failed", slog.Any("error", err))
				}
			}
		}()
	}

	// Настройка роутера и middleware
	var handler http.Handler = apiInstance.Router()
	handler = transport.CORSMiddleware()(handler)
	handler = transport.RequestIDMiddleware(handler)
	handler = transport.LoggingMiddleware(log)(handler)

	addr := cfg.GetHTTPAddr()
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.App.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.App.WriteTimeout) * time.Second,
	}

	log.Info("Server newsHub APP start working",
		slog.String("addr", addr),
		slog.Int("feeds", len(feeds)),
		slog.Int("proxies", len(proxies)),
	)
	return server.ListenAndServe()
}

// buildAISearch собирает AI-поиск из переменных окружения и конфигурации.
// Возвращает nil, если не настроен ни один backend.
func buildAISearch(cfg config.AISearchConfig, db storage.NewsStorage, log *slog.Logger) transport.Searcher {
	provider := aisearch.NewChatProvider(
		os.Getenv("OPENAI_API_KEY"),
		cfg.Model,
		cfg.Endpoint,
		log,
	)
	fallback := aisearch.NewSearchAPIClient(cfg.SearchEndpoint, os.Getenv("SEARCH_API_KEY"))
	related := aisearch.NewRelatedMatcher(os.Getenv("COHERE_API_KEY"), cfg.EmbedModel)

	if !provider.Available() && !fallback.Available() {
		return nil
	}
	return aisearch.NewService(provider, fallback, related, db, log)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
