package aisearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blitzkrieg267/newsHub/storage"
)

const systemPrompt = `You are a news research assistant. Answer the user's query as a set of short sections.
Respond with strict JSON only, no markdown fences, in the form:
{"cards": [{"title": "...", "content": "...", "citations": ["https://..."]}]}
Keep 2-5 cards, each content under 80 words, citations are source URLs.`

// Service — AI-поиск: генеративная модель с запасным поисковым API и
// необязательной подборкой близких статей из текущей коллекции.
type Service struct {
	provider Provider
	fallback *SearchAPIClient
	related  *RelatedMatcher
	db       storage.NewsStorage
	log      *slog.Logger
}

func NewService(provider Provider, fallback *SearchAPIClient, related *RelatedMatcher, db storage.NewsStorage, log *slog.Logger) *Service {
	return &Service{
		provider: provider,
		fallback: fallback,
		related:  related,
		db:       db,
		log:      log,
	}
}

func (s *Service) Search(ctx context.Context, query string) (Result, error) {
	result := Result{Query: query}

	if s.provider != nil && s.provider.Available() {
		raw, err := s.provider.Generate(ctx, systemPrompt, query)
		if err == nil {
			result.Provider = s.provider.Name()
			result.Cards = parseCards(raw)
			s.attachRelated(ctx, &result)
			return result, nil
		}
		s.log.Warn("Generative provider failed, trying fallback search",
			slog.Any("error", err),
		)
	}

	if s.fallback != nil && s.fallback.Available() {
		cards, err := s.fallback.Search(ctx, query)
		if err != nil {
			return Result{}, fmt.Errorf("fallback search failed: %w", err)
		}
		result.Provider = "search-api"
		result.Cards = cards
		s.attachRelated(ctx, &result)
		return result, nil
	}

	return Result{}, fmt.Errorf("no AI search backend available")
}

// attachRelated — best effort: отказ подборки не ломает сам поиск.
func (s *Service) attachRelated(ctx context.Context, result *Result) {
	if s.related == nil || s.db == nil {
		return
	}
	articles, err := s.db.GetNewsList(ctx, storage.ListQuery{})
	if err != nil {
		s.log.Warn("Failed to load collection for related matching", slog.Any("error", err))
		return
	}
	related, err := s.related.Match(ctx, result.Query, articles)
	if err != nil {
		s.log.Warn("Related matching failed", slog.Any("error", err))
		return
	}
	result.Related = related
}

// parseCards разбирает ответ модели. Модель просят отвечать строгим JSON,
// но ответ с markdown-ограждениями или вовсе не-JSON тоже принимается:
// тогда весь текст становится одной карточкой.
func parseCards(raw string) []Card {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var wrapped struct {
		Cards []Card `json:"cards"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && len(wrapped.Cards) > 0 {
		return wrapped.Cards
	}

	return []Card{{Title: "Answer", Content: strings.TrimSpace(raw)}}
}
