package aisearch

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/models"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const (
	relatedLimit    = 5
	candidatesLimit = 50
)

// RelatedMatcher подбирает к поисковому запросу близкие по смыслу статьи
// текущей коллекции через Cohere Embed API.
type RelatedMatcher struct {
	client *cohereclient.Client
	model  string
}

func NewRelatedMatcher(apiKey, model string) *RelatedMatcher {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "embed-english-v3.0"
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
	)
	return &RelatedMatcher{
		client: client,
		model:  model,
	}
}

// Match возвращает до relatedLimit статей, ближайших к запросу по косинусу
// между эмбеддингами заголовков и эмбеддингом запроса.
func (m *RelatedMatcher) Match(ctx context.Context, query string, articles []models.Article) ([]models.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}
	if len(articles) > candidatesLimit {
		articles = articles[:candidatesLimit]
	}

	queryVec, err := m.embed(ctx, []string{query}, cohere.EmbedInputTypeSearchQuery)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Title
	}
	docVecs, err := m.embed(ctx, texts, cohere.EmbedInputTypeSearchDocument)
	if err != nil {
		return nil, err
	}

	type scored struct {
		article models.Article
		score   float64
	}
	ranked := make([]scored, len(articles))
	for i := range articles {
		ranked[i] = scored{article: articles[i], score: cosine(queryVec[0], docVecs[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	limit := relatedLimit
	if limit > len(ranked) {
		limit = len(ranked)
	}
	related := make([]models.Article, 0, limit)
	for _, s := range ranked[:limit] {
		related = append(related, s.article)
	}
	return related, nil
}

func (m *RelatedMatcher) embed(ctx context.Context, texts []string, inputType cohere.EmbedInputType) ([][]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := m.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          texts,
			Model:          m.model,
			InputType:      inputType,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cohere embed error: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, fmt.Errorf("cohere embed returned no float embeddings")
	}
	floats := resp.Embeddings.Float
	if len(floats) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: %d != %d", len(floats), len(texts))
	}
	return floats, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
