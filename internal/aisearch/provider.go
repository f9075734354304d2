package aisearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Provider — генеративная модель как непрозрачный удалённый сервис.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChatProvider ходит в OpenAI-совместимый chat-completions endpoint.
type ChatProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

func NewChatProvider(apiKey, model, endpoint string, log *slog.Logger) *ChatProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	return &ChatProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: log,
	}
}

func (p *ChatProvider) Name() string {
	return "chat"
}

func (p *ChatProvider) Available() bool {
	return p.apiKey != ""
}

func (p *ChatProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !p.Available() {
		return "", fmt.Errorf("chat provider not configured")
	}

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": systemPrompt,
		})
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": userPrompt,
	})

	body := map[string]any{
		"model":    p.model,
		"messages": messages,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		p.log.Error("Chat API error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return "", fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return result.Choices[0].Message.Content, nil
}
