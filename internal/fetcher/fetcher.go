package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout — таймаут одного запроса к прокси (не всего обновления).
const DefaultTimeout = 10 * time.Second

// Envelope описывает формат ответа прокси-сервиса.
type Envelope string

const (
	// EnvelopeJSON — тело вида {"contents": "<rss .../>"} (стиль AllOrigins).
	EnvelopeJSON Envelope = "json"
	// EnvelopeRaw — тело прокси и есть сам XML фида.
	EnvelopeRaw Envelope = "raw"
)

// Proxy — один CORS-прокси в цепочке. Итоговый адрес запроса строится
// как Prefix + закодированный URL фида.
type Proxy struct {
	Name     string
	Prefix   string
	Envelope Envelope
}

var ErrAllProxiesFailed = errors.New("all proxies failed")

type ProxyChainFetcher struct {
	client  *http.Client
	proxies []Proxy
	timeout time.Duration
	log     *slog.Logger
}

func New(proxies []Proxy, timeout time.Duration, log *slog.Logger) *ProxyChainFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProxyChainFetcher{
		client:  &http.Client{},
		proxies: proxies,
		timeout: timeout,
		log:     log,
	}
}

// Fetch пробует прокси по порядку и возвращает XML фида как строку.
// Неуспех одного прокси (не-2xx, пустое тело, сеть, таймаут) переключает
// на следующий кандидат; если не ответил никто — ErrAllProxiesFailed.
func (f *ProxyChainFetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	log := f.log.With(slog.String("url", feedURL))
	var lastErr error
	for _, proxy := range f.proxies {
		payload, err := f.fetchVia(ctx, proxy, feedURL)
		if err != nil {
			log.Warn(
				"Proxy attempt failed, trying next",
				slog.String("proxy", proxy.Name),
				slog.Any("error", err),
			)
			lastErr = err
			continue
		}
		log.Debug("Successfully fetched feed", slog.String("proxy", proxy.Name))
		return payload, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no proxies configured")
	}
	return "", fmt.Errorf("%w for %s: %w", ErrAllProxiesFailed, feedURL, lastErr)
}

func (f *ProxyChainFetcher) fetchVia(ctx context.Context, proxy Proxy, feedURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	requestURL := proxy.Prefix + url.QueryEscape(feedURL)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	payload, err := unwrap(proxy.Envelope, body)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(payload) == "" {
		return "", errors.New("empty payload")
	}
	return payload, nil
}

// unwrap нормализует разные конверты прокси к сырому XML.
func unwrap(envelope Envelope, body []byte) (string, error) {
	switch envelope {
	case EnvelopeJSON:
		var wrapped struct {
			Contents string `json:"contents"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return "", fmt.Errorf("failed to decode proxy envelope: %w", err)
		}
		return wrapped.Contents, nil
	default:
		return string(body), nil
	}
}
