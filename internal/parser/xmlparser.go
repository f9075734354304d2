package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/blitzkrieg267/newsHub/internal/domain"
)

// Предел длины описания после очистки от HTML.
const maxDescriptionLen = 200

type rssXML struct {
	Channel channelXML `xml:"channel"`
}

type channelXML struct {
	Title string    `xml:"title"`
	Items []itemXML `xml:"item"`
}

type itemXML struct {
	Title       string         `xml:"title"`
	Link        string         `xml:"link"`
	Description string         `xml:"description"`
	PubDate     string         `xml:"pubDate"`
	Media       []mediaXML     `xml:"http://search.yahoo.com/mrss/ content"`
	Enclosures  []enclosureXML `xml:"enclosure"`
}

type mediaXML struct {
	URL string `xml:"url,attr"`
}

type enclosureXML struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

var imgSrcRe = regexp.MustCompile(`<img[^>]+src=["']?([^"'\s>]+)`)

type XMLParser struct {
	log *slog.Logger
}

func New(log *slog.Logger) *XMLParser {
	return &XMLParser{
		log: log,
	}
}

// Parse разбирает RSS-документ, полученный от прокси, в доменную модель.
// Синтаксическая ошибка XML возвращается как ошибка и отличается от фида
// без единого <item> (это валидный пустой результат). Битые элементы
// пропускаются по одному и не прерывают разбор всего фида.
func (p *XMLParser) Parse(ctx context.Context, payload string) (*domain.ParsedFeed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rss rssXML
	decoder := xml.NewDecoder(strings.NewReader(payload))
	if err := decoder.Decode(&rss); err != nil {
		p.log.Error(
			"Failed to decode XML",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to decode XML: %w", err)
	}
	feed := domain.ParsedFeed{
		Title: strings.TrimSpace(rss.Channel.Title),
		Items: make([]domain.Item, 0, len(rss.Channel.Items)),
	}
	for _, itemDTO := range rss.Channel.Items {
		pubDate, err := parsePubDate(itemDTO.PubDate)
		if err != nil {
			p.log.Warn(
				"Could not parse item pubDate, skipping item",
				slog.String("pubDate", itemDTO.PubDate),
				slog.String("item_title", itemDTO.Title),
				slog.Any("error", err),
			)
			continue
		}
		item := domain.Item{
			Title:       cleanText(itemDTO.Title),
			Link:        strings.TrimSpace(itemDTO.Link),
			Description: truncate(cleanText(itemDTO.Description), maxDescriptionLen),
			Image:       extractImage(itemDTO),
			PubDate:     pubDate,
		}
		feed.Items = append(feed.Items, item)
	}
	return &feed, nil
}

// extractImage ищет картинку в порядке приоритета:
// media:content -> enclosure с image-типом -> <img src> внутри описания.
func extractImage(item itemXML) string {
	for _, m := range item.Media {
		if u := strings.TrimSpace(m.URL); u != "" {
			return u
		}
	}
	for _, e := range item.Enclosures {
		if strings.HasPrefix(e.Type, "image") && strings.TrimSpace(e.URL) != "" {
			return strings.TrimSpace(e.URL)
		}
	}
	if m := imgSrcRe.FindStringSubmatch(item.Description); m != nil {
		return m[1]
	}
	return ""
}

// cleanText убирает HTML-теги и сущности, схлопывает пробелы.
func cleanText(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// parsePubDate - вспомогательная функция для парсинга даты в разных форматах.
func parsePubDate(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC3339,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(dateStr)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fail to parse date in any known format: %q", dateStr)
}
