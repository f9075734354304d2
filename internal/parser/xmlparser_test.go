package parser

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>Example News</title>
<item>
  <title>First &amp; Best</title>
  <link>https://example.com/a</link>
  <description><![CDATA[<p>Plain <b>text</b> body</p>]]></description>
  <pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate>
  <media:content url="https://img.example.com/a.jpg" />
</item>
<item>
  <title>Second</title>
  <link>https://example.com/b</link>
  <description>An enclosure image</description>
  <pubDate>Tue, 03 Jun 2025 09:30:00 +0000</pubDate>
  <enclosure url="https://img.example.com/b.png" type="image/png" />
</item>
<item>
  <title>Third</title>
  <link>https://example.com/c</link>
  <description>Look &lt;img src="https://img.example.com/c.gif" alt="x"&gt; here</description>
  <pubDate>Wed, 04 Jun 2025 08:00:00 +0000</pubDate>
</item>
</channel>
</rss>`

func TestParseValidFeed(t *testing.T) {
	p := New(testLogger())

	feed, err := p.Parse(context.Background(), validFeed)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if feed.Title != "Example News" {
		t.Errorf("feed title = %q, want %q", feed.Title, "Example News")
	}
	if len(feed.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(feed.Items))
	}

	first := feed.Items[0]
	if first.Title != "First & Best" {
		t.Errorf("title = %q, entities not unescaped", first.Title)
	}
	if first.Description != "Plain text body" {
		t.Errorf("description = %q, HTML not stripped", first.Description)
	}
	if first.Image != "https://img.example.com/a.jpg" {
		t.Errorf("image = %q, want media:content url", first.Image)
	}
	want := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if !first.PubDate.Equal(want) {
		t.Errorf("pubDate = %v, want %v", first.PubDate, want)
	}

	if feed.Items[1].Image != "https://img.example.com/b.png" {
		t.Errorf("image = %q, want enclosure url", feed.Items[1].Image)
	}
	if feed.Items[2].Image != "https://img.example.com/c.gif" {
		t.Errorf("image = %q, want img src from description", feed.Items[2].Image)
	}
}

func TestParseZeroItemsIsNotAnError(t *testing.T) {
	p := New(testLogger())

	feed, err := p.Parse(context.Background(), `<rss><channel><title>Empty</title></channel></rss>`)
	if err != nil {
		t.Fatalf("empty feed must parse without error, got: %v", err)
	}
	if len(feed.Items) != 0 {
		t.Errorf("got %d items, want 0", len(feed.Items))
	}
}

func TestParseSyntaxError(t *testing.T) {
	p := New(testLogger())

	_, err := p.Parse(context.Background(), `<rss><channel><item><title>Broken`)
	if err == nil {
		t.Fatal("expected error for malformed XML, got nil")
	}
}

func TestParseSkipsItemWithBadDate(t *testing.T) {
	payload := `<rss><channel>
	<item><title>Good</title><link>https://e.com/1</link><pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate></item>
	<item><title>Bad</title><link>https://e.com/2</link><pubDate>yesterday afternoon</pubDate></item>
	</channel></rss>`

	p := New(testLogger())
	feed, err := p.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("got %d items, want 1 (bad-date item skipped)", len(feed.Items))
	}
	if feed.Items[0].Title != "Good" {
		t.Errorf("kept item = %q, want %q", feed.Items[0].Title, "Good")
	}
}

func TestParseTruncatesLongDescription(t *testing.T) {
	long := strings.Repeat("word ", 100)
	payload := `<rss><channel><item>
	<title>Long</title><link>https://e.com/long</link>
	<description>` + long + `</description>
	<pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate>
	</item></channel></rss>`

	p := New(testLogger())
	feed, err := p.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	desc := feed.Items[0].Description
	if !strings.HasSuffix(desc, "...") {
		t.Errorf("long description not marked with ellipsis: %q", desc)
	}
	if got := len([]rune(strings.TrimSuffix(desc, "..."))); got > maxDescriptionLen {
		t.Errorf("description length = %d, want <= %d", got, maxDescriptionLen)
	}
}

func TestParseCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testLogger())
	if _, err := p.Parse(ctx, validFeed); err == nil {
		t.Fatal("expected context error, got nil")
	}
}

func TestParsePubDateFormats(t *testing.T) {
	cases := []string{
		"Mon, 02 Jun 2025 10:00:00 +0000",
		"Mon, 02 Jun 2025 10:00:00 GMT",
		"Mon, 2 Jun 2025 10:00:00 +0000",
		"2025-06-02T10:00:00Z",
		"02 Jun 25 10:00 GMT",
	}
	for _, in := range cases {
		if _, err := parsePubDate(in); err != nil {
			t.Errorf("parsePubDate(%q) failed: %v", in, err)
		}
	}
	if _, err := parsePubDate("not a date"); err == nil {
		t.Error("parsePubDate accepted garbage input")
	}
}
