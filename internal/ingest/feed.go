package ingest

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newscurator/internal/news"
)

// FeedSource reads raw items from a single RSS/Atom feed.
type FeedSource struct {
	url      string
	name     string
	maxItems int
	parser   *gofeed.Parser
}

// NewFeedSource creates a feed source. When name is empty it is derived from
// the feed URL's host.
func NewFeedSource(feedURL, name string, maxItems int) *FeedSource {
	if name == "" {
		name = sourceNameFromURL(feedURL)
	}
	return &FeedSource{
		url:      feedURL,
		name:     name,
		maxItems: maxItems,
		parser:   gofeed.NewParser(),
	}
}

// ID returns the source identifier used in item records.
func (f *FeedSource) ID() string { return f.name }

// Fetch parses the feed and returns its entries in feed order.
func (f *FeedSource) Fetch(ctx context.Context) ([]*news.Item, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, err
	}

	var items []*news.Item
	for _, entry := range feed.Items {
		if f.maxItems > 0 && len(items) >= f.maxItems {
			break
		}

		item := &news.Item{
			SourceID: f.name,
			URL:      strings.TrimSpace(entry.Link),
			Title:    strings.TrimSpace(entry.Title),
			Summary:  summaryText(firstNonEmpty(entry.Description, entry.Content)),
			Status:   news.StatusNew,
		}
		if item.URL == "" {
			item.URL = strings.TrimSpace(entry.GUID)
		}
		if entry.PublishedParsed != nil {
			t := *entry.PublishedParsed
			item.PublishedAt = &t
		} else if entry.UpdatedParsed != nil {
			t := *entry.UpdatedParsed
			item.PublishedAt = &t
		}

		items = append(items, item)
	}

	return items, nil
}

// summaryText reduces a feed summary, which is frequently HTML, to plain
// text with collapsed whitespace.
func summaryText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sourceNameFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	if host == "" {
		return feedURL
	}

	parts := strings.Split(host, ".")
	name := parts[0]
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
