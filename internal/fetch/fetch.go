package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"newscurator/internal/news"
)

// Result holds the results of a summary backfill pass.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// SummaryFetcher fills in missing summaries by fetching the article page and
// extracting readable text. It runs between dedup and classification so the
// classifier has text to work with for feeds that only publish bare links.
type SummaryFetcher struct {
	client *http.Client
}

// NewSummaryFetcher creates a summary fetcher.
func NewSummaryFetcher(timeout time.Duration) *SummaryFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &SummaryFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Backfill fetches summaries for items that have none. Failures are per-item:
// the item proceeds to classification with whatever text it has. Once a
// domain returns an HTTP error, remaining items from it are skipped.
func (f *SummaryFetcher) Backfill(ctx context.Context, items []*news.Item) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, item := range items {
		if item.Summary != "" || item.URL == "" {
			result.Skipped++
			continue
		}
		if ctx.Err() != nil {
			result.Failed++
			continue
		}

		domain := ""
		if u, err := url.Parse(item.URL); err == nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, httpErr := f.fetchText(ctx, item.URL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", item.URL, domain)
			continue
		}

		if text != "" {
			item.Summary = truncate(text, 2000)
			result.Fetched++
		} else {
			result.Failed++
			log.Printf("No extractable text from: %s", item.URL)
		}
	}

	if result.Fetched > 0 || result.Failed > 0 {
		log.Printf("Summary backfill complete: %d fetched, %d failed", result.Fetched, result.Failed)
	}
	return result
}

func (f *SummaryFetcher) fetchText(ctx context.Context, itemURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", itemURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "newscurator/1.0 (news aggregator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(itemURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndex(s[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return s[:cut]
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
