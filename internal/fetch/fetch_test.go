package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newscurator/internal/news"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Test Article</title></head>
<body><article>
<h1>Test Article</h1>
<p>%s</p>
</article></body></html>`

func TestBackfillFillsEmptySummaries(t *testing.T) {
	body := strings.Repeat("Readable article text about machine learning. ", 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, articleHTML, body)
	}))
	defer srv.Close()

	items := []*news.Item{
		{URL: srv.URL + "/a", Title: "Empty", Summary: ""},
		{URL: srv.URL + "/b", Title: "Has summary", Summary: "already set"},
	}

	f := NewSummaryFetcher(5 * time.Second)
	r := f.Backfill(context.Background(), items)

	if r.Fetched != 1 {
		t.Errorf("expected 1 fetched, got %d", r.Fetched)
	}
	if r.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", r.Skipped)
	}
	if items[0].Summary == "" {
		t.Error("expected summary to be backfilled")
	}
	if items[1].Summary != "already set" {
		t.Errorf("existing summary was overwritten: %q", items[1].Summary)
	}
}

func TestBackfillSkipsFailedDomain(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	items := []*news.Item{
		{URL: srv.URL + "/a", Title: "One"},
		{URL: srv.URL + "/b", Title: "Two"},
		{URL: srv.URL + "/c", Title: "Three"},
	}

	f := NewSummaryFetcher(5 * time.Second)
	r := f.Backfill(context.Background(), items)

	if r.Failed != 3 {
		t.Errorf("expected 3 failed, got %d", r.Failed)
	}
	if hits != 1 {
		t.Errorf("expected a single request to the failing domain, got %d", hits)
	}
	for _, item := range items {
		if item.Summary != "" {
			t.Errorf("failed fetch should leave summary empty, got %q", item.Summary)
		}
	}
}

func TestBackfillIgnoresShortPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, articleHTML, "tiny")
	}))
	defer srv.Close()

	items := []*news.Item{{URL: srv.URL, Title: "Short"}}

	f := NewSummaryFetcher(5 * time.Second)
	r := f.Backfill(context.Background(), items)

	if r.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", r.Failed)
	}
	if items[0].Summary != "" {
		t.Errorf("expected empty summary, got %q", items[0].Summary)
	}
}

func TestTruncateBreaksOnSpace(t *testing.T) {
	s := strings.Repeat("word ", 100)
	out := truncate(s, 42)
	if len(out) > 42 {
		t.Errorf("truncate returned %d bytes", len(out))
	}
	if strings.HasSuffix(out, " ") {
		t.Errorf("truncate left trailing space: %q", out)
	}
}
