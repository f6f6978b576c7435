package ingest

import (
	"context"
	"errors"
	"testing"

	"newscurator/internal/news"
)

// stubSource implements Source for testing.
type stubSource struct {
	id    string
	items []*news.Item
	err   error
}

func (s *stubSource) ID() string { return s.id }

func (s *stubSource) Fetch(_ context.Context) ([]*news.Item, error) {
	return s.items, s.err
}

func item(source, url string) *news.Item {
	return &news.Item{SourceID: source, URL: url, Status: news.StatusNew}
}

func TestCollectMergesInConfigOrder(t *testing.T) {
	c := NewCollector([]Source{
		&stubSource{id: "a", items: []*news.Item{item("a", "https://a.com/1"), item("a", "https://a.com/2")}},
		&stubSource{id: "b", items: []*news.Item{item("b", "https://b.com/1")}},
	})

	r := c.Collect(context.Background())
	if len(r.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(r.Items))
	}
	want := []string{"https://a.com/1", "https://a.com/2", "https://b.com/1"}
	for i, u := range want {
		if r.Items[i].URL != u {
			t.Errorf("position %d: expected %s, got %s", i, u, r.Items[i].URL)
		}
	}
	if r.PerSource["a"] != 2 || r.PerSource["b"] != 1 {
		t.Errorf("unexpected per-source counts: %v", r.PerSource)
	}
}

func TestCollectIsolatesFailingSource(t *testing.T) {
	c := NewCollector([]Source{
		&stubSource{id: "dead", err: errors.New("connection refused")},
		&stubSource{id: "live", items: []*news.Item{item("live", "https://live.com/1")}},
	})

	r := c.Collect(context.Background())
	if r.SourceErrors != 1 {
		t.Errorf("expected 1 source error, got %d", r.SourceErrors)
	}
	if len(r.Items) != 1 {
		t.Errorf("expected the healthy source's items, got %d", len(r.Items))
	}
}

func TestCollectHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector([]Source{
		&stubSource{id: "a", items: []*news.Item{item("a", "https://a.com/1")}},
	})
	r := c.Collect(ctx)
	if len(r.Items) != 0 {
		t.Errorf("expected no items after cancellation, got %d", len(r.Items))
	}
}

func TestSummaryText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello   <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := summaryText(tt.in); got != tt.want {
			t.Errorf("summaryText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSourceNameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.databricks.com/feed", "Databricks"},
		{"https://feeds.arstechnica.com/arstechnica/index", "Arstechnica"},
		{"https://techcrunch.com/feed/", "Techcrunch"},
	}
	for _, tt := range tests {
		if got := sourceNameFromURL(tt.in); got != tt.want {
			t.Errorf("sourceNameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
