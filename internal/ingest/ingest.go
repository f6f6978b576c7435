package ingest

import (
	"context"
	"log"

	"newscurator/internal/config"
	"newscurator/internal/news"
)

// Source is an ingestion source producing raw items.
type Source interface {
	ID() string
	Fetch(ctx context.Context) ([]*news.Item, error)
}

// Result holds the outcome of one collection pass.
type Result struct {
	Items        []*news.Item
	SourceErrors int
	PerSource    map[string]int
}

// Collector gathers raw items from all configured sources. A failing source
// is logged and counted; it never aborts collection from the others.
type Collector struct {
	sources []Source
}

// NewCollector creates a collector over explicit sources.
func NewCollector(sources []Source) *Collector {
	return &Collector{sources: sources}
}

// FromConfig builds a collector for the configured feeds, in configuration
// order.
func FromConfig(cfg *config.Config) *Collector {
	sources := make([]Source, 0, len(cfg.Sources.Feeds))
	for _, f := range cfg.Sources.Feeds {
		sources = append(sources, NewFeedSource(f.URL, f.Name, cfg.Sources.MaxPerFeed))
	}
	return NewCollector(sources)
}

// Collect fetches from every source in order. Items keep their per-source
// arrival order, and sources are merged in configuration order, so the
// batch handed to dedup is deterministic for a given set of feed contents.
func (c *Collector) Collect(ctx context.Context) *Result {
	r := &Result{PerSource: make(map[string]int)}

	for _, src := range c.sources {
		if ctx.Err() != nil {
			log.Printf("collection cancelled after %d items", len(r.Items))
			return r
		}

		items, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("source %s failed: %v", src.ID(), err)
			r.SourceErrors++
			continue
		}

		r.Items = append(r.Items, items...)
		r.PerSource[src.ID()] += len(items)
		log.Printf("fetched %d items from %s", len(items), src.ID())
	}

	return r
}
