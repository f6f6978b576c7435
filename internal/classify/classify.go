package classify

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"newscurator/internal/news"
)

// Service is the external classification capability: a relevance verdict and
// a tag list. Implementations may be slow, rate-limited, or wrong; failures
// must be distinguishable as transient or permanent (see PermanentError).
type Service interface {
	Filter(ctx context.Context, title, summary string) (news.Verdict, error)
	Tag(ctx context.Context, title, summary string) ([]string, error)
}

// Config holds the scheduler's concurrency and retry knobs.
type Config struct {
	Concurrency    int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
}

// Result holds the outcome of classifying one batch.
type Result struct {
	Accepted []*news.Item
	Rejected int
	Failed   int
}

// Scheduler runs each unique item through filter-then-tag under a global
// concurrency bound. Items are fully independent: one item's retries or
// failure never block another item except through slot contention.
type Scheduler struct {
	svc Service
	cfg Config
	sem *semaphore.Weighted
}

// NewScheduler creates a scheduler. Zero config fields get defaults.
func NewScheduler(svc Service, cfg Config) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 3
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return &Scheduler{
		svc: svc,
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Process classifies a batch. It returns once every item has reached a
// terminal state: Accepted, Rejected, or Failed. No ordering is guaranteed
// among concurrently processed items.
func (s *Scheduler) Process(ctx context.Context, items []*news.Item) *Result {
	r := &Result{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item *news.Item) {
			defer wg.Done()

			if err := s.sem.Acquire(ctx, 1); err != nil {
				// Cancelled while waiting for a slot.
				markFailed(item, err)
			} else {
				s.processItem(ctx, item)
				s.sem.Release(1)
			}

			mu.Lock()
			switch item.Status {
			case news.StatusAccepted:
				r.Accepted = append(r.Accepted, item)
			case news.StatusRejected:
				r.Rejected++
			default:
				r.Failed++
			}
			mu.Unlock()
		}(item)
	}

	wg.Wait()
	log.Printf("classification complete: %d accepted, %d rejected, %d failed",
		len(r.Accepted), r.Rejected, r.Failed)
	return r
}

// processItem drives one item through its state machine:
// Unique -> Filtering -> (Rejected | Tagging) -> Accepted, with Failed
// reachable from Filtering and Tagging.
func (s *Scheduler) processItem(ctx context.Context, item *news.Item) {
	item.Status = news.StatusFiltering

	var verdict news.Verdict
	err := s.callWithRetry(ctx, item, "filter", func(ctx context.Context) error {
		v, err := s.svc.Filter(ctx, item.Title, item.Summary)
		if err == nil {
			verdict = v
		}
		return err
	})
	if err != nil {
		markFailed(item, err)
		return
	}

	if !verdict.Relevant {
		item.Status = news.StatusRejected
		log.Printf("rejected: %s (%s)", item.Title, verdict.Rationale)
		return
	}

	item.Status = news.StatusTagging

	var tags []string
	err = s.callWithRetry(ctx, item, "tag", func(ctx context.Context) error {
		t, err := s.svc.Tag(ctx, item.Title, item.Summary)
		if err == nil {
			tags = t
		}
		return err
	})
	if err != nil {
		markFailed(item, err)
		return
	}

	// An accepted item with no tags violates the service contract.
	if len(tags) == 0 {
		markFailed(item, &PermanentError{Reason: "empty tag list on accepted item"})
		return
	}

	item.Tags = tags
	item.Status = news.StatusAccepted
	log.Printf("accepted: %s %v", item.Title, tags)
}
