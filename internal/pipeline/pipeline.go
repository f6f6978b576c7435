package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"newscurator/internal/classify"
	"newscurator/internal/config"
	"newscurator/internal/database"
	"newscurator/internal/dedup"
	"newscurator/internal/fetch"
	"newscurator/internal/fingerprint"
	"newscurator/internal/ingest"
	"newscurator/internal/news"
	"newscurator/internal/store"
)

// Orchestrator drives one pipeline execution: collect, deduplicate, backfill
// summaries, classify, persist, record run stats. Stages run strictly in
// sequence; concurrency lives inside the classification stage.
type Orchestrator struct {
	cfg       *config.Config
	db        *database.DB
	fps       *fingerprint.Store
	collector *ingest.Collector
	svc       classify.Service
}

// New creates an orchestrator. The fingerprint store is loaded here, once;
// a load failure is fatal because dedup state would be unreliable.
func New(cfg *config.Config, db *database.DB, collector *ingest.Collector, svc classify.Service) (*Orchestrator, error) {
	fps, err := fingerprint.Load(db)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d fingerprints", fps.Len())

	return &Orchestrator{
		cfg:       cfg,
		db:        db,
		fps:       fps,
		collector: collector,
		svc:       svc,
	}, nil
}

// Run executes the pipeline once. Item-level failures are counted in the run
// record and do not fail the run; a persistence failure does. The returned
// record is valid even when err is non-nil.
func (o *Orchestrator) Run(ctx context.Context) (*news.RunRecord, error) {
	run := &news.RunRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log.Printf("run %s started", run.ID)

	collected := o.collector.Collect(ctx)
	run.Fetched = len(collected.Items)
	run.SourceErrors = collected.SourceErrors

	deduped := dedup.New(o.fps, o.cfg.Dedup.SimilarityThreshold).Run(collected.Items)
	run.Duplicates = deduped.Duplicates
	run.Unique = len(deduped.Unique)
	log.Printf("dedup: %d unique, %d duplicates", run.Unique, run.Duplicates)

	if o.cfg.Fetch.BackfillSummaries {
		fetch.NewSummaryFetcher(o.cfg.Fetch.Timeout).Backfill(ctx, deduped.Unique)
	}

	scheduler := classify.NewScheduler(o.svc, classify.Config{
		Concurrency:    o.cfg.Classifier.Concurrency,
		MaxAttempts:    o.cfg.Classifier.MaxAttempts,
		InitialBackoff: o.cfg.Classifier.InitialBackoff,
		MaxBackoff:     o.cfg.Classifier.MaxBackoff,
		RequestTimeout: o.cfg.Classifier.RequestTimeout,
	})
	classified := scheduler.Process(ctx, deduped.Unique)
	run.Accepted = len(classified.Accepted)
	run.Rejected = classified.Rejected
	run.Failed = classified.Failed

	persisted, err := store.NewSink(o.db, o.fps).Persist(classified.Accepted)
	run.Stored = persisted.Stored + persisted.Replayed
	if err != nil {
		o.finish(run)
		return run, fmt.Errorf("persisting items: %w", err)
	}

	if run.Accepted > 0 && run.Stored == 0 {
		log.Printf("warning: %d items accepted but none stored", run.Accepted)
	}

	o.finish(run)
	log.Printf("run %s finished: %d fetched, %d duplicates, %d unique, %d accepted, %d rejected, %d failed, %d stored",
		run.ID, run.Fetched, run.Duplicates, run.Unique, run.Accepted, run.Rejected, run.Failed, run.Stored)
	return run, nil
}

// finish stamps the end time and records the run. The record is
// observational; failing to write it is logged, never fatal.
func (o *Orchestrator) finish(run *news.RunRecord) {
	run.FinishedAt = time.Now().UTC()
	if err := o.db.InsertRun(run); err != nil {
		log.Printf("warning: recording run stats: %v", err)
	}
}
