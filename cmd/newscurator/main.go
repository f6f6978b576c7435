package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"newscurator/internal/classify"
	"newscurator/internal/config"
	"newscurator/internal/database"
	"newscurator/internal/dedup"
	"newscurator/internal/fingerprint"
	"newscurator/internal/ingest"
	"newscurator/internal/llm"
	"newscurator/internal/pipeline"
	"newscurator/internal/schedule"
	"newscurator/internal/server"
	"newscurator/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newscurator",
	Short:   "Curated AI news pipeline",
	Long:    "newscurator collects news from RSS feeds, removes duplicates, classifies items with an LLM, and stores the keepers.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newscurator", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newscurator/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, and LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Database:")
		fmt.Printf("  Stored items: %d\n", stats.StoredItems)
		fmt.Printf("  Fingerprints: %d\n", stats.Fingerprints)
		fmt.Printf("  Runs: %d\n", stats.Runs)
		if stats.LastRun != "" {
			fmt.Printf("  Last run: %s\n", stats.LastRun)
		}

		runs, err := db.GetRecentRuns(5)
		if err != nil {
			return fmt.Errorf("getting runs: %w", err)
		}
		if len(runs) > 0 {
			fmt.Println("\nRecent runs:")
			for _, r := range runs {
				fmt.Printf("  %s  fetched=%d unique=%d accepted=%d rejected=%d failed=%d stored=%d\n",
					r.StartedAt.Format("2006-01-02 15:04"),
					r.Fetched, r.Unique, r.Accepted, r.Rejected, r.Failed, r.Stored)
			}
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> dedup -> classify -> store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if dryRun {
			return runDry(ctx, db)
		}

		orch, err := buildOrchestrator(db)
		if err != nil {
			return err
		}

		run, err := orch.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Println("\nRun complete:")
		fmt.Printf("  Fetched: %d\n", run.Fetched)
		fmt.Printf("  Duplicates: %d\n", run.Duplicates)
		fmt.Printf("  Unique: %d\n", run.Unique)
		fmt.Printf("  Accepted: %d\n", run.Accepted)
		fmt.Printf("  Rejected: %d\n", run.Rejected)
		fmt.Printf("  Failed: %d\n", run.Failed)
		fmt.Printf("  Stored: %d\n", run.Stored)
		if run.SourceErrors > 0 {
			fmt.Printf("  Source errors: %d\n", run.SourceErrors)
		}
		if run.Failed > 0 {
			fmt.Println("\nSome items failed classification; they will come around again next run.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect and dedup only; no classification or writes")
}

// runDry collects and deduplicates without touching the classifier or
// writing anything, so feed and threshold changes can be checked cheaply.
func runDry(ctx context.Context, db *database.DB) error {
	fps, err := fingerprint.Load(db)
	if err != nil {
		return err
	}

	collected := ingest.FromConfig(cfg).Collect(ctx)
	deduped := dedup.New(fps, cfg.Dedup.SimilarityThreshold).Run(collected.Items)

	fmt.Println("\nDry run:")
	fmt.Printf("  Fetched: %d\n", len(collected.Items))
	fmt.Printf("  Duplicates: %d\n", deduped.Duplicates)
	fmt.Printf("  Unique: %d\n", len(deduped.Unique))
	if collected.SourceErrors > 0 {
		fmt.Printf("  Source errors: %d\n", collected.SourceErrors)
	}
	for _, item := range deduped.Unique {
		fmt.Printf("  + %s\n", item.Title)
	}
	return nil
}

// --- export command ---

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored items as JSON Lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAllItems()
		if err != nil {
			return fmt.Errorf("reading items: %w", err)
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := store.ExportJSONL(out, items); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Fprintf(os.Stderr, "Exported %d items to %s\n", len(items), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		orch, err := buildOrchestrator(db)
		if err != nil {
			return err
		}

		sched, err := schedule.New(cfg.Schedule.Cron, func(ctx context.Context) error {
			_, err := orch.Run(ctx)
			return err
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := sched.Start(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println("\nScheduler stopped")
		return nil
	},
}

func buildOrchestrator(db *database.DB) (*pipeline.Orchestrator, error) {
	provider := llm.CreateProvider(llm.Options{
		Provider:        cfg.Classifier.Provider,
		Model:           cfg.Classifier.Model,
		OllamaURL:       cfg.Classifier.OllamaURL,
		OpenAIModel:     cfg.Classifier.OpenAIModel,
		OpenAIKeyEnv:    cfg.Classifier.OpenAIKeyEnv,
		AnthropicModel:  cfg.Classifier.AnthropicModel,
		AnthropicKeyEnv: cfg.Classifier.AnthropicKeyEnv,
	})
	if provider == nil {
		return nil, fmt.Errorf("no LLM provider available; check config and API keys")
	}

	svc := classify.NewLLMService(provider, cfg.Classifier.MaxTokens, cfg.Classifier.RequestsPerSecond)
	return pipeline.New(cfg, db, ingest.FromConfig(cfg), svc)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "newscurator.db")
	return database.Open(dbPath)
}
