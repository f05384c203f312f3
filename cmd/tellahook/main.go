// cmd/tellahook/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/api"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/browser"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/config"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/monitoring"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/normalize"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/output"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/pipeline"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/scraper"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/session"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/utils"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/webhook"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "watch":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: tellahook watch <config.yaml>\n")
			os.Exit(1)
		}
		runWatch(os.Args[2])

	case "extract":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: page URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: tellahook extract <url> [-c config.yaml] [-o output.json]\n")
			os.Exit(1)
		}
		runExtract(os.Args[2], false)

	case "send":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: page URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: tellahook send <url> -c config.yaml\n")
			os.Exit(1)
		}
		runExtract(os.Args[2], true)

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: tellahook validate <config.yaml>\n")
			os.Exit(1)
		}
		runValidate(os.Args[2])

	case "migrate-config":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: tellahook migrate-config <config.yaml>\n")
			os.Exit(1)
		}
		runMigrateConfig(os.Args[2])

	case "version", "--version", "-v":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// loadConfig loads the file named by -c/--config, or returns usable
// defaults when the flag is absent.
func loadConfig() (*config.Config, error) {
	if file := flagValue("-c", "--config"); file != "" {
		return config.LoadFromFile(file)
	}
	return config.LoadFromBytes([]byte("{}"))
}

func buildPipeline(cfg *config.Config, log utils.Logger) (*pipeline.Pipeline, error) {
	client, err := api.NewClient(api.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		DocumentPath:      cfg.API.DocumentPath,
		TranscriptionPath: cfg.API.TranscriptionPath,
		Timeout:           cfg.API.Timeout(),
		UserAgent:         cfg.UserAgent,
		RateLimit:         cfg.API.RateLimit,
		RateBurst:         cfg.API.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	normalizer := normalize.New(normalize.Options{})
	domExtractor := scraper.New(scraper.DefaultHeuristics())
	return pipeline.New(client, normalizer, domExtractor, log), nil
}

// runExtract performs a one-shot extraction; with deliver it also posts
// the record to the configured webhook.
func runExtract(pageURL string, deliver bool) {
	cfg, err := loadConfig()
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}
	log := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	snapshot := pipeline.HTTPSnapshot(&http.Client{Timeout: 20 * time.Second}, pageURL, cfg.UserAgent)
	rec, err := pipe.Extract(ctx, pageURL, snapshot)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotApplicable) {
			fatal("URL does not look like a video page: %s", pageURL)
		}
		fatal("extraction failed: %v", err)
	}

	writer, err := output.NewJSONWriter(flagValue("-o", "--output"))
	if err != nil {
		fatal("failed to open output: %v", err)
	}
	defer writer.Close()
	if err := writer.WriteRecord(rec); err != nil {
		fatal("failed to write record: %v", err)
	}

	if deliver {
		if cfg.WebhookURL == "" {
			fatal("no webhook_url configured; pass -c config.yaml with webhook_url set")
		}
		sender, err := webhook.NewSender(webhook.SenderConfig{
			URL:       cfg.WebhookURL,
			UserAgent: cfg.UserAgent,
		}, log)
		if err != nil {
			fatal("%v", err)
		}
		if err := sender.Send(ctx, rec); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Record delivered to %s\n", cfg.WebhookURL)
	}
}

// runWatch runs the live session: browser watcher, lifecycle tracker,
// webhook delivery, optional archive and metrics.
func runWatch(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}
	log := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		fatal("%v", err)
	}

	var sender *webhook.Sender
	if cfg.WebhookURL != "" {
		sender, err = webhook.NewSender(webhook.SenderConfig{
			URL:       cfg.WebhookURL,
			UserAgent: cfg.UserAgent,
		}, log)
		if err != nil {
			fatal("%v", err)
		}
	} else {
		log.Warn("no webhook_url configured; records will only be archived/logged")
	}

	var archive *output.Archive
	if cfg.Archive.Path != "" {
		archive, err = output.NewArchive(output.ArchiveOptions{
			DatabasePath: cfg.Archive.Path,
			Table:        cfg.Archive.Table,
			OnConflict:   cfg.Archive.OnConflict,
		})
		if err != nil {
			fatal("failed to open archive: %v", err)
		}
		defer archive.Close()
	}

	metrics := monitoring.NewMetrics("")

	browserConfig := browser.DefaultConfig()
	browserConfig.UserAgent = cfg.UserAgent
	browserConfig.StartURL = "https://www.tella.tv"
	watcher, err := browser.NewWatcher(browserConfig, log)
	if err != nil {
		fatal("failed to start browser: %v", err)
	}
	defer watcher.Close()

	runner := func(ctx context.Context, pageURL string) (*record.Record, error) {
		start := time.Now()
		rec, err := pipe.Extract(ctx, pageURL, watcher.Snapshot)
		if err != nil {
			metrics.ObserveExtractionError(reasonFor(err))
			return nil, err
		}
		metrics.ObserveExtraction(string(rec.Metadata.ExtractionMethod), time.Since(start))
		if rec.Metadata.ExtractionMethod == record.MethodDOM {
			metrics.ObserveFallback()
		}
		return rec, nil
	}

	sink := func(ctx context.Context, rec *record.Record) error {
		if archive != nil {
			storyID := ""
			if rec.Video.ID != nil {
				storyID = *rec.Video.ID
			}
			if err := archive.Store(ctx, storyID, rec); err != nil {
				log.Warnf("archive store failed: %v", err)
			}
		}
		if sender == nil {
			return nil
		}
		err := sender.Send(ctx, rec)
		var dErr *webhook.DeliveryError
		switch {
		case err == nil:
			metrics.ObserveDelivery("ok")
		case errors.As(err, &dErr):
			metrics.ObserveDelivery(string(dErr.Category))
		default:
			metrics.ObserveDelivery("unknown")
		}
		return err
	}

	tracker := session.NewTracker(session.Config{
		Debounce: cfg.Session.Debounce(),
		Retry: session.RetryPolicy{
			MaxAttempts: cfg.Session.RetryAttempts,
			Delay:       cfg.Session.RetryDelay(),
		},
		OnStaleDiscard: metrics.ObserveStaleDiscard,
	}, watcher, runner, sink, &meteredHooks{inner: watcher, metrics: metrics}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.Enabled {
		server := monitoring.NewServer(cfg.Monitoring.Listen, metrics, tracker.Stats, log)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("monitoring server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	go func() {
		if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("page watcher stopped: %v", err)
		}
	}()

	log.Info("watching for video pages; press Ctrl-C to stop")
	if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal("tracker stopped: %v", err)
	}
}

func runValidate(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fatal("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("validation failed: %v", err)
	}
	fmt.Printf("Configuration file '%s' is valid\n", configFile)
}

// runMigrateConfig rewrites a legacy config file in the current layout.
func runMigrateConfig(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fatal("%v", err)
	}
	if err := config.SaveToFile(cfg, configFile); err != nil {
		fatal("failed to save migrated config: %v", err)
	}
	fmt.Printf("Configuration file '%s' migrated to the current layout\n", configFile)
}

// meteredHooks counts lifecycle transitions on their way to the browser
// hooks.
type meteredHooks struct {
	inner   session.Hooks
	metrics *monitoring.Metrics
}

func (h *meteredHooks) OnActivate(ctx context.Context, pageURL string) {
	h.metrics.ObserveReArm()
	h.inner.OnActivate(ctx, pageURL)
}

func (h *meteredHooks) OnTeardown(ctx context.Context) {
	h.metrics.ObserveTeardown()
	h.inner.OnTeardown(ctx)
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrNotApplicable):
		return "not_applicable"
	case errors.Is(err, pipeline.ErrNoData):
		return "no_data"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// flagValue returns the argument following any of the given flags.
func flagValue(flags ...string) string {
	for i, arg := range os.Args {
		for _, flag := range flags {
			if arg == flag && i+1 < len(os.Args) {
				return os.Args[i+1]
			}
		}
	}
	return ""
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// printUsage displays help information
func printUsage() {
	fmt.Println("tellahook - Tella video metadata extraction and webhook relay")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tellahook watch <config.yaml>            Watch a live browser session and deliver records")
	fmt.Println("  tellahook extract <url> [-o out.json]    Extract one page and print/save the record")
	fmt.Println("  tellahook send <url> -c config.yaml      Extract one page and deliver it to the webhook")
	fmt.Println("  tellahook validate <config.yaml>         Validate a configuration file")
	fmt.Println("  tellahook migrate-config <config.yaml>   Rewrite a legacy config in the current layout")
	fmt.Println("  tellahook version                        Show version information")
	fmt.Println("  tellahook help                           Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -c, --config <file>                      Configuration file for one-shot commands")
	fmt.Println("  -o, --output <file>                      Output file for extract (default: stdout)")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("tellahook %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
