package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/internal/config"
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/internal/preview"
	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/middleware"
	"github.com/vango-dev/domsync/pkg/morph"
)

type serveOptions struct {
	configDir string
	document  string
	watch     string
	port      int
	minify    bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Long: `Start a preview server holding one live host document.

POST a candidate document to /sync to reconcile the host into it. Open
the page in a browser to follow passes as they happen. With --watch, the
candidate file is re-synced every time it changes.

Examples:
  domsync serve --document page.html
  domsync serve --watch build/index.html --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configDir, "config", "c", ".", "Directory holding domsync.json or domsync.yaml")
	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "Initial host document")
	cmd.Flags().StringVarP(&opts.watch, "watch", "w", "", "Candidate file to re-sync on change")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default 7070)")
	cmd.Flags().BoolVarP(&opts.minify, "minify", "m", false, "Serve the document minified")

	return cmd
}

// loadServeConfig loads the config in opts.configDir, falling back to the
// defaults, and applies flag overrides.
func loadServeConfig(opts serveOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		if errors.Code(err) != "D023" {
			return nil, err
		}
		cfg = config.New()
	}

	// Flag paths are relative to the working directory, not the config.
	if opts.document != "" {
		if cfg.Server.Document, err = filepath.Abs(opts.document); err != nil {
			return nil, err
		}
	}
	if opts.watch != "" {
		if cfg.Server.Watch, err = filepath.Abs(opts.watch); err != nil {
			return nil, err
		}
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// previewOptions builds the server options described by cfg.
func previewOptions(cfg *config.Config, minify bool) preview.Options {
	logger := cfg.Logger(os.Stderr)
	registry := prometheus.NewRegistry()

	opts := preview.Options{
		Logger:   logger,
		Registry: registry,
		Minify:   minify,
	}
	if cfg.Markers.Islands {
		opts.Markers = morph.JSONMarkers{Prefix: cfg.Markers.Prefix}
	}
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Middleware = append(opts.Middleware, middleware.Prometheus(
			middleware.WithRegistry(registry),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		))
	}
	if cfg.Tracing.Enabled {
		opts.Middleware = append(opts.Middleware, middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
		))
	}
	return opts
}

func loadHost(path string) (*html.Node, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("D040").WithPath(path).Wrap(err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, errors.New("D040").WithPath(path).Wrap(err)
	}
	return doc, nil
}

func runServe(opts serveOptions) error {
	cfg, err := loadServeConfig(opts)
	if err != nil {
		return err
	}

	printBanner()

	doc, err := loadHost(cfg.DocumentPath())
	if err != nil {
		return err
	}

	srv := preview.NewServer(doc, previewOptions(cfg, opts.minify))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path := cfg.WatchPath(); path != "" {
		watcher := preview.NewWatcher(path, cfg.PollInterval())
		watcher.OnChange(func(path string) {
			syncFile(ctx, srv, path)
		})
		go watcher.Start(ctx)
		info("Watching %s", path)
	}

	success("Preview running at %s", cfg.URL())
	if cfg.Metrics.Enabled {
		info("Metrics at %s/metrics", cfg.URL())
	}
	fmt.Fprintln(os.Stderr)

	return srv.ListenAndServe(ctx, cfg.Address())
}

// syncFile reconciles the preview document against the file at path.
func syncFile(ctx context.Context, srv *preview.Server, path string) {
	f, err := os.Open(path)
	if err != nil {
		warn("Could not read %s: %v", path, err)
		return
	}
	defer f.Close()

	stats, err := srv.Sync(ctx, f)
	if err != nil {
		errors.PrintError(err)
		return
	}
	success("Synced %s (%d mutations)", path, stats.Mutations())
}
