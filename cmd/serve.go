package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/generate"
	"github.com/easelhq/easel/internal/observability"
	"github.com/easelhq/easel/internal/pipeline"
	"github.com/easelhq/easel/internal/preview"
	"github.com/easelhq/easel/internal/transcript"
	"github.com/easelhq/easel/internal/web"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // SSE streaming needs longer timeout
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the easel web studio",
	Long: `Starts the HTTP server hosting the browser UI and the generation
API. The server keeps one conversation per process: transcript, preview
and the active creation live in memory and vanish on restart.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port), overrides config")
	rootCmd.AddCommand(serveCmd)
}

// runServe assembles the application and runs the HTTP server until a
// shutdown signal arrives.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	logger.Info("starting easel", "version", Version, "model", cfg.FullModelName())

	shutdownTracing, err := observability.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace exporter shutdown", "error", err)
		}
	}()

	g, err := generate.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing genkit: %w", err)
	}

	gen, err := generate.New(generate.Config{
		Genkit:      g,
		Model:       cfg.FullModelName(),
		Temperature: cfg.Temperature,
		Logger:      logger.With("component", "generate"),
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	frame := preview.NewFrame()
	renderer := preview.NewRenderer(frame, logger.With("component", "preview"))
	pipe := pipeline.New(transcript.NewLog(), renderer, logger.With("component", "pipeline"))

	srv, err := web.NewServer(web.ServerConfig{
		Logger:      logger.With("component", "web"),
		Pipeline:    pipe,
		Frame:       frame,
		Streamer:    gen,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("easel ready",
		"addr", addr,
		"ui", "http://"+addr+"/",
		"health", "/healthz, /readyz",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
