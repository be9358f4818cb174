package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soapscribe/soapscribe/internal/jobs"
	"github.com/soapscribe/soapscribe/internal/projectconfig"
	"github.com/soapscribe/soapscribe/internal/webapi"
	"github.com/soapscribe/soapscribe/internal/webserver"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	host         string
	port         int
	audioDir     string
	drainTimeout time.Duration
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recording API server",
		Long: `Start the HTTP API that accepts audio recordings, processes them in the
background and serves the resulting SOAP notes.

Settings come from ` + projectconfig.ConfigFileName + ` and SOAPSCRIBE_* environment variables.
Flags given here take precedence over both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(root.projectDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.port
			}
			if cmd.Flags().Changed("audio-dir") {
				cfg.Server.AudioDir = opts.audioDir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, opts.drainTimeout, slog.Default())
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", projectconfig.DefaultHost, "Address to bind")
	cmd.Flags().IntVarP(&opts.port, "port", "p", projectconfig.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&opts.audioDir, "audio-dir", projectconfig.DefaultAudioDir, "Directory uploaded audio is spooled to")
	cmd.Flags().DurationVar(&opts.drainTimeout, "drain-timeout", 30*time.Second, "How long in-flight jobs may keep running after shutdown starts")

	return cmd
}

func runServe(ctx context.Context, cfg *projectconfig.ProjectConfig, drainTimeout time.Duration, logger *slog.Logger) error {
	publishVersion()
	if err := os.MkdirAll(cfg.Server.AudioDir, 0o755); err != nil {
		return fmt.Errorf("creating audio directory: %w", err)
	}

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.close(); err != nil {
			logger.Warn("closing generation backend", "error", err)
		}
	}()

	var policy jobs.EvictionPolicy = jobs.KeepForever{}
	if cfg.Retention() > 0 {
		policy = jobs.EvictTerminalAfter(cfg.Retention())
	}
	store := jobs.NewMemoryStore(policy)

	// Jobs outlive the request that created them, so the pool gets its own
	// context and is only cancelled once draining gives up.
	poolCtx, cancelPool := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelPool()
	pool := jobs.NewPool(poolCtx, cfg.Server.Workers, cfg.Server.QueueSize, logger)

	orch := p.orchestrator(cfg, store, pool, jobs.NewSpool(cfg.Server.AudioDir), logger)

	if cfg.Retention() > 0 {
		go sweepLoop(ctx, store, cfg.SweepInterval(), logger)
	}

	srv, err := webserver.New(webserver.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Service:        orch,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("soapscribe %s listening on http://%s\n", version, cfg.Addr())
	serveErr := srv.ListenAndServe(ctx)

	drainPool(pool, cancelPool, drainTimeout, logger)
	return serveErr
}

// publishVersion makes /api/health report the build version.
func publishVersion() {
	webapi.Version = version
}

// drainPool waits for queued and running jobs, cancelling them once timeout
// has elapsed.
func drainPool(pool *jobs.Pool, cancel context.CancelFunc, timeout time.Duration, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := pool.Close(); err != nil {
			logger.Warn("worker pool stopped with error", "error", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("cancelling unfinished jobs", "drain_timeout", timeout)
		cancel()
		<-done
	}
}

func sweepLoop(ctx context.Context, store *jobs.MemoryStore, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Duration(projectconfig.DefaultSweepInterval * float64(time.Second))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Sweep(now); n > 0 {
				logger.Debug("evicted finished recordings", "count", n)
			}
		}
	}
}
