package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rickgao/snake-client/internal/client"
	"github.com/rickgao/snake-client/internal/config"
	"github.com/rickgao/snake-client/internal/events"
	"github.com/rickgao/snake-client/internal/metrics"
	"github.com/rickgao/snake-client/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	configPath  string
	url         string
	logLevel    string
	logFormat   string
	metrics     bool
	maxAttempts int
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect and play from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (defaults apply when empty)")
	cmd.Flags().StringVar(&opts.url, "url", "", "server endpoint, overrides server.* from config")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "serve Prometheus metrics")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-reconnects", -1, "give up after this many reconnects (0 = never)")

	return cmd
}

// loadConfig reads the config file, or returns defaults when path is
// empty, and applies flag overrides.
func loadConfig(opts runOptions) (*config.ClientConfig, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadWithDefaults(opts.configPath); err != nil {
			return nil, err
		}
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.metrics {
		cfg.Metrics.Enabled = true
	}
	if opts.maxAttempts >= 0 {
		cfg.Reconnect.MaxAttempts = opts.maxAttempts
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, opts runOptions, stdin io.Reader, logOut io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(logOut, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	stackCfg := cfg.StackConfig()
	if opts.url != "" {
		stackCfg.Manager.URL = opts.url
	}

	logger.Info("starting snake client",
		"version", version.Version,
		"commit", version.Commit,
		"url", stackCfg.Manager.URL,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack := client.NewStack(stackCfg, nil, logger)
	defer stack.Close()

	if err := watchEvents(stack.Client, logger); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m = metrics.New(metrics.Sources{
			Manager:    stack.Manager,
			Router:     stack.Router,
			Dispatcher: stack.Dispatcher,
		}, metrics.WithRegistry(reg))
		if err := m.Attach(stack.Dispatcher); err != nil {
			return fmt.Errorf("attach metrics: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	stack.Client.Connect("")

	g.Go(func() error {
		err := stack.Client.SendConfig(gctx, cfg.Session)
		if m != nil {
			m.ObserveDelivery(err)
		}
		if err != nil && gctx.Err() == nil {
			logger.Warn("session config not delivered, type 'config' to retry", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return readInput(gctx, stdin, stack.Client, cfg.Session, logger)
	})

	err = g.Wait()
	logger.Info("snake client stopped")
	return err
}

// watchEvents logs everything the dispatcher publishes.
func watchEvents(c *client.Client, logger *slog.Logger) error {
	handlers := map[events.Kind]events.Handler{
		events.KindConnected: func(e events.Event) {
			logger.Info("connection changed", "connected", e.Connected)
		},
		events.KindGameState: func(e events.Event) {
			head, _ := e.Snapshot.Head()
			logger.Debug("game state",
				"score", e.Snapshot.Score(),
				"head_x", head.X,
				"head_y", head.Y,
				"food", e.Snapshot.Food,
			)
		},
		events.KindGameStarted: func(e events.Event) {
			logger.Info("game running", "score", e.Snapshot.Score())
		},
		events.KindGameOver: func(e events.Event) {
			logger.Info("game over", "score", e.Snapshot.Score(), "won", e.Snapshot.GameWon)
		},
		events.KindError: func(e events.Event) {
			logger.Warn("connection error", "error", e.Err)
		},
		events.KindReconnectExhausted: func(e events.Event) {
			logger.Error("server unreachable, type 'connect' to try again", "error", e.Err)
		},
		events.KindMessage: func(e events.Event) {
			logger.Debug("server message", "raw", string(e.Raw))
		},
	}

	for _, kind := range events.Kinds {
		if h, ok := handlers[kind]; ok {
			if _, err := c.Subscribe(kind, h); err != nil {
				return err
			}
		}
	}
	return nil
}
