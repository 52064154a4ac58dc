package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rickgao/snake-client/internal/client"
	"github.com/rickgao/snake-client/internal/events"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var (
		opts    runOptions
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect and print every event without sending input",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), opts, verbose, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (defaults apply when empty)")
	cmd.Flags().StringVar(&opts.url, "url", "", "server endpoint, overrides server.* from config")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print full snapshot JSON")
	opts.maxAttempts = -1

	return cmd
}

func watch(ctx context.Context, opts runOptions, verbose bool, out, logOut io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(logOut, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	stackCfg := cfg.StackConfig()
	if opts.url != "" {
		stackCfg.Manager.URL = opts.url
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack := client.NewStack(stackCfg, nil, logger)
	defer stack.Close()

	p := &eventPrinter{out: out, verbose: verbose}
	for _, kind := range events.Kinds {
		if _, err := stack.Client.Subscribe(kind, p.print); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	stack.Client.Connect("")
	<-ctx.Done()
	return nil
}

// eventPrinter writes one line per event.
type eventPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

func (p *eventPrinter) print(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case events.KindConnected:
		fmt.Fprintf(p.out, "[CONNECTED] %t\n", e.Connected)
	case events.KindGameState:
		if p.verbose {
			data, _ := json.Marshal(e.Snapshot)
			fmt.Fprintf(p.out, "[STATE] %s\n", data)
			return
		}
		head, _ := e.Snapshot.Head()
		food := "none"
		if e.Snapshot.Food != nil {
			food = fmt.Sprintf("%d,%d", e.Snapshot.Food.X, e.Snapshot.Food.Y)
		}
		fmt.Fprintf(p.out, "[STATE] score=%d head=%d,%d food=%s started=%t over=%t won=%t\n",
			e.Snapshot.Score(), head.X, head.Y, food,
			e.Snapshot.GameStarted, e.Snapshot.GameOver, e.Snapshot.GameWon)
	case events.KindGameStarted:
		fmt.Fprintf(p.out, "[STARTED] score=%d\n", e.Snapshot.Score())
	case events.KindGameOver:
		fmt.Fprintf(p.out, "[GAME OVER] score=%d won=%t\n", e.Snapshot.Score(), e.Snapshot.GameWon)
	case events.KindError:
		fmt.Fprintf(p.out, "[ERROR] %v\n", e.Err)
	case events.KindReconnectExhausted:
		fmt.Fprintf(p.out, "[EXHAUSTED] %v\n", e.Err)
	case events.KindMessage:
		fmt.Fprintf(p.out, "[MESSAGE] %s\n", e.Raw)
	}
}
