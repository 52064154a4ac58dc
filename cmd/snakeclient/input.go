package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rickgao/snake-client/internal/connection"
	"github.com/rickgao/snake-client/internal/protocol"
)

// commander is the part of the client driven by stdin.
type commander interface {
	Connect(endpoint string)
	Disconnect()
	SendInput(k protocol.Key) error
	SendConfig(ctx context.Context, cfg protocol.SessionConfig) error
	State() connection.State
}

// readInput executes one command per line until exit, EOF or ctx is done.
func readInput(ctx context.Context, r io.Reader, c commander, session protocol.SessionConfig, logger *slog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				logger.Info("input closed")
				return nil
			}
			if done := execute(ctx, line, c, session, logger); done {
				return nil
			}
		}
	}
}

// execute runs a single input line. It reports whether the loop should
// stop.
func execute(ctx context.Context, line string, c commander, session protocol.SessionConfig, logger *slog.Logger) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		// A bare space line is the start key
		if line != "" {
			fields = []string{"start"}
		} else {
			return false
		}
	}

	switch strings.ToLower(fields[0]) {
	case "exit":
		return true
	case "connect":
		endpoint := ""
		if len(fields) > 1 {
			endpoint = fields[1]
		}
		c.Connect(endpoint)
	case "disconnect":
		c.Disconnect()
	case "config":
		if err := c.SendConfig(ctx, session); err != nil {
			logger.Warn("session config not delivered", "error", err)
		}
	case "state":
		logger.Info("connection state", "state", c.State().String())
	default:
		key, err := protocol.ParseKey(fields[0])
		if err != nil {
			logger.Warn("unknown command", "input", fields[0])
			return false
		}
		if err := c.SendInput(key); err != nil {
			logger.Warn("key not sent", "key", key.String(), "error", err)
		}
	}
	return false
}
