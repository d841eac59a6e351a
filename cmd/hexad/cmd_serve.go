package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"hexad/pkg/config"
)

// fallbackPollInterval is the safety-net scan period when fsnotify events
// are lost or unavailable.
const fallbackPollInterval = 30 * time.Second

// newServeCmd creates the "hexad serve" subcommand.
func newServeCmd() *cobra.Command {
	var spoolDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch a spool directory and run queued tasks",
		Long:  "Watches the spool directory for *.task files. Each file's content\nruns as one task; the result is written next to it as *.result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			if spoolDir == "" {
				spoolDir = filepath.Join(root, ".hexad", "spool")
			}
			if err := os.MkdirAll(spoolDir, 0o755); err != nil {
				return fmt.Errorf("create spool dir: %w", err)
			}

			logger := buildLogger(cfg.LogLevel)
			return serveSpool(cmd.Context(), cfg, logger, spoolDir)
		},
	}

	cmd.Flags().StringVar(&spoolDir, "spool", "", "spool directory (default .hexad/spool)")

	return cmd
}

// serveSpool processes existing task files, then blocks on filesystem
// events with periodic fallback scans until ctx is done. Watcher setup
// failure degrades to polling only.
func serveSpool(ctx context.Context, cfg config.Config, logger *slog.Logger, spoolDir string) error {
	if err := scanSpool(ctx, cfg, logger, spoolDir); err != nil {
		return err
	}

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, polling only", "error", err)
	} else {
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(spoolDir); err != nil {
			logger.Warn("watch spool failed, polling only", "dir", spoolDir, "error", err)
		} else {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(fallbackPollInterval)
	defer ticker.Stop()

	logger.Info("serving spool", "dir", spoolDir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if err := scanSpool(ctx, cfg, logger, spoolDir); err != nil {
				return err
			}
		case <-ticker.C:
			if err := scanSpool(ctx, cfg, logger, spoolDir); err != nil {
				return err
			}
		}
	}
}

// scanSpool runs every pending task file in name order.
func scanSpool(ctx context.Context, cfg config.Config, logger *slog.Logger, spoolDir string) error {
	entries, err := os.ReadDir(spoolDir)
	if err != nil {
		return fmt.Errorf("read spool dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".task") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(spoolDir, entry.Name())
		if err := processSpoolFile(ctx, cfg, logger, path); err != nil {
			logger.Error("task file failed", "file", entry.Name(), "error", err)
		}
	}
	return nil
}

// processSpoolFile runs one task file through a fresh engine, writes the
// result beside it, and removes the task file. Each file gets its own
// engine so runs never share workflow state.
func processSpoolFile(ctx context.Context, cfg config.Config, logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read task file: %w", err)
	}
	task := strings.TrimSpace(string(data))
	if task == "" {
		return os.Remove(path)
	}

	sys, rec, cleanup, err := assembleSystem(cfg, logger, true)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("running spooled task", "file", filepath.Base(path))
	if rec != nil {
		rec.RecordRunStart(task)
	}
	result, err := sys.ProcessUserRequest(ctx, task)
	if err != nil {
		return fmt.Errorf("process request: %w", err)
	}
	if rec != nil {
		rec.RecordRunFinish(result)
	}

	resultPath := strings.TrimSuffix(path, ".task") + ".result"
	if err := os.WriteFile(resultPath, []byte(result+"\n"), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return os.Remove(path)
}
