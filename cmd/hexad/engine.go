package main

import (
	"log/slog"
	"os"
	"strings"

	"hexad/pkg/config"
	"hexad/pkg/llm"
	"hexad/pkg/orchestrator"
	"hexad/pkg/system"
	"hexad/pkg/trajectory"
)

// buildLogger constructs a text slog logger at the configured level,
// writing to stderr so command output stays clean on stdout.
func buildLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// buildCompleter selects the completion backend from config. Nil means the
// specialists run their deterministic templates.
func buildCompleter(cfg config.Config) llm.Completer {
	switch cfg.Model.Provider {
	case "openrouter":
		return &llm.OpenRouter{
			BaseURL: cfg.Model.BaseURL,
			APIKey:  cfg.APIKey(),
			Model:   cfg.Model.Name,
		}
	case "ollama":
		return &llm.Ollama{
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
		}
	default:
		return nil
	}
}

// trajectoryPath resolves the trajectory database location.
func trajectoryPath(cfg config.Config) string {
	if cfg.Trajectory.DBPath != "" {
		return cfg.Trajectory.DBPath
	}
	return trajectory.DefaultDBPath()
}

// assembleSystem wires a fresh engine from config. When recording is on it
// also opens the trajectory database and hooks a recorder into the hub;
// cleanup closes the database and is safe to call unconditionally.
func assembleSystem(cfg config.Config, logger *slog.Logger, record bool) (*system.System, *trajectory.Recorder, func(), error) {
	opts := []system.Option{
		system.WithLogger(logger),
		system.WithCompleter(buildCompleter(cfg)),
		system.WithOrchestratorOptions(
			orchestrator.WithLogger(logger),
			orchestrator.WithMaxCycles(cfg.Engine.MaxCycles),
			orchestrator.WithCycleDelay(cfg.CycleDelay()),
			orchestrator.WithWorkerTimeout(cfg.WorkerTimeout()),
		),
	}

	cleanup := func() {}
	var rec *trajectory.Recorder
	if record && cfg.Trajectory.Enabled {
		db, err := trajectory.Open(trajectoryPath(cfg))
		if err != nil {
			return nil, nil, nil, err
		}
		rec = trajectory.NewRecorder(db)
		opts = append(opts, system.WithMessageObserver(rec.RecordMessage))
		cleanup = func() { _ = db.Close() }
	}

	return system.New(opts...), rec, cleanup, nil
}
