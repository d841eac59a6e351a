package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdirWithConfig moves the test into a temp project with a fast engine
// config and a trajectory database inside the temp dir.
func chdirWithConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "trajectory.db")
	cfg := "engine:\n  cycle_delay_ms: 1\ntrajectory:\n  enabled: true\n  db_path: " + dbPath + "\n"
	if err := os.MkdirAll(filepath.Join(root, ".hexad"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".hexad", "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(root)
	return dbPath
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("hexad %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestRunPrintsResult(t *testing.T) {
	chdirWithConfig(t)

	out := execute(t, "run", "--no-trajectory", "triage the crash")
	if !strings.Contains(out, "triage the crash") {
		t.Errorf("output missing task text: %q", out)
	}
	if !strings.Contains(out, "Completed stages:") {
		t.Errorf("output missing stage summary: %q", out)
	}
}

func TestRunRecordsTrajectoryAndReport(t *testing.T) {
	dbPath := chdirWithConfig(t)
	reportPath := filepath.Join(filepath.Dir(dbPath), "run.md")

	execute(t, "run", "--report", reportPath, "inspect the queue")

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("trajectory db not written: %v", err)
	}

	md, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(md), "inspect the queue") {
		t.Errorf("report missing task: %q", md)
	}
	if !strings.Contains(string(md), "## Message Flow") {
		t.Errorf("report missing message table: %q", md)
	}

	// The recorded run shows up in status and report output.
	status := execute(t, "status", "--db", dbPath)
	if !strings.Contains(status, "inspect the queue") || !strings.Contains(status, "completed") {
		t.Errorf("status output = %q", status)
	}

	rendered := execute(t, "report", "--db", dbPath)
	if !strings.Contains(rendered, "**Outcome:** completed") {
		t.Errorf("report output = %q", rendered)
	}
}

func TestStatusWithMissingDatabase(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"status", "--db", filepath.Join(t.TempDir(), "missing.db")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing database")
	}
}
