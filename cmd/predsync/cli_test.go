package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/kwadjo/predsync/internal/config"
	"github.com/kwadjo/predsync/internal/db"
	"github.com/kwadjo/predsync/internal/engine"
	"github.com/kwadjo/predsync/internal/feed"
	"github.com/kwadjo/predsync/internal/ops"
	"github.com/kwadjo/predsync/internal/record"
)

// memFeed serves a fixed message slice, honoring minID and limit.
type memFeed struct {
	messages []feed.Message
}

func (f *memFeed) FetchSince(ctx context.Context, minID int64, limit int) ([]feed.Message, error) {
	var out []feed.Message
	for _, m := range f.messages {
		if m.ID > minID {
			out = append(out, m)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// setupTestApp creates a CLI app backed by a temporary database and an
// in-memory feed.
func setupTestApp(t *testing.T, messages []feed.Message) (*sql.DB, *cli.App) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	eng := engine.New(database, &memFeed{messages: messages}, cfg, nil)
	return database, newCLIApp(database, cfg, eng)
}

// captureStdout runs fn with stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), runErr
}

func feedMessage(id int64) feed.Message {
	return feed.Message{
		ID:   id,
		Text: fmt.Sprintf("PRÉDICTION #%d\nCouleur: Rouge\nStatut: GAGNÉ", id),
	}
}

func TestCLISync(t *testing.T) {
	_, app := setupTestApp(t, []feed.Message{
		feedMessage(1),
		{ID: 2, Text: "just chatter"},
		feedMessage(3),
	})

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "sync", "--quiet"})
	})
	if err != nil {
		t.Fatalf("sync command failed: %v", err)
	}

	var output engine.SyncResult
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.NewRecords != 2 {
		t.Errorf("expected 2 new records, got %d", output.NewRecords)
	}
	if output.LastMessageID != 3 {
		t.Errorf("expected cursor 3, got %d", output.LastMessageID)
	}
}

func TestCLISyncFullFlag(t *testing.T) {
	database, app := setupTestApp(t, []feed.Message{feedMessage(1), feedMessage(2)})

	for i := 0; i < 2; i++ {
		if _, err := captureStdout(t, func() error {
			return app.Run([]string{"predsync", "sync", "--full", "--quiet"})
		}); err != nil {
			t.Fatalf("full sync %d failed: %v", i, err)
		}
	}

	count, err := db.CountPredictions(database)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 records after repeated full sync, got %d", count)
	}
}

func TestCLIRecords(t *testing.T) {
	database, app := setupTestApp(t, nil)

	seed := []record.Prediction{
		{MessageID: 1, Numero: "1", Couleur: "Rouge", Statut: "GAGNÉ"},
		{MessageID: 2, Numero: "2", Couleur: "Bleu", Statut: "PERDU"},
	}
	for i := range seed {
		if _, err := db.InsertIfAbsent(database, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "records", "--couleur", "bleu"})
	})
	if err != nil {
		t.Fatalf("records command failed: %v", err)
	}

	var output ops.QueryOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Total != 1 {
		t.Errorf("expected 1 match, got %d", output.Total)
	}
	if len(output.Items) != 1 || output.Items[0].Couleur != "Bleu" {
		t.Errorf("unexpected items: %+v", output.Items)
	}
}

func TestCLIStats(t *testing.T) {
	database, app := setupTestApp(t, nil)

	seed := []record.Prediction{
		{MessageID: 1, Numero: "1", Couleur: "Rouge", Statut: "GAGNÉ"},
		{MessageID: 2, Numero: "2", Couleur: "Bleu", Statut: "PERDU"},
	}
	for i := range seed {
		if _, err := db.InsertIfAbsent(database, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "stats"})
	})
	if err != nil {
		t.Fatalf("stats command failed: %v", err)
	}

	var output ops.StatsOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Total != 2 || output.Won != 1 || output.Lost != 1 {
		t.Errorf("unexpected breakdown: %+v", output)
	}
}

func TestCLIReport(t *testing.T) {
	database, app := setupTestApp(t, nil)

	p := record.Prediction{MessageID: 7, Numero: "7", Couleur: "Trèfle", Statut: "GAGNÉ"}
	if _, err := db.InsertIfAbsent(database, &p); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "report", "--title", "Bilan"})
	})
	if err != nil {
		t.Fatalf("report command failed: %v", err)
	}
	if !strings.Contains(out, "Bilan") {
		t.Errorf("report missing title: %q", out)
	}
	if !strings.Contains(out, "Trèfle") {
		t.Errorf("report missing record: %q", out)
	}

	htmlOut, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "report", "--html"})
	})
	if err != nil {
		t.Fatalf("report --html failed: %v", err)
	}
	if !strings.Contains(htmlOut, "<table>") {
		t.Errorf("html report missing table: %q", htmlOut)
	}
}

func TestCLIRuns(t *testing.T) {
	_, app := setupTestApp(t, []feed.Message{feedMessage(1)})

	if _, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "sync", "--quiet"})
	}); err != nil {
		t.Fatalf("seed sync failed: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "runs"})
	})
	if err != nil {
		t.Fatalf("runs command failed: %v", err)
	}

	var output ops.RunsOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if len(output.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(output.Runs))
	}
	if output.Runs[0].Status != db.RunStatusCompleted {
		t.Errorf("expected completed run, got %q", output.Runs[0].Status)
	}
}

func TestCLIReset(t *testing.T) {
	database, app := setupTestApp(t, nil)

	p := record.Prediction{MessageID: 1, Numero: "1", Couleur: "Rouge", Statut: "GAGNÉ"}
	if _, err := db.InsertIfAbsent(database, &p); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Without --confirm the store is untouched.
	_, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "reset"})
	})
	if err == nil {
		t.Fatalf("expected error without --confirm")
	}
	count, err := db.CountPredictions(database)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("store modified without --confirm: %d records", count)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"predsync", "reset", "--confirm"})
	})
	if err != nil {
		t.Fatalf("reset command failed: %v", err)
	}

	var output ops.ResetOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.RecordsRemoved != 1 {
		t.Errorf("expected 1 record removed, got %d", output.RecordsRemoved)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	_, app := setupTestApp(t, nil)

	err := app.Run([]string{"predsync", "records", "--limit=-1"})
	if err == nil {
		t.Fatalf("expected error for negative limit")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("expected coded error, got: %v", err)
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"predsync"},
			expected: false,
		},
		{
			name:     "sync command",
			args:     []string{"predsync", "sync"},
			expected: true,
		},
		{
			name:     "records command",
			args:     []string{"predsync", "records"},
			expected: true,
		},
		{
			name:     "serve command",
			args:     []string{"predsync", "serve"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"predsync", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"predsync", "--version"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"predsync", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore os.Args
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isCLIMode()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"predsync"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"predsync", "--help"},
			expected: true,
		},
		{
			name:     "help command",
			args:     []string{"predsync", "help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"predsync", "-v"},
			expected: true,
		},
		{
			name:     "subcommand",
			args:     []string{"predsync", "sync"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isHelpOrVersion()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestBaseDirHonorsOverride(t *testing.T) {
	t.Setenv("PREDSYNC_HOME", "/tmp/predsync-test")

	dir, err := baseDir()
	if err != nil {
		t.Fatalf("baseDir: %v", err)
	}
	if dir != "/tmp/predsync-test" {
		t.Errorf("expected override dir, got %q", dir)
	}
}
