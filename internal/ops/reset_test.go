package ops

import (
	"testing"

	"github.com/kwadjo/predsync/internal/db"
)

func TestReset(t *testing.T) {
	database := testDB(t)
	seed(t, database, 1, "Rouge", "GAGNÉ")
	seed(t, database, 2, "Bleu", "PERDU")
	if err := db.AdvanceCursor(database, 2); err != nil {
		t.Fatalf("AdvanceCursor() error = %v", err)
	}

	out, err := Reset(database)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if out.RecordsRemoved != 2 {
		t.Errorf("RecordsRemoved = %d, want 2", out.RecordsRemoved)
	}

	stats, err := Stats(database)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Total = %d after reset, want 0", stats.Total)
	}
	if stats.LastMessageID != 0 {
		t.Errorf("LastMessageID = %d after reset, want 0", stats.LastMessageID)
	}
}

func TestReset_Empty(t *testing.T) {
	database := testDB(t)

	out, err := Reset(database)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if out.RecordsRemoved != 0 {
		t.Errorf("RecordsRemoved = %d, want 0", out.RecordsRemoved)
	}
}
