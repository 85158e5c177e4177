package ops

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/kwadjo/predsync/internal/db"
	"github.com/kwadjo/predsync/internal/record"
)

// testDB returns an initialized database backed by a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// seed inserts a prediction with the given fields.
func seed(t *testing.T, database *sql.DB, messageID int64, couleur, statut string) {
	t.Helper()
	p := &record.Prediction{
		MessageID:  messageID,
		Numero:     fmt.Sprintf("%d", messageID),
		Couleur:    couleur,
		Statut:     statut,
		RawText:    fmt.Sprintf("PRÉDICTION #%d\nCouleur: %s\nStatut: %s", messageID, couleur, statut),
		IngestedAt: time.Now().Unix(),
	}
	inserted, err := db.InsertIfAbsent(database, p)
	if err != nil {
		t.Fatalf("seed %d: %v", messageID, err)
	}
	if !inserted {
		t.Fatalf("seed %d: duplicate message id in test fixture", messageID)
	}
}
