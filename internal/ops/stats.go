package ops

import (
	"database/sql"
	"math"
	"strings"

	"github.com/kwadjo/predsync/internal/db"
)

// Outcome is the consumer-side classification of a free-text statut.
// The store keeps statut verbatim; only reporting buckets it.
type Outcome string

const (
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomePending Outcome = "pending"
)

// Classify buckets a statut label by substring. "GAGNÉ", "gagné ✅" and
// friends count as won; "PERDU" variants as lost; anything else is
// still pending.
func Classify(statut string) Outcome {
	s := strings.ToLower(statut)
	switch {
	case strings.Contains(s, "gagn"):
		return OutcomeWon
	case strings.Contains(s, "perd"):
		return OutcomeLost
	default:
		return OutcomePending
	}
}

// StatsOutput contains the result of the Stats operation.
type StatsOutput struct {
	Total         int     `json:"total"`
	Won           int     `json:"won"`
	Lost          int     `json:"lost"`
	Pending       int     `json:"pending"`
	WinRate       float64 `json:"win_rate"` // percent of total, 1 decimal
	LastMessageID int64   `json:"last_message_id"`
	LastSyncedAt  int64   `json:"last_synced_at"`
}

// Stats summarizes the stored predictions and the sync cursor.
func Stats(database *sql.DB) (*StatsOutput, error) {
	items, err := db.QueryPredictions(database, db.Filter{})
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{Total: len(items)}
	for _, p := range items {
		switch Classify(p.Statut) {
		case OutcomeWon:
			out.Won++
		case OutcomeLost:
			out.Lost++
		default:
			out.Pending++
		}
	}

	if out.Total > 0 {
		out.WinRate = math.Round(float64(out.Won)/float64(out.Total)*1000) / 10
	}

	cursor, err := db.GetCursor(database)
	if err != nil {
		return nil, err
	}
	out.LastMessageID = cursor.LastMessageID
	out.LastSyncedAt = cursor.SyncedAt

	return out, nil
}
