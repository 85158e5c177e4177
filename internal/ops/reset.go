package ops

import (
	"database/sql"

	"github.com/kwadjo/predsync/internal/db"
)

// ResetOutput contains the result of the Reset operation.
type ResetOutput struct {
	RecordsRemoved int `json:"records_removed"`
}

// Reset removes every stored prediction, the run history, and the sync
// cursor. The next sync starts from the beginning of the feed.
func Reset(database *sql.DB) (*ResetOutput, error) {
	removed, err := db.ClearAll(database)
	if err != nil {
		return nil, err
	}
	return &ResetOutput{RecordsRemoved: removed}, nil
}
