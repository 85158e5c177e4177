package ops

import (
	"database/sql"

	"github.com/kwadjo/predsync/internal/db"
	"github.com/kwadjo/predsync/internal/errors"
)

// RunsInput contains parameters for the Runs operation.
type RunsInput struct {
	Limit int // default 20
}

// RunsOutput contains the result of the Runs operation.
type RunsOutput struct {
	Runs []db.SyncRun `json:"runs"`
}

// Runs returns the most recent sync runs, newest first.
func Runs(database *sql.DB, input RunsInput) (*RunsOutput, error) {
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must be non-negative")
	}

	runs, err := db.ListRuns(database, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RunsOutput{Runs: runs}, nil
}
