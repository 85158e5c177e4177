package ops

import (
	"database/sql"

	"github.com/kwadjo/predsync/internal/db"
	"github.com/kwadjo/predsync/internal/errors"
	"github.com/kwadjo/predsync/internal/record"
)

// QueryInput contains parameters for the Query operation. All filter
// fields are optional and combined with AND.
type QueryInput struct {
	Couleur string // case-insensitive substring
	Statut  string // case-insensitive substring
	Numero  string // exact match
	Limit   int    // 0 = no limit
	Offset  int
}

// QueryOutput contains the result of the Query operation.
type QueryOutput struct {
	Items  []record.Prediction `json:"items"`
	Total  int                 `json:"total"` // matches before limit/offset
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// Query returns stored predictions matching the filter, in insertion order.
func Query(database *sql.DB, input QueryInput) (*QueryOutput, error) {
	if input.Limit < 0 || input.Offset < 0 {
		return nil, errors.NewInvalidRequest("limit and offset must be non-negative")
	}

	items, err := db.QueryPredictions(database, db.Filter{
		Couleur: input.Couleur,
		Statut:  input.Statut,
		Numero:  input.Numero,
	})
	if err != nil {
		return nil, err
	}

	total := len(items)

	if input.Offset > 0 {
		if input.Offset >= len(items) {
			items = items[:0]
		} else {
			items = items[input.Offset:]
		}
	}
	if input.Limit > 0 && len(items) > input.Limit {
		items = items[:input.Limit]
	}

	return &QueryOutput{
		Items:  items,
		Total:  total,
		Limit:  input.Limit,
		Offset: input.Offset,
	}, nil
}
