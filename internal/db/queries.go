package db

import (
	"database/sql"
	"time"

	"github.com/kwadjo/predsync/internal/errors"
	"github.com/kwadjo/predsync/internal/record"
)

// Cursor is the durable sync high-water mark. Zero value means no sync
// has ever completed.
type Cursor struct {
	LastMessageID int64 `json:"last_message_id"`
	SyncedAt      int64 `json:"synced_at"`
}

// SyncRun is one row of the sync run audit log.
type SyncRun struct {
	RunID         string  `json:"run_id"`
	Mode          string  `json:"mode"`
	Status        string  `json:"status"`
	StartedAt     int64   `json:"started_at"`
	FinishedAt    *int64  `json:"finished_at,omitempty"`
	NewRecords    int     `json:"new_records"`
	LastMessageID int64   `json:"last_message_id"`
	Error         *string `json:"error,omitempty"`
}

// Run statuses recorded in sync_runs.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Filter restricts QueryPredictions. All set fields must match
// (conjunction); zero value matches everything.
type Filter struct {
	Couleur string // case-insensitive substring
	Statut  string // case-insensitive substring
	Numero  string // exact
}

// InsertIfAbsent stores a prediction unless its message_id is already
// present. Returns true if a row was inserted, false on duplicate.
// INSERT OR IGNORE keeps the check and the insert in one statement, so
// concurrent callers cannot both insert.
func InsertIfAbsent(db *sql.DB, p *record.Prediction) (bool, error) {
	query := `
		INSERT OR IGNORE INTO predictions (
			message_id, numero, couleur, statut, raw_text, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := db.Exec(query,
		p.MessageID, p.Numero, p.Couleur, p.Statut, p.RawText, p.IngestedAt,
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}

	return rowsAffected > 0, nil
}

// QueryPredictions returns predictions matching the filter in insertion
// order. An empty filter returns all records.
func QueryPredictions(db *sql.DB, f Filter) ([]record.Prediction, error) {
	query := `
		SELECT message_id, numero, couleur, statut, raw_text, ingested_at
		FROM predictions
		WHERE 1=1
	`
	args := []any{}

	if f.Couleur != "" {
		query += " AND instr(lower(couleur), lower(?)) > 0"
		args = append(args, f.Couleur)
	}
	if f.Statut != "" {
		query += " AND instr(lower(statut), lower(?)) > 0"
		args = append(args, f.Statut)
	}
	if f.Numero != "" {
		query += " AND numero = ?"
		args = append(args, f.Numero)
	}

	query += " ORDER BY seq ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	predictions := make([]record.Prediction, 0)
	for rows.Next() {
		var p record.Prediction
		if err := rows.Scan(&p.MessageID, &p.Numero, &p.Couleur, &p.Statut, &p.RawText, &p.IngestedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return predictions, nil
}

// CountPredictions returns the total number of stored predictions.
func CountPredictions(db *sql.DB) (int, error) {
	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&total); err != nil {
		return 0, errors.NewInternal(err)
	}
	return total, nil
}

// GetCursor returns the sync cursor, or the zero cursor if no sync has
// ever completed.
func GetCursor(db *sql.DB) (Cursor, error) {
	var c Cursor
	err := db.QueryRow("SELECT last_message_id, synced_at FROM sync_state WHERE id = 1").
		Scan(&c.LastMessageID, &c.SyncedAt)
	if err == sql.ErrNoRows {
		return Cursor{}, nil
	}
	if err != nil {
		return Cursor{}, errors.NewInternal(err)
	}
	return c, nil
}

// AdvanceCursor sets last_message_id to max(current, newID). The max is
// computed inside the statement, so the cursor can never regress even if
// callers race or replay an old id.
func AdvanceCursor(db *sql.DB, newID int64) error {
	query := `
		INSERT INTO sync_state (id, last_message_id, synced_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_message_id = max(last_message_id, excluded.last_message_id),
			synced_at = excluded.synced_at
	`
	if _, err := db.Exec(query, newID, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ClearAll removes every prediction and resets the cursor to zero, in a
// single transaction. Operator-invoked reset only; normal sync never
// touches this path.
func ClearAll(db *sql.DB) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM predictions")
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	if _, err := tx.Exec("DELETE FROM sync_state"); err != nil {
		return 0, errors.NewInternal(err)
	}
	if _, err := tx.Exec("DELETE FROM sync_runs"); err != nil {
		return 0, errors.NewInternal(err)
	}
	// Reset the autoincrement counter so insertion order restarts cleanly.
	if _, err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'predictions'"); err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}

	return int(removed), nil
}

// StartRun records the beginning of a sync run.
func StartRun(db *sql.DB, runID, mode string) error {
	query := `
		INSERT INTO sync_runs (run_id, mode, status, started_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := db.Exec(query, runID, mode, RunStatusRunning, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// FinishRun records the outcome of a sync run. errMsg is stored only for
// failed runs.
func FinishRun(db *sql.DB, runID, status string, newRecords int, lastMessageID int64, errMsg string) error {
	var e sql.NullString
	if errMsg != "" {
		e = sql.NullString{String: errMsg, Valid: true}
	}

	query := `
		UPDATE sync_runs
		SET status = ?, finished_at = ?, new_records = ?, last_message_id = ?, error = ?
		WHERE run_id = ?
	`
	result, err := db.Exec(query, status, time.Now().Unix(), newRecords, lastMessageID, e, runID)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(runID)
	}

	return nil
}

// ListRuns returns the most recent sync runs, newest first.
func ListRuns(db *sql.DB, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, mode, status, started_at, finished_at,
			new_records, last_message_id, error
		FROM sync_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	runs := make([]SyncRun, 0)
	for rows.Next() {
		var (
			r          SyncRun
			finishedAt sql.NullInt64
			errMsg     sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.Mode, &r.Status, &r.StartedAt, &finishedAt, &r.NewRecords, &r.LastMessageID, &errMsg); err != nil {
			return nil, errors.NewInternal(err)
		}
		if finishedAt.Valid {
			r.FinishedAt = &finishedAt.Int64
		}
		if errMsg.Valid {
			r.Error = &errMsg.String
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return runs, nil
}
