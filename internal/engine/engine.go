// Package engine implements the incremental synchronization engine: it
// walks the feed forward from the durable cursor, extracts prediction
// records, stores them exactly once, and advances the cursor past
// everything it has seen.
package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kwadjo/predsync/internal/config"
	"github.com/kwadjo/predsync/internal/db"
	"github.com/kwadjo/predsync/internal/errors"
	"github.com/kwadjo/predsync/internal/feed"
	"github.com/kwadjo/predsync/internal/record"
)

// Mode selects where a sync run starts from.
type Mode string

const (
	// ModeIncremental starts strictly after the stored cursor.
	ModeIncremental Mode = "incremental"
	// ModeFull starts from the beginning of the feed. Already-stored
	// records dedup to no-ops, so a full run is safe at any time.
	ModeFull Mode = "full"
)

// ParseMode validates a mode string. Empty defaults to incremental.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeIncremental, nil
	case ModeIncremental, ModeFull:
		return Mode(s), nil
	default:
		return "", errors.NewInvalidRequest("mode must be one of: incremental, full")
	}
}

// Progress is one progress notification emitted during a run.
type Progress struct {
	NewRecords    int   `json:"new_records"`
	LastMessageID int64 `json:"last_message_id"`
}

// ProgressFunc consumes progress notifications. It may be called zero or
// many times; calls are best-effort and never block or fail the run.
type ProgressFunc func(Progress)

// SyncResult summarizes a completed run.
type SyncResult struct {
	RunID         string `json:"run_id"`
	Mode          Mode   `json:"mode"`
	NewRecords    int    `json:"new_records"`
	LastMessageID int64  `json:"last_message_id"`
	Scanned       int    `json:"scanned"`
}

// progressBuffer bounds queued progress events. When the consumer falls
// behind, events are dropped rather than stalling extraction.
const progressBuffer = 16

// Engine orchestrates sync runs. One engine allows one running sync at a
// time; concurrent requests are rejected immediately, not queued.
type Engine struct {
	db   *sql.DB
	feed feed.Source
	cfg  *config.Config
	log  *zap.Logger

	busy atomic.Bool
}

// New creates an engine. A nil logger disables logging.
func New(database *sql.DB, source feed.Source, cfg *config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:   database,
		feed: source,
		cfg:  cfg,
		log:  logger,
	}
}

// Busy reports whether a sync run is currently active.
func (e *Engine) Busy() bool {
	return e.busy.Load()
}

// Sync runs one synchronization pass and returns its summary.
//
// A second Sync while one is running returns a BUSY error immediately with
// no state change. A feed error or cancellation aborts the run with the
// cursor untouched; records already stored stay (they are idempotent, so
// the next run re-covers the same ground for free).
func (e *Engine) Sync(ctx context.Context, mode Mode, sink ProgressFunc) (*SyncResult, error) {
	if mode == "" {
		mode = ModeIncremental
	}
	if mode != ModeIncremental && mode != ModeFull {
		return nil, errors.NewInvalidRequest("mode must be one of: incremental, full")
	}

	if !e.busy.CompareAndSwap(false, true) {
		return nil, errors.NewBusy()
	}
	defer e.busy.Store(false)

	runID := newRunID()
	log := e.log.With(zap.String("run_id", runID), zap.String("mode", string(mode)))

	if err := db.StartRun(e.db, runID, string(mode)); err != nil {
		return nil, err
	}

	// Progress dispatch runs on its own goroutine so a slow sink never
	// stalls the scan loop. A single dispatcher keeps delivery ordered.
	events := make(chan Progress, progressBuffer)
	var wg sync.WaitGroup
	if sink != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range events {
				notify(sink, p)
			}
		}()
	}
	emit := func(p Progress) {
		select {
		case events <- p:
		default: // consumer behind, drop
		}
	}
	finishDispatch := func() {
		close(events)
		wg.Wait()
	}

	minID := int64(0)
	if mode == ModeIncremental {
		cursor, err := db.GetCursor(e.db)
		if err != nil {
			finishDispatch()
			return nil, e.fail(log, runID, 0, err)
		}
		minID = cursor.LastMessageID
	}

	log.Info("sync started", zap.Int64("min_id", minID))

	var (
		newCount int
		scanned  int
		maxSeen  = minID
		pageMin  = minID
	)

	for scanned < e.cfg.MaxMessagesPerSync {
		if err := ctx.Err(); err != nil {
			finishDispatch()
			return nil, e.fail(log, runID, newCount, &feed.Error{Kind: feed.Transient, Message: "sync cancelled", Err: err})
		}

		limit := e.cfg.FeedPageSize
		if remaining := e.cfg.MaxMessagesPerSync - scanned; limit > remaining {
			limit = remaining
		}

		msgs, err := e.feed.FetchSince(ctx, pageMin, limit)
		if err != nil {
			finishDispatch()
			return nil, e.fail(log, runID, newCount, err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, m := range msgs {
			scanned++
			// The cursor must advance past non-matching messages
			// too, or incremental runs would re-scan dead
			// messages forever.
			if m.ID > maxSeen {
				maxSeen = m.ID
			}
			if m.ID > pageMin {
				pageMin = m.ID
			}

			if m.Text == "" {
				continue
			}

			fields, ok := record.Extract(m.Text)
			if !ok {
				continue
			}

			inserted, err := db.InsertIfAbsent(e.db, &record.Prediction{
				MessageID:  m.ID,
				Numero:     fields.Numero,
				Couleur:    fields.Couleur,
				Statut:     fields.Statut,
				RawText:    record.Truncate(m.Text, e.cfg.RawTextMaxChars),
				IngestedAt: time.Now().Unix(),
			})
			if err != nil {
				finishDispatch()
				return nil, e.fail(log, runID, newCount, err)
			}
			if !inserted {
				continue // re-seen message_id, not a new record
			}

			newCount++
			if e.cfg.ProgressEvery > 0 && newCount%e.cfg.ProgressEvery == 0 {
				emit(Progress{NewRecords: newCount, LastMessageID: m.ID})
			}
		}

		if len(msgs) < limit {
			break // short page, feed exhausted
		}
	}

	// Advance only after every record of the run is durably committed.
	// An aborted run never reaches this point, which is what keeps the
	// cursor all-or-nothing per run.
	if maxSeen > minID {
		if err := db.AdvanceCursor(e.db, maxSeen); err != nil {
			finishDispatch()
			return nil, e.fail(log, runID, newCount, err)
		}
	}

	finishDispatch()

	if err := db.FinishRun(e.db, runID, db.RunStatusCompleted, newCount, maxSeen, ""); err != nil {
		return nil, err
	}

	log.Info("sync completed",
		zap.Int("new_records", newCount),
		zap.Int("scanned", scanned),
		zap.Int64("last_message_id", maxSeen),
	)

	return &SyncResult{
		RunID:         runID,
		Mode:          mode,
		NewRecords:    newCount,
		LastMessageID: maxSeen,
		Scanned:       scanned,
	}, nil
}

// fail records the aborted run and maps the cause to a coded error.
// The partial new-record count is kept on the run row for diagnostics;
// the cursor is left at its pre-run value.
func (e *Engine) fail(log *zap.Logger, runID string, newCount int, cause error) error {
	mapped := mapError(cause)

	if err := db.FinishRun(e.db, runID, db.RunStatusFailed, newCount, 0, mapped.Error()); err != nil {
		log.Warn("recording failed run", zap.Error(err))
	}

	log.Warn("sync failed", zap.Int("new_records", newCount), zap.Error(cause))
	return mapped
}

// mapError converts feed errors to coded errors; store errors already are.
func mapError(err error) error {
	var fErr *feed.Error
	if stderrors.As(err, &fErr) {
		switch fErr.Kind {
		case feed.Unauthenticated:
			return errors.NewFeedUnauthenticated(fErr.Error())
		case feed.NotFound:
			return errors.NewFeedNotFound(fErr.Error())
		default:
			return errors.NewFeedUnavailable(fErr.Error())
		}
	}

	var sErr *errors.SyncError
	if stderrors.As(err, &sErr) {
		return sErr
	}

	return errors.NewInternal(err)
}

// notify calls the sink, swallowing panics: a broken progress consumer
// must not take the run down with it.
func notify(sink ProgressFunc, p Progress) {
	defer func() { _ = recover() }()
	sink(p)
}

// newRunID generates a ULID for a sync run.
func newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
