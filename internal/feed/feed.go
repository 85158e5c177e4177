// Package feed defines the channel feed contract the sync engine consumes,
// and an HTTP client implementing it.
//
// The feed is append-only and externally owned: messages carry feed-assigned
// ids that never decrease in emission order. predsync only ever reads
// forward from a given id.
package feed

import (
	"context"
	"fmt"
)

// Message is one raw feed message. Text may be empty (media-only posts).
type Message struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Source supplies an ordered, paginated view of the feed.
type Source interface {
	// FetchSince returns up to limit messages with id strictly greater
	// than minID, ascending by id. An empty slice means the feed is
	// exhausted. Errors are *Error values so callers can tell an
	// authentication problem from a transient outage.
	FetchSince(ctx context.Context, minID int64, limit int) ([]Message, error)
}

// ErrorKind classifies feed failures. The engine aborts on all of them;
// the kind tells the caller whether retrying can ever help.
type ErrorKind string

const (
	// Unauthenticated: credentials rejected. Retrying without new
	// credentials is pointless.
	Unauthenticated ErrorKind = "unauthenticated"

	// NotFound: the channel does not exist or is not visible.
	NotFound ErrorKind = "not_found"

	// Transient: timeouts, 5xx, rate limits. A later retry may succeed.
	Transient ErrorKind = "transient"
)

// Error is a typed feed failure.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status when applicable, 0 otherwise
	Message string
	Err     error // underlying error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed %s (http %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("feed %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}
