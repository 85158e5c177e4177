package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// maxBodyBytes bounds how much of a feed response we will read.
const maxBodyBytes = 10 * 1024 * 1024

// Client reads the feed over HTTP:
//
//	GET {base}/messages?min_id=<id>&limit=<n>
//	Authorization: Bearer <token>
//
// responding with a JSON object {"messages": [{"id": ..., "text": ...}]}.
// The client never retries; retry policy belongs to the caller, since
// blind retries against a rate-limited feed add load without adding
// safety (ingestion is already idempotent).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a feed client for the given base URL. token may be
// empty for feeds that do not require authentication.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchSince implements Source.
func (c *Client) FetchSince(ctx context.Context, minID int64, limit int) ([]Message, error) {
	q := url.Values{}
	q.Set("min_id", strconv.FormatInt(minID, 10))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/messages?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: Transient, Message: "building request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network failures and timeouts are transient; a cancelled
		// context surfaces here too and the engine treats both the
		// same way (abort, cursor untouched).
		return nil, &Error{Kind: Transient, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: Transient, Message: "reading body", Err: err}
	}

	var payload struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Kind: Transient, Message: "decoding response", Err: err}
	}

	msgs := payload.Messages

	// The contract is ascending ids strictly after minID. Tolerate a
	// sloppy upstream rather than feeding the engine out-of-order ids.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	filtered := msgs[:0]
	for _, m := range msgs {
		if m.ID > minID {
			filtered = append(filtered, m)
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return filtered, nil
}

// classifyStatus maps an HTTP status to a typed feed error, or nil for 2xx.
func classifyStatus(status int) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: Unauthenticated, Status: status, Message: "feed rejected credentials"}
	case status == http.StatusNotFound:
		return &Error{Kind: NotFound, Status: status, Message: "channel not found"}
	default:
		// 429 and 5xx, but also anything unexpected: assume retryable.
		return &Error{Kind: Transient, Status: status, Message: "feed unavailable"}
	}
}
