package record

// Prediction represents one structured prediction extracted from a feed message.
// Records are immutable once stored; only a full reset removes them.
type Prediction struct {
	// MessageID is the feed-assigned message id. Unique across the store;
	// non-decreasing in feed emission order (ties possible upstream).
	MessageID int64 `json:"message_id"`

	// Numero is the numeric token following the prediction marker.
	Numero string `json:"numero"`

	// Couleur is the free-text category label.
	Couleur string `json:"couleur"`

	// Statut is the free-text status label. Consumers classify it by
	// substring (won/lost/pending); the store keeps it verbatim.
	Statut string `json:"statut"`

	// RawText is a bounded copy of the original message, kept for audit.
	RawText string `json:"raw_text"`

	// IngestedAt is the Unix timestamp of local processing, not the
	// feed's own timestamp.
	IngestedAt int64 `json:"ingested_at"`
}
