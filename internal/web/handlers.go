package web

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kwadjo/predsync/internal/config"
	"github.com/kwadjo/predsync/internal/db"
	"github.com/kwadjo/predsync/internal/engine"
	"github.com/kwadjo/predsync/internal/errors"
	"github.com/kwadjo/predsync/internal/ops"
)

// Handlers contains HTTP route handlers for the predsync API.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	engine  *engine.Engine
	log     *zap.Logger
	version string
}

// HandleHealth handles GET /health — liveness plus store totals.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	total, err := db.CountPredictions(h.db)
	if err != nil {
		renderError(w, err)
		return
	}

	cursor, err := db.GetCursor(h.db)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         h.version,
		"busy":            h.engine.Busy(),
		"total":           total,
		"last_message_id": cursor.LastMessageID,
		"last_synced_at":  cursor.SyncedAt,
	})
}

// HandleRecords handles GET /records — filtered listing as JSON.
func (h *Handlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	input := ops.QueryInput{
		Couleur: r.URL.Query().Get("couleur"),
		Statut:  r.URL.Query().Get("statut"),
		Numero:  r.URL.Query().Get("numero"),
		Limit:   parseIntParam(r, "limit", 0),
		Offset:  parseIntParam(r, "offset", 0),
	}

	result, err := ops.Query(h.db, input)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleStats handles GET /stats — outcome breakdown as JSON.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Stats(h.db)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleRuns handles GET /runs — sync run history as JSON.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Runs(h.db, ops.RunsInput{
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleReport handles GET /report — rendered HTML report.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Report(h.db, ops.ReportInput{
		Couleur: r.URL.Query().Get("couleur"),
		Statut:  r.URL.Query().Get("statut"),
		Numero:  r.URL.Query().Get("numero"),
		Title:   r.URL.Query().Get("title"),
	})
	if err != nil {
		renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, reportShell, result.HTML)
}

// reportShell wraps the rendered report body in a minimal page.
const reportShell = `<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"><title>Rapport</title></head>
<body>%s</body>
</html>
`

// HandleSync handles POST /sync — trigger a sync run.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	mode, err := engine.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := h.engine.Sync(r.Context(), mode, nil)
	if err != nil {
		h.log.Warn("sync request failed", zap.Error(err))
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// renderJSON writes a JSON response with the given status.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes a coded error as a JSON response. The status comes
// from the error itself; unknown errors map to 500.
func renderError(w http.ResponseWriter, err error) {
	var sErr *errors.SyncError
	if !stderrors.As(err, &sErr) {
		sErr = errors.NewInternal(err)
	}

	renderJSON(w, sErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(sErr.Code),
			"message": sErr.Message,
			"status":  sErr.Status,
		},
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
