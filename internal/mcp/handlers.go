package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kwadjo/predsync/internal/engine"
	"github.com/kwadjo/predsync/internal/errors"
	"github.com/kwadjo/predsync/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	engine *engine.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, eng *engine.Engine) *Handlers {
	return &Handlers{db: db, engine: eng}
}

// Request types for each tool

// SyncRequest represents the arguments for prediction_sync.
type SyncRequest struct {
	Mode string `json:"mode,omitempty"`
}

// QueryRequest represents the arguments for prediction_query.
type QueryRequest struct {
	Couleur string `json:"couleur,omitempty"`
	Statut  string `json:"statut,omitempty"`
	Numero  string `json:"numero,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// ReportRequest represents the arguments for prediction_report.
type ReportRequest struct {
	Couleur string `json:"couleur,omitempty"`
	Statut  string `json:"statut,omitempty"`
	Numero  string `json:"numero,omitempty"`
	Title   string `json:"title,omitempty"`
}

// RunsRequest represents the arguments for prediction_runs.
type RunsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleSync handles the prediction_sync tool call.
func (h *Handlers) HandleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SyncRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode, err := engine.ParseMode(input.Mode)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.engine.Sync(ctx, mode, nil)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleQuery handles the prediction_query tool call.
func (h *Handlers) HandleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Query(h.db, ops.QueryInput{
		Couleur: input.Couleur,
		Statut:  input.Statut,
		Numero:  input.Numero,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats handles the prediction_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Stats(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReport handles the prediction_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Report(h.db, ops.ReportInput{
		Couleur: input.Couleur,
		Statut:  input.Statut,
		Numero:  input.Numero,
		Title:   input.Title,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRuns handles the prediction_runs tool call.
func (h *Handlers) HandleRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RunsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Runs(h.db, ops.RunsInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReset handles the prediction_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Reset(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result with the error payload as JSON.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := err.(*errors.SyncError); ok {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": sErr.Message,
			"status":  sErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	data, _ := json.Marshal(payload)
	result := mcp.NewToolResultText(string(data))
	result.IsError = true
	return result
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
