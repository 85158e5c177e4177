package mcp

import "github.com/mark3labs/mcp-go/mcp"

var syncToolDef = mcp.NewTool("prediction_sync",
	mcp.WithDescription("Synchronize predictions from the channel feed. Incremental mode resumes from the stored cursor; full mode re-scans the feed from the beginning (already-stored records are deduplicated)."),
	mcp.WithString("mode",
		mcp.Description("Sync mode: incremental (default) or full"),
		mcp.Enum("incremental", "full"),
	),
)

var queryToolDef = mcp.NewTool("prediction_query",
	mcp.WithDescription("Query stored predictions. Filters combine with AND; results are in insertion order."),
	mcp.WithString("couleur", mcp.Description("Case-insensitive substring match on couleur")),
	mcp.WithString("statut", mcp.Description("Case-insensitive substring match on statut")),
	mcp.WithString("numero", mcp.Description("Exact match on numero")),
	mcp.WithNumber("limit", mcp.Description("Maximum results to return (0 = all)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var statsToolDef = mcp.NewTool("prediction_stats",
	mcp.WithDescription("Totals, won/lost/pending breakdown, win rate, and the sync cursor position."),
)

var reportToolDef = mcp.NewTool("prediction_report",
	mcp.WithDescription("Build a markdown/HTML summary report over stored predictions, optionally filtered."),
	mcp.WithString("couleur", mcp.Description("Case-insensitive substring match on couleur")),
	mcp.WithString("statut", mcp.Description("Case-insensitive substring match on statut")),
	mcp.WithString("numero", mcp.Description("Exact match on numero")),
	mcp.WithString("title", mcp.Description("Report title")),
)

var runsToolDef = mcp.NewTool("prediction_runs",
	mcp.WithDescription("List recent sync runs, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 20)")),
)

var resetToolDef = mcp.NewTool("prediction_reset",
	mcp.WithDescription("Delete every stored prediction, the run history, and the sync cursor. The next sync starts from the beginning of the feed."),
)
