package ops

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/kwadjo/predsync/internal/errors"
)

// ReportInput contains parameters for the Report operation. Filters have
// Query semantics.
type ReportInput struct {
	Couleur string
	Statut  string
	Numero  string
	Title   string // default "Rapport prédictions"
}

// ReportOutput contains the result of the Report operation. Markdown is
// the source document; HTML is the same document rendered for delivery
// to whatever front-end displays or prints it.
type ReportOutput struct {
	Markdown    string `json:"markdown"`
	HTML        string `json:"html"`
	Count       int    `json:"count"`
	GeneratedAt int64  `json:"generated_at"`
}

// markdown converts report source to HTML. Tables need the GFM extension.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Report builds a summary document over the predictions matching the
// filter: headline stats followed by one table row per record.
func Report(database *sql.DB, input ReportInput) (*ReportOutput, error) {
	query, err := Query(database, QueryInput{
		Couleur: input.Couleur,
		Statut:  input.Statut,
		Numero:  input.Numero,
	})
	if err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = "Rapport prédictions"
	}

	now := time.Now()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Généré le %s.\n\n", now.Format("2006-01-02 15:04"))

	if f := describeFilter(input); f != "" {
		fmt.Fprintf(&b, "Filtres : %s.\n\n", f)
	}

	var won, lost int
	for _, p := range query.Items {
		switch Classify(p.Statut) {
		case OutcomeWon:
			won++
		case OutcomeLost:
			lost++
		}
	}
	fmt.Fprintf(&b, "**%d** prédictions — %d gagnées, %d perdues, %d en cours.\n\n",
		query.Total, won, lost, query.Total-won-lost)

	if query.Total > 0 {
		b.WriteString("| Message | Numéro | Couleur | Statut | Ingéré le |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, p := range query.Items {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				p.MessageID,
				escapeCell(p.Numero),
				escapeCell(p.Couleur),
				escapeCell(p.Statut),
				time.Unix(p.IngestedAt, 0).Format("2006-01-02"),
			)
		}
	}

	md := b.String()

	var html bytes.Buffer
	if err := markdown.Convert([]byte(md), &html); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ReportOutput{
		Markdown:    md,
		HTML:        html.String(),
		Count:       query.Total,
		GeneratedAt: now.Unix(),
	}, nil
}

// describeFilter renders the active filters for the report header.
func describeFilter(input ReportInput) string {
	parts := make([]string, 0, 3)
	if input.Couleur != "" {
		parts = append(parts, "couleur ~ "+input.Couleur)
	}
	if input.Statut != "" {
		parts = append(parts, "statut ~ "+input.Statut)
	}
	if input.Numero != "" {
		parts = append(parts, "numéro = "+input.Numero)
	}
	return strings.Join(parts, ", ")
}

// escapeCell keeps free-text field values from breaking table syntax.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
