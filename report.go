package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/minios-linux/locdiff/i18n"
	"github.com/minios-linux/locdiff/langmeta"
	"github.com/minios-linux/locdiff/reconcile"
)

// Column widths of the report tables, in runes.
const (
	sourceColumnLimit     = 50
	translatedColumnLimit = 25
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// limitText shortens s to at most n runes, marking the cut with "...".
func limitText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ") + "..."
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// missingTable lists the untranslated keys with their source text.
func missingTable(r *reconcile.Report) string {
	t := newTable(i18n.T("Key"), fmt.Sprintf(i18n.T("Source %s"), r.Source))
	for _, e := range r.Missing.Entries() {
		t.Row(e.Path, limitText(e.Value, sourceColumnLimit))
	}
	return t.String()
}

// translatedTable lists the translated keys next to their source text.
func translatedTable(r *reconcile.Report) string {
	t := newTable(i18n.T("Key"), fmt.Sprintf(i18n.T("Source %s"), r.Source), fmt.Sprintf(i18n.T("Target %s"), r.Target))
	for _, row := range r.Rows() {
		t.Row(row.Path, limitText(row.Source, translatedColumnLimit), limitText(row.Translated, translatedColumnLimit))
	}
	return t.String()
}

// printReport writes the untranslated key count and tables for one target.
func printReport(w io.Writer, r *reconcile.Report, translated bool) {
	meta := langmeta.Resolve(r.Target)
	fmt.Fprintf(w, "\n%s%s %s%s\n", colorBlue, meta.Flag, meta.Name, colorReset)
	fmt.Fprintf(w, i18n.N("%d untranslated key detected.", "%d untranslated keys detected.", r.Count())+"\n", r.Count())
	if r.Count() == 0 {
		return
	}
	fmt.Fprintln(w, missingTable(r))
	if translated && r.Translated != nil {
		fmt.Fprintln(w, translatedTable(r))
	}
}

// statusRow is one locale line of the status table.
type statusRow struct {
	Locale  string
	Total   int
	Missing int
}

func (s statusRow) percent() int {
	if s.Total == 0 {
		return 100
	}
	return (s.Total - s.Missing) * 100 / s.Total
}

func renderStatus(rows []statusRow) string {
	t := newTable(i18n.T("Locale"), i18n.T("Language"), i18n.T("Missing"), i18n.T("Progress"))
	for _, r := range rows {
		meta := langmeta.Resolve(r.Locale)
		name := meta.Name
		if meta.Native != "" && meta.Native != meta.Name {
			name += " (" + meta.Native + ")"
		}
		locale := r.Locale
		if meta.Flag != "" {
			locale = meta.Flag + " " + locale
		}
		t.Row(locale, name, fmt.Sprintf("%d/%d", r.Missing, r.Total), progressBar(r.percent(), 20))
	}
	return t.String()
}

// progressBar renders a colored bar of the given width followed by the
// percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}
