// Package reporter renders aggregated traffic rows to a terminal,
// either as aligned tables or as indented JSON.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/naka-gawa/github-traffic/internal/domain"
)

// Format selects the output representation.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a CLI format name.
func ParseFormat(name string) (Format, bool) {
	switch Format(name) {
	case FormatTable, FormatJSON:
		return Format(name), true
	}
	return "", false
}

// Reporter writes aggregated rows to a single destination.
type Reporter struct {
	w      io.Writer
	format Format
}

// New creates a Reporter writing to w in the given format.
func New(w io.Writer, format Format) *Reporter {
	return &Reporter{w: w, format: format}
}

// Summaries renders per-repository totals. Rows may span both metrics;
// table output gets one table per metric, in the order the metrics
// first appear.
func (r *Reporter) Summaries(rows []domain.Summary) error {
	if r.format == FormatJSON {
		return r.writeJSON(rows)
	}
	for _, metric := range summaryMetrics(rows) {
		var data [][]string
		for _, row := range rows {
			if row.Metric != metric {
				continue
			}
			data = append(data, []string{
				row.Repo,
				strconv.Itoa(row.Count),
				strconv.Itoa(row.Uniques),
				strconv.FormatFloat(row.MeanDaily, 'f', 1, 64),
			})
		}
		if err := r.writeTable(string(metric), []string{"Repository", "Count", "Uniques", "Avg/Day"}, data); err != nil {
			return err
		}
	}
	return nil
}

// Breakdowns renders per-day totals across all repositories.
func (r *Reporter) Breakdowns(rows []domain.Breakdown) error {
	if r.format == FormatJSON {
		return r.writeJSON(rows)
	}
	for _, metric := range breakdownMetrics(rows) {
		var data [][]string
		for _, row := range rows {
			if row.Metric != metric {
				continue
			}
			data = append(data, []string{
				row.Date.Format("2006-01-02"),
				strconv.Itoa(row.Count),
				strconv.Itoa(row.Uniques),
			})
		}
		if err := r.writeTable(string(metric), []string{"Date", "Count", "Uniques"}, data); err != nil {
			return err
		}
	}
	return nil
}

// Referrers renders referrers merged across repositories.
func (r *Reporter) Referrers(rows []domain.ReferrerTotal) error {
	if r.format == FormatJSON {
		return r.writeJSON(rows)
	}
	var data [][]string
	for _, row := range rows {
		data = append(data, []string{row.Referrer, strconv.Itoa(row.Count), strconv.Itoa(row.Uniques)})
	}
	return r.writeTable("referrers", []string{"Referrer", "Count", "Uniques"}, data)
}

// Paths renders content paths merged across repositories.
func (r *Reporter) Paths(rows []domain.PathTotal) error {
	if r.format == FormatJSON {
		return r.writeJSON(rows)
	}
	var data [][]string
	for _, row := range rows {
		data = append(data, []string{row.Path, row.Title, strconv.Itoa(row.Count), strconv.Itoa(row.Uniques)})
	}
	return r.writeTable("paths", []string{"Path", "Title", "Count", "Uniques"}, data)
}

func (r *Reporter) writeJSON(rows any) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(r.w, string(data))
	return err
}

func (r *Reporter) writeTable(title string, headers []string, rows [][]string) error {
	titleStyle := lipgloss.NewStyle().Bold(true)
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(r.w, titleStyle.Render(title)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(r.w, t.Render())
	return err
}

func summaryMetrics(rows []domain.Summary) []domain.Metric {
	var metrics []domain.Metric
	seen := make(map[domain.Metric]bool)
	for _, row := range rows {
		if !seen[row.Metric] {
			seen[row.Metric] = true
			metrics = append(metrics, row.Metric)
		}
	}
	return metrics
}

func breakdownMetrics(rows []domain.Breakdown) []domain.Metric {
	var metrics []domain.Metric
	seen := make(map[domain.Metric]bool)
	for _, row := range rows {
		if !seen[row.Metric] {
			seen[row.Metric] = true
			metrics = append(metrics, row.Metric)
		}
	}
	return metrics
}
