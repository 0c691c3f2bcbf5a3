package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"yieldScope/internal/merge"
	"yieldScope/internal/model"
	"yieldScope/internal/tracker"
)

// WriteTable prints records as an aligned console table with the visible
// columns only.
func WriteTable(w io.Writer, records []model.CanonicalPoolRecord, v merge.Visibility) error {
	cols := visibleColumns(v, true)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, 0, len(cols))
	rules := make([]string, 0, len(cols))
	for _, col := range cols {
		headers = append(headers, col.Header)
		rules = append(rules, strings.Repeat("-", len(col.Header)))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, strings.Join(rules, "\t")); err != nil {
		return err
	}
	for _, rec := range records {
		cells := make([]string, 0, len(cols))
		for _, col := range cols {
			cells = append(cells, col.Cell(rec))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteCSV writes the visible columns with raw numbers.
func WriteCSV(w io.Writer, records []model.CanonicalPoolRecord, v merge.Visibility) error {
	cols := visibleColumns(v, false)
	cw := csv.NewWriter(w)

	headers := make([]string, 0, len(cols))
	for _, col := range cols {
		headers = append(headers, col.Header)
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := make([]string, 0, len(cols))
		for _, col := range cols {
			row = append(row, col.Raw(rec))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Failure is a failed query as reported to users.
type Failure struct {
	Chain string `json:"chain"`
	Pool  string `json:"pool"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Payload is the JSON shape of a batch.
type Payload struct {
	Records    []model.CanonicalPoolRecord `json:"records"`
	Visibility merge.Visibility            `json:"visibility"`
	Failures   []Failure                   `json:"failures"`
}

// NewPayload flattens a report for JSON output.
func NewPayload(report tracker.Report) Payload {
	out := Payload{
		Records:    report.Records(),
		Visibility: report.Visibility,
		Failures:   []Failure{},
	}
	if out.Visibility == nil {
		out.Visibility = merge.Resolve(out.Records)
	}
	for _, res := range report.Failures() {
		out.Failures = append(out.Failures, NewFailure(res))
	}
	return out
}

// NewFailure describes one failed result.
func NewFailure(res tracker.Result) Failure {
	f := Failure{Chain: res.Query.ChainKey(), Pool: res.Query.Pool}
	if res.Err != nil {
		f.Kind = tracker.FailureKind(res.Err)
		f.Error = res.Err.Error()
	}
	return f
}

// WriteJSON writes the payload as indented JSON.
func WriteJSON(w io.Writer, payload Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// WriteFailures lists failed queries, one per line.
func WriteFailures(w io.Writer, failures []Failure) error {
	for _, f := range failures {
		if _, err := fmt.Fprintf(w, "failed %s/%s (%s): %s\n", f.Chain, f.Pool, f.Kind, f.Error); err != nil {
			return err
		}
	}
	return nil
}
