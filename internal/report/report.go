// Package report renders self-contained HTML evaluation reports.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"
)

//go:embed report.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Entry is one evaluated case in a report.
type Entry struct {
	Name           string
	Input          string
	Expected       string
	Actual         string
	Reason         string
	ConversationID string
	Score          float64
	Passed         bool
}

// Report is a titled collection of evaluation entries.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Entries     []Entry
}

// PassCount returns the number of passing entries.
func (r Report) PassCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Passed {
			n++
		}
	}
	return n
}

// Write renders the report as a self-contained HTML document.
func Write(w io.Writer, r Report) error {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteFile renders the report to a file, creating or truncating it.
func WriteFile(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Write(f, r)
}
