package report

import (
	"io"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/privacyscan/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs a job: its status and, once done, its report.
	// Returns the number of bytes written and any error encountered.
	Write(job *model.Job) (int, error)

	// WriteReport outputs a bare report that has no job around it,
	// as produced by offline analysis.
	WriteReport(report *model.PrivacyReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the job to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(job *model.Job) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(job)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteReport outputs the report to all configured Writers.
func (m *MultiWriter) WriteReport(report *model.PrivacyReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteReport(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// ratingLabel returns the display label of a rating, e.g. "Alert".
// A Caser is stateful, so one is created per call.
func ratingLabel(r model.Rating) string {
	if r == "" {
		return "-"
	}
	return cases.Title(language.English).String(string(r))
}

// thirdPartyHosts returns the distinct hosts of the third-party requests,
// sorted.
func thirdPartyHosts(report *model.PrivacyReport) []string {
	seen := make(map[string]struct{}, len(report.ThirdPartyRequests))
	hosts := make([]string, 0, len(report.ThirdPartyRequests))
	for _, req := range report.ThirdPartyRequests {
		if req.Host == "" {
			continue
		}
		if _, ok := seen[req.Host]; ok {
			continue
		}
		seen[req.Host] = struct{}{}
		hosts = append(hosts, req.Host)
	}
	slices.Sort(hosts)
	return hosts
}

// valueOr returns *s, or fallback when s is nil or empty.
func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
