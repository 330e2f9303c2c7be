package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/privacyscan/internal/model"
)

// JSONWriter outputs jobs and reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the model types carry custom marshalers that keep
// unknown cookie and request attributes verbatim, and those are written
// against encoding/json.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the job in JSON format.
func (w *JSONWriter) Write(job *model.Job) (int, error) {
	return w.writeJSON(job)
}

// WriteReport outputs the report in JSON format.
func (w *JSONWriter) WriteReport(report *model.PrivacyReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONJob is a wrapper for a job with additional metadata.
//
// Design decision: We wrap the job rather than modifying model.Job
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONJob struct {
	// Version is the privacyscan version that generated this output.
	Version string `json:"version"`

	// Job is the analysis job, including its report once done.
	Job *model.Job `json:"job"`
}

// FullJSONWriter outputs jobs with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the privacyscan version string.
	version string
}

// NewFullJSONWriter creates a writer for jobs with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the job wrapped with metadata.
func (w *FullJSONWriter) Write(job *model.Job) (int, error) {
	return w.writeJSON(&JSONJob{Version: w.version, Job: job})
}
