// Package report renders jobs and privacy reports.
//
// Three formats are provided:
//   - SimpleWriter: aligned text for the terminal, with a rating marker per
//     referrer-policy line
//   - JSONWriter: the report or job as JSON; FullJSONWriter adds the
//     privacyscan version
//   - MarkdownWriter: GitHub-flavored Markdown with alerts and a mermaid pie
//     chart of first- versus third-party cookies (github.com/nao1215/markdown)
//
// Every writer implements Writer. Write prints a job, including its status
// and failure message; WriteReport prints a bare report, as produced by the
// analyze command. MultiWriter fans one job out to several writers.
package report
