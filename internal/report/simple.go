package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/privacyscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose lists individual cookies and requests.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the job in human-readable format.
// Jobs that are not done print their status only.
func (w *SimpleWriter) Write(job *model.Job) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeJob(&sb, job)
	if job.Report != nil {
		w.writeBody(&sb, job.Report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteReport outputs a bare report in human-readable format.
func (w *SimpleWriter) WriteReport(report *model.PrivacyReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeBody(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeBody(sb *strings.Builder, report *model.PrivacyReport) {
	w.writeOverview(sb, report)
	w.writeCookies(sb, report)
	w.writeRequests(sb, report)
	w.writeReferrer(sb, report)
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report banner.
func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        PRIVACYSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeJob writes the job status block.
func (w *SimpleWriter) writeJob(sb *strings.Builder, job *model.Job) {
	fmt.Fprintf(sb, "Target:         %s\n", job.URL)
	fmt.Fprintf(sb, "Updated:        %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Attempts:       %d\n", job.Attempts)

	switch job.Status {
	case model.JobDone:
		sb.WriteString("Status:         Done\n")
	case model.JobFailed:
		fmt.Fprintf(sb, "Status:         FAILED - %s\n", job.Message)
	default:
		sb.WriteString("Status:         Processing\n")
	}

	sb.WriteString("\n")
}

// writeOverview writes the page and transport summary.
func (w *SimpleWriter) writeOverview(sb *strings.Builder, report *model.PrivacyReport) {
	section(sb, "OVERVIEW")

	fmt.Fprintf(sb, "  Input URL:          %s\n", report.InputURL)
	fmt.Fprintf(sb, "  Final URL:          %s\n", report.FinalURL)
	fmt.Fprintf(sb, "  Registrable domain: %s\n", report.RegistrableDomain)

	if report.Secure() {
		sb.WriteString("  Transport:          HTTPS\n")
	} else {
		fmt.Fprintf(sb, "  Transport:          %s (insecure)\n", strings.ToUpper(report.Scheme))
	}

	if report.HSTS.Present {
		fmt.Fprintf(sb, "  HSTS:               max-age=%d", report.HSTS.MaxAge)
		if report.HSTS.IncludeSubdomains {
			sb.WriteString(" includeSubDomains")
		}
		if report.HSTS.Preload {
			sb.WriteString(" preload")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("  HSTS:               not set\n")
	}

	sb.WriteString("\n")
}

// writeCookies writes the cookie summary and, in verbose mode, each cookie.
func (w *SimpleWriter) writeCookies(sb *strings.Builder, report *model.PrivacyReport) {
	if report.TotalCookies() == 0 && !w.showEmpty {
		return
	}

	section(sb, "COOKIES")

	fmt.Fprintf(sb, "  First-party:  %d\n", report.CookieCount.FirstParty)
	fmt.Fprintf(sb, "  Third-party:  %d (%d domains)\n", report.CookieCount.ThirdParty, report.ThirdPartyCookieDomains)
	sb.WriteString("\n")

	if !w.verbose {
		return
	}
	for _, c := range report.Cookies.ThirdParty {
		fmt.Fprintf(sb, "  [3rd] %s  %s\n", c.Domain, c.Name)
	}
	for _, c := range report.Cookies.FirstParty {
		fmt.Fprintf(sb, "  [1st] %s  %s\n", c.Domain, c.Name)
	}
	if report.TotalCookies() > 0 {
		sb.WriteString("\n")
	}
}

// writeRequests writes the request summary.
func (w *SimpleWriter) writeRequests(sb *strings.Builder, report *model.PrivacyReport) {
	if len(report.ThirdPartyRequests) == 0 && report.InsecureRequestsCount == 0 && !w.showEmpty {
		return
	}

	section(sb, "REQUESTS")

	fmt.Fprintf(sb, "  Third-party requests:  %d to %d hosts\n",
		report.ThirdPartyRequestCount.Total, report.ThirdPartyRequestCount.UniqueHosts)
	fmt.Fprintf(sb, "    secure:   %d\n", report.ThirdPartyRequestTypes.Secure)
	fmt.Fprintf(sb, "    insecure: %d\n", report.ThirdPartyRequestTypes.Insecure)
	fmt.Fprintf(sb, "  Insecure first-party:  %d\n", len(report.InsecureFirstPartyRequests))
	fmt.Fprintf(sb, "  Insecure total:        %d\n", report.InsecureRequestsCount)
	sb.WriteString("\n")

	hosts := thirdPartyHosts(report)
	if len(hosts) > 0 {
		sb.WriteString("  Third-party hosts:\n")
		for _, host := range hosts {
			fmt.Fprintf(sb, "    [+] %s\n", host)
		}
		sb.WriteString("\n")
	}

	if !w.verbose || len(report.InsecureFirstPartyRequests) == 0 {
		return
	}
	sb.WriteString("  Insecure first-party requests:\n")
	for _, req := range report.InsecureFirstPartyRequests {
		fmt.Fprintf(sb, "    [!] %s\n", req.URL)
	}
	sb.WriteString("\n")
}

// writeReferrer writes the three referrer signals and the verdict.
func (w *SimpleWriter) writeReferrer(sb *strings.Builder, report *model.PrivacyReport) {
	section(sb, "REFERRER POLICY")

	fmt.Fprintf(sb, "  Meta:    %s\n", valueOr(report.MetaReferrer, "-"))
	fmt.Fprintf(sb, "  CSP:     %s\n", valueOr(report.CSPReferrer, "-"))
	fmt.Fprintf(sb, "  Header:  %s\n", valueOr(report.ReferrerHeader, "-"))
	sb.WriteString("\n")

	policy := report.ReferrerPolicy
	value := policy.Value
	if value == "" {
		value = "(none)"
	}
	fmt.Fprintf(sb, "  [%s] %s  %s from %s\n",
		ratingIndicator(policy.Rating), ratingLabel(policy.Rating), value, policy.Source)
	sb.WriteString("\n")
}

// ratingIndicator returns a visual indicator for the rating.
func ratingIndicator(r model.Rating) string {
	switch r {
	case model.RatingSuccess:
		return "ok"
	case model.RatingWarning:
		return "!"
	case model.RatingAlert:
		return "!!"
	case model.RatingMissing:
		return "-"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by privacyscan\n")
	sb.WriteString("https://github.com/nao1215/privacyscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
