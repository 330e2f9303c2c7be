package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/privacyscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the job in Markdown format.
func (w *MarkdownWriter) Write(job *model.Job) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Privacy Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + job.URL + "`"},
		{"Updated", job.UpdatedAt.Format("2006-01-02 15:04:05 MST")},
		{"Attempts", strconv.Itoa(job.Attempts)},
		{"Status", statusText(job)},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if job.Status == model.JobFailed {
		md.Cautionf("The analysis failed: %s", job.Message)
		md.PlainText("")
	}

	if job.Report != nil {
		w.writeBody(md, job.Report)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteReport outputs a bare report in Markdown format.
func (w *MarkdownWriter) WriteReport(report *model.PrivacyReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Privacy Report")
	md.PlainText("")

	w.writeBody(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func statusText(job *model.Job) string {
	switch job.Status {
	case model.JobDone:
		return "✅ Done"
	case model.JobFailed:
		return "❌ Failed - " + job.Message
	default:
		return "⏳ Processing"
	}
}

func (w *MarkdownWriter) writeBody(md *markdown.Markdown, report *model.PrivacyReport) {
	w.writeOverview(md, report)
	w.writeCookies(md, report)
	w.writeRequests(md, report)
	w.writeReferrer(md, report)
}

// writeOverview writes the page and transport table.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H2("Overview")
	md.PlainText("")

	hsts := "not set"
	if report.HSTS.Present {
		hsts = "`" + report.HSTS.Value + "`"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input URL", "`" + report.InputURL + "`"},
			{"Final URL", "`" + report.FinalURL + "`"},
			{"Registrable domain", "`" + report.RegistrableDomain + "`"},
			{"Scheme", report.Scheme},
			{"HSTS", hsts},
		},
	})
	md.PlainText("")

	if !report.Secure() {
		md.Warningf("The page was served over %s. Everything it sends can be read on the wire.", report.Scheme)
		md.PlainText("")
	}
}

// writeCookies writes the cookie table and a party pie chart.
func (w *MarkdownWriter) writeCookies(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H2("Cookies")
	md.PlainText("")

	if report.TotalCookies() == 0 {
		md.PlainText("No cookies were set.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Party", "Count"},
		Rows: [][]string{
			{"First-party", strconv.Itoa(report.CookieCount.FirstParty)},
			{"Third-party", strconv.Itoa(report.CookieCount.ThirdParty)},
			{"Third-party domains", strconv.Itoa(report.ThirdPartyCookieDomains)},
			{"**Total**", "**" + strconv.Itoa(report.TotalCookies()) + "**"},
		},
	})
	md.PlainText("")

	w.writePieChart(md, "Cookies by Party", report.CookieCount)

	if len(report.Cookies.ThirdParty) > 0 {
		rows := make([][]string, len(report.Cookies.ThirdParty))
		for i, c := range report.Cookies.ThirdParty {
			rows[i] = []string{"`" + c.Domain + "`", truncateString(c.Name, 40)}
		}
		md.H3("Third-party cookies")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Domain", "Name"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of a first/third-party split.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, count model.PartyCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)

	if count.FirstParty > 0 {
		chart.LabelAndIntValue("First-party", uint64(count.FirstParty))
	}
	if count.ThirdParty > 0 {
		chart.LabelAndIntValue("Third-party", uint64(count.ThirdParty))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRequests writes request counts and the third-party host list.
func (w *MarkdownWriter) writeRequests(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H2("Requests")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Third-party requests", strconv.Itoa(report.ThirdPartyRequestCount.Total)},
			{"Third-party hosts", strconv.Itoa(report.ThirdPartyRequestCount.UniqueHosts)},
			{"Third-party over HTTPS", strconv.Itoa(report.ThirdPartyRequestTypes.Secure)},
			{"Third-party over HTTP", strconv.Itoa(report.ThirdPartyRequestTypes.Insecure)},
			{"Insecure first-party", strconv.Itoa(len(report.InsecureFirstPartyRequests))},
			{"**Insecure total**", "**" + strconv.Itoa(report.InsecureRequestsCount) + "**"},
		},
	})
	md.PlainText("")

	if report.InsecureRequestsCount > 0 {
		md.Warningf("%d request(s) were sent over plain HTTP.", report.InsecureRequestsCount)
		md.PlainText("")
	}

	if hosts := thirdPartyHosts(report); len(hosts) > 0 {
		md.H3("Third-party hosts")
		md.PlainText("")
		md.BulletList(hosts...)
		md.PlainText("")
	}

	for _, req := range report.InsecureFirstPartyRequests {
		md.Details("Insecure first-party request", req.URL)
	}
}

// writeReferrer writes the referrer signals and an alert for the rating.
func (w *MarkdownWriter) writeReferrer(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H2("Referrer Policy")
	md.PlainText("")

	policy := report.ReferrerPolicy
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Value"},
		Rows: [][]string{
			{"Meta", valueOr(report.MetaReferrer, "-")},
			{"CSP", valueOr(report.CSPReferrer, "-")},
			{"Header", valueOr(report.ReferrerHeader, "-")},
			{"**Effective**", "**" + orDash(policy.Value) + "** (" + policy.Source.String() + ")"},
			{"**Rating**", "**" + ratingLabel(policy.Rating) + "**"},
		},
	})
	md.PlainText("")

	switch policy.Rating {
	case model.RatingAlert:
		md.Cautionf("Referrer policy `%s` lets full URLs leak to other sites.", policy.Value)
	case model.RatingWarning:
		md.Warningf("Referrer policy `%s` is not a known policy value.", policy.Value)
	case model.RatingMissing:
		md.Importantf("No referrer policy is set; browsers fall back to their default.")
	default:
		md.Tip("The referrer policy keeps full URLs on this site.")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [privacyscan](https://github.com/nao1215/privacyscan)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
