package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/privacyscan/internal/config"
	"github.com/nao1215/privacyscan/internal/database"
	"github.com/nao1215/privacyscan/internal/model"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [url]",
		Short: "Show stored jobs and their reports",
		Long: `Show prints the stored job for a URL, or lists every stored job when no
URL is given.

Examples:
  # List all jobs
  privacyscan show

  # List failed jobs only
  privacyscan show --status failed

  # Print the cached report of a page as JSON
  privacyscan show --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the job database")
	cmd.Flags().StringP("status", "s", "",
		"Only list jobs in this state (processing, done, failed)")
	addReportFlags(cmd)

	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := readReportFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	var err error
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	status, err := cmd.Flags().GetString("status")
	if err != nil {
		return err
	}
	if !validStatus(model.JobStatus(status)) {
		return fmt.Errorf("unknown job status %q", status)
	}
	cfg.Verbose = getVerboseFlag(cmd)

	store, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return err
	}
	defer store.Close()

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput()

	if len(args) == 1 {
		job, err := store.GetJobByURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if job == nil {
			return fmt.Errorf("no job stored for %s", args[0])
		}
		_, err = newReportWriter(cfg, output).Write(job)
		return err
	}

	jobs, err := store.ListJobs(cmd.Context(), model.JobStatus(status))
	if err != nil {
		return err
	}

	switch {
	case cfg.JSONReport:
		return writeJobListJSON(output, jobs)
	case cfg.MarkdownReport:
		return writeJobListMarkdown(output, jobs)
	default:
		return writeJobListText(output, jobs)
	}
}

func validStatus(s model.JobStatus) bool {
	switch s {
	case "", model.JobProcessing, model.JobDone, model.JobFailed:
		return true
	default:
		return false
	}
}

// jobListEntry is the JSON shape of one listed job.
type jobListEntry struct {
	ID          string           `json:"id"`
	URL         string           `json:"url"`
	Status      model.JobStatus  `json:"status"`
	Message     string           `json:"message,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CookieCount model.PartyCount `json:"cookie_count"`
}

func writeJobListJSON(w io.Writer, jobs []database.JobMetadata) error {
	entries := make([]jobListEntry, 0, len(jobs))
	for _, j := range jobs {
		entries = append(entries, jobListEntry(j))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeJobListMarkdown(w io.Writer, jobs []database.JobMetadata) error {
	md := markdown.NewMarkdown(w)
	md.H1("Stored Jobs")
	md.PlainText("")

	if len(jobs) == 0 {
		md.PlainText("No jobs stored.")
		return md.Build()
	}

	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			"`" + j.URL + "`",
			string(j.Status),
			strconv.Itoa(j.CookieCount.FirstParty),
			strconv.Itoa(j.CookieCount.ThirdParty),
			j.UpdatedAt.Format(time.DateTime),
			j.Message,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "1st-party cookies", "3rd-party cookies", "Updated", "Message"},
		Rows:   rows,
	})
	return md.Build()
}

func writeJobListText(w io.Writer, jobs []database.JobMetadata) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No jobs stored.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOOKIES (1st/3rd)\tUPDATED\tURL")
	for _, j := range jobs {
		status := string(j.Status)
		if j.Status == model.JobFailed && j.Message != "" {
			status += " (" + j.Message + ")"
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%s\t%s\n",
			status,
			j.CookieCount.FirstParty,
			j.CookieCount.ThirdParty,
			j.UpdatedAt.Local().Format(time.DateTime),
			j.URL,
		)
	}
	return tw.Flush()
}
