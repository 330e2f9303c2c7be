package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacyscan/internal/config"
	"github.com/nao1215/privacyscan/internal/model"
	"github.com/nao1215/privacyscan/internal/privacy"
	"github.com/nao1215/privacyscan/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <payload.json|->",
		Short: "Build a privacy report from a saved crawl payload",
		Long: `Analyze reads a crawl payload produced by the backend and prints the
privacy report without contacting the network. Use "-" to read from stdin.

Examples:
  # Analyse a saved payload
  privacyscan analyze payload.json

  # Pipe a payload from the backend
  curl -s 'http://127.0.0.1:8080/crawl?fetch_url=https://example.com' | privacyscan analyze --json -`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .privacyscan in current or home directory)")
	addReportFlags(cmd)

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := loadConfigFile(cmd, cfg); err != nil {
		return err
	}
	if err := readReportFlags(cmd, cfg); err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	data, err := readPayload(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	payload, err := model.DecodePayload(data)
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	table, err := cfg.PolicyTable()
	if err != nil {
		return err
	}

	analyzer := privacy.NewAnalyzer(
		privacy.WithPolicyTable(table),
		privacy.WithLogger(logger),
	)
	rpt, err := analyzer.Analyze(payload)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput()

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithShowEmpty(cfg.Verbose),
		)
	}

	_, err = w.WriteReport(rpt)
	return err
}

// readPayload reads the payload file, or stdin when path is "-".
func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-chosen input path
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}
