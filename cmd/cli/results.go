package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/core"
)

var outputJSON bool

var resultsCmd = &cobra.Command{
	Use:   "results [job-id]",
	Short: "Fetch the analysis report for a finished job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client := newAPIClient()
		record, err := client.results(context.Background(), args[0])
		if err != nil {
			return err
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(record)
		}
		return printRecord(record)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	resultsCmd.Flags().BoolVar(&outputJSON, "json", false, "Output the full record as JSON")
	rootCmd.AddCommand(resultsCmd)
}

func printRecord(record *core.JobRecord) error {
	fmt.Printf("Job %s: ", record.JobID)
	statusColor(record.Status).Println(record.Status)

	switch record.Status {
	case core.StatusPending, core.StatusProcessing:
		dimColor.Println("   The job has not finished yet, try again later.")
		return nil
	case core.StatusFailed:
		errorColor.Printf("   %s\n", record.Error)
		return nil
	}

	report := record.Report
	if report == nil || report.Summary.TotalIssues == 0 {
		successColor.Println("   No issues found.")
		return nil
	}

	boldColor.Printf("\n%d issue(s) across %d file(s), %d critical\n\n",
		report.Summary.TotalIssues,
		report.Summary.TotalFiles,
		report.Summary.CriticalIssues,
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILE\tLINE\tTYPE\tDESCRIPTION")
	for _, file := range report.Files {
		for _, finding := range file.Findings {
			kind := string(finding.Type)
			if finding.Critical {
				kind = errorColor.Sprint(kind)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", file.File, finding.Line, kind, finding.Description)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	for _, file := range report.Files {
		for _, finding := range file.Findings {
			if finding.Suggestion == "" {
				continue
			}
			dimColor.Printf("%s:%d  %s\n", file.File, finding.Line, finding.Suggestion)
		}
	}
	return nil
}
