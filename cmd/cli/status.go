package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the current status of a submitted analysis job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client := newAPIClient()
		record, err := client.status(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Job %s: ", record.JobID)
		statusColor(record.Status).Println(record.Status)
		if record.Status == core.StatusFailed && record.Error != "" {
			dimColor.Printf("   %s\n", record.Error)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(statusCmd)
}

func statusColor(status core.JobStatus) *color.Color {
	switch status {
	case core.StatusCompleted:
		return successColor
	case core.StatusFailed:
		return errorColor
	case core.StatusProcessing:
		return titleColor
	default:
		return warnColor
	}
}
