package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/gitutil"
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var callbackURL string

var submitCmd = &cobra.Command{
	Use:   "submit [repo] [pr-number]",
	Short: "Submit a pull request for asynchronous analysis",
	Long: `Submit a pull request for asynchronous analysis.

The repo may be given as "owner/repo" or as a full GitHub URL. The command
returns immediately with a job ID; use "status" and "results" to follow up.

Examples:
  warden-cli submit sevigo/pr-warden 42
  warden-cli submit https://github.com/owner/repo 123 --callback http://ci.local/hook`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	submitCmd.Flags().StringVar(&callbackURL, "callback", "", "Webhook URL notified when the job finishes")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	owner, repo, err := gitutil.ParseRepoRef(args[0])
	if err != nil {
		return fmt.Errorf("invalid repository reference %q: %w", args[0], err)
	}
	repoRef := owner + "/" + repo
	prNumber, err := strconv.Atoi(args[1])
	if err != nil || prNumber <= 0 {
		return fmt.Errorf("invalid pull request number %q", args[1])
	}

	client := newAPIClient()

	titleColor.Println("PR Warden - Submit Analysis")
	dimColor.Printf("   Target: %s#%d\n", repoRef, prNumber)

	jobID, err := client.submit(ctx, submitRequest{
		RepoURL:     repoRef,
		PRNumber:    prNumber,
		GitHubToken: viper.GetString("GITHUB_TOKEN"),
		CallbackURL: callbackURL,
	})
	if err != nil {
		return err
	}

	successColor.Println("Job accepted")
	boldColor.Printf("   Job ID: %s\n", jobID)
	dimColor.Printf("   Check progress with: warden-cli status %s\n", jobID)
	return nil
}
