package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templater-labs/templater/internal/branding"
)

var reportIssueCmd = &cobra.Command{
	Use:   "report-issue",
	Short: "Report an issue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Report issues at %s\n", branding.IssuesURL())
		fmt.Fprintf(cmd.OutOrStdout(), "Include the output of '%s version' and the command you ran.\n", branding.CLIName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportIssueCmd)
}
