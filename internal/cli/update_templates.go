package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/templater-labs/templater/internal/branding"
	"github.com/templater-labs/templater/internal/catalog"
)

var updateForce bool

var updateTemplatesCmd = &cobra.Command{
	Use:   "update-templates",
	Short: "Check the template repositories for new or updated templates",
	Long: `Compare the local template cache with every configured template repository
and download archives that are new or whose content changed.

Templates that are no longer offered by any repository are reported but kept.
Use --force to discard the cache and download everything again.`,
	Args: cobra.NoArgs,
	RunE: runUpdateTemplates,
}

func init() {
	updateTemplatesCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Discard the cache and redownload every template")
	rootCmd.AddCommand(updateTemplatesCmd)
}

func runUpdateTemplates(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	start := now()
	fmt.Fprintln(out, "Updating templates...")

	res, err := app.UpdateTemplates(cmd.Context(), updateForce)
	if err != nil {
		return err
	}
	printSyncSummary(out, res)
	fmt.Fprintf(out, "Templates updated in %.2f second(s)!\n", now().Sub(start).Seconds())
	return nil
}

func printSyncSummary(w io.Writer, res *catalog.Result) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Local templates: %d, remote templates: %d\n", res.LocalCount, res.RemoteCount)
	p.Fprintf(w, "New: %d, updated: %d\n", res.NewCount, res.UpdatedCount)
	if len(res.Orphans) == 0 {
		return
	}
	p.Fprintf(w, "%d cached template(s) are no longer offered by any repository:\n", len(res.Orphans))
	for _, name := range res.Orphans {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintf(w, "Run '%s update-templates --force' to remove them.\n", branding.CLIName())
}
