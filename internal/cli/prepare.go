package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/templater-labs/templater/internal/engine"
	"github.com/templater-labs/templater/internal/platform"
)

var (
	prepareDir    string
	prepareOutput string
	prepareType   string
	prepareSkip   bool
	prepareWhatIf bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Prepare a template",
	Long: `Package a source tree into a template archive.

The source directory must contain a template_info.json describing the template.
Project identifiers are replaced with numbered placeholders, the configured
replacement text is swapped for tokens, and the result is zipped into the
output directory as <name>.zip.`,
	Example: `  templater prepare -d ./MySolution -o ./templates
  templater prepare -d ./MySolution --what-if`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareDir, "directory", "d", "", "The directory to prepare as a template")
	prepareCmd.Flags().StringVarP(&prepareOutput, "output-directory", "o", "", "The directory to place the template into (default: current directory)")
	prepareCmd.Flags().StringVarP(&prepareType, "type", "t", "", "Solution type (default: detected from the source)")
	prepareCmd.Flags().BoolVarP(&prepareSkip, "skip-cleaning", "s", false, "Keep the working directory after packaging")
	prepareCmd.Flags().BoolVarP(&prepareWhatIf, "what-if", "i", false, "Show what would be prepared without writing anything")
	_ = prepareCmd.MarkFlagRequired("directory")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	req := engine.PrepareRequest{
		SourceDir:    prepareDir,
		OutputDir:    prepareOutput,
		Type:         prepareType,
		SkipCleaning: prepareSkip,
	}

	if prepareWhatIf {
		meta, backend, err := app.ResolvePrepare(req)
		if err != nil {
			return err
		}
		outDir := req.OutputDir
		if outDir == "" {
			outDir = "."
		}
		files, dirs, err := platform.CountTree(req.SourceDir)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", req.SourceDir, err)
		}
		fmt.Fprintf(out, "Would prepare template %q (%s)\n", meta.Name, backend.Description())
		fmt.Fprintf(out, "  source:  %s (%d files, %d directories)\n", req.SourceDir, files, dirs)
		fmt.Fprintf(out, "  archive: %s\n", filepath.Join(outDir, meta.NormalizedName()+".zip"))
		if len(meta.Settings.DirectoriesExcludedInPrepare) > 0 {
			fmt.Fprintf(out, "  excluded: %v\n", meta.Settings.DirectoriesExcludedInPrepare)
		}
		return nil
	}

	fmt.Fprintf(out, "Preparing %s...\n", req.SourceDir)
	res, err := app.Prepare(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Template %q prepared in %.2f second(s)!\n", res.Template.Name, res.Elapsed.Seconds())
	fmt.Fprintf(out, "  archive:     %s\n", res.ArchivePath)
	fmt.Fprintf(out, "  identifiers: %d\n", res.GuidCount)
	if prepareSkip {
		fmt.Fprintf(out, "  work dir:    %s\n", res.WorkDir)
	}
	return nil
}
