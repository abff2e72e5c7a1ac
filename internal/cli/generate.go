package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/templater-labs/templater/internal/engine"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/platform"
	"github.com/templater-labs/templater/internal/solution"
	"github.com/templater-labs/templater/internal/template"
)

var (
	generateName       string
	generateTemplate   string
	generateOutput     string
	generateConfig     string
	generateForce      bool
	generateKeepConfig bool
	generateWhatIf     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a solution from a template",
	Long: `Create a new solution from a cached template.

Solution settings (author, company, tags, license, git repository) are read
from --config, or from the default solution configuration file when it exists.
Otherwise they are asked for interactively, or taken from the template
defaults when stdin is not a terminal. The configuration file is moved to the
backup directory after a successful run unless --keep-config is set.`,
	Example: `  templater generate -t "Library Template" -n MyLibrary
  templater generate -t "Library Template" -n MyLibrary -o ~/src --what-if`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateName, "name", "n", "", "Name of the new solution (default: the template's default name)")
	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", "", "Template to generate from")
	generateCmd.Flags().StringVarP(&generateOutput, "output-directory", "o", "", "Parent directory of the new solution (default: current directory)")
	generateCmd.Flags().StringVarP(&generateConfig, "config", "c", "", "Solution configuration file")
	generateCmd.Flags().BoolVarP(&generateForce, "force", "f", false, "Replace the solution directory if it already exists")
	generateCmd.Flags().BoolVar(&generateKeepConfig, "keep-config", false, "Leave the solution configuration file in place")
	generateCmd.Flags().BoolVarP(&generateWhatIf, "what-if", "i", false, "Show what would be generated without writing anything")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPrompter()
	ask := interactive()

	tmpl, err := chooseTemplate(p, ask, generateTemplate)
	if err != nil {
		return err
	}

	req := engine.GenerateRequest{
		TemplateName: tmpl.Name,
		SolutionName: generateName,
		OutputDir:    generateOutput,
		ConfigFile:   generateConfig,
		Override:     generateForce,
		BackupConfig: !generateKeepConfig,
	}

	if req.SolutionName == "" && ask {
		if req.SolutionName, err = p.Input("Solution name", "", tmpl.Settings.DefaultSolutionName, required("solution name")); err != nil {
			return err
		}
	}

	configFile := req.ConfigFile
	if configFile == "" {
		configFile = app.Paths().SolutionConfigFile
	}
	if ask && !platform.Exists(configFile) {
		if req.Solution, err = askSolution(p, tmpl, req.SolutionName); err != nil {
			return err
		}
	}

	plan, err := app.PlanGenerate(req)
	if err != nil {
		return err
	}
	if generateWhatIf {
		printPlan(out, plan)
		return nil
	}

	if req.Solution != nil {
		// Prompted answers are handled like a hand-written config file.
		if err := req.Solution.Save(plan.Options.ConfigFile); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Generating %s from %q...\n", plan.Options.SolutionName, plan.Template.Name)
	res, err := app.Run(cmd.Context(), plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Solution %s generated in %.2f second(s)!\n", plan.Options.SolutionName, res.Elapsed.Seconds())
	fmt.Fprintf(out, "  location: %s\n", res.Target)
	if res.BackupPath != "" {
		fmt.Fprintf(out, "  config backed up to %s\n", res.BackupPath)
	}
	return nil
}

func chooseTemplate(p prompter, ask bool, name string) (*template.Template, error) {
	if name != "" {
		return app.Template(name)
	}
	if !ask {
		return nil, errs.Validation("generate", "--template is required; run list-templates to see what is available", nil)
	}
	templates, err := app.Templates()
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, errs.Validation("generate", "no templates available; run update-templates first", nil)
	}
	names := make([]string, 0, len(templates))
	for _, t := range templates {
		names = append(names, t.Name)
	}
	choice, err := p.Select("Template", names, "")
	if err != nil {
		return nil, err
	}
	return app.Template(choice)
}

// askSolution prompts for the solution settings, starting from the
// template defaults.
func askSolution(p prompter, tmpl *template.Template, solutionName string) (*solution.Settings, error) {
	s := solution.Defaults(tmpl)
	var err error

	if s.Author, err = p.Input("Author", "", s.Author, nil); err != nil {
		return nil, err
	}
	if s.Company, err = p.Input("Company", "", s.Company, nil); err != nil {
		return nil, err
	}
	if s.Description, err = p.Input("Description", "", s.Description, nil); err != nil {
		return nil, err
	}

	if tmpl.Settings.NugetSettings.AskForNugetInfo {
		tags, err := p.Input("Package tags (comma separated)", "", strings.Join(s.Tags, ","), nil)
		if err != nil {
			return nil, err
		}
		s.Tags = splitList(tags)
		if s.LicenseExpression, err = p.Input("License expression", "SPDX expression, e.g. MIT", s.LicenseExpression, nil); err != nil {
			return nil, err
		}
		if s.Version, err = p.Input("Version", "", s.Version, validateVersion); err != nil {
			return nil, err
		}
	}

	mode, err := p.Select("Git repository", solution.RepoModeNames(), s.Git.RepoMode.String())
	if err != nil {
		return nil, err
	}
	if s.Git.RepoMode, err = solution.ParseRepoMode(mode); err != nil {
		return nil, err
	}
	if s.Git.RepoMode == solution.NoRepo {
		return s, nil
	}
	if s.Git.RepoMode == solution.NewRepoFull {
		if s.Git.RepoOwner, err = p.Input("Repository owner", "User or organization that owns the repository", s.Git.RepoOwner, required("repository owner")); err != nil {
			return nil, err
		}
	}
	if s.Git.RepoName, err = p.Input("Repository name", "", solutionName, nil); err != nil {
		return nil, err
	}
	if s.Git.IsPrivate, err = p.Confirm("Private repository?", s.Git.IsPrivate); err != nil {
		return nil, err
	}
	return s, nil
}

func printPlan(w io.Writer, plan *engine.GeneratePlan) {
	o := plan.Options
	fmt.Fprintf(w, "Would generate %s from %q (%s)\n", o.SolutionName, plan.Template.Name, plan.Backend.Description())
	fmt.Fprintf(w, "  target:    %s\n", o.Target)
	if platform.Exists(o.Target) {
		if o.Override {
			fmt.Fprintln(w, "  existing directory would be replaced")
		} else {
			fmt.Fprintln(w, "  target already exists; generation would fail without --force")
		}
	}
	if o.Solution != nil {
		fmt.Fprintf(w, "  author:    %s\n", dash(o.Solution.Author))
		fmt.Fprintf(w, "  git:       %s\n", o.Solution.Git.RepoMode)
	}
	for _, c := range plan.Template.Settings.Commands {
		fmt.Fprintf(w, "  command:   %s\n", c)
	}
	if o.BackupConfig && platform.Exists(o.ConfigFile) {
		fmt.Fprintf(w, "  config %s would be moved to %s\n", o.ConfigFile, o.BackupDir)
	}
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validateVersion(s string) error {
	if _, err := semver.NewVersion(s); err != nil {
		return fmt.Errorf("%q is not a version: %w", s, err)
	}
	return nil
}
