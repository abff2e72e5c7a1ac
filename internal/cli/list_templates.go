package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/templater-labs/templater/internal/branding"
	"github.com/templater-labs/templater/internal/template"
)

var (
	listQuick bool
	listJSON  bool
	listYAML  bool
)

var listTemplatesCmd = &cobra.Command{
	Use:   "list-templates",
	Short: "List all available templates",
	Long: `List the templates in the local cache. Run update-templates first to fetch
templates from the configured repositories.`,
	Args: cobra.NoArgs,
	RunE: runListTemplates,
}

func init() {
	listTemplatesCmd.Flags().BoolVarP(&listQuick, "quick", "q", false, "Print template names only")
	listTemplatesCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listTemplatesCmd.Flags().BoolVar(&listYAML, "yaml", false, "Output in YAML format")
	listTemplatesCmd.MarkFlagsMutuallyExclusive("quick", "json", "yaml")
	rootCmd.AddCommand(listTemplatesCmd)
}

// templateEntry is a template for display.
type templateEntry struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	GuidCount   int    `json:"guidCount" yaml:"guidCount"`
	Repository  string `json:"repository,omitempty" yaml:"repository,omitempty"`
	Archive     string `json:"archive" yaml:"archive"`
}

func newTemplateEntry(t *template.Template) templateEntry {
	e := templateEntry{
		Name:        t.Name,
		Version:     t.Version,
		Author:      t.Author,
		Type:        t.SolutionType(),
		Description: t.Description,
		GuidCount:   t.GuidCount,
		Archive:     t.FilePath,
	}
	if t.Origin != nil {
		e.Repository = t.Origin.Repo
	}
	return e
}

func runListTemplates(cmd *cobra.Command, args []string) error {
	templates, err := app.Templates()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	entries := make([]templateEntry, 0, len(templates))
	for _, t := range templates {
		entries = append(entries, newTemplateEntry(t))
	}

	switch {
	case listJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling templates: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case listYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling templates: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No templates available. Run '%s update-templates' to fetch them.\n", branding.CLIName())
		return nil
	}

	if listQuick {
		for _, e := range entries {
			fmt.Fprintln(out, e.Name)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tTYPE\tAUTHOR\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, dash(e.Version), e.Type, dash(e.Author), dash(e.Description))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	message.NewPrinter(language.English).Fprintf(out, "\n%d template(s) available\n", len(entries))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
