package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/templater-labs/templater/internal/branding"
	"github.com/templater-labs/templater/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure settings",
	Long: `Ask for the git hosting URL, an access token and the template repositories,
then save them to the settings file. Press enter to keep a current value.

When stdin is not a terminal the current values (or first-run defaults) are
saved unchanged.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	settings, err := configureSettings(newPrompter(), app.Settings())
	if err != nil {
		return err
	}
	if err := config.Save(app.Paths().SettingsFile, settings); err != nil {
		return err
	}
	*app.Settings() = *settings
	fmt.Fprintln(cmd.OutOrStdout(), "Settings saved!")
	return nil
}

// configureSettings prompts for every user-editable setting, starting from
// current, and returns the validated result.
func configureSettings(p prompter, current *config.Settings) (*config.Settings, error) {
	s := *current
	s.TemplateRepositories = append([]string(nil), current.TemplateRepositories...)

	web, err := p.Input("Git URL", "Web root of the git hosting service", s.GitWebPath, validateHTTPURL)
	if err != nil {
		return nil, err
	}
	s.GitWebPath = strings.TrimSpace(web)

	tokenMessage := "Git Personal Access Token"
	if masked := s.MaskedToken(); masked != "" {
		tokenMessage += " (" + masked + ")"
	}
	token, err := p.Password(tokenMessage, "Leave empty to keep the current token")
	if err != nil {
		return nil, err
	}
	if token = strings.TrimSpace(token); token != "" {
		s.GitAccessToken = token
	}

	repos := strings.Join(s.TemplateRepositories, ",")
	if repos == "" {
		repos = branding.TemplateRepoURL()
	}
	answer, err := p.Input("Template repositories (comma separated)", "", repos, nil)
	if err != nil {
		return nil, err
	}
	s.TemplateRepositories = splitList(answer)

	if s.SettingsVersion == "" {
		s.SettingsVersion = config.SettingsVersion
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	return nil
}

// splitList splits a comma separated answer, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
