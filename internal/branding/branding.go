// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	GitHubRepo      string `yaml:"github_repo"`
	TemplateRepoURL string `yaml:"template_repo_url"`
	GitWebPath      string `yaml:"git_web_path"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:         "templater",
			DisplayName:     "Templater",
			Description:     "Package source trees into reusable templates",
			HomeDir:         ".templater",
			EnvPrefix:       "TEMPLATER",
			GoModule:        "github.com/templater-labs/templater",
			GitHubRepo:      "templater-labs/templater",
			TemplateRepoURL: "https://github.com/vonderborch/Templater-Templates",
			GitWebPath:      "https://github.com/",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "templater").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".templater").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "TEMPLATER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string of the tool itself.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// TemplateRepoURL returns the template repository configured on first run.
func TemplateRepoURL() string { load(); return defaults.TemplateRepoURL }

// GitWebPath returns the default web root of the git hosting service.
func GitWebPath() string { load(); return defaults.GitWebPath }

// IssuesURL returns the page where users file bug reports.
func IssuesURL() string {
	load()
	return "https://github.com/" + defaults.GitHubRepo + "/issues/new"
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "TEMPLATER_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
