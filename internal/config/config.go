package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"

	"github.com/templater-labs/templater/internal/branding"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/platform"
)

const (
	fileName = "settings"
	fileType = "yaml"

	// SettingsVersion is written into new settings files.
	SettingsVersion = "1.0"
	// SupportedSettings is the range of settings versions this build reads.
	SupportedSettings = "^1"

	// DefaultUpdateInterval is the default delay between automatic template
	// updates.
	DefaultUpdateInterval = 24 * time.Hour
)

// Setting keys.
const (
	KeyGitWebPath           = "git_web_path"
	KeyGitAPIURL            = "git_api_url"
	KeyGitAccessToken       = "git_access_token"
	KeyTemplateRepositories = "template_repositories"
	KeyLastUpdateCheck      = "last_templates_update_check"
	KeyUpdateInterval       = "seconds_between_template_update_checks"
	KeySettingsVersion      = "settings_version"
)

// Settings are the persisted application settings.
type Settings struct {
	GitWebPath           string   `mapstructure:"git_web_path"`
	GitAPIURL            string   `mapstructure:"git_api_url"`
	GitAccessToken       string   `mapstructure:"git_access_token"`
	TemplateRepositories []string `mapstructure:"template_repositories"`
	// LastTemplatesUpdateCheck is a unix timestamp in seconds.
	LastTemplatesUpdateCheck           int64  `mapstructure:"last_templates_update_check"`
	SecondsBetweenTemplateUpdateChecks int64  `mapstructure:"seconds_between_template_update_checks"`
	SettingsVersion                    string `mapstructure:"settings_version"`
}

// Default returns first-run settings.
func Default() *Settings {
	return &Settings{
		GitWebPath:                         branding.GitWebPath(),
		TemplateRepositories:               []string{branding.TemplateRepoURL()},
		SecondsBetweenTemplateUpdateChecks: int64(DefaultUpdateInterval / time.Second),
		SettingsVersion:                    SettingsVersion,
	}
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(KeyGitWebPath, d.GitWebPath)
	v.SetDefault(KeyGitAPIURL, d.GitAPIURL)
	v.SetDefault(KeyGitAccessToken, d.GitAccessToken)
	v.SetDefault(KeyTemplateRepositories, d.TemplateRepositories)
	v.SetDefault(KeyLastUpdateCheck, d.LastTemplatesUpdateCheck)
	v.SetDefault(KeyUpdateInterval, d.SecondsBetweenTemplateUpdateChecks)
	v.SetDefault(KeySettingsVersion, d.SettingsVersion)
	return v
}

// Load reads settings from path layered over defaults and environment
// overrides. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	v := newViper(path)
	if platform.Exists(path) {
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Configuration("load settings", "settings file is not valid YAML", err).WithPath(path)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errs.Configuration("load settings", "decoding settings", err).WithPath(path)
	}
	if err := s.checkVersion(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes s to path with owner-only permissions since it may hold an
// access token.
func Save(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(fileType)
	v.Set(KeyGitWebPath, s.GitWebPath)
	v.Set(KeyGitAPIURL, s.GitAPIURL)
	v.Set(KeyGitAccessToken, s.GitAccessToken)
	v.Set(KeyTemplateRepositories, s.TemplateRepositories)
	v.Set(KeyLastUpdateCheck, s.LastTemplatesUpdateCheck)
	v.Set(KeyUpdateInterval, s.SecondsBetweenTemplateUpdateChecks)
	version := s.SettingsVersion
	if version == "" {
		version = SettingsVersion
	}
	v.Set(KeySettingsVersion, version)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := platform.Restrict(path); err != nil {
		return fmt.Errorf("securing settings file: %w", err)
	}
	return nil
}

func (s *Settings) checkVersion() error {
	if s.SettingsVersion == "" {
		return nil
	}
	v, err := semver.NewVersion(s.SettingsVersion)
	if err != nil {
		return errs.Configuration("load settings", fmt.Sprintf("settings version %q is not a version", s.SettingsVersion), err)
	}
	c, err := semver.NewConstraint(SupportedSettings)
	if err != nil {
		return fmt.Errorf("parsing settings constraint: %w", err)
	}
	if !c.Check(v) {
		return errs.Configuration("load settings", fmt.Sprintf("settings version %s is not supported (want %s); run configure to recreate it", v, SupportedSettings), nil)
	}
	return nil
}

// Validate reports settings that would make remote operations fail.
func (s *Settings) Validate() error {
	if err := s.checkVersion(); err != nil {
		return err
	}
	u, err := url.Parse(s.GitWebPath)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.Configuration("validate settings", fmt.Sprintf("git web path %q must be an http(s) URL", s.GitWebPath), err)
	}
	if s.GitAPIURL != "" {
		if u, err := url.Parse(s.GitAPIURL); err != nil || u.Host == "" {
			return errs.Configuration("validate settings", fmt.Sprintf("git API URL %q is not a URL", s.GitAPIURL), err)
		}
	}
	if s.SecondsBetweenTemplateUpdateChecks < 0 {
		return errs.Configuration("validate settings", "seconds between template update checks must not be negative", nil)
	}
	return nil
}

// UniqueRepositories returns the configured repositories with blanks and
// duplicates removed, in configuration order.
func (s *Settings) UniqueRepositories() []string {
	seen := make(map[string]bool, len(s.TemplateRepositories))
	var out []string
	for _, r := range s.TemplateRepositories {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// UpdateDue reports whether the update interval has elapsed since the last
// template update. An interval of zero disables automatic updates.
func (s *Settings) UpdateDue(now time.Time) bool {
	if s.SecondsBetweenTemplateUpdateChecks <= 0 {
		return false
	}
	return now.Unix()-s.LastTemplatesUpdateCheck >= s.SecondsBetweenTemplateUpdateChecks
}

// MarkUpdated stamps the last template update time.
func (s *Settings) MarkUpdated(now time.Time) {
	s.LastTemplatesUpdateCheck = now.Unix()
}

// MaskedToken returns the access token with all but the last four
// characters hidden.
func (s *Settings) MaskedToken() string {
	t := s.GitAccessToken
	if t == "" {
		return ""
	}
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}
