package solution

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/substitution"
	"github.com/templater-labs/templater/internal/template"
)

const (
	// SettingsVersion is written into new configuration files.
	SettingsVersion = "1.0"
	// SupportedVersions is the range of configuration versions this build reads.
	SupportedVersions = "^1"
)

//go:embed schema/solution_settings.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// RepoMode selects how the generated solution is put under version control.
type RepoMode int

const (
	NoRepo RepoMode = iota
	NewRepoOnlyInit
	NewRepoFull
)

var repoModeNames = []string{"NoRepo", "NewRepoOnlyInit", "NewRepoFull"}

func (m RepoMode) String() string {
	if int(m) < 0 || int(m) >= len(repoModeNames) {
		return fmt.Sprintf("RepoMode(%d)", int(m))
	}
	return repoModeNames[m]
}

// ParseRepoMode accepts a mode name case-insensitively.
func ParseRepoMode(s string) (RepoMode, error) {
	for i, name := range repoModeNames {
		if strings.EqualFold(s, name) {
			return RepoMode(i), nil
		}
	}
	return NoRepo, errs.Configuration("parse repo mode", fmt.Sprintf("unknown repo mode %q (want one of %s)", s, strings.Join(repoModeNames, ", ")), nil)
}

// RepoModeNames lists the accepted mode names.
func RepoModeNames() []string {
	return append([]string(nil), repoModeNames...)
}

func (m RepoMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *RepoMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("repo mode must be a string: %w", err)
	}
	parsed, err := ParseRepoMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// GitSettings describe the repository created for a generated solution.
type GitSettings struct {
	RepoOwner string   `json:"RepoOwner"`
	RepoName  string   `json:"RepoName"`
	RepoMode  RepoMode `json:"RepoMode"`
	IsPrivate bool     `json:"IsPrivate"`
}

// Settings are the per-solution values of a generate run.
type Settings struct {
	SettingsVersion   string      `json:"SettingsVersion"`
	Author            string      `json:"Author"`
	Company           string      `json:"Company"`
	Description       string      `json:"Description"`
	Tags              []string    `json:"Tags"`
	LicenseExpression string      `json:"LicenseExpression"`
	Version           string      `json:"Version"`
	Git               GitSettings `json:"GitSettings"`
}

// Defaults seeds settings from a template's declared defaults.
func Defaults(t *template.Template) *Settings {
	s := &Settings{
		SettingsVersion: SettingsVersion,
		Version:         "1.0.0",
		Git:             GitSettings{RepoMode: NoRepo, IsPrivate: true},
	}
	if t == nil {
		return s
	}
	s.Author = t.Settings.DefaultAuthor
	s.Company = t.Settings.DefaultCompanyName
	s.Description = t.Settings.DefaultDescription
	s.LicenseExpression = t.Settings.NugetSettings.DefaultNugetLicense
	s.Tags = append([]string(nil), t.Settings.NugetSettings.DefaultNugetTags...)
	return s
}

// TagValues returns the values injected into bracketed tag tokens.
func (s *Settings) TagValues() *substitution.Tags {
	return &substitution.Tags{
		Author:      s.Author,
		Company:     s.Company,
		Tags:        s.Tags,
		Description: s.Description,
		License:     s.LicenseExpression,
		Version:     s.Version,
	}
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("solution_settings.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("solution_settings.schema.json")
	})
	return compiledSchema, compileErr
}

// Parse validates and decodes a configuration document.
func Parse(data []byte) (*Settings, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading solution schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Configuration("parse solution settings", "not valid JSON", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, errs.Configuration("parse solution settings", "does not match the solution settings schema", err)
	}

	s := Settings{Git: GitSettings{IsPrivate: true}}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errs.Configuration("parse solution settings", "decoding", err)
	}
	// Older files spell the license key LicenseExpresion.
	if s.LicenseExpression == "" {
		var legacy struct {
			LicenseExpresion string `json:"LicenseExpresion"`
		}
		if err := json.Unmarshal(data, &legacy); err == nil {
			s.LicenseExpression = legacy.LicenseExpresion
		}
	}
	if err := checkVersion(s.SettingsVersion); err != nil {
		return nil, err
	}
	return &s, nil
}

func checkVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return errs.Configuration("parse solution settings", fmt.Sprintf("settings version %q is not a version", raw), err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !c.Check(v) {
		return errs.Configuration("parse solution settings", fmt.Sprintf("settings version %s is not supported (want %s)", v, SupportedVersions), nil)
	}
	return nil
}

// Load reads the configuration file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Configuration("load solution settings", "configuration file not found", err).WithPath(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading solution settings: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, e.WithPath(path)
		}
		return nil, err
	}
	return s, nil
}

// Save writes s to path as indented JSON.
func (s *Settings) Save(path string) error {
	if s.SettingsVersion == "" {
		s.SettingsVersion = SettingsVersion
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating configuration directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling solution settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing solution settings: %w", err)
	}
	return nil
}
