package template

import (
	"encoding/json"
	"strings"

	"github.com/templater-labs/templater/internal/catalog"
	"github.com/templater-labs/templater/internal/substitution"
)

// InfoFileName is the metadata file at the root of every template.
const InfoFileName = "template_info.json"

// DefaultType is the solution type assumed when metadata does not name one.
const DefaultType = "dotsln"

// Template is a packaged template's metadata.
type Template struct {
	Name        string   `json:"Name"`
	Description string   `json:"Description"`
	Author      string   `json:"Author"`
	Version     string   `json:"Version"`
	Type        string   `json:"Type,omitempty"`
	Settings    Settings `json:"Settings"`
	GuidCount   int      `json:"GuidCount"`

	// FilePath is the archive the metadata was read from.
	FilePath string `json:"-"`
	// Origin is the catalog entry the archive was downloaded as, if any.
	Origin *catalog.Entry `json:"-"`
}

// Settings drive packaging and generation.
type Settings struct {
	DefaultAuthor             string        `json:"DefaultAuthor"`
	DefaultCompanyName        string        `json:"DefaultCompanyName"`
	DefaultSolutionName       string        `json:"DefaultSolutionName"`
	DefaultSolutionNameFormat string        `json:"DefaultSolutionNameFormat"`
	DefaultDescription        string        `json:"DefaultDescription"`
	NugetSettings             NugetSettings `json:"NugetSettings"`

	DirectoriesExcludedInPrepare  []string `json:"DirectoriesExcludedInPrepare"`
	RenameOnlyFilesAndDirectories []string `json:"RenameOnlyFilesAndDirectories"`
	ReplacementText               []Pair   `json:"ReplacementText"`
	Commands                      []string `json:"Commands"`
	Instructions                  []string `json:"Instructions"`
	CleanupFilesAndDirectories    []string `json:"CleanupFilesAndDirectories"`
}

// NugetSettings are package-metadata defaults offered when prompting.
type NugetSettings struct {
	AskForNugetInfo     bool     `json:"AskForNugetInfo"`
	DefaultNugetLicense string   `json:"DefaultNugetLicense"`
	DefaultNugetTags    []string `json:"DefaultNugetTags"`
}

// Pair is one ordered replacement: SearchTerm is replaced with Value.
type Pair struct {
	SearchTerm string
	Value      string
}

type pairJSON struct {
	SearchTerm *string `json:"SearchTerm,omitempty"`
	Value      *string `json:"Value,omitempty"`
	Item1      *string `json:"Item1,omitempty"`
	Item2      *string `json:"Item2,omitempty"`
}

// MarshalJSON writes {"SearchTerm": ..., "Value": ...}.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SearchTerm string `json:"SearchTerm"`
		Value      string `json:"Value"`
	}{p.SearchTerm, p.Value})
}

// UnmarshalJSON accepts both the named form and the tuple form
// {"Item1": ..., "Item2": ...} found in older archives.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw pairJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Pair{}
	switch {
	case raw.SearchTerm != nil:
		p.SearchTerm = *raw.SearchTerm
	case raw.Item1 != nil:
		p.SearchTerm = *raw.Item1
	}
	switch {
	case raw.Value != nil:
		p.Value = *raw.Value
	case raw.Item2 != nil:
		p.Value = *raw.Item2
	}
	return nil
}

// SolutionType returns the backend name that packaged the template.
func (t *Template) SolutionType() string {
	if t.Type == "" {
		return DefaultType
	}
	return t.Type
}

// NormalizedName is the name used for working directories and archives.
func (t *Template) NormalizedName() string {
	return NormalizeName(t.Name)
}

// NormalizeName replaces spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Pairs converts the replacement text for the substitution engine.
func (s *Settings) Pairs() []substitution.Pair {
	out := make([]substitution.Pair, 0, len(s.ReplacementText))
	for _, p := range s.ReplacementText {
		out = append(out, substitution.Pair{Search: p.SearchTerm, Value: p.Value})
	}
	return out
}

// SolutionName resolves the name of a new solution. An explicit request is
// passed through DefaultSolutionNameFormat when one is set; an empty request
// falls back to DefaultSolutionName.
func (s *Settings) SolutionName(requested, parentDir string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return s.DefaultSolutionName
	}
	if s.DefaultSolutionNameFormat == "" {
		return requested
	}
	name := strings.ReplaceAll(s.DefaultSolutionNameFormat, substitution.TokenSolutionName, requested)
	return strings.ReplaceAll(name, substitution.TokenParentDir, parentDir)
}
