package template

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templater-labs/templater/internal/archive"
	"github.com/templater-labs/templater/internal/errs"
)

func testPath(name string) string {
	return filepath.Join("testdata", name)
}

func TestLoadFileValid(t *testing.T) {
	tmpl, err := LoadFile(testPath("valid.json"))
	require.NoError(t, err)

	assert.Equal(t, "Velentr Library", tmpl.Name)
	assert.Equal(t, "Velentr_Library", tmpl.NormalizedName())
	assert.Equal(t, DefaultType, tmpl.SolutionType())
	assert.Equal(t, []Pair{{SearchTerm: "Velentr.BASE", Value: "<SolutionName>"}}, tmpl.Settings.ReplacementText)
	assert.Equal(t, []string{"bin", "obj", ".vs"}, tmpl.Settings.DirectoriesExcludedInPrepare)
	assert.True(t, tmpl.Settings.NugetSettings.AskForNugetInfo)
}

func TestLoadFileLegacyForms(t *testing.T) {
	tmpl, err := LoadFile(testPath("legacy.json"))
	require.NoError(t, err)

	assert.Equal(t, 4, tmpl.GuidCount)
	assert.Equal(t, []Pair{{SearchTerm: "Legacy.Core", Value: "<SolutionName>"}}, tmpl.Settings.ReplacementText)
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		file    string
		wantMsg string
	}{
		{"missing-settings.json", "Settings"},
		{"bad-version.json", "/Version"},
		{"bad-pair.json", "/Settings/ReplacementText/0"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadFile(testPath(tt.file))
			require.Error(t, err)
			assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestSaveRoundTripKeepsGuidCount(t *testing.T) {
	tmpl, err := LoadFile(testPath("valid.json"))
	require.NoError(t, err)
	tmpl.GuidCount = 7
	tmpl.Type = "dotsln"

	path := filepath.Join(t.TempDir(), InfoFileName)
	require.NoError(t, tmpl.Save(path))

	var raw map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 7, raw["GuidCount"])

	reloaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.GuidCount)
	assert.Equal(t, tmpl.Settings, reloaded.Settings)
}

func TestLoadArchive(t *testing.T) {
	src := t.TempDir()
	data, err := os.ReadFile(testPath("valid.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, InfoFileName), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "App.sln"), []byte("sln"), 0644))

	zipPath := filepath.Join(t.TempDir(), "Velentr_Library.zip")
	require.NoError(t, archive.ZipDir(src, zipPath))

	tmpl, err := LoadArchive(zipPath)
	require.NoError(t, err)
	assert.Equal(t, "Velentr Library", tmpl.Name)
	assert.Equal(t, zipPath, tmpl.FilePath)
}

func TestLoadArchiveWithoutMetadata(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "App.sln"), []byte("sln"), 0644))
	zipPath := filepath.Join(t.TempDir(), "bare.zip")
	require.NoError(t, archive.ZipDir(src, zipPath))

	_, err := LoadArchive(zipPath)
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestSolutionName(t *testing.T) {
	s := Settings{DefaultSolutionName: "Velentr.Library", DefaultSolutionNameFormat: "<ParentDir>.<SolutionName>"}

	assert.Equal(t, "Velentr.Library", s.SolutionName("", "work"))
	assert.Equal(t, "work.Tools", s.SolutionName("Tools", "work"))

	plain := Settings{}
	assert.Equal(t, "Tools", plain.SolutionName(" Tools ", "work"))
}

func TestPairMarshal(t *testing.T) {
	data, err := json.Marshal(Pair{SearchTerm: "a", Value: "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"SearchTerm":"a","Value":"b"}`, string(data))
}
