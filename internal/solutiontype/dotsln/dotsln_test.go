package dotsln

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templater-labs/templater/internal/archive"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/identifiers"
	"github.com/templater-labs/templater/internal/solutiontype"
	"github.com/templater-labs/templater/internal/template"
)

const solutionFile = `Microsoft Visual Studio Solution File, Format Version 12.00
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Lib", "Lib\Lib.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "App\App.csproj", "{22222222-2222-2222-2222-222222222222}"
EndProject
Global
	{11111111-1111-1111-1111-111111111111}.Debug|Any CPU.ActiveCfg = Debug|Any CPU
EndGlobal
`

const projectFile = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <Authors>Someone</Authors>
    <Version>1.2.3</Version>
    <RootNamespace>Acme.Lib</RootNamespace>
  </PropertyGroup>
</Project>
`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func sourceTree(t *testing.T, settings template.Settings, files map[string]string) (string, *template.Template) {
	t.Helper()
	src := t.TempDir()
	writeTree(t, src, files)
	meta := &template.Template{Name: "Demo Lib", Version: "1.0.0", Settings: settings}
	require.NoError(t, meta.Save(filepath.Join(src, template.InfoFileName)))
	loaded, err := template.LoadDir(src)
	require.NoError(t, err)
	return src, loaded
}

func readArchived(t *testing.T, zipPath, name string) string {
	t.Helper()
	data, err := archive.ReadFile(zipPath, name)
	require.NoError(t, err)
	return string(data)
}

func TestPrepare(t *testing.T) {
	src, meta := sourceTree(t, template.Settings{
		DirectoriesExcludedInPrepare: []string{"bin"},
		ReplacementText:              []template.Pair{{SearchTerm: "Acme", Value: "<SolutionName>"}},
	}, map[string]string{
		"Demo.sln":          solutionFile,
		"Lib/Lib.csproj":    projectFile,
		"Lib/Shared.shproj": "<Description>old</Description>",
		"Lib/Program.cs":    "namespace Acme.Lib;",
		"bin/Debug/Lib.dll": "binary",
		".git/HEAD":         "ref: refs/heads/main",
		"App/App.projitems": "<Company>Acme Corp</Company>",
	})

	out := t.TempDir()
	res, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: out, Template: meta})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "Demo_Lib.zip"), res.ArchivePath)
	assert.Equal(t, 2, res.GuidCount)
	assert.Equal(t, 4, res.FilesRewritten)
	assert.NoDirExists(t, res.WorkDir)

	sln := readArchived(t, res.ArchivePath, "Demo.sln")
	assert.Contains(t, sln, `"{`+identifiers.Placeholder(0)+`}"`)
	assert.Contains(t, sln, `"{`+identifiers.Placeholder(1)+`}"`)
	assert.Contains(t, sln, "{"+identifiers.Placeholder(0)+"}.Debug")
	assert.NotContains(t, sln, "11111111-1111")

	proj := readArchived(t, res.ArchivePath, "Lib/Lib.csproj")
	assert.Contains(t, proj, "<Authors>[AUTHOR]</Authors>")
	assert.Contains(t, proj, "<Version>[VERSION]</Version>")
	assert.Contains(t, proj, "<RootNamespace><SolutionName>.Lib</RootNamespace>")

	assert.Equal(t, "<Description>[DESCRIPTION]</Description>", readArchived(t, res.ArchivePath, "Lib/Shared.shproj"))
	assert.Equal(t, "<Company>[COMPANY]</Company>", readArchived(t, res.ArchivePath, "App/App.projitems"))
	// Only descriptor files are rewritten.
	assert.Equal(t, "namespace Acme.Lib;", readArchived(t, res.ArchivePath, "Lib/Program.cs"))

	for _, name := range []string{"bin/Debug/Lib.dll", ".git/HEAD"} {
		_, err := archive.ReadFile(res.ArchivePath, name)
		assert.True(t, errors.Is(err, archive.ErrNotFound), "%s should not be packaged", name)
	}

	packaged, err := template.LoadArchive(res.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, 2, packaged.GuidCount)
	assert.Equal(t, Name, packaged.Type)
	assert.Equal(t, "Demo Lib", packaged.Name)
}

func TestPrepareKeepsMetadataFileOutOfRewrites(t *testing.T) {
	src, meta := sourceTree(t, template.Settings{
		ReplacementText: []template.Pair{{SearchTerm: "Demo", Value: "Changed"}},
	}, map[string]string{"Demo.sln": solutionFile})

	res, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: t.TempDir(), Template: meta})
	require.NoError(t, err)

	packaged, err := template.LoadArchive(res.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, "Demo Lib", packaged.Name)
}

func TestPrepareOverwritesArchiveAndSkipCleaning(t *testing.T) {
	src, meta := sourceTree(t, template.Settings{}, map[string]string{"Demo.sln": solutionFile})
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "Demo_Lib.zip"), []byte("stale"), 0644))
	writeTree(t, out, map[string]string{"Demo_Lib/leftover.txt": "old"})

	res, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: out, Template: meta, SkipCleaning: true})
	require.NoError(t, err)

	assert.DirExists(t, res.WorkDir)
	assert.NoFileExists(t, filepath.Join(res.WorkDir, "leftover.txt"))
	assert.FileExists(t, filepath.Join(res.WorkDir, "Demo.sln"))
	assert.True(t, strings.HasPrefix(readArchived(t, res.ArchivePath, "Demo.sln"), "Microsoft Visual Studio"))
}

func TestPrepareStrictDuplicateIdentifier(t *testing.T) {
	dup := solutionFile + `Project("{X}") = "Lib2", "Lib2\Lib2.csproj", "{11111111-1111-1111-1111-111111111111}"` + "\n"
	src, meta := sourceTree(t, template.Settings{}, map[string]string{"Demo.sln": dup})

	_, err := New(WithStrictIdentifiers(true)).Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: t.TempDir(), Template: meta})
	require.Error(t, err)
	assert.ErrorIs(t, err, identifiers.ErrDuplicateIdentifier)
	assert.Equal(t, errs.KindDataIntegrity, errs.KindOf(err))

	res, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: t.TempDir(), Template: meta})
	require.NoError(t, err)
	assert.Equal(t, 2, res.GuidCount)
}

func TestPrepareInvalidPairPattern(t *testing.T) {
	src, meta := sourceTree(t, template.Settings{
		ReplacementText: []template.Pair{{SearchTerm: "([", Value: "x"}},
	}, map[string]string{"Demo.sln": solutionFile})

	_, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: t.TempDir(), Template: meta})
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestPrepareMissingSource(t *testing.T) {
	_, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{
		SourceDir: filepath.Join(t.TempDir(), "missing"),
		OutputDir: t.TempDir(),
		Template:  &template.Template{Name: "x"},
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestCanHandle(t *testing.T) {
	dir := t.TempDir()
	b := New()
	assert.False(t, b.CanHandle(dir))

	writeTree(t, dir, map[string]string{"src/deep/App.SLN": "x"})
	assert.True(t, b.CanHandle(dir))
	assert.False(t, b.CanHandle(filepath.Join(dir, "missing")))
}

func TestPrepareRejectsOverlappingOutput(t *testing.T) {
	parent := t.TempDir()
	src := filepath.Join(parent, "Demo_Lib")
	writeTree(t, src, map[string]string{"Demo.sln": solutionFile})
	meta := &template.Template{Name: "Demo Lib"}

	for _, out := range []string{parent, src} {
		_, err := New().Prepare(t.Context(), solutiontype.PrepareOptions{SourceDir: src, OutputDir: out, Template: meta})
		require.Error(t, err, "output %s", out)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	}
	assert.FileExists(t, filepath.Join(src, "Demo.sln"))
}
