//go:build integration

package integration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/templater-labs/templater/internal/engine"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/identifiers"
	"github.com/templater-labs/templater/internal/solution"
	"github.com/templater-labs/templater/internal/template"
)

const projectGUID = "3F2504E0-4F89-11D3-9A0C-0305E82C3301"

func writeAcmeSource(t *testing.T, dir string) {
	t.Helper()
	writeTree(t, dir, map[string]string{
		"Acme.sln": "Microsoft Visual Studio Solution File, Format Version 12.00\r\n" +
			`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Acme.Core", "Acme.Core\Acme.Core.csproj", "{` + projectGUID + `}"` + "\r\n" +
			"EndProject\r\n" +
			"\t{" + projectGUID + "}.Debug|Any CPU.Build.0 = Debug|Any CPU\r\n",
		"Acme.Core/Acme.Core.csproj": "<Project Sdk=\"Microsoft.NET.Sdk\">\n" +
			"  <PropertyGroup>\n" +
			"    <Authors>Someone</Authors>\n" +
			"    <Version>0.0.1</Version>\n" +
			"    <RootNamespace>Acme.Core</RootNamespace>\n" +
			"  </PropertyGroup>\n" +
			"</Project>\n",
		"Acme.Core/Class1.cs": "namespace Acme.Core;\n\npublic class Class1 { }\n",
		"docs/remove-me.md":   "scratch notes\n",
		"bin/Debug/junk.dll":  "\x00\x01binary",
	})

	meta := &template.Template{
		Name:        "Acme Library",
		Description: "Class library with one project",
		Version:     "1.0.0",
		Settings: template.Settings{
			DefaultSolutionName:          "Starter",
			DirectoriesExcludedInPrepare: []string{"bin"},
			ReplacementText:              []template.Pair{{SearchTerm: "Acme", Value: "<SolutionName>"}},
			Commands:                     []string{"echo done> marker.txt"},
			Instructions:                 []string{"Open the solution in your IDE."},
			CleanupFilesAndDirectories:   []string{"docs/remove-me.md"},
		},
	}
	if err := meta.Save(filepath.Join(dir, template.InfoFileName)); err != nil {
		t.Fatalf("saving metadata: %v", err)
	}
}

// TestPrepareUpdateGenerate runs the full life cycle: package a source
// tree, publish it, sync it into the cache and generate a new solution.
func TestPrepareUpdateGenerate(t *testing.T) {
	env := setupTestEnv(t)
	var out bytes.Buffer
	e := engine.New(env.Settings, env.Paths, engine.WithOutput(&out))

	// Step 1: package the source tree into a staging directory.
	src, staging := t.TempDir(), t.TempDir()
	writeAcmeSource(t, src)
	prepared, err := e.Prepare(t.Context(), engine.PrepareRequest{SourceDir: src, OutputDir: staging})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prepared.GuidCount != 1 {
		t.Errorf("GuidCount = %d, want 1", prepared.GuidCount)
	}
	if want := filepath.Join(staging, "Acme_Library.zip"); prepared.ArchivePath != want {
		t.Errorf("ArchivePath = %s, want %s", prepared.ArchivePath, want)
	}
	assertFileExists(t, filepath.Join(src, "bin", "Debug", "junk.dll"))

	// Step 2: publish and sync.
	env.Server.publish(t, "Acme_Library.zip", "sha-1", prepared.ArchivePath)
	res, err := e.UpdateTemplates(t.Context(), false)
	if err != nil {
		t.Fatalf("UpdateTemplates: %v", err)
	}
	if res.NewCount != 1 || res.UpdatedCount != 0 {
		t.Errorf("sync result = %+v, want one new template", res)
	}
	assertFileExists(t, filepath.Join(env.Paths.TemplatesDir, "Acme_Library.zip"))

	tmpl, err := e.Template("acme library")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tmpl.GuidCount != 1 {
		t.Errorf("cached GuidCount = %d, want 1", tmpl.GuidCount)
	}
	if tmpl.Origin == nil || tmpl.Origin.SHA != "sha-1" {
		t.Errorf("Origin = %+v, want SHA sha-1", tmpl.Origin)
	}

	// Step 3: generate.
	parent := t.TempDir()
	gen, err := e.Generate(t.Context(), engine.GenerateRequest{
		TemplateName: "Acme Library",
		SolutionName: "Widget",
		OutputDir:    parent,
		Solution:     &solution.Settings{Author: "Grace", Version: "2.0.0"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	target := filepath.Join(parent, "Widget")
	if gen.Target != target {
		t.Errorf("Target = %s, want %s", gen.Target, target)
	}

	sln := readFile(t, filepath.Join(target, "Widget.sln"))
	if strings.Contains(sln, projectGUID) || strings.Contains(sln, identifiers.PlaceholderPrefix+"0") {
		t.Errorf("solution file still holds the template identifier:\n%s", sln)
	}
	if !strings.Contains(sln, `"Widget.Core", "Widget.Core\Widget.Core.csproj"`) {
		t.Errorf("solution file not renamed:\n%s", sln)
	}

	proj := readFile(t, filepath.Join(target, "Widget.Core", "Widget.Core.csproj"))
	for _, want := range []string{"<Authors>Grace</Authors>", "<Version>2.0.0</Version>", "<RootNamespace>Widget.Core</RootNamespace>"} {
		if !strings.Contains(proj, want) {
			t.Errorf("project file missing %s:\n%s", want, proj)
		}
	}
	if got := readFile(t, filepath.Join(target, "Widget.Core", "Class1.cs")); !strings.HasPrefix(got, "namespace Widget.Core;") {
		t.Errorf("Class1.cs = %q", got)
	}

	assertNotExists(t, filepath.Join(target, "bin"))
	assertNotExists(t, filepath.Join(target, "docs", "remove-me.md"))
	assertNotExists(t, filepath.Join(target, template.InfoFileName))
	assertFileExists(t, filepath.Join(target, "marker.txt"))
	if !strings.Contains(out.String(), "Open the solution in your IDE.") {
		t.Errorf("instructions not written; output:\n%s", out.String())
	}
}

// TestRepublishedTemplateIsUpdated checks that a changed SHA replaces the
// cached archive and an unchanged one leaves it alone.
func TestRepublishedTemplateIsUpdated(t *testing.T) {
	env := setupTestEnv(t)
	e := engine.New(env.Settings, env.Paths)

	src, staging := t.TempDir(), t.TempDir()
	writeAcmeSource(t, src)
	prepared, err := e.Prepare(t.Context(), engine.PrepareRequest{SourceDir: src, OutputDir: staging})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	env.Server.publish(t, "Acme_Library.zip", "sha-1", prepared.ArchivePath)
	if _, err := e.UpdateTemplates(t.Context(), false); err != nil {
		t.Fatalf("first UpdateTemplates: %v", err)
	}

	res, err := e.UpdateTemplates(t.Context(), false)
	if err != nil {
		t.Fatalf("second UpdateTemplates: %v", err)
	}
	if res.NewCount != 0 || res.UpdatedCount != 0 {
		t.Errorf("unchanged remote reported %+v", res)
	}

	env.Server.publish(t, "Acme_Library.zip", "sha-2", prepared.ArchivePath)
	res, err = e.UpdateTemplates(t.Context(), false)
	if err != nil {
		t.Fatalf("third UpdateTemplates: %v", err)
	}
	if res.UpdatedCount != 1 {
		t.Errorf("UpdatedCount = %d, want 1", res.UpdatedCount)
	}
}

// TestGenerateRefusesExistingTarget covers the override flag end to end.
func TestGenerateRefusesExistingTarget(t *testing.T) {
	env := setupTestEnv(t)
	e := engine.New(env.Settings, env.Paths)

	src := t.TempDir()
	writeAcmeSource(t, src)
	if _, err := e.Prepare(t.Context(), engine.PrepareRequest{SourceDir: src, OutputDir: env.Paths.TemplatesDir}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := e.RefreshTemplates(); err != nil {
		t.Fatalf("RefreshTemplates: %v", err)
	}

	parent := t.TempDir()
	existing := filepath.Join(parent, "Starter")
	if err := os.MkdirAll(existing, 0755); err != nil {
		t.Fatal(err)
	}
	writeTree(t, existing, map[string]string{"keep.txt": "mine"})

	req := engine.GenerateRequest{TemplateName: "Acme Library", OutputDir: parent}
	_, err := e.Generate(t.Context(), req)
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("Generate into existing dir: err = %v, want validation error", err)
	}
	assertFileExists(t, filepath.Join(existing, "keep.txt"))

	req.Override = true
	if _, err := e.Generate(t.Context(), req); err != nil {
		t.Fatalf("Generate with override: %v", err)
	}
	assertNotExists(t, filepath.Join(existing, "keep.txt"))
	assertFileExists(t, filepath.Join(existing, "Starter.sln"))
}
