package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/templater-labs/templater/internal/catalog"
	"github.com/templater-labs/templater/internal/config"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/generator"
	"github.com/templater-labs/templater/internal/github"
	"github.com/templater-labs/templater/internal/logging"
	"github.com/templater-labs/templater/internal/platform"
	"github.com/templater-labs/templater/internal/solution"
	"github.com/templater-labs/templater/internal/solutiontype"
	"github.com/templater-labs/templater/internal/solutiontype/dotsln"
	"github.com/templater-labs/templater/internal/template"
	"github.com/templater-labs/templater/internal/vcs"
)

// Remote is the hosting service the engine talks to.
type Remote interface {
	catalog.Lister
	catalog.Downloader
	generator.RepoCreator
}

// Engine holds the state shared by every command of one process.
type Engine struct {
	settings  *config.Settings
	paths     config.Paths
	logger    *slog.Logger
	remote    Remote
	registry  *solutiontype.Registry
	generator *generator.Generator
	out       io.Writer
	now       func() time.Time

	templates []*template.Template
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to every pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRemote replaces the GitHub client.
func WithRemote(r Remote) Option {
	return func(e *Engine) { e.remote = r }
}

// WithRegistry replaces the solution-type registry.
func WithRegistry(r *solutiontype.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithGenerator replaces the generator.
func WithGenerator(g *generator.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithOutput sets where download progress, instructions and manual
// commands are written.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine. Collaborators not supplied through options are
// created from settings.
func New(settings *config.Settings, paths config.Paths, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		paths:    paths,
		out:      io.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrDiscard(e.logger)

	if e.remote == nil {
		e.remote = github.New(
			github.WithBaseURL(e.APIURL()),
			github.WithToken(settings.GitAccessToken),
			github.WithProgress(e.out),
		)
	}
	if e.registry == nil {
		e.registry = solutiontype.NewRegistry(dotsln.New(dotsln.WithLogger(e.logger)))
	}
	if e.generator == nil {
		e.generator = generator.New(
			generator.WithLogger(e.logger),
			generator.WithRepoCreator(e.remote),
			generator.WithGit(vcs.New(vcs.WithToken(settings.GitAccessToken), vcs.WithLogger(e.logger))),
			generator.WithInstructions(e.out),
			generator.WithGitWebPath(settings.GitWebPath),
			generator.WithClock(e.now),
		)
	}
	return e
}

// Settings returns the application settings.
func (e *Engine) Settings() *config.Settings { return e.settings }

// Paths returns the on-disk layout.
func (e *Engine) Paths() config.Paths { return e.paths }

// Registry returns the solution-type registry.
func (e *Engine) Registry() *solutiontype.Registry { return e.registry }

// APIURL returns the configured API root, derived from the web path when
// not set explicitly.
func (e *Engine) APIURL() string {
	if e.settings.GitAPIURL != "" {
		return strings.TrimRight(e.settings.GitAPIURL, "/")
	}
	return github.APIURLFromWeb(e.settings.GitWebPath)
}

// ValidateConfiguration checks the settings.
func (e *Engine) ValidateConfiguration() error {
	return e.settings.Validate()
}

// UpdateDue reports whether an automatic template update should run.
func (e *Engine) UpdateDue(now time.Time) bool {
	return e.settings.UpdateDue(now)
}

// PrepareRequest describes a prepare command.
type PrepareRequest struct {
	SourceDir string
	OutputDir string
	// Type names the solution type; empty detects it from the source.
	Type         string
	SkipCleaning bool
}

// PrepareResult is a finished prepare with the metadata used.
type PrepareResult struct {
	*solutiontype.PrepareResult
	Template *template.Template
	Type     string
}

// ResolvePrepare loads the source metadata and picks the backend without
// writing anything.
func (e *Engine) ResolvePrepare(req PrepareRequest) (*template.Template, solutiontype.Backend, error) {
	if !platform.IsDir(req.SourceDir) {
		return nil, nil, errs.Configuration("prepare", "source directory not found", nil).WithPath(req.SourceDir)
	}
	meta, err := template.LoadDir(req.SourceDir)
	if err != nil {
		return nil, nil, err
	}

	var backend solutiontype.Backend
	switch {
	case req.Type != "":
		backend, err = e.registry.Get(req.Type)
	case meta.Type != "":
		backend, err = e.registry.Get(meta.Type)
	default:
		backend, err = e.registry.Detect(req.SourceDir)
	}
	if err != nil {
		return nil, nil, err
	}
	return meta, backend, nil
}

// Prepare packages a source tree into a template archive.
func (e *Engine) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResult, error) {
	meta, backend, err := e.ResolvePrepare(req)
	if err != nil {
		return nil, err
	}
	out := req.OutputDir
	if out == "" {
		if out, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolving output directory: %w", err)
		}
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	e.logger.Info("preparing template", "name", meta.Name, "type", backend.Name(), "source", req.SourceDir)
	res, err := backend.Prepare(ctx, solutiontype.PrepareOptions{
		SourceDir:    req.SourceDir,
		OutputDir:    out,
		Template:     meta,
		SkipCleaning: req.SkipCleaning,
	})
	if err != nil {
		return nil, err
	}
	return &PrepareResult{PrepareResult: res, Template: meta, Type: backend.Name()}, nil
}

// UpdateTemplates syncs the archive cache with the configured
// repositories, stamps the update time and reloads template metadata.
func (e *Engine) UpdateTemplates(ctx context.Context, force bool) (*catalog.Result, error) {
	if err := e.ValidateConfiguration(); err != nil {
		return nil, err
	}
	syncer := catalog.NewSyncer(e.remote, e.remote, e.paths.TemplatesDir, e.paths.CatalogFile,
		catalog.WithLogger(e.logger))

	res, err := syncer.Sync(ctx, e.settings.UniqueRepositories(), force)
	if err != nil {
		return nil, err
	}
	for _, name := range res.Orphans {
		e.logger.Warn("template no longer offered by any repository", "name", name)
	}

	e.settings.MarkUpdated(e.now())
	if err := config.Save(e.paths.SettingsFile, e.settings); err != nil {
		return nil, err
	}
	if err := e.RefreshTemplates(); err != nil {
		return nil, err
	}
	return res, nil
}

// RefreshTemplates reloads metadata from every archive in the templates
// directory. Unreadable archives are skipped with a warning; when two
// archives declare the same name the first by file name wins.
func (e *Engine) RefreshTemplates() error {
	cat, err := catalog.Load(e.paths.CatalogFile)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(e.paths.TemplatesDir)
	if errors.Is(err, os.ErrNotExist) {
		e.templates = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading templates directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	seen := make(map[string]bool)
	var out []*template.Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), catalog.DefaultExtension) {
			continue
		}
		path := filepath.Join(e.paths.TemplatesDir, entry.Name())
		t, err := template.LoadArchive(path)
		if err != nil {
			e.logger.Warn("skipping unreadable template", "path", path, "error", err)
			continue
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			e.logger.Warn("template name declared by more than one archive, keeping the first", "name", t.Name, "path", path)
			continue
		}
		seen[key] = true
		if origin, ok := cat.Lookup(entry.Name()); ok {
			o := *origin
			t.Origin = &o
		}
		out = append(out, t)
	}
	e.templates = out
	return nil
}

// Templates returns the loaded templates, loading them on first use.
func (e *Engine) Templates() ([]*template.Template, error) {
	if e.templates == nil {
		if err := e.RefreshTemplates(); err != nil {
			return nil, err
		}
	}
	return e.templates, nil
}

// Template returns the template called name, case-insensitively.
func (e *Engine) Template(name string) (*template.Template, error) {
	templates, err := e.Templates()
	if err != nil {
		return nil, err
	}
	for _, t := range templates {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, errs.Validation("find template", fmt.Sprintf("no template named %q; run list-templates to see what is available", name), nil)
}

// GenerateRequest describes a generate command.
type GenerateRequest struct {
	TemplateName string
	SolutionName string
	// OutputDir is the parent of the new solution directory.
	OutputDir string
	// ConfigFile is read when Solution is nil, and backed up afterwards
	// when BackupConfig is set.
	ConfigFile   string
	Solution     *solution.Settings
	Override     bool
	BackupConfig bool
}

// GeneratePlan is a resolved generate request.
type GeneratePlan struct {
	Template *template.Template
	Backend  solutiontype.Backend
	Options  generator.Options
}

// PlanGenerate resolves the template, solution settings and target without
// writing anything.
func (e *Engine) PlanGenerate(req GenerateRequest) (*GeneratePlan, error) {
	tmpl, err := e.Template(req.TemplateName)
	if err != nil {
		return nil, err
	}
	backend, err := e.registry.Get(tmpl.SolutionType())
	if err != nil {
		return nil, err
	}

	out := req.OutputDir
	if out == "" {
		if out, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolving output directory: %w", err)
		}
	}
	out, err = filepath.Abs(out)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	name := tmpl.Settings.SolutionName(req.SolutionName, filepath.Base(out))
	if strings.TrimSpace(name) == "" {
		return nil, errs.Validation("generate", "a solution name is required and the template has no default", nil)
	}

	settings := req.Solution
	configFile := req.ConfigFile
	if configFile == "" {
		configFile = e.paths.SolutionConfigFile
	}
	if settings == nil {
		if platform.Exists(configFile) {
			if settings, err = solution.Load(configFile); err != nil {
				return nil, err
			}
		} else {
			settings = solution.Defaults(tmpl)
		}
	}

	return &GeneratePlan{
		Template: tmpl,
		Backend:  backend,
		Options: generator.Options{
			Template:     tmpl,
			SolutionName: name,
			Target:       filepath.Join(out, name),
			Override:     req.Override,
			Solution:     settings,
			ConfigFile:   configFile,
			BackupConfig: req.BackupConfig,
			BackupDir:    e.paths.BackupDir,
		},
	}, nil
}

// Generate creates a new solution from a template.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (*generator.Result, error) {
	plan, err := e.PlanGenerate(req)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, plan)
}

// Run executes a plan returned by PlanGenerate.
func (e *Engine) Run(ctx context.Context, plan *GeneratePlan) (*generator.Result, error) {
	e.logger.Info("generating solution", "template", plan.Template.Name, "name", plan.Options.SolutionName, "target", plan.Options.Target)
	return plan.Backend.Generate(ctx, e.generator, plan.Options)
}
