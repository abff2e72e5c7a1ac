package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/templater-labs/templater/internal/archive"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/github"
	"github.com/templater-labs/templater/internal/logging"
	"github.com/templater-labs/templater/internal/platform"
	"github.com/templater-labs/templater/internal/runner"
	"github.com/templater-labs/templater/internal/solution"
	"github.com/templater-labs/templater/internal/substitution"
	"github.com/templater-labs/templater/internal/template"
)

// ErrTargetExists is wrapped by the validation error returned when the
// target directory exists and override was not requested.
var ErrTargetExists = errors.New("target directory already exists")

// RepoCreator creates remote repositories.
type RepoCreator interface {
	CreateRepository(ctx context.Context, r github.NewRepository) (*github.Repository, error)
}

// Git initializes and clones local repositories.
type Git interface {
	Init(path string) error
	Clone(ctx context.Context, url, dest string) error
}

// Options describe one generate run.
type Options struct {
	// Template is the metadata of the archive at Template.FilePath.
	Template *template.Template
	// SolutionName is the resolved name of the new solution.
	SolutionName string
	// Target is the directory the solution is generated into.
	Target string
	// Override deletes an existing Target instead of failing.
	Override bool
	// Solution carries author, tag and git values; nil uses the template
	// defaults.
	Solution *solution.Settings
	// ConfigFile is the solution configuration file moved into BackupDir
	// after a successful run when BackupConfig is set.
	ConfigFile   string
	BackupConfig bool
	BackupDir    string
}

// Result reports a finished run.
type Result struct {
	// Target is the effective solution directory, which differs from the
	// requested one when a cloned repository has a different name.
	Target         string
	Elapsed        time.Duration
	States         []State
	ManualCommands []string
	FilesRemoved   int
	DirsRemoved    int
	BackupPath     string
}

// Generator runs generate pipelines.
type Generator struct {
	logger       *slog.Logger
	runner       runner.Runner
	repos        RepoCreator
	git          Git
	instructions io.Writer
	now          func() time.Time
	username     string
	gitWebPath   string
	newID        func() string
	remover      *platform.Remover
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithRunner sets the command runner; the default runs commands through
// the platform shell.
func WithRunner(r runner.Runner) Option {
	return func(g *Generator) { g.runner = r }
}

// WithRepoCreator sets the remote repository API used by NewRepoFull.
func WithRepoCreator(r RepoCreator) Option {
	return func(g *Generator) { g.repos = r }
}

// WithGit sets the local repository client.
func WithGit(c Git) Option {
	return func(g *Generator) { g.git = c }
}

// WithInstructions sets where template instructions and manual commands
// are written.
func WithInstructions(w io.Writer) Option {
	return func(g *Generator) { g.instructions = w }
}

// WithClock sets the time source used for elapsed time and backup names.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithUsername sets the value of <CurrentUserName>.
func WithUsername(name string) Option {
	return func(g *Generator) { g.username = name }
}

// WithGitWebPath sets the web root that clone URLs are built from.
func WithGitWebPath(p string) Option {
	return func(g *Generator) { g.gitWebPath = p }
}

// WithIDGenerator replaces the random UUIDs used for identifier
// placeholders.
func WithIDGenerator(f func() string) Option {
	return func(g *Generator) { g.newID = f }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		instructions: io.Discard,
		now:          time.Now,
		gitWebPath:   "https://github.com/",
		remover:      platform.NewRemover(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrDiscard(g.logger)
	if g.runner == nil {
		g.runner = runner.Default()
	}
	if g.username == "" {
		g.username = currentUsername()
	}
	return g
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		name := u.Username
		// Windows reports DOMAIN\user.
		if i := strings.LastIndex(name, `\`); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// run is the mutable state of one pipeline.
type run struct {
	opts   Options
	target string
	table  *substitution.Table
	result *Result
}

// Generate runs every state in order. Failures before RunCommands abort the
// run; the returned result is nil in that case.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	start := g.now()
	r := &run{opts: opts, target: opts.Target, result: &Result{}}

	steps := []struct {
		state State
		fn    func(context.Context, *run) error
	}{
		{StateInit, g.init},
		{StateDirectoryCheck, g.directoryCheck},
		{StateGitSetup, g.gitSetup},
		{StateUnpack, g.unpack},
		{StateSubstitute, g.substitute},
		{StateRunCommands, g.runCommands},
		{StateCleanup, g.cleanup},
		{StateInstructions, g.writeInstructions},
		{StateConfigBackup, g.configBackup},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.logger.Info("generate step started", "state", step.state.String())
		r.result.States = append(r.result.States, step.state)
		if err := step.fn(ctx, r); err != nil {
			g.logger.Error("generate step failed", "state", step.state.String(), "error", err)
			return nil, err
		}
		g.logger.Info("generate step completed", "state", step.state.String())
	}

	r.result.States = append(r.result.States, StateDone)
	r.result.Target = r.target
	r.result.Elapsed = g.now().Sub(start)
	return r.result, nil
}

func (g *Generator) init(_ context.Context, r *run) error {
	o := &r.opts
	if o.Template == nil {
		return errs.Configuration("generate", "no template selected", nil)
	}
	if o.Template.FilePath == "" || !platform.Exists(o.Template.FilePath) {
		return errs.Configuration("generate", "template archive not found", nil).WithPath(o.Template.FilePath)
	}
	if strings.TrimSpace(o.SolutionName) == "" {
		return errs.Validation("generate", "solution name is required", nil)
	}
	if o.Target == "" {
		return errs.Validation("generate", "target directory is required", nil)
	}
	abs, err := filepath.Abs(o.Target)
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}
	r.target = abs
	if o.Solution == nil {
		o.Solution = solution.Defaults(o.Template)
	}
	return nil
}

func (g *Generator) directoryCheck(_ context.Context, r *run) error {
	return g.claimDir(r.target, r.opts.Override)
}

// claimDir fails when path exists unless override is set, in which case the
// existing directory is removed.
func (g *Generator) claimDir(path string, override bool) error {
	if !platform.Exists(path) {
		return nil
	}
	if !override {
		return errs.Validation("generate", "use --force to replace it", ErrTargetExists).WithPath(path)
	}
	g.logger.Info("removing existing directory", "path", path)
	return g.remover.RemoveAll(path)
}

func (g *Generator) gitSetup(ctx context.Context, r *run) error {
	gs := r.opts.Solution.Git
	switch gs.RepoMode {
	case solution.NoRepo:
		if err := os.MkdirAll(r.target, 0755); err != nil {
			return fmt.Errorf("creating target directory: %w", err)
		}
		return nil

	case solution.NewRepoOnlyInit:
		if g.git == nil {
			return errs.Configuration("git setup", "no git client configured", nil)
		}
		return g.git.Init(r.target)

	case solution.NewRepoFull:
		if g.git == nil || g.repos == nil {
			return errs.Configuration("git setup", "creating a remote repository needs a git client and a hosting API", nil)
		}
		name := gs.RepoName
		if name == "" {
			name = r.opts.SolutionName
		}
		parent := filepath.Dir(r.target)
		if err := g.claimDir(filepath.Join(parent, name), r.opts.Override); err != nil {
			return err
		}
		repo, err := g.repos.CreateRepository(ctx, github.NewRepository{
			Owner:       gs.RepoOwner,
			Name:        name,
			Description: r.opts.Solution.Description,
			Private:     gs.IsPrivate,
		})
		if err != nil {
			return fmt.Errorf("creating remote repository: %w", err)
		}
		if repo.Name != "" && repo.Name != name {
			name = repo.Name
			// The hosting service renamed the repository.
			if err := g.claimDir(filepath.Join(parent, name), r.opts.Override); err != nil {
				return err
			}
		}
		url := strings.TrimRight(g.gitWebPath, "/") + "/" + gs.RepoOwner + "/" + name + ".git"
		dest := filepath.Join(parent, name)
		g.logger.Info("cloning new repository", "url", url, "path", dest)
		if err := g.git.Clone(ctx, url, dest); err != nil {
			return err
		}
		r.target = dest
		return nil

	default:
		return errs.Validation("git setup", fmt.Sprintf("unknown repo mode %s", gs.RepoMode), nil)
	}
}

func (g *Generator) unpack(_ context.Context, r *run) error {
	return archive.Extract(r.opts.Template.FilePath, r.target, []string{template.InfoFileName})
}

func (g *Generator) substitute(_ context.Context, r *run) error {
	b := substitution.NewBuilder(substitution.Context{
		GuidCount:    r.opts.Template.GuidCount,
		Username:     g.username,
		ParentDir:    filepath.Base(r.target),
		SolutionName: r.opts.SolutionName,
		Pairs:        r.opts.Template.Settings.Pairs(),
		Tags:         r.opts.Solution.TagValues(),
		NewID:        g.newID,
	})
	r.table = b.Table()

	w := &walker{
		table:      r.table,
		renameOnly: newPathSet(r.opts.Template.Settings.RenameOnlyFilesAndDirectories),
		logger:     g.logger,
	}
	return w.walk(r.target, "", "")
}

func (g *Generator) runCommands(ctx context.Context, r *run) error {
	commands := r.opts.Template.Settings.Commands
	for i, command := range commands {
		g.logger.Info("running command", "command", command, "dir", r.target)
		if err := g.runner.Run(ctx, r.target, command); err != nil {
			g.logger.Warn("command failed, remaining commands must be run manually", "command", command, "error", err)
			r.result.ManualCommands = append([]string(nil), commands[i:]...)
			fmt.Fprintf(g.instructions, "Some commands could not be run. Run these from %s:\n", r.target)
			for _, c := range r.result.ManualCommands {
				fmt.Fprintf(g.instructions, "  %s\n", c)
			}
			return nil
		}
	}
	return nil
}

func (g *Generator) cleanup(_ context.Context, r *run) error {
	for _, p := range r.opts.Template.Settings.CleanupFilesAndDirectories {
		resolved := filepath.Join(r.target, filepath.FromSlash(r.table.Apply(p)))
		rel, err := filepath.Rel(r.target, resolved)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			g.logger.Warn("cleanup path outside the solution, skipping", "path", p)
			continue
		}

		info, err := os.Lstat(resolved)
		if errors.Is(err, os.ErrNotExist) {
			g.logger.Debug("cleanup path missing, skipping", "path", resolved)
			continue
		}
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", resolved, err)
		}

		if info.IsDir() {
			if err := g.remover.RemoveAll(resolved); err != nil {
				return err
			}
			r.result.DirsRemoved++
			continue
		}
		if err := os.Remove(resolved); err != nil {
			return fmt.Errorf("removing %s: %w", resolved, err)
		}
		r.result.FilesRemoved++
	}
	return nil
}

func (g *Generator) writeInstructions(_ context.Context, r *run) error {
	for _, line := range r.opts.Template.Settings.Instructions {
		if _, err := fmt.Fprintln(g.instructions, line); err != nil {
			return fmt.Errorf("writing instructions: %w", err)
		}
	}
	return nil
}

func (g *Generator) configBackup(_ context.Context, r *run) error {
	o := r.opts
	if !o.BackupConfig || o.ConfigFile == "" {
		return nil
	}
	if !platform.Exists(o.ConfigFile) {
		g.logger.Debug("no configuration file to back up", "path", o.ConfigFile)
		return nil
	}
	dest, err := solution.Backup(o.ConfigFile, o.BackupDir, o.SolutionName, g.now())
	if err != nil {
		return err
	}
	r.result.BackupPath = dest
	return nil
}
