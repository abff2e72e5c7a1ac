package dotsln

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/templater-labs/templater/internal/archive"
	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/generator"
	"github.com/templater-labs/templater/internal/identifiers"
	"github.com/templater-labs/templater/internal/logging"
	"github.com/templater-labs/templater/internal/platform"
	"github.com/templater-labs/templater/internal/solutiontype"
	"github.com/templater-labs/templater/internal/substitution"
	"github.com/templater-labs/templater/internal/template"
)

// Name is the type name templates record in their metadata.
const Name = "dotsln"

const solutionExt = ".sln"

// projectExts are the project descriptor files rewritten with tag rules.
var projectExts = []string{".csproj", ".shproj", ".projitems"}

var errFound = errors.New("found")

// Backend implements solutiontype.Backend for .sln solutions.
type Backend struct {
	logger  *slog.Logger
	strict  bool
	remover *platform.Remover
	now     func() time.Time
}

var _ solutiontype.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// WithStrictIdentifiers makes a repeated project identifier fail packaging.
func WithStrictIdentifiers(strict bool) Option {
	return func(b *Backend) { b.strict = strict }
}

// WithRemover sets the remover used for the working directory.
func WithRemover(r *platform.Remover) Option {
	return func(b *Backend) { b.remover = r }
}

// New creates a Backend.
func New(opts ...Option) *Backend {
	b := &Backend{remover: platform.NewRemover(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.OrDiscard(b.logger)
	return b
}

func (b *Backend) Name() string        { return Name }
func (b *Backend) Description() string { return "VisualStudio (.sln)" }

// CanHandle reports whether any .sln file exists under dir.
func (b *Backend) CanHandle(dir string) bool {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), solutionExt) {
			return errFound
		}
		return nil
	})
	return errors.Is(err, errFound)
}

// Generate runs the generic pipeline; .sln templates need no extra steps.
func (b *Backend) Generate(ctx context.Context, g *generator.Generator, opts generator.Options) (*generator.Result, error) {
	return g.Generate(ctx, opts)
}

// Prepare packages opts.SourceDir into OutputDir/<name>.zip.
func (b *Backend) Prepare(ctx context.Context, opts solutiontype.PrepareOptions) (*solutiontype.PrepareResult, error) {
	start := b.now()
	if opts.Template == nil {
		return nil, errs.Configuration("prepare", "no template metadata", nil)
	}
	if !platform.IsDir(opts.SourceDir) {
		return nil, errs.Configuration("prepare", "source directory not found", nil).WithPath(opts.SourceDir)
	}

	name := opts.Template.NormalizedName()
	work := filepath.Join(opts.OutputDir, name)
	res := &solutiontype.PrepareResult{
		WorkDir:     work,
		ArchivePath: filepath.Join(opts.OutputDir, name+".zip"),
	}

	if err := checkOverlap(opts.SourceDir, work); err != nil {
		return nil, err
	}

	b.logger.Info("removing previous working directory", "path", work)
	if err := b.remover.RemoveAll(work); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.logger.Info("copying source", "from", opts.SourceDir, "to", work)
	if err := platform.CopyDir(opts.SourceDir, work, opts.Template.Settings.DirectoriesExcludedInPrepare); err != nil {
		return nil, fmt.Errorf("copying source directory: %w", err)
	}

	b.logger.Info("collecting project identifiers")
	remapper := identifiers.NewDotSln()
	remapper.Strict = b.strict
	remapper.Logger = b.logger
	ids, err := remapper.Scan(work)
	if err != nil {
		return nil, err
	}
	res.GuidCount = ids.Len()
	b.logger.Info("project identifiers collected", "count", ids.Len())

	meta := *opts.Template
	meta.GuidCount = ids.Len()
	meta.Type = Name
	if err := meta.Save(filepath.Join(work, template.InfoFileName)); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.logger.Info("rewriting descriptor files")
	n, err := b.rewrite(work, ids, opts.Template.Settings.Pairs())
	if err != nil {
		return nil, err
	}
	res.FilesRewritten = n

	b.logger.Info("packaging template", "archive", res.ArchivePath)
	if err := archive.ZipDir(work, res.ArchivePath); err != nil {
		return nil, fmt.Errorf("packaging template: %w", err)
	}

	if !opts.SkipCleaning {
		b.logger.Info("removing working directory", "path", work)
		if err := b.remover.RemoveAll(work); err != nil {
			return nil, err
		}
	}

	res.Elapsed = b.now().Sub(start)
	return res, nil
}

// rewrite applies the packaging substitutions to every descriptor file
// under root and returns how many files it processed.
func (b *Backend) rewrite(root string, ids *identifiers.Map, pairs []substitution.Pair) (int, error) {
	literal := substitution.NewTable()
	for _, m := range ids.Entries() {
		literal.Add(m.Raw, m.Placeholder)
	}
	for _, p := range pairs {
		literal.Add(p.Search, p.Value)
	}
	literal.Freeze()

	pairRules, err := substitution.PairRules(pairs)
	if err != nil {
		return 0, err
	}
	rules := append(substitution.TagRules(), pairRules...)

	count := 0
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == template.InfoFileName {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		var apply func(string) string
		switch {
		case ext == solutionExt:
			apply = literal.Apply
		case isProjectExt(ext):
			apply = func(s string) string { return substitution.ApplyRules(s, rules) }
		default:
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		count++
		out := apply(string(data))
		if out == string(data) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(out), info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
		b.logger.Debug("descriptor rewritten", "path", p)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// checkOverlap rejects a working directory that is, contains, or lies
// inside the source tree.
func checkOverlap(src, work string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolving source directory: %w", err)
	}
	absWork, err := filepath.Abs(work)
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	if within(absSrc, absWork) || within(absWork, absSrc) {
		return errs.Validation("prepare", "output directory overlaps the source directory; choose another --output-directory", nil).WithPath(absWork)
	}
	return nil
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isProjectExt(ext string) bool {
	for _, e := range projectExts {
		if ext == e {
			return true
		}
	}
	return false
}
