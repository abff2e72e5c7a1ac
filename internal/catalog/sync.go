package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/github"
	"github.com/templater-labs/templater/internal/logging"
	"github.com/templater-labs/templater/internal/platform"
)

const (
	// DefaultExtension selects archive files in remote listings.
	DefaultExtension = ".zip"
	// DefaultMaxDepth is how many directory levels below a repository root
	// are searched.
	DefaultMaxDepth = 1
)

// Lister lists a directory of a remote repository.
type Lister interface {
	ListContents(ctx context.Context, owner, repo, path string) ([]github.Content, error)
}

// Downloader streams a remote file.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Result summarizes a sync.
type Result struct {
	LocalCount   int
	RemoteCount  int
	NewCount     int
	UpdatedCount int
	Orphans      []string
}

// Syncer reconciles an archive directory with remote repositories.
type Syncer struct {
	lister      Lister
	downloader  Downloader
	dir         string
	catalogPath string
	ext         string
	maxDepth    int
	logger      *slog.Logger
	remover     *platform.Remover
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithExtension sets the archive extension, e.g. ".zip".
func WithExtension(ext string) Option {
	return func(s *Syncer) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ext = ext
	}
}

// WithMaxDepth sets how deep remote directories are searched.
func WithMaxDepth(depth int) Option {
	return func(s *Syncer) { s.maxDepth = depth }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// NewSyncer creates a Syncer that keeps archives in dir and the catalog at
// catalogPath.
func NewSyncer(lister Lister, downloader Downloader, dir, catalogPath string, opts ...Option) *Syncer {
	s := &Syncer{
		lister:      lister,
		downloader:  downloader,
		dir:         dir,
		catalogPath: catalogPath,
		ext:         DefaultExtension,
		maxDepth:    DefaultMaxDepth,
		remover:     platform.NewRemover(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s
}

// ParseRepository extracts owner and name from the last two path segments
// of a repository URL.
func ParseRepository(repoURL string) (owner, name string, err error) {
	p := repoURL
	if u, perr := url.Parse(repoURL); perr == nil && u.Host != "" {
		p = u.Path
	}
	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	parts := strings.Split(p, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", errs.Configuration("parse repository", fmt.Sprintf("%q is not an owner/name repository URL", repoURL), nil)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// Sync lists every repository (sequentially, duplicates skipped), downloads
// archives that are new or changed, and persists the catalog. With force the
// archive directory and catalog are wiped first.
func (s *Syncer) Sync(ctx context.Context, repos []string, force bool) (*Result, error) {
	if force {
		s.logger.Info("forcing full template refresh", "dir", s.dir)
		if err := s.remover.RemoveAll(s.dir); err != nil {
			return nil, err
		}
		if err := os.Remove(s.catalogPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing catalog: %w", err)
		}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating templates directory: %w", err)
	}
	if !platform.Exists(s.catalogPath) {
		if err := Save(s.catalogPath, &Catalog{}); err != nil {
			return nil, err
		}
	}

	remote, err := s.listRemote(ctx, repos)
	if err != nil {
		return nil, err
	}

	local, err := Load(s.catalogPath)
	if err != nil {
		return nil, err
	}

	updates, _ := Diff(remote, local)
	result := &Result{RemoteCount: len(remote)}

	for _, entry := range updates {
		if err := s.download(ctx, entry); err != nil {
			return nil, err
		}
		if local.Upsert(entry) {
			result.NewCount++
			s.logger.Info("template added", "name", entry.Name, "repo", entry.Repo)
		} else {
			result.UpdatedCount++
			s.logger.Info("template updated", "name", entry.Name, "repo", entry.Repo)
		}
	}

	if err := Save(s.catalogPath, local); err != nil {
		return nil, err
	}

	_, result.Orphans = Diff(remote, local)
	result.LocalCount = len(local.Templates)
	return result, nil
}

// listRemote collects archive entries from every repository, first name
// wins across repositories.
func (s *Syncer) listRemote(ctx context.Context, repos []string) ([]Entry, error) {
	var out []Entry
	seenRepo := make(map[string]bool)
	seenName := make(map[string]bool)

	for _, repo := range repos {
		repo = strings.TrimSpace(repo)
		if repo == "" || seenRepo[repo] {
			continue
		}
		seenRepo[repo] = true

		owner, name, err := ParseRepository(repo)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("listing repository", "owner", owner, "name", name)

		entries, err := s.walk(ctx, repo, owner, name, "", 0)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if seenName[e.Name] {
				s.logger.Warn("template listed by more than one repository, keeping the first", "name", e.Name, "repo", e.Repo)
				continue
			}
			seenName[e.Name] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Syncer) walk(ctx context.Context, repoURL, owner, name, path string, depth int) ([]Entry, error) {
	contents, err := s.lister.ListContents(ctx, owner, name, path)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, c := range contents {
		switch {
		case c.Type == github.TypeDir:
			if depth >= s.maxDepth {
				continue
			}
			children, err := s.walk(ctx, repoURL, owner, name, c.Path, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		case strings.HasSuffix(strings.ToLower(c.Name), s.ext):
			out = append(out, Entry{Name: c.Name, SHA: c.SHA, URL: c.DownloadURL, Repo: repoURL})
		}
	}
	return out, nil
}

// download fetches entry into a temporary file and moves it over any
// existing archive of the same name.
func (s *Syncer) download(ctx context.Context, entry Entry) error {
	if entry.Name != filepath.Base(entry.Name) {
		return errs.DataIntegrity("sync", fmt.Sprintf("refusing archive name %q", entry.Name), nil)
	}
	if entry.URL == "" {
		return errs.Network("sync", "no download URL for "+entry.Name, nil)
	}

	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := s.downloader.Download(ctx, entry.URL, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing download file: %w", err)
	}

	if err := platform.MoveFile(tmpPath, filepath.Join(s.dir, entry.Name)); err != nil {
		return fmt.Errorf("installing %s: %w", entry.Name, err)
	}
	return nil
}
