package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/logging"
	"github.com/templater-labs/templater/internal/platform"
)

// Client performs repository operations.
type Client struct {
	token  string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates clones with an access token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Init creates an empty repository at path, creating the directory if
// needed.
func (c *Client) Init(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating repository directory: %w", err)
	}
	if _, err := git.PlainInit(path, false); err != nil {
		return fmt.Errorf("initializing repository at %s: %w", path, err)
	}
	c.logger.Debug("initialized repository", "path", path)
	return nil
}

// Clone clones url into dest. A freshly created remote has no commits to
// clone; in that case dest is initialized locally with origin pointing at
// url.
func (c *Client) Clone(ctx context.Context, url, dest string) error {
	opts := &git.CloneOptions{URL: url}
	if c.token != "" {
		opts.Auth = &http.BasicAuth{
			Username: "x-access-token",
			Password: c.token,
		}
	}

	// A failed clone only removes dest when this call created it.
	existed := platform.Exists(dest)
	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		c.logger.Debug("remote is empty, initializing locally", "url", url)
		return c.initWithOrigin(dest, url, existed)
	}
	if err != nil {
		if !existed {
			_ = os.RemoveAll(dest)
		}
		return errs.Network("clone repository", "cloning "+url, err).WithPath(dest)
	}
	c.logger.Debug("cloned repository", "url", url, "path", dest)
	return nil
}

func (c *Client) initWithOrigin(dest, url string, existed bool) error {
	if !existed {
		_ = os.RemoveAll(dest)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating repository directory: %w", err)
	}
	repo, err := git.PlainInit(dest, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(dest)
	}
	if err != nil {
		return fmt.Errorf("initializing repository at %s: %w", dest, err)
	}
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: git.DefaultRemoteName, URLs: []string{url}})
	if err != nil && !errors.Is(err, git.ErrRemoteExists) {
		return fmt.Errorf("adding origin remote: %w", err)
	}
	return nil
}
