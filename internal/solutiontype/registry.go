package solutiontype

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/generator"
	"github.com/templater-labs/templater/internal/template"
)

// ErrUnsupportedType is wrapped by the validation error returned for an
// unknown or undetectable solution type.
var ErrUnsupportedType = errors.New("unsupported solution type")

// PrepareOptions describe one packaging run.
type PrepareOptions struct {
	SourceDir    string
	OutputDir    string
	Template     *template.Template
	SkipCleaning bool
}

// PrepareResult reports a finished packaging run.
type PrepareResult struct {
	ArchivePath    string
	WorkDir        string
	Elapsed        time.Duration
	GuidCount      int
	FilesRewritten int
}

// Backend packages and generates one kind of solution.
type Backend interface {
	Name() string
	Description() string
	CanHandle(dir string) bool
	Prepare(ctx context.Context, opts PrepareOptions) (*PrepareResult, error)
	Generate(ctx context.Context, g *generator.Generator, opts generator.Options) (*generator.Result, error)
}

// Registry maps type names to backends. Detection tries backends in
// registration order.
type Registry struct {
	backends map[string]Backend
	order    []string
}

// NewRegistry returns a registry holding backends.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds b, replacing any backend with the same name.
func (r *Registry) Register(b Backend) {
	key := strings.ToLower(b.Name())
	if _, ok := r.backends[key]; !ok {
		r.order = append(r.order, key)
	}
	r.backends[key] = b
}

// Get returns the backend called name, case-insensitively.
func (r *Registry) Get(name string) (Backend, error) {
	if b, ok := r.backends[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b, nil
	}
	return nil, errs.Validation("solution type",
		fmt.Sprintf("%q is not supported (supported: %s)", name, strings.Join(r.Names(), ", ")),
		ErrUnsupportedType)
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	return names
}

// Backends returns the backends in registration order.
func (r *Registry) Backends() []Backend {
	out := make([]Backend, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.backends[key])
	}
	return out
}

// Detect returns the first backend that can handle dir.
func (r *Registry) Detect(dir string) (Backend, error) {
	for _, key := range r.order {
		if b := r.backends[key]; b.CanHandle(dir) {
			return b, nil
		}
	}
	return nil, errs.Validation("solution type", "no solution type recognizes the source directory", ErrUnsupportedType).WithPath(dir)
}
