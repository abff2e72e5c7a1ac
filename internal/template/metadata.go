package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/templater-labs/templater/internal/archive"
	"github.com/templater-labs/templater/internal/errs"
)

// Parse validates and decodes template metadata.
func Parse(data []byte) (*Template, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, errs.Configuration("read template metadata", "malformed "+InfoFileName, err)
	}
	if !result.Valid {
		return nil, errs.Configuration("read template metadata", "invalid "+InfoFileName+": "+result.Summary(), nil)
	}

	var doc struct {
		Template
		LegacyGuidCount int `json:"GuidsCount"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Configuration("read template metadata", "decoding "+InfoFileName, err)
	}
	t := doc.Template
	if t.GuidCount == 0 && doc.LegacyGuidCount > 0 {
		t.GuidCount = doc.LegacyGuidCount
	}
	return &t, nil
}

// LoadFile reads metadata from a template_info.json file.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Configuration("read template metadata", "template metadata not found", err).WithPath(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, e.WithPath(path)
		}
		return nil, err
	}
	return t, nil
}

// LoadDir reads the metadata at the root of a source tree.
func LoadDir(dir string) (*Template, error) {
	return LoadFile(filepath.Join(dir, InfoFileName))
}

// LoadArchive reads the metadata embedded in a packaged template and records
// the archive path on the result.
func LoadArchive(path string) (*Template, error) {
	data, err := archive.ReadFile(path, InfoFileName)
	if errors.Is(err, archive.ErrNotFound) {
		return nil, errs.Configuration("read template archive", "archive has no "+InfoFileName, err).WithPath(path)
	}
	if err != nil {
		return nil, errs.DataIntegrity("read template archive", "unreadable archive", err).WithPath(path)
	}
	t, err := Parse(data)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, e.WithPath(path)
		}
		return nil, err
	}
	t.FilePath = path
	return t, nil
}

// Save writes t as indented JSON.
func (t *Template) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling template metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
