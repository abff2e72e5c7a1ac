package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/templater-labs/templater/internal/errs"
)

// FileName is the default name of the local catalog file.
const FileName = "template_cache.json"

// Entry is one archive known to the catalog.
type Entry struct {
	Name string `json:"Name"`
	SHA  string `json:"SHA"`
	URL  string `json:"Url"`
	Repo string `json:"Repo"`
}

// Catalog is the persisted list of downloaded archives.
type Catalog struct {
	Templates []Entry `json:"Templates"`
}

// Lookup returns the entry called name.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	for i := range c.Templates {
		if c.Templates[i].Name == name {
			return &c.Templates[i], true
		}
	}
	return nil, false
}

// Upsert inserts e, or replaces the hash, URL and origin of the existing
// entry with the same name. It reports whether the entry was added.
func (c *Catalog) Upsert(e Entry) bool {
	if existing, ok := c.Lookup(e.Name); ok {
		existing.SHA = e.SHA
		existing.URL = e.URL
		existing.Repo = e.Repo
		return false
	}
	c.Templates = append(c.Templates, e)
	return true
}

// Names returns the entry names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.Templates))
	for _, e := range c.Templates {
		out = append(out, e.Name)
	}
	return out
}

// Load reads the catalog at path. A missing or empty file (or one holding
// JSON null) yields an empty catalog; malformed JSON is a data integrity
// error so that a corrupt cache is never silently discarded.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &Catalog{}, nil
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errs.DataIntegrity("load catalog", "template catalog is corrupt; run update-templates --force to rebuild it", err).WithPath(path)
	}
	return &c, nil
}

// Save writes c to path, creating parent directories as needed.
func Save(path string, c *Catalog) error {
	if c.Templates == nil {
		c = &Catalog{Templates: []Entry{}}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

// Diff compares a remote listing with the local catalog. Updates are remote
// entries that are new or whose hash changed, in remote order; orphans are
// local names absent from the remote listing, in local order.
func Diff(remote []Entry, local *Catalog) (updates []Entry, orphans []string) {
	localByName := make(map[string]string, len(local.Templates))
	for _, e := range local.Templates {
		localByName[e.Name] = e.SHA
	}
	remoteNames := make(map[string]bool, len(remote))

	for _, r := range remote {
		remoteNames[r.Name] = true
		if sha, ok := localByName[r.Name]; !ok || sha != r.SHA {
			updates = append(updates, r)
		}
	}
	for _, l := range local.Templates {
		if !remoteNames[l.Name] {
			orphans = append(orphans, l.Name)
		}
	}
	return updates, orphans
}
