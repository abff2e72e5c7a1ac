package identifiers

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
	"github.com/templater-labs/templater/internal/logging"
)

const (
	// Width is the number of digits in a placeholder index.
	Width = 9
	// PlaceholderPrefix starts every placeholder.
	PlaceholderPrefix = "GUID"
)

// ErrDuplicateIdentifier is returned by a strict Remapper when the same
// identifier is declared twice.
var ErrDuplicateIdentifier = errors.New("duplicate identifier")

// Placeholder returns the placeholder for index i, e.g. GUID000000007.
func Placeholder(i int) string {
	return fmt.Sprintf("%s%0*d", PlaceholderPrefix, Width, i)
}

// Mapping is one identifier and its placeholder.
type Mapping struct {
	Raw         string
	Placeholder string
}

// Map is an ordered identifier → placeholder mapping.
type Map struct {
	entries []Mapping
	index   map[string]int
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Len returns the number of distinct identifiers.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the mappings in assignment order.
func (m *Map) Entries() []Mapping {
	out := make([]Mapping, len(m.entries))
	copy(out, m.entries)
	return out
}

// Lookup returns the placeholder assigned to raw.
func (m *Map) Lookup(raw string) (string, bool) {
	i, ok := m.index[raw]
	if !ok {
		return "", false
	}
	return m.entries[i].Placeholder, true
}

// add assigns the next placeholder to raw. It reports false when raw was
// already present.
func (m *Map) add(raw string) (string, bool) {
	if i, ok := m.index[raw]; ok {
		return m.entries[i].Placeholder, false
	}
	p := Placeholder(len(m.entries))
	m.index[raw] = len(m.entries)
	m.entries = append(m.entries, Mapping{Raw: raw, Placeholder: p})
	return p, true
}

// Remapper scans descriptor files for identifiers.
type Remapper struct {
	// Extension selects descriptor files, e.g. ".sln".
	Extension string
	// Prefix marks declaration lines; matched case-insensitively.
	Prefix string
	// Strict makes a repeated identifier an error instead of reusing its
	// placeholder.
	Strict bool
	// Logger receives debug output; nil discards it.
	Logger *slog.Logger
}

// NewDotSln returns a Remapper for Visual Studio solution files.
func NewDotSln() *Remapper {
	return &Remapper{Extension: ".sln", Prefix: "Project("}
}

// Scan walks root and returns the identifier map.
func (r *Remapper) Scan(root string) (*Map, error) {
	m := NewMap()
	if err := r.scanDir(root, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Remapper) scanDir(dir string, m *Map) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), r.Extension) {
			continue
		}
		if err := r.scanFile(path, m); err != nil {
			return err
		}
	}

	for _, sub := range subdirs {
		if err := r.scanDir(sub, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *Remapper) scanFile(path string, m *Map) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	log := logging.OrDiscard(r.Logger)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw, ok := r.ExtractLine(sc.Text())
		if !ok {
			continue
		}
		placeholder, added := m.add(raw)
		if added {
			continue
		}
		if r.Strict {
			return errs.DataIntegrity("scan identifiers",
				fmt.Sprintf("identifier %s declared again at line %d", raw, lineNo),
				ErrDuplicateIdentifier).WithPath(path)
		}
		log.Debug("identifier declared again, reusing placeholder",
			"identifier", raw, "placeholder", placeholder, "file", path, "line", lineNo)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// ExtractLine returns the identifier declared on line, if any.
func (r *Remapper) ExtractLine(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if len(line) < len(r.Prefix) || !strings.EqualFold(line[:len(r.Prefix)], r.Prefix) {
		return "", false
	}
	fields := strings.Split(line, ",")
	last := fields[len(fields)-1]
	// Wrapper is ` "{` before and `}"` after the identifier.
	if len(last) < 5 {
		return "", false
	}
	return last[3 : len(last)-2], true
}
