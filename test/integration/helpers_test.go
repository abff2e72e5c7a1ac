//go:build integration

package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/templater-labs/templater/internal/config"
	"github.com/templater-labs/templater/internal/github"
)

// testEnv holds an isolated core directory and the settings pointing at a
// local hosting server.
type testEnv struct {
	Paths    config.Paths
	Settings *config.Settings
	Server   *hostServer
}

// setupTestEnv creates an isolated core directory and a fake hosting
// service with one template repository, acme/templates.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("TEMPLATER_HOME", home)
	paths := config.NewPaths(home)
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("creating core directories: %v", err)
	}

	srv := newHostServer(t)
	settings := config.Default()
	settings.GitWebPath = srv.URL + "/"
	settings.GitAPIURL = srv.URL
	settings.TemplateRepositories = []string{srv.URL + "/acme/templates"}
	if err := config.Save(paths.SettingsFile, settings); err != nil {
		t.Fatalf("saving settings: %v", err)
	}

	return &testEnv{Paths: paths, Settings: settings, Server: srv}
}

// hostServer answers the contents API for acme/templates and serves raw
// downloads from memory.
type hostServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string][]byte
	shas  map[string]string
}

func newHostServer(t *testing.T) *hostServer {
	t.Helper()
	h := &hostServer{files: map[string][]byte{}, shas: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/templates/contents/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/repos/acme/templates/contents/") != "" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("[]"))
			return
		}
		h.mu.Lock()
		names := make([]string, 0, len(h.files))
		for name := range h.files {
			names = append(names, name)
		}
		sort.Strings(names)
		listing := make([]github.Content, 0, len(names))
		for _, name := range names {
			listing = append(listing, github.Content{
				Name:        name,
				Path:        name,
				SHA:         h.shas[name],
				Size:        int64(len(h.files[name])),
				Type:        github.TypeFile,
				DownloadURL: h.URL + "/raw/" + name,
			})
		}
		h.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listing)
	})
	mux.HandleFunc("/raw/", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		data, ok := h.files[strings.TrimPrefix(r.URL.Path, "/raw/")]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})

	h.Server = httptest.NewServer(mux)
	t.Cleanup(h.Close)
	return h
}

// publish offers the archive at path under name with the given SHA.
func (h *hostServer) publish(t *testing.T, name, sha, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[name] = data
	h.shas[name] = sha
}

// writeTree creates files under root from slash paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist (err=%v)", path, err)
	}
}
