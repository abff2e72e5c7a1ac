package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
)

// Content types reported by the contents API.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// Content is one entry of a repository directory listing.
type Content struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// ListContents lists the directory at path in owner/repo. An empty path
// lists the repository root.
func (c *Client) ListContents(ctx context.Context, owner, repo, path string) ([]Content, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(c.newRequest(req))
	if err != nil {
		return nil, errs.Network("list contents", fmt.Sprintf("listing %s/%s", owner, repo), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list contents", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Network("list contents", "reading response body", err)
	}

	// A path naming a file yields a single object rather than an array.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Content
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, errs.Network("list contents", "parsing contents JSON", err)
		}
		return []Content{single}, nil
	}

	var entries []Content
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, errs.Network("list contents", "parsing contents JSON", err)
	}
	return entries, nil
}

func escapePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
