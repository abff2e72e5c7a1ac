package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
)

// NewRepository describes a repository to create.
type NewRepository struct {
	// Owner is a user or organization; empty means the authenticated user.
	Owner           string
	Name            string
	Description     string
	LicenseTemplate string
	Private         bool
}

// Repository is the subset of a repository resource the pipelines use.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	CloneURL string `json:"clone_url"`
	HTMLURL  string `json:"html_url"`
	Private  bool   `json:"private"`
}

type createRepoRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Private         bool   `json:"private"`
	AutoInit        bool   `json:"auto_init"`
	LicenseTemplate string `json:"license_template,omitempty"`
}

// AuthenticatedUser returns the login the token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(c.newRequest(req))
	if err != nil {
		return "", errs.Network("get user", "fetching authenticated user", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("get user", resp)
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", errs.Network("get user", "parsing user JSON", err)
	}
	return user.Login, nil
}

// CreateRepository creates an empty repository (no initial commit). When
// Owner differs from the authenticated user it is treated as an
// organization.
func (c *Client) CreateRepository(ctx context.Context, r NewRepository) (*Repository, error) {
	if c.token == "" {
		return nil, errs.Configuration("create repository", "an access token is required to create repositories", nil)
	}

	endpoint := c.baseURL + "/user/repos"
	if r.Owner != "" {
		login, err := c.AuthenticatedUser(ctx)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(login, r.Owner) {
			endpoint = fmt.Sprintf("%s/orgs/%s/repos", c.baseURL, url.PathEscape(r.Owner))
		}
	}

	payload, err := json.Marshal(createRepoRequest{
		Name:            r.Name,
		Description:     r.Description,
		Private:         r.Private,
		AutoInit:        false,
		LicenseTemplate: r.LicenseTemplate,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling repository request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(c.newRequest(req))
	if err != nil {
		return nil, errs.Network("create repository", "creating "+r.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError("create repository", resp)
	}

	var repo Repository
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return nil, errs.Network("create repository", "parsing repository JSON", err)
	}
	return &repo, nil
}
