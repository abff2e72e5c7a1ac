package github

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultAPIURL is the REST root of github.com.
	DefaultAPIURL = "https://api.github.com"

	userAgent = "templater"
)

// Client talks to the GitHub REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	progress   io.Writer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL sets the API root, e.g. an httptest server or an Enterprise
// endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithToken authenticates every request with a personal access token.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithProgress reports download progress to w.
func WithProgress(w io.Writer) Option {
	return func(cl *Client) {
		cl.progress = w
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// APIURLFromWeb derives the REST root from the web root of a git host:
// github.com maps to api.github.com, anything else to <host>/api/v3.
func APIURLFromWeb(webPath string) string {
	u, err := url.Parse(strings.TrimSpace(webPath))
	if err != nil || u.Host == "" {
		return DefaultAPIURL
	}
	host := strings.ToLower(u.Host)
	if host == "github.com" || host == "www.github.com" {
		return DefaultAPIURL
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + "/api/v3"
}

func (c *Client) newRequest(req *http.Request) *http.Request {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	return req
}
