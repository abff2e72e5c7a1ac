package github

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
)

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// statusError classifies a non-success response.
func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	cause := &StatusError{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Body:       strings.TrimSpace(string(body)),
	}

	var msg string
	switch resp.StatusCode {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusUnauthorized:
		msg = "authentication failed; check the configured access token"
	case http.StatusForbidden:
		msg = "access denied or API rate limit exceeded; configure an access token for higher limits"
	case http.StatusUnprocessableEntity:
		msg = "request rejected"
	default:
		msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return errs.Network(op, msg, cause)
}
