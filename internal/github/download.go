package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/templater-labs/templater/internal/errs"
)

// Download streams the body at rawURL into w and returns the number of bytes
// written. Progress is reported when the client was built WithProgress.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errs.Network("download", "downloading "+rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError("download", resp)
	}

	name := path.Base(req.URL.Path)
	total := resp.ContentLength
	var downloaded int64
	lastPercent := -1

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return downloaded, fmt.Errorf("writing download: %w", writeErr)
			}
			downloaded += int64(n)
			if c.progress != nil && total > 0 {
				percent := int(downloaded * 100 / total)
				if percent != lastPercent {
					fmt.Fprintf(c.progress, "\rDownloading %s... %d%%", name, percent)
					lastPercent = percent
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return downloaded, errs.Network("download", "reading download stream", readErr)
		}
	}
	if c.progress != nil && total > 0 {
		fmt.Fprintln(c.progress)
	}

	return downloaded, nil
}
