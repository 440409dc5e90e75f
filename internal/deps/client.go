// Package deps downloads project dependencies from their source forges
// and keeps build/packages in sync with the manifest via a lockfile.
package deps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"aiken/internal/config"
)

// Client downloads source archives from the supported forges.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	forgeBase  map[config.Platform]string
}

// Option configures the Client during construction.
type Option func(*Client)

// NewClient creates a download client with the public forge endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		forgeBase: map[config.Platform]string{
			config.GitHub:    "https://github.com",
			config.GitLab:    "https://gitlab.com",
			config.Bitbucket: "https://bitbucket.org",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithForgeBase overrides one forge's base URL, used by tests to point
// at a local server.
func WithForgeBase(p config.Platform, base string) Option {
	return func(c *Client) { c.forgeBase[p] = base }
}

// archiveURL builds the tar.gz endpoint for a dependency ref. The ref
// may be a tag, a branch name or a commit hash; the forges accept all
// three on these endpoints.
func (c *Client) archiveURL(name config.PackageName, version string, source config.Platform) (string, error) {
	base, ok := c.forgeBase[source]
	if !ok {
		return "", fmt.Errorf("deps: unknown source %q", source)
	}
	switch source {
	case config.GitHub:
		return fmt.Sprintf("%s/%s/%s/archive/%s.tar.gz", base, name.Owner, name.Repo, version), nil
	case config.GitLab:
		return fmt.Sprintf("%s/%s/%s/-/archive/%s/%s-%s.tar.gz", base, name.Owner, name.Repo, version, name.Repo, version), nil
	case config.Bitbucket:
		return fmt.Sprintf("%s/%s/%s/get/%s.tar.gz", base, name.Owner, name.Repo, version), nil
	}
	return "", fmt.Errorf("deps: unknown source %q", source)
}

// Download fetches a dependency archive. When etag is non-empty it is
// sent as If-None-Match; a 304 response returns notModified=true with no
// data.
func (c *Client) Download(ctx context.Context, dep config.Dependency, etag string) (data []byte, newETag string, notModified bool, err error) {
	name, err := config.ParseName(dep.Name)
	if err != nil {
		return nil, "", false, err
	}
	url, err := c.archiveURL(name, dep.Version, dep.Source)
	if err != nil {
		return nil, "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("deps: create request for %s: %w", dep.Name, err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	c.logger.InfoContext(ctx, "downloading package", "package", dep.Name, "version", dep.Version, "source", string(dep.Source))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", false, fmt.Errorf("deps: download %s: %w", dep.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, etag, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", false, fmt.Errorf("deps: download %s@%s: unexpected status %s", dep.Name, dep.Version, resp.Status)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", false, fmt.Errorf("deps: read archive of %s: %w", dep.Name, err)
	}
	return data, resp.Header.Get("ETag"), false, nil
}
