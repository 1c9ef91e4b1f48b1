package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/modfetch/modfetch/internal/errs"
)

// DefaultBaseURL is the public Modrinth v2 API.
const DefaultBaseURL = "https://api.modrinth.com/v2"

const requestTimeout = 30 * time.Second

// Client talks to the Modrinth metadata API. It owns its http.Client unless
// one was injected, in which case Close leaves it alone.
type Client struct {
	baseURL    string
	httpClient *http.Client
	owned      bool

	fabricMetaURL string
	quiltMetaURL  string
	forgeMetaURL  string
	neoForgeURL   string
}

type Option func(*Client)

// WithBaseURL points the client at a different API root. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithHTTPClient injects a shared http.Client. The caller keeps ownership.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.owned = false
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: requestTimeout},
		owned:         true,
		fabricMetaURL: "https://meta.fabricmc.net/v2/versions/loader/%s",
		quiltMetaURL:  "https://meta.quiltmc.org/v3/versions/loader/%s",
		forgeMetaURL:  "https://files.minecraftforge.net/net/minecraftforge/forge/maven-metadata.json",
		neoForgeURL:   "https://bmclapi2.bangbang93.com/neoforge/list/%s",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close releases the owned http.Client's idle connections. Injected clients
// are the caller's responsibility.
func (c *Client) Close() {
	if c.owned {
		c.httpClient.CloseIdleConnections()
	}
}

// getJSON decodes a 200 response into out. A 404 is reported as found=false
// with a nil error; any other non-2xx status is an APIError.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) (bool, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decoding %s: %w", rawURL, err)
		}
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, &errs.APIError{StatusCode: resp.StatusCode, URL: rawURL}
	}
}

// GetProject resolves a project by opaque id or human slug. Absent (nil, nil)
// on 404.
func (c *Client) GetProject(ctx context.Context, identifier string) (*ProjectInfo, error) {
	var project ProjectInfo

	found, err := c.getJSON(ctx, fmt.Sprintf("%s/project/%s", c.baseURL, url.PathEscape(identifier)), nil, &project)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return &project, nil
}

// GetVersion queries a project's versions filtered by game version and
// loader and selects the best match: an exact id or version-number match when
// specific is set, otherwise the first result in API order (the API returns
// newest first). The returned file is the version's primary file.
// Absent (nil, nil, nil) when nothing matches.
func (c *Client) GetVersion(ctx context.Context, identifier, gameVersion string, loader Loader, specific string) (*VersionInfo, *FileInfo, error) {
	params := url.Values{}
	params.Set("game_versions", fmt.Sprintf(`["%s"]`, gameVersion))
	if loader != "" {
		params.Set("loaders", fmt.Sprintf(`["%s"]`, loader))
	}

	var versions []VersionInfo

	found, err := c.getJSON(ctx, fmt.Sprintf("%s/project/%s/version", c.baseURL, url.PathEscape(identifier)), params, &versions)
	if err != nil {
		return nil, nil, err
	}
	if !found || len(versions) == 0 {
		return nil, nil, nil
	}

	if specific != "" {
		for i := range versions {
			if versions[i].ID == specific || versions[i].VersionNumber == specific {
				return versionWithPrimary(&versions[i])
			}
		}
		return nil, nil, nil
	}

	return versionWithPrimary(&versions[0])
}

func versionWithPrimary(v *VersionInfo) (*VersionInfo, *FileInfo, error) {
	file, ok := v.PrimaryFile()
	if !ok {
		return nil, nil, nil
	}
	return v, file, nil
}
