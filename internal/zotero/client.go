// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero talks to a Zotero library through the Zotero Web API v3,
// either at api.zotero.org or at the local API served by the Zotero desktop
// client. It returns raw records; normalization happens elsewhere.
package zotero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/zotero-mcp/internal/httputil"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

const (
	// DefaultWebURL is the Zotero Web API root.
	DefaultWebURL = "https://api.zotero.org"
	// DefaultLocalURL is the local API root of the Zotero desktop client.
	DefaultLocalURL = "http://localhost:23119/api"

	apiVersion     = "3"
	apiKeyHeader   = "Zotero-API-Key"
	maxQueryLimit  = 100
	defaultTimeout = 30 * time.Second
	maxRedirects   = 10
)

// ErrNotFound is returned when the library has no record for a key.
var ErrNotFound = errors.New("not found")

// Library is the contract every backend fulfils.
type Library interface {
	// Query runs a full-text search ("everything" mode) and returns at most
	// limit items in the backend's relevance order.
	Query(ctx context.Context, limit int, query string) ([]types.RawItem, error)
	Item(ctx context.Context, key string) (types.RawItem, error)
	Collection(ctx context.Context, key string) (types.RawCollection, error)
	// File returns the raw bytes of an attachment's stored file.
	File(ctx context.Context, key string) ([]byte, error)
}

// Client is the HTTP backend. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	prefix     string // API root plus /users/{id} or /groups/{id}
	apiKey     string
	userAgent  string
	maxRetries int
	log        *logrus.Entry
}

// NewClient builds a Client for web or local mode from cfg.
func NewClient(cfg types.LibraryConfig, log *logrus.Entry) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		switch cfg.Mode {
		case types.ModeWeb:
			base = DefaultWebURL
		case types.ModeLocal:
			base = DefaultLocalURL
		default:
			return nil, fmt.Errorf("HTTP client does not support library mode %q", cfg.Mode)
		}
	}

	var segment string
	switch cfg.Type {
	case types.LibraryUser, "":
		segment = "users"
	case types.LibraryGroup:
		segment = "groups"
	default:
		return nil, fmt.Errorf("unknown library type %q", cfg.Type)
	}
	if cfg.ID == "" {
		return nil, fmt.Errorf("library id is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		http: &http.Client{
			Timeout:       timeout,
			CheckRedirect: stopAtFileRedirect,
		},
		prefix:     fmt.Sprintf("%s/%s/%s", base, segment, url.PathEscape(cfg.ID)),
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		log:        log.WithField("backend", string(cfg.Mode)),
	}, nil
}

// stopAtFileRedirect hands file:// redirects (local API attachments) back to
// the caller instead of letting net/http fail on the scheme. The API key is
// dropped when a redirect leaves the API host; net/http only strips its own
// credential headers.
func stopAtFileRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme == "file" {
		return http.ErrUseLastResponse
	}
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if len(via) > 0 && req.URL.Host != via[0].URL.Host {
		req.Header.Del(apiKeyHeader)
	}
	return nil
}

// Query searches the library. The limit is clamped to 1..100, the API maximum.
func (c *Client) Query(ctx context.Context, limit int, query string) ([]types.RawItem, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	params := url.Values{
		"q":      {query},
		"qmode":  {"everything"},
		"limit":  {strconv.Itoa(limit)},
		"format": {"json"},
	}

	var items []types.RawItem
	if err := c.getJSON(ctx, "/items", params, &items); err != nil {
		return nil, fmt.Errorf("searching library: %w", err)
	}

	suffix := ""
	if len(items) == 0 {
		suffix = " - no items match the search query"
	}
	c.log.WithField("query", query).Infof("Search results: %d item(s) found%s", len(items), suffix)
	return items, nil
}

// Item fetches one item by key.
func (c *Client) Item(ctx context.Context, key string) (types.RawItem, error) {
	var item types.RawItem
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(key), url.Values{"format": {"json"}}, &item); err != nil {
		return types.RawItem{}, fmt.Errorf("fetching item %s: %w", key, err)
	}
	return item, nil
}

// Collection fetches one collection by key.
func (c *Client) Collection(ctx context.Context, key string) (types.RawCollection, error) {
	var col types.RawCollection
	if err := c.getJSON(ctx, "/collections/"+url.PathEscape(key), url.Values{"format": {"json"}}, &col); err != nil {
		return types.RawCollection{}, fmt.Errorf("fetching collection %s: %w", key, err)
	}
	return col, nil
}

// File downloads an attachment's file. The web API redirects to storage;
// the local API redirects to a file:// URL which is read from disk.
func (c *Client) File(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.get(ctx, "/items/"+url.PathEscape(key)+"/file", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching file for %s: %w", key, err)
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		loc, err := resp.Location()
		if err != nil {
			return nil, fmt.Errorf("fetching file for %s: redirect without location: %w", key, err)
		}
		if loc.Scheme != "file" {
			return nil, fmt.Errorf("fetching file for %s: unexpected redirect to %s", key, loc)
		}
		c.log.WithField("item", key).Debugf("reading attachment from %s", loc.Path)
		data, err := os.ReadFile(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %s: %w", key, err)
		}
		return data, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching file for %s: Zotero API returned HTTP %d", key, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading file for %s: %w", key, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	resp, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Zotero API returned HTTP %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing Zotero response for %s: %w", path, err)
	}
	return nil
}

// get performs a GET with the API headers and retry policy. A 404 becomes
// ErrNotFound; every other status is left to the caller.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.prefix + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.log.WithField("path", path).Debug("Zotero API request")
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("Zotero API request: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return resp, nil
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}
