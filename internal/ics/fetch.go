package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "schedcheck/internal/log"
)

// FetchResult is a calendar body fetched from a URL.
type FetchResult struct {
	URL       string
	Body      []byte
	FromCache bool // body reused after 304 or a failed request
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `yaml:"url"`
	ETag         string    `yaml:"etag,omitempty"`
	LastModified string    `yaml:"last_modified,omitempty"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// Fetcher downloads calendars with conditional requests and keeps the last
// good body on disk.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir. client may be nil.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// IsURL reports whether src names an http(s) calendar rather than a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch gets url, honoring ETag and Last-Modified. When the server is
// unreachable or answers non-OK the cached body is returned if there is one.
func (f *Fetcher) Fetch(ctx context.Context, url string) (FetchResult, error) {
	if url == "" {
		return FetchResult{}, errors.New("ics fetch: empty url")
	}

	cachePath := f.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cached, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))
	fallback := func(err error) (FetchResult, error) {
		if len(cached) == 0 {
			return FetchResult{}, err
		}
		appLog.Warn("ics fetch failed, using cached body", "url", redactURL(url), "err", err.Error())
		return FetchResult{URL: url, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		next := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, next, body); err != nil {
			appLog.Error("ics cache save failed", err, "url", redactURL(url))
		}
		appLog.Debug("ics fetched", "url", redactURL(url), "bytes", len(body))
		return FetchResult{URL: url, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, errors.New("ics fetch: 304 Not Modified without a cached body")
		}
		return FetchResult{URL: url, Body: cached, FromCache: true}, nil

	default:
		return fallback(errors.New(resp.Status))
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.yaml"))
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

// saveCache writes the body before the metadata so meta never points at a
// missing body.
func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.yaml"), data, 0o600)
}

// redactURL keeps scheme and host only; calendar URLs often embed tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
