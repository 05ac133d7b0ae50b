// Package source downloads remote spreadsheet exports with HTTP caching.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "sched2ics/internal/log"
)

const (
	defaultCacheDir = "./var/source-cache"
	maxExportBytes  = 32 << 20

	metaFile = "meta.json"
	bodyFile = "export.bin"
)

// Source is one remote export.
type Source struct {
	ID   string
	Name string
	URL  string
}

// Result is the outcome of fetching a single source.
type Result struct {
	Source Source
	Body   []byte
	// FileName is the last path segment of the URL, used to pick the reader.
	FileName    string
	ContentType string
	// FromCache is set when the body came from disk (304 or fetch failure).
	FromCache bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads exports, honoring ETag / Last-Modified and keeping the
// last good body on disk under one directory per URL.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher. A nil client gets a 30s timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// FetchAll fetches every source. Results hold the sources that produced a
// body; the joined error lists the rest.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]Result, error) {
	results := make([]Result, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// FetchOne fetches a single source. Network errors and non-OK statuses fall
// back to the cached body when one exists.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (Result, error) {
	if src.URL == "" {
		return Result{}, errors.New("source URL is empty")
	}

	dir := f.cachePath(src.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Result{}, err
	}

	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, bodyFile))

	fromCache := func() Result {
		return Result{
			Source:      src,
			Body:        cached,
			FileName:    fileName(src.URL),
			ContentType: meta.ContentType,
			FromCache:   true,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Result{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("source fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cached) > 0 {
			appLog.Error("source fetch failed, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
			return fromCache(), nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes+1))
		if err != nil {
			return Result{}, err
		}
		if len(body) > maxExportBytes {
			return Result{}, fmt.Errorf("export larger than %d bytes", maxExportBytes)
		}

		next := cacheMeta{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			ContentType:  resp.Header.Get("Content-Type"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("source cache save failed", err, "id", src.ID)
		}

		appLog.Info("source fetched", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return Result{
			Source:      src,
			Body:        body,
			FileName:    fileName(src.URL),
			ContentType: next.ContentType,
		}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return Result{}, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("source not modified", "id", src.ID)
		return fromCache(), nil

	default:
		if len(cached) > 0 {
			appLog.Error("source fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "status", resp.StatusCode)
			return fromCache(), nil
		}
		return Result{}, errors.New(resp.Status)
	}
}

// cachePath keys the cache directory by the first 8 bytes of the URL hash.
func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

// saveCache writes the body before the metadata so meta never points at a
// missing body.
func saveCache(dir string, meta cacheMeta, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, bodyFile), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFile), data, 0o600)
}

func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return filepath.Base(u.Path)
}

// redactURL keeps only scheme and host, since export links often embed
// access tokens.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
