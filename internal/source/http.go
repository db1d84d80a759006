package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	appLog "icsync/internal/log"
)

// cacheEntry holds the HTTP cache metadata for one export URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HTTP fetches the export from a URL with conditional requests
// (ETag / Last-Modified) backed by a disk cache. On a network error or a
// non-2xx response the cached body, if any, is served instead so that a
// flaky export host does not stall the sync.
type HTTP struct {
	url      string
	cacheDir string
	client   *resty.Client
}

// NewHTTP creates an HTTP source for the given export URL. cacheDir is
// where the cached body and metadata live; empty falls back to a relative
// directory for development runs.
func NewHTTP(url, cacheDir string) *HTTP {
	if cacheDir == "" {
		cacheDir = "./var/cache"
	}
	return &HTTP{
		url:      url,
		cacheDir: cacheDir,
		client:   resty.New().SetTimeout(15 * time.Second),
	}
}

func (h *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	if h.url == "" {
		return nil, errors.New("source URL is empty")
	}

	cachePath := h.cachePath()
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, err
	}

	meta, _ := loadMeta(cachePath)
	cached, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))

	req := h.client.R().SetContext(ctx)
	if meta.ETag != "" {
		req.SetHeader("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.SetHeader("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("source fetch start", "url", redactURL(h.url))

	resp, err := req.Get(h.url)
	if err != nil {
		if len(cached) > 0 {
			appLog.Error("source fetch failed, using cached body", err, "url", redactURL(h.url))
			return cached, nil
		}
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		body := resp.Body()
		newMeta := cacheEntry{
			URL:          h.url,
			ETag:         resp.Header().Get("ETag"),
			LastModified: resp.Header().Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("source cache save failed", err, "url", redactURL(h.url))
		}
		appLog.Info("source fetch success", "url", redactURL(h.url), "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return nil, errors.New("304 Not Modified but no cached body available")
		}
		appLog.Info("source not modified, using cache", "url", redactURL(h.url))
		return cached, nil

	default:
		if len(cached) > 0 {
			appLog.Error("source fetch non-OK, using cached body",
				errors.New(resp.Status()), "url", redactURL(h.url), "status", resp.StatusCode())
			return cached, nil
		}
		return nil, errors.New(resp.Status())
	}
}

func (h *HTTP) cachePath() string {
	sum := sha256.Sum256([]byte(h.url))
	return filepath.Join(h.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides everything past the host so that private export URLs
// (which often embed tokens in the path) never reach the logs.
func redactURL(u string) string {
	const redacted = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redacted
}
