// Package catalogfile loads the static JSON files produced by the offline
// cataloging tool: the collection itself plus the optional NSFW and
// country-fallback lookup tables.
package catalogfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
)

// File names inside the catalog output directory.
const (
	CollectionFile      = "collection.json"
	NSFWFile            = "nsfw.json"
	CountryFallbackFile = "no-country.json"
)

// DefaultTimeout bounds HTTP fetches of catalog files.
const DefaultTimeout = 10 * time.Second

// ErrLoadFailed marks a failed collection load. The album view cannot render
// without a catalog, so callers treat this as fatal to the view.
var ErrLoadFailed = errors.New("catalog load failed")

// errMissing marks an absent optional resource.
var errMissing = errors.New("resource missing")

// Loader reads catalog files from a local directory or an HTTP base URL.
// Both sources behave identically to consumers.
type Loader struct {
	source     string
	httpClient *http.Client
}

// Option is a functional option for configuring the loader.
type Option func(*Loader)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = client
	}
}

// NewLoader creates a loader for the given source: an http(s) base URL or a
// local directory path.
func NewLoader(source string, opts ...Option) *Loader {
	l := &Loader{
		source: source,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadCollection loads and decodes the album collection. Any failure is
// wrapped in ErrLoadFailed; there is no retry here.
func (l *Loader) LoadCollection(ctx context.Context) ([]catalog.Album, error) {
	data, err := l.read(ctx, CollectionFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, CollectionFile, err)
	}

	var albums []catalog.Album
	if err := json.Unmarshal(data, &albums); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, CollectionFile, err)
	}
	return albums, nil
}

// LoadNSFWList loads the NSFW membership table. Absence of the file is not
// an error: the gallery just has nothing to blur.
func (l *Loader) LoadNSFWList(ctx context.Context) []catalog.KeyedEntry {
	return l.loadOptional(ctx, NSFWFile)
}

// LoadCountryFallback loads the country back-fill table for albums whose
// catalog record carries no country.
func (l *Loader) LoadCountryFallback(ctx context.Context) []catalog.KeyedEntry {
	return l.loadOptional(ctx, CountryFallbackFile)
}

func (l *Loader) loadOptional(ctx context.Context, name string) []catalog.KeyedEntry {
	data, err := l.read(ctx, name)
	if err != nil {
		if errors.Is(err, errMissing) {
			log.Warn().Str("file", name).Msg("Optional catalog file missing, treating as empty")
		} else {
			log.Warn().Err(err).Str("file", name).Msg("Optional catalog file unreadable, treating as empty")
		}
		return nil
	}

	var entries []catalog.KeyedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Optional catalog file malformed, treating as empty")
		return nil
	}
	return entries
}

func (l *Loader) read(ctx context.Context, name string) ([]byte, error) {
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		return l.readHTTP(ctx, name)
	}
	data, err := os.ReadFile(filepath.Join(l.source, name))
	if os.IsNotExist(err) {
		return nil, errMissing
	}
	return data, err
}

func (l *Loader) readHTTP(ctx context.Context, name string) ([]byte, error) {
	fileURL := strings.TrimSuffix(l.source, "/") + "/" + path.Clean(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errMissing
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
