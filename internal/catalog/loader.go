package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"techtrack/internal/domain"
	"techtrack/internal/logger"
)

// maxCatalogBytes caps how much of a catalog response is read.
const maxCatalogBytes = 10 << 20

// Loader fetches the immutable base catalog once per session.
//
// The source is either an HTTP URL returning JSON or a local JSON/YAML
// file. Any failure degrades to the built-in fallback catalog: the
// tracker must always have a non-empty, well-formed catalog to reconcile
// against. There is no automatic retry; a new session re-attempts.
type Loader struct {
	url    string
	file   string
	client *http.Client
	mapper *Mapper
	log    logger.Logger
}

// NewLoader creates a catalog loader. url takes precedence over file;
// with neither set, Load returns the fallback catalog directly.
func NewLoader(url, file string, timeout time.Duration, log logger.Logger) *Loader {
	return &Loader{
		url:    url,
		file:   file,
		client: &http.Client{Timeout: timeout},
		mapper: NewMapper(),
		log:    log,
	}
}

// Load fetches and maps the catalog. It never fails: on any error the
// fallback catalog is returned after a warning log.
func (l *Loader) Load(ctx context.Context) []domain.Technology {
	techs, err := l.load(ctx)
	if err != nil {
		l.log.Warn("catalog source unavailable, using built-in fallback",
			logger.Error(err))
		return Fallback()
	}

	l.log.Info("catalog loaded",
		logger.Int("count", len(techs)))
	return techs
}

func (l *Loader) load(ctx context.Context) ([]domain.Technology, error) {
	switch {
	case l.url != "":
		return l.loadHTTP(ctx)
	case l.file != "":
		return l.loadFile()
	default:
		return nil, fmt.Errorf("no catalog source configured")
	}
}

func (l *Loader) loadHTTP(ctx context.Context) ([]domain.Technology, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog json: %w", err)
	}
	return l.mapper.MapTechnologies(file)
}

func (l *Loader) loadFile() ([]domain.Technology, error) {
	data, err := os.ReadFile(l.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file File
	switch filepath.Ext(l.file) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	}
	return l.mapper.MapTechnologies(file)
}
