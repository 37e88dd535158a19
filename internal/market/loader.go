package market

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Loader reads a price catalogue from a location.
type Loader interface {
	// Load reads the catalogue at path. Paths ending in .gz are gunzipped.
	Load(ctx context.Context, path string) (*Catalogue, error)
}

// fileLoader implements Loader for catalogue files on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalogue-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) (*Catalogue, error) {
	l.logger.Info().Str("file", path).Msg("loading price catalogue")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalogue file")
		return nil, fmt.Errorf("failed to open catalogue file %s: %w", path, err)
	}
	defer file.Close()

	c, err := decodeCatalogue(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read catalogue file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("commodities", len(c.BasePrices)).
		Int("states", len(c.Markets)).
		Msg("price catalogue loaded")

	return c, nil
}

// decodeCatalogue reads r fully, gunzipping when name ends in .gz.
func decodeCatalogue(ctx context.Context, r io.Reader, name string) (*Catalogue, error) {
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gz.Close()
		r = gz
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read catalogue %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseCatalogue(buf.Bytes())
}

// LoadCatalogue loads the catalogue at path, using DefaultCatalogue when
// path is empty or the load fails.
func LoadCatalogue(ctx context.Context, loader Loader, path string, logger zerolog.Logger) *Catalogue {
	if path == "" || loader == nil {
		logger.Info().Msg("no price catalogue configured, using built-in catalogue")
		return DefaultCatalogue()
	}
	c, err := loader.Load(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to load price catalogue, using built-in catalogue")
		return DefaultCatalogue()
	}
	return c
}
