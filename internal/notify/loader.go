package notify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// ErrTemplateNotFound is returned by a Loader that has no override for a name.
var ErrTemplateNotFound = errors.New("template not found")

// Loader fetches template overrides by name.
type Loader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// fileLoader implements Loader for templates stored in a local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader reading templates from dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "template-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, name)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read template file")
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	l.logger.Info().Str("file", path).Int("bytes", len(body)).Msg("template file loaded")
	return body, nil
}

// LoadTemplates starts from the embedded defaults and replaces every kind
// for which loader has an override. All kinds are fetched concurrently.
func LoadTemplates(ctx context.Context, loader Loader, logger zerolog.Logger) (*Templates, error) {
	templates, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	if loader == nil {
		return templates, nil
	}

	type loadResult struct {
		kind Kind
		body []byte
		err  error
	}

	resultChan := make(chan loadResult, len(Kinds))
	var wg sync.WaitGroup

	for _, kind := range Kinds {
		wg.Add(1)
		go func(kind Kind) {
			defer wg.Done()

			body, err := loader.Load(ctx, TemplateName(kind))
			resultChan <- loadResult{kind: kind, body: body, err: err}
		}(kind)
	}

	wg.Wait()
	close(resultChan)

	overridden := 0
	for result := range resultChan {
		switch {
		case errors.Is(result.err, ErrTemplateNotFound):
			logger.Debug().Str("kind", string(result.kind)).Msg("no template override, using default")
		case result.err != nil:
			return nil, fmt.Errorf("failed to load template %s: %w", result.kind, result.err)
		default:
			if err := templates.Override(result.kind, result.body); err != nil {
				return nil, err
			}
			overridden++
		}
	}

	logger.Info().
		Int("overridden", overridden).
		Int("defaults", len(Kinds)-overridden).
		Msg("notification templates loaded")

	return templates, nil
}
