package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cognicore/termrank/pkg/termrank/filter"
	"github.com/cognicore/termrank/pkg/termrank/segment"
	"github.com/cognicore/termrank/pkg/termrank/segment/remote"
	"github.com/cognicore/termrank/pkg/termrank/stoplist"
)

// Loader loads stopword files and constructs the segmentation components.
type Loader struct {
	StopwordsPath  string
	CategoriesPath string
	Segmenter      SegmenterConfig
	Logger         *slog.Logger
}

// NewLoader returns a Loader for cfg.
func NewLoader(cfg *Config, logger *slog.Logger) *Loader {
	return &Loader{
		StopwordsPath:  cfg.Stopwords.Words,
		CategoriesPath: cfg.Stopwords.Categories,
		Segmenter:      cfg.Segmenter,
		Logger:         logger,
	}
}

// Components holds the loaded pipeline components.
type Components struct {
	Filter    *filter.Filter
	Stopwords *stoplist.Set // nil when no stopword file is configured
	Segmenter segment.Segmenter
	// Closer releases connections held by the segmenter, if any.
	Closer io.Closer
}

// Close releases held resources. It is safe to call on a nil Closer.
func (c *Components) Close() error {
	if c.Closer == nil {
		return nil
	}
	return c.Closer.Close()
}

// Load reads all configured files and returns initialized components.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	comp := &Components{}

	// Load stopwords
	var words, categories *stoplist.Set
	if l.StopwordsPath != "" {
		set, err := stoplist.Load(l.StopwordsPath)
		if err != nil {
			return nil, fmt.Errorf("load stopwords: %w", err)
		}
		words = set
	}
	if l.CategoriesPath != "" {
		set, err := stoplist.Load(l.CategoriesPath)
		if err != nil {
			return nil, fmt.Errorf("load stop categories: %w", err)
		}
		categories = set
	}
	comp.Filter = filter.New(words, categories)
	comp.Stopwords = words
	logger.Info("stopwords loaded", "words", words.Len(), "categories", categories.Len())

	// Build segmenter
	switch l.Segmenter.Kind {
	case "", "script":
		var dict *segment.Dictionary
		if l.Segmenter.Dictionary != "" {
			d, err := segment.LoadDictionary(l.Segmenter.Dictionary)
			if err != nil {
				return nil, fmt.Errorf("load dictionary: %w", err)
			}
			dict = d
			logger.Info("dictionary loaded", "entries", d.Len())
		}
		comp.Segmenter = segment.NewScript(dict)
	case "remote":
		comp.Segmenter = &remote.Client{
			URL:        l.Segmenter.URL,
			APIKey:     l.Segmenter.APIKey,
			HTTPClient: &http.Client{Timeout: l.Segmenter.Timeout},
		}
	default:
		return nil, fmt.Errorf("unknown segmenter kind %q", l.Segmenter.Kind)
	}

	// Wrap with cache
	if c := l.Segmenter.Cache; c.Addr != "" {
		rc, err := segment.NewRedisCache(ctx, segment.RedisOptions{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect segmentation cache: %w", err)
		}
		comp.Segmenter = segment.NewCached(comp.Segmenter, rc, c.TTL)
		comp.Closer = rc
		logger.Info("segmentation cache enabled", "addr", c.Addr, "ttl", c.TTL)
	}

	return comp, nil
}
