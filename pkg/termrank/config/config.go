// Package config loads the termrank YAML configuration, applies TR_*
// environment overrides and builds the pipeline components it describes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/termrank/pkg/termrank/internalerr"
	"github.com/cognicore/termrank/pkg/termrank/schedule"
	"github.com/cognicore/termrank/pkg/termrank/tfidf"
)

// Config is the top-level configuration.
type Config struct {
	Workers   int             `yaml:"workers"`
	TopK      int             `yaml:"topK"`
	Partition string          `yaml:"partition"`
	Weighting WeightingConfig `yaml:"weighting"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Stopwords StopwordsConfig `yaml:"stopwords"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Report    ReportConfig    `yaml:"report"`
	Stoplist  StoplistConfig  `yaml:"stoplist"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// WeightingConfig selects the IDF formula and normalisation.
type WeightingConfig struct {
	IDF       string `yaml:"idf"`
	Normalize bool   `yaml:"normalize"`
}

// CorpusConfig says where documents come from. Format "jsonl" reads Path;
// format "sql" runs Query against Driver/DSN.
type CorpusConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	Query     string `yaml:"query"`
	StripHTML bool   `yaml:"stripHTML"`
}

// StopwordsConfig points at the stopword and stop-category files.
type StopwordsConfig struct {
	Words      string `yaml:"words"`
	Categories string `yaml:"categories"`
}

// SegmenterConfig selects the segmentation backend.
type SegmenterConfig struct {
	Kind       string        `yaml:"kind"` // script or remote
	Dictionary string        `yaml:"dictionary"`
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout"`
	Cache      CacheConfig   `yaml:"cache"`
}

// CacheConfig enables the Redis segmentation cache when Addr is set.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ReportConfig holds output paths. Empty paths disable that output.
type ReportConfig struct {
	Results    string `yaml:"results"`
	Tokens     string `yaml:"tokens"`
	Candidates string `yaml:"candidates"`
}

// StoplistConfig tunes stopword candidate suggestion.
type StoplistConfig struct {
	SuggestDFPercent float64 `yaml:"suggestDFPercent"`
	MinDocs          int     `yaml:"minDocs"`
}

// LoggingConfig controls log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workers:   5,
		TopK:      10,
		Partition: "dynamic",
		Weighting: WeightingConfig{
			IDF:       string(tfidf.Smooth),
			Normalize: true,
		},
		Corpus: CorpusConfig{
			Path:   "input/corpus.jsonl",
			Format: "jsonl",
		},
		Segmenter: SegmenterConfig{
			Kind:    "script",
			Timeout: 10 * time.Second,
			Cache: CacheConfig{
				TTL: 24 * time.Hour,
			},
		},
		Report: ReportConfig{
			Results: "output/results.txt",
			Tokens:  "output/tokens.txt",
		},
		Stoplist: StoplistConfig{
			SuggestDFPercent: 60,
			MinDocs:          10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate checks field values. Errors wrap internalerr.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return invalid("workers", "must be at least 1, got %d", c.Workers)
	}
	if c.TopK < 0 {
		return invalid("topK", "must not be negative, got %d", c.TopK)
	}
	if _, err := schedule.ParsePartition(c.Partition); err != nil {
		return invalid("partition", "%v", err)
	}
	if _, err := tfidf.ParseIDF(c.Weighting.IDF); err != nil {
		return invalid("weighting.idf", "%v", err)
	}

	switch c.Corpus.Format {
	case "", "jsonl":
		if c.Corpus.Path == "" {
			return invalid("corpus.path", "required for jsonl corpus")
		}
	case "sql":
		if c.Corpus.Driver == "" || c.Corpus.DSN == "" || c.Corpus.Query == "" {
			return invalid("corpus", "sql corpus needs driver, dsn and query")
		}
	default:
		return invalid("corpus.format", "unknown format %q", c.Corpus.Format)
	}

	switch c.Segmenter.Kind {
	case "", "script":
	case "remote":
		if c.Segmenter.URL == "" {
			return invalid("segmenter.url", "required for remote segmenter")
		}
	default:
		return invalid("segmenter.kind", "unknown kind %q", c.Segmenter.Kind)
	}
	if c.Segmenter.Timeout < 0 {
		return invalid("segmenter.timeout", "must not be negative")
	}

	if c.Stoplist.SuggestDFPercent < 0 || c.Stoplist.SuggestDFPercent > 100 {
		return invalid("stoplist.suggestDFPercent", "must be within 0..100, got %v", c.Stoplist.SuggestDFPercent)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return invalid("metrics.port", "invalid port %d", c.Metrics.Port)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", internalerr.ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}

// applyEnvOverrides reads TR_* environment variables and overrides the
// corresponding fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("TR_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("TR_PARTITION"); v != "" {
		cfg.Partition = v
	}
	if v := os.Getenv("TR_WEIGHTING_IDF"); v != "" {
		cfg.Weighting.IDF = v
	}
	if v := os.Getenv("TR_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("TR_CORPUS_DSN"); v != "" {
		cfg.Corpus.DSN = v
	}
	if v := os.Getenv("TR_SEGMENTER_URL"); v != "" {
		cfg.Segmenter.URL = v
	}
	if v := os.Getenv("TR_SEGMENTER_API_KEY"); v != "" {
		cfg.Segmenter.APIKey = v
	}
	if v := os.Getenv("TR_REDIS_ADDR"); v != "" {
		cfg.Segmenter.Cache.Addr = v
	}
	if v := os.Getenv("TR_REDIS_PASSWORD"); v != "" {
		cfg.Segmenter.Cache.Password = v
	}
	if v := os.Getenv("TR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TR_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TR_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
