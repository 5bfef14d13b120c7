package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	OutputDir           string        `koanf:"output_dir" default:"organized_books" mod:"trim" validate:"required"`
	SearchEndpoint      string        `koanf:"search_endpoint" default:"https://www.googleapis.com/books/v1/volumes?q=" mod:"trim" validate:"required,url"`
	GoogleBooksAPIKey   string        `koanf:"google_books_api_key" mod:"trim"`
	OpenLibraryEndpoint string        `koanf:"open_library_endpoint" default:"https://openlibrary.org/search.json" mod:"trim" validate:"required,url"`
	OpenLibraryFallback bool          `koanf:"open_library_fallback" default:"true"`
	RequestTimeout      time.Duration `koanf:"request_timeout" default:"10s" validate:"gt=0"`
	RateLimit           float64       `koanf:"rate_limit" default:"2" validate:"gte=0"`
	MaxRetries          int           `koanf:"max_retries" default:"4" validate:"gte=0"`
	Concurrency         int           `koanf:"concurrency" default:"2" validate:"min=1,max=64"`
	Extensions          []string      `koanf:"extensions" default:"[\".mobi\",\".djvu\",\".txt\",\".epub\",\".pdf\",\".azw3\"]" validate:"min=1,dive,startswith=."`
	CategoriesFile      string        `koanf:"categories_file" mod:"trim"`
	EmbeddedPDFPages    int           `koanf:"embedded_pdf_pages" default:"3" validate:"min=1"`
	WatchDebounce       time.Duration `koanf:"watch_debounce" default:"2s" validate:"gt=0"`

	// JournalPath defaults to a file inside OutputDir.
	JournalPath               string        `koanf:"journal_path" mod:"trim"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5" validate:"min=1"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5" validate:"gte=0"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "BOOKORG_CONFIG_FILE"
	envPrefix      = "BOOKORG_"
)

// New builds the configuration from struct defaults, then the YAML file at path
// (or $BOOKORG_CONFIG_FILE when path is empty), then BOOKORG_* environment
// variables. A missing file is not an error.
func New(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if path == "" {
		path = os.Getenv(configFileENV)
	}

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "failed to load config file %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.WithStack(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKeyValue), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	// Lists replace the default instead of being merged into it.
	if k.Exists("extensions") {
		cfg.Extensions = nil
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	switch os.Getenv(environmentENV) {
	case "development":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	default:
		loadProductionConfig(cfg)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewForTest returns a valid configuration that performs no network waits and
// keeps the journal in memory.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	loadTestConfig(cfg)
	_ = cfg.Finalize()
	return cfg
}

// Finalize trims values, derives JournalPath and validates the result. It is
// called by New and must be called again after overriding fields by hand.
func (c *Config) Finalize() error {
	if err := modifiers.New().Struct(context.Background(), c); err != nil {
		return errors.WithStack(err)
	}

	for i, ext := range c.Extensions {
		c.Extensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
	if c.JournalPath == "" && c.OutputDir != "" {
		c.JournalPath = defaultJournalPath(c.OutputDir)
	}

	if err := newValidator().Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return errors.New(formatValidationError(errs[0]))
		}
		return errors.WithStack(err)
	}
	return nil
}

// SetOutputDir changes the output directory. A journal path that was derived
// from the old directory follows it. Finalize must be called afterwards.
func (c *Config) SetOutputDir(dir string) {
	if c.JournalPath == defaultJournalPath(c.OutputDir) {
		c.JournalPath = ""
	}
	c.OutputDir = dir
}

func defaultJournalPath(outputDir string) string {
	return filepath.Join(outputDir, ".bookorg", "journal.sqlite")
}

// envKeyValue maps BOOKORG_OUTPUT_DIR to output_dir. List values are separated by
// commas or whitespace.
func envKeyValue(key, value string) (string, interface{}) {
	if key == configFileENV {
		return "", nil
	}
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "extensions" {
		return key, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	return key, value
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})
	return validate
}
