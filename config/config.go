package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

// AppConfig is the whole configuration tree, loaded once at process start
// and passed into each component. There is no ambient singleton.
type AppConfig struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Brands   []BrandProfile `yaml:"brands"`
	Sources  []SourceSpec   `yaml:"sources"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type FetchConfig struct {
	MaxArticlesPerBrand int    `yaml:"max_articles_per_brand"`
	RequestTimeout      int    `yaml:"request_timeout"` // seconds, per HTTP request
	UserAgent           string `yaml:"user_agent"`
	MaxWorkers          int    `yaml:"max_workers"`
	ParallelThreshold   int    `yaml:"parallel_threshold"`
	DefaultSource       string `yaml:"default_source"`
}

type AnalysisConfig struct {
	Model                      string  `yaml:"model"`
	SummaryMinWords            int     `yaml:"summary_min_words"`
	SummaryMaxWords            int     `yaml:"summary_max_words"`
	SentimentThresholdPositive float64 `yaml:"sentiment_threshold_positive"`
	SentimentThresholdNegative float64 `yaml:"sentiment_threshold_negative"`

	// Per-call content budgets, applied before any backend call.
	SummaryMaxChars   int `yaml:"summary_max_chars"`
	LabelMaxChars     int `yaml:"label_max_chars"`
	SentimentMaxChars int `yaml:"sentiment_max_chars"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // csv | mongo
	DataDir     string `yaml:"data_dir"`
	ArchiveDays int    `yaml:"archive_days"`
	SaveRaw     bool   `yaml:"save_raw"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDBName string `yaml:"mongo_db_name"`
}

// BrandProfile describes one monitored brand. The category, subcategory and
// product-line lists are closed vocabularies that constrain classification.
type BrandProfile struct {
	Name          string   `yaml:"name"`
	Keywords      []string `yaml:"keywords"`
	Websites      []string `yaml:"websites"`
	Categories    []string `yaml:"categories"`
	Subcategories []string `yaml:"subcategories"`
	ProductLines  []string `yaml:"product_lines"`
}

// SourceSpec describes one news source. Immutable for the duration of a run.
type SourceSpec struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"` // rss | api | search
	Endpoint string            `yaml:"endpoint"`
	Params   map[string]string `yaml:"params"`
	APIKey   string            `yaml:"api_key"`
	Render   bool              `yaml:"render"`
	Enabled  bool              `yaml:"enabled"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a config file, expands ${NAME} placeholders from the
// environment and applies defaults for anything left unset.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data = envPlaceholder.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envPlaceholder.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})

	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadFromDir walks up from the working directory until it finds
// config.yaml, loading an adjacent .env first when present.
func LoadFromDir() (*AppConfig, error) {
	base := basePath()
	if base == "" {
		return nil, fmt.Errorf("no %s found in working directory or any parent", CONFIG_FILE)
	}
	godotenv.Load(filepath.Join(base, ENV_FILE))
	return Load(filepath.Join(base, CONFIG_FILE))
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Fetch.MaxArticlesPerBrand <= 0 {
		c.Fetch.MaxArticlesPerBrand = 20
	}
	if c.Fetch.RequestTimeout <= 0 {
		c.Fetch.RequestTimeout = 10
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"
	}
	if c.Fetch.MaxWorkers <= 0 {
		c.Fetch.MaxWorkers = 4
	}
	if c.Fetch.ParallelThreshold <= 0 {
		c.Fetch.ParallelThreshold = 5
	}
	if c.Analysis.SummaryMinWords <= 0 {
		c.Analysis.SummaryMinWords = 100
	}
	if c.Analysis.SummaryMaxWords <= 0 {
		c.Analysis.SummaryMaxWords = 250
	}
	if c.Analysis.SentimentThresholdPositive == 0 {
		c.Analysis.SentimentThresholdPositive = 0.1
	}
	if c.Analysis.SentimentThresholdNegative == 0 {
		c.Analysis.SentimentThresholdNegative = -0.1
	}
	if c.Analysis.SummaryMaxChars <= 0 {
		c.Analysis.SummaryMaxChars = 6000
	}
	if c.Analysis.LabelMaxChars <= 0 {
		c.Analysis.LabelMaxChars = 4000
	}
	if c.Analysis.SentimentMaxChars <= 0 {
		c.Analysis.SentimentMaxChars = 4000
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "csv"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.ArchiveDays <= 0 {
		c.Storage.ArchiveDays = 30
	}
}

// BrandByName returns the profile for a brand, if configured.
func (c *AppConfig) BrandByName(name string) (BrandProfile, bool) {
	for _, b := range c.Brands {
		if b.Name == name {
			return b, true
		}
	}
	return BrandProfile{}, false
}

// BrandIndex returns the configured brands keyed by name.
func (c *AppConfig) BrandIndex() map[string]BrandProfile {
	idx := make(map[string]BrandProfile, len(c.Brands))
	for _, b := range c.Brands {
		idx[b.Name] = b
	}
	return idx
}

func basePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
