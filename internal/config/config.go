package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv         = "STYLE_TRANSLATOR_CONFIG"
	outputDirEnv          = "STYLE_TRANSLATOR_OUTPUT_DIR"
	logLevelEnv           = "LOG_LEVEL"
	redditClientIDEnv     = "REDDIT_CLIENT_ID"
	redditClientSecretEnv = "REDDIT_CLIENT_SECRET"
	embedderAPIKeyEnv     = "EMBEDDER_API_KEY"
	qdrantAPIKeyEnv       = "QDRANT_API_KEY"
	reportDSNEnv          = "REPORT_DSN"
	minItemsEnv           = "MIN_ITEMS_PER_BRAND"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	HTTP        HTTPConfig        `yaml:"http"`
	Reddit      RedditConfig      `yaml:"reddit"`
	Sources     []SourceConfig    `yaml:"sources"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorIndex VectorIndexConfig `yaml:"vectorIndex"`
	Search      SearchConfig      `yaml:"search"`
	Report      ReportConfig      `yaml:"report"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PipelineConfig tunes ingestion: where checkpoints live and how gaps are filled.
type PipelineConfig struct {
	OutputDir          string   `yaml:"outputDir"`
	CheckpointInterval int      `yaml:"checkpointInterval"`
	MinItemsPerBrand   int      `yaml:"minItemsPerBrand"`
	GapFillProvider    string   `yaml:"gapFillProvider"`
	GapFillBrands      []string `yaml:"gapFillBrands"`
	ExtraBrands        []string `yaml:"extraBrands"`
	IndexAfterRun      bool     `yaml:"indexAfterRun"`
}

// HTTPConfig is the outbound throttling policy shared by scraping providers.
type HTTPConfig struct {
	UserAgent            string        `yaml:"userAgent"`
	Timeout              time.Duration `yaml:"timeout"`
	RequestsPerMinute    int           `yaml:"requestsPerMinute"`
	PoliteDelay          time.Duration `yaml:"politeDelay"`
	MaxRetries           int           `yaml:"maxRetries"`
	MarketplaceSearchURL string        `yaml:"marketplaceSearchUrl"`
}

// RedditConfig carries application-only OAuth credentials.
type RedditConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	TokenURL     string `yaml:"tokenUrl"`
	APIURL       string `yaml:"apiUrl"`
}

// SourceConfig describes one ordered ingestion source and its targets.
type SourceConfig struct {
	Name       string            `yaml:"name"`
	Provider   string            `yaml:"provider"`
	Targets    []TargetConfig    `yaml:"targets"`
	MaxResults int               `yaml:"maxResults"`
	Options    map[string]string `yaml:"options"`
	Required   bool              `yaml:"required"`
}

// TargetConfig is a category page, subreddit or forum section to read.
type TargetConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// EmbedderConfig selects the embedding backend.
type EmbedderConfig struct {
	Type      string        `yaml:"type"`
	Dimension int           `yaml:"dimension"`
	BaseURL   string        `yaml:"baseUrl"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	BatchSize int           `yaml:"batchSize"`
	Timeout   time.Duration `yaml:"timeout"`
}

// VectorIndexConfig selects the vector index backend.
type VectorIndexConfig struct {
	Type     string       `yaml:"type"`
	Path     string       `yaml:"path"`
	Compress bool         `yaml:"compress"`
	Qdrant   QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig describes the gRPC endpoint of a Qdrant server.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	UseTLS bool   `yaml:"useTls"`
	APIKey string `yaml:"apiKey"`
}

// SearchConfig holds default result counts for comprehensive search.
type SearchConfig struct {
	Items       int `yaml:"items"`
	Brands      int `yaml:"brands"`
	Discussions int `yaml:"discussions"`
}

// ReportConfig describes the run history database and the metrics textfile.
type ReportConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	MetricsFile string `yaml:"metricsFile"`
}

// Load reads YAML configuration from path (or STYLE_TRANSLATOR_CONFIG) and applies environment overrides.
// A missing path means defaults; an unreadable or invalid file is an error.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		var set explicitZeros
		if err := yaml.Unmarshal(raw, &set); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
		set.apply(&cfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Pipeline.OutputDir == "" {
		return fmt.Errorf("config: pipeline.outputDir is empty")
	}
	if c.Pipeline.CheckpointInterval <= 0 {
		return fmt.Errorf("config: pipeline.checkpointInterval must be positive")
	}
	if c.Pipeline.MinItemsPerBrand < 0 {
		return fmt.Errorf("config: pipeline.minItemsPerBrand must not be negative")
	}
	seen := map[string]bool{}
	for _, src := range c.Sources {
		if src.Name == "" || src.Provider == "" {
			return fmt.Errorf("config: every source needs a name and a provider")
		}
		if seen[src.Name] {
			return fmt.Errorf("config: duplicate source %s", src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}

// Source looks up a configured source by name.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceConfig{}, false
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Pipeline.OutputDir = v
	}

	if v := os.Getenv(minItemsEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.MinItemsPerBrand = n
		}
	}

	if v := os.Getenv(redditClientIDEnv); v != "" {
		c.Reddit.ClientID = v
	}

	if v := os.Getenv(redditClientSecretEnv); v != "" {
		c.Reddit.ClientSecret = v
	}

	if v := os.Getenv(embedderAPIKeyEnv); v != "" {
		c.Embedder.APIKey = v
	}

	if v := os.Getenv(qdrantAPIKeyEnv); v != "" {
		c.VectorIndex.Qdrant.APIKey = v
	}

	if v := os.Getenv(reportDSNEnv); v != "" {
		c.Report.DSN = v
	}
}

// explicitZeros records fields whose zero value is meaningful, so a file can
// set them back to zero over a non-zero default.
type explicitZeros struct {
	Pipeline struct {
		MinItemsPerBrand *int  `yaml:"minItemsPerBrand"`
		IndexAfterRun    *bool `yaml:"indexAfterRun"`
	} `yaml:"pipeline"`
}

func (e explicitZeros) apply(c *Config) {
	if v := e.Pipeline.MinItemsPerBrand; v != nil {
		c.Pipeline.MinItemsPerBrand = *v
	}
	if v := e.Pipeline.IndexAfterRun; v != nil {
		c.Pipeline.IndexAfterRun = *v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Pipeline.OutputDir != "" {
		base.Pipeline.OutputDir = override.Pipeline.OutputDir
	}
	if override.Pipeline.CheckpointInterval != 0 {
		base.Pipeline.CheckpointInterval = override.Pipeline.CheckpointInterval
	}
	if override.Pipeline.MinItemsPerBrand != 0 {
		base.Pipeline.MinItemsPerBrand = override.Pipeline.MinItemsPerBrand
	}
	if override.Pipeline.GapFillProvider != "" {
		base.Pipeline.GapFillProvider = override.Pipeline.GapFillProvider
	}
	if len(override.Pipeline.GapFillBrands) > 0 {
		base.Pipeline.GapFillBrands = override.Pipeline.GapFillBrands
	}
	if len(override.Pipeline.ExtraBrands) > 0 {
		base.Pipeline.ExtraBrands = override.Pipeline.ExtraBrands
	}
	if override.Pipeline.IndexAfterRun {
		base.Pipeline.IndexAfterRun = true
	}

	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}
	if override.HTTP.Timeout != 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.RequestsPerMinute != 0 {
		base.HTTP.RequestsPerMinute = override.HTTP.RequestsPerMinute
	}
	if override.HTTP.PoliteDelay != 0 {
		base.HTTP.PoliteDelay = override.HTTP.PoliteDelay
	}
	if override.HTTP.MaxRetries != 0 {
		base.HTTP.MaxRetries = override.HTTP.MaxRetries
	}
	if override.HTTP.MarketplaceSearchURL != "" {
		base.HTTP.MarketplaceSearchURL = override.HTTP.MarketplaceSearchURL
	}

	if override.Reddit.ClientID != "" {
		base.Reddit.ClientID = override.Reddit.ClientID
	}
	if override.Reddit.ClientSecret != "" {
		base.Reddit.ClientSecret = override.Reddit.ClientSecret
	}
	if override.Reddit.TokenURL != "" {
		base.Reddit.TokenURL = override.Reddit.TokenURL
	}
	if override.Reddit.APIURL != "" {
		base.Reddit.APIURL = override.Reddit.APIURL
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Embedder.Type != "" {
		base.Embedder.Type = override.Embedder.Type
	}
	if override.Embedder.Dimension != 0 {
		base.Embedder.Dimension = override.Embedder.Dimension
	}
	if override.Embedder.BaseURL != "" {
		base.Embedder.BaseURL = override.Embedder.BaseURL
	}
	if override.Embedder.Model != "" {
		base.Embedder.Model = override.Embedder.Model
	}
	if override.Embedder.APIKey != "" {
		base.Embedder.APIKey = override.Embedder.APIKey
	}
	if override.Embedder.BatchSize != 0 {
		base.Embedder.BatchSize = override.Embedder.BatchSize
	}
	if override.Embedder.Timeout != 0 {
		base.Embedder.Timeout = override.Embedder.Timeout
	}

	if override.VectorIndex.Type != "" {
		base.VectorIndex.Type = override.VectorIndex.Type
	}
	if override.VectorIndex.Path != "" {
		base.VectorIndex.Path = override.VectorIndex.Path
	}
	if override.VectorIndex.Compress {
		base.VectorIndex.Compress = true
	}
	if override.VectorIndex.Qdrant.Host != "" {
		base.VectorIndex.Qdrant.Host = override.VectorIndex.Qdrant.Host
	}
	if override.VectorIndex.Qdrant.Port != 0 {
		base.VectorIndex.Qdrant.Port = override.VectorIndex.Qdrant.Port
	}
	if override.VectorIndex.Qdrant.UseTLS {
		base.VectorIndex.Qdrant.UseTLS = true
	}
	if override.VectorIndex.Qdrant.APIKey != "" {
		base.VectorIndex.Qdrant.APIKey = override.VectorIndex.Qdrant.APIKey
	}

	if override.Search.Items != 0 {
		base.Search.Items = override.Search.Items
	}
	if override.Search.Brands != 0 {
		base.Search.Brands = override.Search.Brands
	}
	if override.Search.Discussions != 0 {
		base.Search.Discussions = override.Search.Discussions
	}

	if override.Report.Driver != "" {
		base.Report.Driver = override.Report.Driver
	}
	if override.Report.DSN != "" {
		base.Report.DSN = override.Report.DSN
	}
	if override.Report.MetricsFile != "" {
		base.Report.MetricsFile = override.Report.MetricsFile
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Pipeline: PipelineConfig{
			OutputDir:          "./data/production",
			CheckpointInterval: 100,
			MinItemsPerBrand:   3,
			GapFillProvider:    "marketplace",
		},
		HTTP: HTTPConfig{
			UserAgent:         "StyleTranslator/1.0",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 10,
			PoliteDelay:       2 * time.Second,
			MaxRetries:        3,
		},
		Sources: []SourceConfig{
			{
				Name:     "seed-catalog",
				Provider: "catalog",
				Targets:  []TargetConfig{{Name: "samples", URL: "./configs/catalog.yaml"}},
			},
			{
				Name:       "end-clothing",
				Provider:   "storefront",
				MaxResults: 200,
				Options:    map[string]string{"source_type": "end_clothing"},
				Targets: []TargetConfig{
					{Name: "jackets", URL: "https://www.endclothing.com/us/clothing/jackets"},
					{Name: "trousers", URL: "https://www.endclothing.com/us/clothing/trousers"},
					{Name: "knitwear", URL: "https://www.endclothing.com/us/clothing/knitwear"},
				},
			},
			{
				Name:       "styleforum",
				Provider:   "forum",
				MaxResults: 30,
				Options:    map[string]string{"source_type": "styleforum", "forum_tag": "StyleForum"},
				Targets: []TargetConfig{
					{Name: "classic-menswear", URL: "https://www.styleforum.net/forums/classic-menswear.2"},
					{Name: "streetwear-and-denim", URL: "https://www.styleforum.net/forums/streetwear-and-denim.21"},
				},
			},
			{
				Name:       "reddit",
				Provider:   "reddit",
				MaxResults: 50,
				Targets: []TargetConfig{
					{Name: "malefashionadvice"},
					{Name: "rawdenim"},
					{Name: "goodyearwelt"},
				},
			},
		},
		Embedder: EmbedderConfig{
			Type:      "hashing",
			Dimension: 384,
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			BatchSize: 64,
			Timeout:   30 * time.Second,
		},
		VectorIndex: VectorIndexConfig{
			Type: "chromem",
			Path: "./data/vectordb",
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		Search: SearchConfig{Items: 10, Brands: 5, Discussions: 3},
		Report: ReportConfig{
			Driver: "sqlite",
			DSN:    "./data/production/report.db",
		},
	}
}
