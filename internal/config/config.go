// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// APIConfig describes the remote tender API.
type APIConfig struct {
	BaseURL        string          `mapstructure:"base_url"`
	APIKey         string          `mapstructure:"api_key"`
	RateLimit      float64         `mapstructure:"rate_limit"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds"`
	MaxRetries     int             `mapstructure:"max_retries"`
	Endpoints      EndpointsConfig `mapstructure:"endpoints"`
	DetailsParam   string          `mapstructure:"details_param"`
	DocumentsParam string          `mapstructure:"documents_param"`
}

// EndpointsConfig holds the endpoint paths and templates consumed by the client.
// Details, Documents and Download may carry a {tenderId} placeholder; Download
// additionally supports {documentId} and {fileName}.
type EndpointsConfig struct {
	Search    string `mapstructure:"search"`
	Details   string `mapstructure:"details"`
	Documents string `mapstructure:"documents"`
	Download  string `mapstructure:"download"`
}

// FetchConfig governs the listing crawl.
type FetchConfig struct {
	GetAll        bool              `mapstructure:"get_all"`
	Filters       map[string]string `mapstructure:"filters"`
	Provinces     []string          `mapstructure:"provinces"`
	ProvinceParam string            `mapstructure:"province_param"`
	Pagination    PaginationConfig  `mapstructure:"pagination"`
}

// PaginationConfig controls page walking for the search endpoint.
type PaginationConfig struct {
	StartPage            int     `mapstructure:"start_page"`
	EndPage              int     `mapstructure:"end_page"`
	PageSize             int     `mapstructure:"page_size"`
	DelaySeconds         float64 `mapstructure:"delay_seconds"`
	ProvincePauseSeconds float64 `mapstructure:"province_pause_seconds"`
	SortingColumn        string  `mapstructure:"sorting_column"`
	SortingDirection     string  `mapstructure:"sorting_direction"`
}

// PathsConfig sets the on-disk layout.
type PathsConfig struct {
	DataDir           string `mapstructure:"data_dir"`
	TendersDir        string `mapstructure:"tenders_dir"`
	RawDir            string `mapstructure:"raw_dir"`
	AttachmentsSubdir string `mapstructure:"attachments_subdir"`
	OutputDir         string `mapstructure:"output_dir"`
}

// FilterConfig controls the document filename filter.
type FilterConfig struct {
	OutputFile string `mapstructure:"output_file"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelemetryConfig controls the optional Prometheus listener.
type TelemetryConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces keys viper already knows about, so keys
	// without defaults need explicit binds to be settable from the
	// environment (e.g. HARVESTER_API_BASE_URL).
	for _, key := range []string{
		"api.base_url",
		"api.api_key",
		"api.endpoints.download",
		"fetch.provinces",
		"telemetry.listen_addr",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper lowercases map keys, but filter names are sent verbatim as
	// query parameters against a case-sensitive API. Re-read them from the
	// file itself to preserve their case.
	if path != "" {
		filters, err := rawFilters(path)
		if err != nil {
			return Config{}, err
		}
		if len(filters) > 0 {
			cfg.Fetch.Filters = filters
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func rawFilters(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var doc struct {
		Fetch struct {
			Filters map[string]string `yaml:"filters"`
		} `yaml:"fetch"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config filters: %w", err)
	}
	return doc.Fetch.Filters, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.timeout_seconds", 30)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.endpoints.search", "/api/Search/SearchTenders")
	v.SetDefault("api.endpoints.details", "/api/Search/GetTender")
	v.SetDefault("api.endpoints.documents", "/api/tenders/{tenderId}/documents")
	v.SetDefault("api.details_param", "tenderId")
	v.SetDefault("api.documents_param", "tenderId")
	v.SetDefault("fetch.get_all", true)
	v.SetDefault("fetch.province_param", "organizationProvince")
	v.SetDefault("fetch.pagination.start_page", 1)
	v.SetDefault("fetch.pagination.end_page", 0)
	v.SetDefault("fetch.pagination.page_size", 50)
	v.SetDefault("fetch.pagination.delay_seconds", 0.5)
	v.SetDefault("fetch.pagination.province_pause_seconds", 2.5)
	v.SetDefault("fetch.pagination.sorting_column", "PublicationDate")
	v.SetDefault("fetch.pagination.sorting_direction", "DESC")
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.tenders_dir", "tenders")
	v.SetDefault("paths.raw_dir", "raw")
	v.SetDefault("paths.attachments_subdir", "attachments")
	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("filter.output_file", "filtered_documents.txt")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must be >= 0")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0")
	}
	if c.Fetch.Pagination.StartPage <= 0 {
		return fmt.Errorf("fetch.pagination.start_page must be > 0")
	}
	if c.Fetch.Pagination.PageSize <= 0 {
		return fmt.Errorf("fetch.pagination.page_size must be > 0")
	}
	if c.Fetch.Pagination.EndPage < 0 {
		return fmt.Errorf("fetch.pagination.end_page must be >= 0")
	}
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	return nil
}

// Timeout converts the configured request timeout into a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PageDelay converts the inter-page delay into a duration.
func (c PaginationConfig) PageDelay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// ProvincePause converts the inter-province pause into a duration.
func (c PaginationConfig) ProvincePause() time.Duration {
	return time.Duration(c.ProvincePauseSeconds * float64(time.Second))
}
