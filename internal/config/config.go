package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. SALESBI_SERVER_PORT
const EnvPrefix = "SALESBI"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"45s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// SharedSecretHash is the bcrypt hash of the shared secret. SharedSecret
	// is hashed at startup when no hash is configured. Both empty disables
	// the gate.
	SharedSecretHash string `yaml:"shared_secret_hash" envconfig:"SHARED_SECRET_HASH"`
	SharedSecret     string `yaml:"shared_secret" envconfig:"SHARED_SECRET"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/salesbi.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// SourceConfig locates the sales spreadsheet and the product reference table
type SourceConfig struct {
	// Path is a .xlsx, .xls or .csv file. Dir picks the newest spreadsheet
	// in a directory when Path is empty.
	Path          string `yaml:"path" envconfig:"DATA_FILE"`
	Dir           string `yaml:"dir" envconfig:"DATA_DIR" default:"data"`
	Sheet         string `yaml:"sheet" envconfig:"SHEET"`
	ReferencePath string `yaml:"reference_path" envconfig:"REFERENCE_FILE"`

	// Google Sheets source, used when SheetID is set
	SheetID          string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	SheetRange       string        `yaml:"sheet_range" envconfig:"SHEET_RANGE" default:"A:Z"`
	ReferenceSheetID string        `yaml:"reference_sheet_id" envconfig:"REFERENCE_SHEET_ID"`
	ReferenceRange   string        `yaml:"reference_range" envconfig:"REFERENCE_RANGE" default:"A:F"`
	CredentialsFile  string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	GoogleAPIKey     string        `yaml:"google_api_key" envconfig:"GOOGLE_API_KEY"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`

	// CacheTTL bounds the age of the loaded dataset; 0 never expires
	CacheTTL       time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"10m"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	// UploadDir keeps a copy of every uploaded spreadsheet; empty keeps none
	UploadDir string `yaml:"upload_dir" envconfig:"UPLOAD_DIR"`
}

// UsesSheets reports whether the dataset comes from Google Sheets
func (s SourceConfig) UsesSheets() bool {
	return s.SheetID != ""
}

// AnalyticsConfig holds the business thresholds used by the pipeline
type AnalyticsConfig struct {
	TierTopPct        float64 `yaml:"tier_top_pct" envconfig:"TIER_TOP_PCT" default:"6"`
	TierBasePct       float64 `yaml:"tier_base_pct" envconfig:"TIER_BASE_PCT" default:"0"`
	TierFloorPct      float64 `yaml:"tier_floor_pct" envconfig:"TIER_FLOOR_PCT" default:"-3"`
	SettlementMinDays int     `yaml:"settlement_min_days" envconfig:"SETTLEMENT_MIN_DAYS" default:"1"`
	SettlementMaxDays int     `yaml:"settlement_max_days" envconfig:"SETTLEMENT_MAX_DAYS" default:"365"`
	DueDateMinYear    int     `yaml:"due_date_min_year" envconfig:"DUE_DATE_MIN_YEAR" default:"2020"`
	DueDateMaxYear    int     `yaml:"due_date_max_year" envconfig:"DUE_DATE_MAX_YEAR" default:"2030"`
	AgingBoundaries   []int   `yaml:"aging_boundaries" envconfig:"AGING_BOUNDARIES" default:"30,60,90"`
	DefaultTopN       int     `yaml:"default_top_n" envconfig:"DEFAULT_TOP_N" default:"10"`
	SuggestLimit      int     `yaml:"suggest_limit" envconfig:"SUGGEST_LIMIT" default:"10"`
}

// TelemetryConfig toggles OpenTelemetry exporters
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from environment variables and config file. A
// file named by SALESBI_CONFIG_FILE must exist; otherwise the first
// config.yaml found in the usual locations is read, if any.
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. A variable set in the
// environment always wins; otherwise a non-zero file value replaces the
// default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	mergeStruct(reflect.ValueOf(&envConfig).Elem(), reflect.ValueOf(fileConfig), EnvPrefix)
	return envConfig
}

func mergeStruct(dst, src reflect.Value, prefix string) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := prefix + "_" + field.Tag.Get("envconfig")
		if field.Type.Kind() == reflect.Struct {
			mergeStruct(dst.Field(i), src.Field(i), key)
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if !src.Field(i).IsZero() {
			dst.Field(i).Set(src.Field(i))
		}
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Source.CacheTTL < 0 {
		return fmt.Errorf("source cache ttl must not be negative")
	}

	if err := c.Analytics.Validate(); err != nil {
		return err
	}

	// Always JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/salesbi.log"
	}

	return nil
}

// Validate checks that the thresholds are ordered and the bounds non-empty
func (a AnalyticsConfig) Validate() error {
	if !(a.TierTopPct >= a.TierBasePct && a.TierBasePct > a.TierFloorPct) {
		return fmt.Errorf("commission tiers must satisfy top >= base > floor, got %v/%v/%v",
			a.TierTopPct, a.TierBasePct, a.TierFloorPct)
	}
	if a.SettlementMinDays > a.SettlementMaxDays {
		return fmt.Errorf("settlement day bounds are inverted: [%d, %d]", a.SettlementMinDays, a.SettlementMaxDays)
	}
	if a.DueDateMinYear > a.DueDateMaxYear {
		return fmt.Errorf("due date year range is inverted: [%d, %d]", a.DueDateMinYear, a.DueDateMaxYear)
	}
	if len(a.AgingBoundaries) == 0 {
		return fmt.Errorf("at least one aging boundary must be specified")
	}
	if a.AgingBoundaries[0] <= 0 || !sort.IntsAreSorted(a.AgingBoundaries) {
		return fmt.Errorf("aging boundaries must be positive and ascending: %v", a.AgingBoundaries)
	}
	for i := 1; i < len(a.AgingBoundaries); i++ {
		if a.AgingBoundaries[i] == a.AgingBoundaries[i-1] {
			return fmt.Errorf("aging boundaries must be distinct: %v", a.AgingBoundaries)
		}
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_FILE")); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/salesbi.log",
		},
		Source: SourceConfig{
			Dir:            "data",
			SheetRange:     "A:Z",
			ReferenceRange: "A:F",
			FetchTimeout:   30 * time.Second,
			CacheTTL:       10 * time.Minute,
			MaxUploadBytes: 32 << 20,
		},
		Analytics: DefaultAnalytics(),
		Telemetry: TelemetryConfig{
			Environment:   "development",
			EnableMetrics: true,
			TraceExporter: "stdout",
			SampleRatio:   1,
		},
	}
}

// DefaultAnalytics returns the standard business thresholds
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		TierTopPct:        6,
		TierBasePct:       0,
		TierFloorPct:      -3,
		SettlementMinDays: 1,
		SettlementMaxDays: 365,
		DueDateMinYear:    2020,
		DueDateMaxYear:    2030,
		AgingBoundaries:   []int{30, 60, 90},
		DefaultTopN:       10,
		SuggestLimit:      10,
	}
}
