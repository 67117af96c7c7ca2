package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	NATS         NATSConfig         `mapstructure:"nats"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Mapping      MappingConfig      `mapstructure:"mapping"`
	Scoring      ScoringConfig      `mapstructure:"scoring"`
	Notification NotificationConfig `mapstructure:"notification"`
	Assessment   AssessmentConfig   `mapstructure:"assessment"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// CatalogConfig controls where framework definitions are loaded from.
// When DataDir is empty the embedded catalog is used.
type CatalogConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// MappingConfig holds cross-framework control mapping thresholds.
// Overlap percentages are on a 0-100 scale.
type MappingConfig struct {
	MinOverlap     float64 `mapstructure:"min_overlap"`
	DirectOverlap  float64 `mapstructure:"direct_overlap"`
	PartialOverlap float64 `mapstructure:"partial_overlap"`
}

// DefaultMappingConfig returns the standard mapping thresholds
func DefaultMappingConfig() MappingConfig {
	return MappingConfig{
		MinOverlap:     30,
		DirectOverlap:  90,
		PartialOverlap: 50,
	}
}

type ScoringConfig struct {
	TrustWeights TrustWeights `mapstructure:"trust_weights"`
}

// TrustWeights are the sub-factor weights of the overall trust score.
// They must sum to 1.0 within 1e-6; the scorer validates this at startup.
type TrustWeights struct {
	ControlEffectiveness float64 `mapstructure:"control_effectiveness"`
	EvidenceQuality      float64 `mapstructure:"evidence_quality"`
	CoverageDepth        float64 `mapstructure:"coverage_depth"`
	Trend                float64 `mapstructure:"trend"`
}

// DefaultTrustWeights returns the documented 40/25/20/15 split
func DefaultTrustWeights() TrustWeights {
	return TrustWeights{
		ControlEffectiveness: 0.40,
		EvidenceQuality:      0.25,
		CoverageDepth:        0.20,
		Trend:                0.15,
	}
}

// NotificationConfig holds breach notification deadlines and the
// jurisdiction registry. The supervisory deadline is a hard regulatory
// limit; the data-subject deadline is a configurable default.
type NotificationConfig struct {
	SupervisoryDeadline time.Duration           `mapstructure:"supervisory_deadline"`
	DataSubjectDeadline time.Duration           `mapstructure:"data_subject_deadline"`
	Jurisdictions       map[string]Jurisdiction `mapstructure:"jurisdictions"`
}

// Jurisdiction describes a supervisory authority contact
type Jurisdiction struct {
	Authority string `mapstructure:"authority"`
	Contact   string `mapstructure:"contact"`
	Portal    string `mapstructure:"portal"`
}

// DefaultNotificationConfig returns the GDPR Article 33/34 defaults
func DefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SupervisoryDeadline: 72 * time.Hour,
		DataSubjectDeadline: 7 * 24 * time.Hour,
		Jurisdictions: map[string]Jurisdiction{
			"EU": {Authority: "European Data Protection Board", Contact: "edpb@edpb.europa.eu", Portal: "https://edpb.europa.eu"},
			"DE": {Authority: "BfDI", Contact: "poststelle@bfdi.bund.de", Portal: "https://www.bfdi.bund.de"},
			"FR": {Authority: "CNIL", Contact: "notifications@cnil.fr", Portal: "https://www.cnil.fr"},
			"IE": {Authority: "Data Protection Commission", Contact: "info@dataprotection.ie", Portal: "https://www.dataprotection.ie"},
			"UK": {Authority: "ICO", Contact: "casework@ico.org.uk", Portal: "https://ico.org.uk"},
		},
	}
}

type AssessmentConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/complyguard-lab")
	}

	// Environment variables
	v.SetEnvPrefix("COMPLYGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.tls", "COMPLYGUARD_REDIS_TLS")
	v.BindEnv("redis.host", "COMPLYGUARD_REDIS_HOST")
	v.BindEnv("redis.port", "COMPLYGUARD_REDIS_PORT")
	v.BindEnv("redis.password", "COMPLYGUARD_REDIS_PASSWORD")
	v.BindEnv("database.host", "COMPLYGUARD_DATABASE_HOST")
	v.BindEnv("database.port", "COMPLYGUARD_DATABASE_PORT")
	v.BindEnv("database.user", "COMPLYGUARD_DATABASE_USER")
	v.BindEnv("database.password", "COMPLYGUARD_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "COMPLYGUARD_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "COMPLYGUARD_DATABASE_SSLMODE")
	v.BindEnv("nats.enabled", "COMPLYGUARD_NATS_ENABLED")
	v.BindEnv("catalog.data_dir", "COMPLYGUARD_CATALOG_DATA_DIR")
	v.BindEnv("app.environment", "COMPLYGUARD_APP_ENVIRONMENT")

	// Defaults for sections that are usually left out of config files
	setDefaults(v)

	// Read config file. A missing file is only fatal when a path was
	// asked for explicitly; otherwise defaults and env vars apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyFallbacks(&cfg)

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "complyguard-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "complyguard")
	v.SetDefault("database.dbname", "complyguard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "complyguard")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "COMPLYGUARD_COMPLIANCE")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token"})
	v.SetDefault("cors.max_age", 300)
	v.SetDefault("ratelimit.requests_per_minute", 120)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("mapping.min_overlap", 30)
	v.SetDefault("mapping.direct_overlap", 90)
	v.SetDefault("mapping.partial_overlap", 50)
	v.SetDefault("scoring.trust_weights.control_effectiveness", 0.40)
	v.SetDefault("scoring.trust_weights.evidence_quality", 0.25)
	v.SetDefault("scoring.trust_weights.coverage_depth", 0.20)
	v.SetDefault("scoring.trust_weights.trend", 0.15)
	v.SetDefault("notification.supervisory_deadline", 72*time.Hour)
	v.SetDefault("notification.data_subject_deadline", 7*24*time.Hour)
	v.SetDefault("assessment.cache_ttl", 5*time.Minute)
	v.SetDefault("assessment.sweep_interval", time.Minute)
}

func applyFallbacks(cfg *Config) {
	if len(cfg.Notification.Jurisdictions) == 0 {
		cfg.Notification.Jurisdictions = DefaultNotificationConfig().Jurisdictions
	}
}
