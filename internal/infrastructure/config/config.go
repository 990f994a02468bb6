package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/pms"
)

// EnvPrefix prefixes every environment override (e.g. PMS_DATABASE_PASSWORD)
const EnvPrefix = "PMS"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
	Kafka     KafkaConfig
	Storage   StorageConfig
	Webhook   WebhookConfig
	Providers []ProviderConnection
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty Host disables Redis and the
// webhook dedupe falls back to process memory.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TrustedProxies []string
}

// SchedulerConfig holds periodic sync configuration
type SchedulerConfig struct {
	Enabled       bool
	Workers       int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Jobs          []ScheduledSync
}

// ScheduledSync is one periodic (hotel, provider, entity) sync
type ScheduledSync struct {
	HotelID  string        `mapstructure:"hotel_id"`
	Provider string        `mapstructure:"provider"`
	Entity   string        `mapstructure:"entity"`
	Interval time.Duration `mapstructure:"interval"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	// LogsEnabled exports log entries through the OTLP collector as well
	LogsEnabled bool
}

// KafkaConfig holds the sync notification topic settings
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// StorageConfig holds the S3 payload archive settings
type StorageConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// WebhookConfig holds inbound webhook settings
type WebhookConfig struct {
	MaxBodySize      int64
	DedupeTTL        time.Duration
	RequireSignature bool
	// RateLimit is requests per minute per hotel and provider; negative disables it
	RateLimit int
}

// ProviderConnection is one configured PMS connection
type ProviderConnection struct {
	HotelID         string        `mapstructure:"hotel_id"`
	Provider        string        `mapstructure:"provider"`
	BaseURL         string        `mapstructure:"base_url"`
	PropertyID      string        `mapstructure:"property_id"`
	AuthScheme      string        `mapstructure:"auth_scheme"`
	Token           string        `mapstructure:"token"`
	APIKey          string        `mapstructure:"api_key"`
	APIKeyHeader    string        `mapstructure:"api_key_header"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	TimeoutSeconds  int           `mapstructure:"timeout_seconds"`
	MaxRetries      *int          `mapstructure:"max_retries"`
	InitialDelay    time.Duration `mapstructure:"initial_delay"`
	MaxDelay        time.Duration `mapstructure:"max_delay"`
	RatePerMinute   int           `mapstructure:"rate_per_minute"`
	RatePerHour     int           `mapstructure:"rate_per_hour"`
	WebhookSecret   string        `mapstructure:"webhook_secret"`
	RetryableFaults []string      `mapstructure:"retryable_faults"`
}

// Load reads config.toml from the usual locations, then applies PMS_ environment overrides.
// Priority: environment, config.toml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/pms-sync")
	return load(v)
}

// LoadFile reads an explicit config file
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			Workers:       v.GetInt("scheduler.workers"),
			JobTimeout:    v.GetDuration("scheduler.job_timeout"),
			RetryAttempts: v.GetInt("scheduler.retry_attempts"),
			RetryDelay:    v.GetDuration("scheduler.retry_delay"),
			MaxRetryDelay: v.GetDuration("scheduler.max_retry_delay"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			Prefix:          v.GetString("storage.prefix"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Webhook: WebhookConfig{
			MaxBodySize:      v.GetInt64("webhook.max_body_size"),
			DedupeTTL:        v.GetDuration("webhook.dedupe_ttl"),
			RequireSignature: v.GetBool("webhook.require_signature"),
			RateLimit:        v.GetInt("webhook.rate_limit"),
		},
	}
	if err := v.UnmarshalKey("scheduler.jobs", &cfg.Scheduler.Jobs); err != nil {
		return nil, fmt.Errorf("error decoding scheduler.jobs: %w", err)
	}
	if err := v.UnmarshalKey("providers", &cfg.Providers); err != nil {
		return nil, fmt.Errorf("error decoding providers: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pms-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "pms"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Syncs run inside the request, so writes get more room than reads.
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 4
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
	if cfg.Scheduler.MaxRetryDelay == 0 {
		cfg.Scheduler.MaxRetryDelay = 30 * time.Minute
	}
	for i := range cfg.Scheduler.Jobs {
		if cfg.Scheduler.Jobs[i].Interval == 0 {
			cfg.Scheduler.Jobs[i].Interval = 15 * time.Minute
		}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "pms.sync.events"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "pms-payloads"
	}
	if cfg.Webhook.MaxBodySize == 0 {
		cfg.Webhook.MaxBodySize = 1 << 20
	}
	if cfg.Webhook.DedupeTTL == 0 {
		cfg.Webhook.DedupeTTL = 24 * time.Hour
	}
	if cfg.Webhook.RateLimit == 0 {
		cfg.Webhook.RateLimit = 600
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	for i, job := range c.Scheduler.Jobs {
		if _, err := uuid.Parse(job.HotelID); err != nil {
			return fmt.Errorf("scheduler.jobs[%d].hotel_id: %w", i, err)
		}
		if _, err := integration.ParseProviderKey(job.Provider); err != nil {
			return fmt.Errorf("scheduler.jobs[%d].provider: %w", i, err)
		}
		if _, err := integration.ParseEntityType(job.Entity); err != nil {
			return fmt.Errorf("scheduler.jobs[%d].entity: %w", i, err)
		}
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Webhook.RequireSignature {
			return fmt.Errorf("webhook.require_signature must be true in production")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ConnectionConfig converts the entry to an adapter configuration.
// An empty hotel_id makes the connection the provider default.
func (p ProviderConnection) ConnectionConfig() (pms.ConnectionConfig, error) {
	provider, err := integration.ParseProviderKey(p.Provider)
	if err != nil {
		return pms.ConnectionConfig{}, err
	}
	hotelID := uuid.Nil
	if p.HotelID != "" {
		if hotelID, err = uuid.Parse(p.HotelID); err != nil {
			return pms.ConnectionConfig{}, fmt.Errorf("%w: %s", integration.ErrInvalidHotelID, p.HotelID)
		}
	}

	cfg := pms.ConnectionConfig{
		Provider:   provider,
		HotelID:    hotelID,
		BaseURL:    p.BaseURL,
		PropertyID: p.PropertyID,
		Auth: pms.AuthConfig{
			Scheme:       pms.AuthScheme(p.AuthScheme),
			Token:        p.Token,
			APIKey:       p.APIKey,
			APIKeyHeader: p.APIKeyHeader,
			Username:     p.Username,
			Password:     p.Password,
		},
		TimeoutSeconds:  p.TimeoutSeconds,
		RateLimit:       integration.RateLimit{PerMinute: p.RatePerMinute, PerHour: p.RatePerHour},
		WebhookSecret:   p.WebhookSecret,
		RetryableFaults: p.RetryableFaults,
	}
	if p.MaxRetries != nil || p.InitialDelay > 0 || p.MaxDelay > 0 {
		retry := pms.DefaultRetryOptions()
		if provider == integration.ProviderProtel || provider == integration.ProviderOpera {
			retry = pms.LegacyRetryOptions()
		}
		if p.MaxRetries != nil {
			retry.MaxRetries = *p.MaxRetries
		}
		if p.InitialDelay > 0 {
			retry.InitialDelay = p.InitialDelay
		}
		if p.MaxDelay > 0 {
			retry.MaxDelay = p.MaxDelay
		}
		cfg.Retry = &retry
	}
	return cfg, nil
}

// ConnectionConfigs converts every configured provider connection
func (c *Config) ConnectionConfigs() ([]pms.ConnectionConfig, error) {
	out := make([]pms.ConnectionConfig, 0, len(c.Providers))
	for i, p := range c.Providers {
		cc, err := p.ConnectionConfig()
		if err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		out = append(out, cc)
	}
	return out, nil
}
