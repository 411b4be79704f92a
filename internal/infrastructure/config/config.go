package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "SALESFLOW"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Kafka     KafkaConfig
	Shipping  ShippingConfig
	Engine    EngineConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
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
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings.
// An empty Host disables Redis and the in-memory idempotency store is used.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	Issuer                string
	AccessTokenExpiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
	// WebhookSecret authenticates shipping provider callbacks; empty disables the check
	WebhookSecret string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	MetricsInterval   time.Duration
	Profiling         ProfilingConfig
}

// ProfilingConfig holds Pyroscope continuous profiling settings,
// read from the telemetry.profiling_* keys
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string   // Pyroscope server (e.g., "http://pyroscope:4040")
	ApplicationName   string   // defaults to telemetry.service_name
	BasicAuthUser     string   // Grafana Cloud only
	BasicAuthPassword string   // Grafana Cloud only
	ProfileTypes      []string // cpu, alloc_objects, alloc_space, inuse_objects, inuse_space, goroutines, mutex_count, mutex_duration, block_count, block_duration
	MutexFraction     int
	BlockRate         int
	SpanProfiles      bool // label CPU samples with the active span id
}

// KafkaConfig holds event publishing settings.
// With no brokers configured events stay on the in-process bus.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Enabled reports whether events should be written to Kafka
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// ShippingConfig holds the resilience settings applied to every shipping provider call
type ShippingConfig struct {
	Providers        []string
	CallTimeout      time.Duration
	MaxRetries       int
	RetryInitial     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
	// DefaultShipMode is "required" or "best_effort"
	DefaultShipMode string
	// ManualFlatRate is the decimal price quoted by the manual carrier
	ManualFlatRate string
	ManualETADays  int
}

// EngineConfig holds the transactional limits of the order engine
type EngineConfig struct {
	TransactionTimeout     time.Duration
	LockTimeout            time.Duration
	BulkMaxOrders          int
	IdempotencyTTL         time.Duration
	// IntegritySweepInterval runs the background ledger check for every active
	// tenant; zero disables the sweep
	IntegritySweepInterval time.Duration
	SweepWorkers           int
}

// Load loads configuration from .env, config.yaml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SALESFLOW_ prefix (e.g., SALESFLOW_DATABASE_PASSWORD)
// 2. config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	// A missing .env is fine; variables may come from the real environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			Issuer:                v.GetString("jwt.issuer"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			WebhookSecret:    v.GetString("http.webhook_secret"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			Profiling: ProfilingConfig{
				Enabled:           v.GetBool("telemetry.profiling_enabled"),
				ServerAddress:     v.GetString("telemetry.profiling_server_address"),
				ApplicationName:   v.GetString("telemetry.profiling_application_name"),
				BasicAuthUser:     v.GetString("telemetry.profiling_basic_auth_user"),
				BasicAuthPassword: v.GetString("telemetry.profiling_basic_auth_password"),
				ProfileTypes:      v.GetStringSlice("telemetry.profiling_types"),
				MutexFraction:     v.GetInt("telemetry.profiling_mutex_fraction"),
				BlockRate:         v.GetInt("telemetry.profiling_block_rate"),
				SpanProfiles:      v.GetBool("telemetry.profiling_span_profiles"),
			},
		},
		Kafka: KafkaConfig{
			Brokers:      v.GetStringSlice("kafka.brokers"),
			Topic:        v.GetString("kafka.topic"),
			WriteTimeout: v.GetDuration("kafka.write_timeout"),
		},
		Shipping: ShippingConfig{
			Providers:        v.GetStringSlice("shipping.providers"),
			CallTimeout:      v.GetDuration("shipping.call_timeout"),
			MaxRetries:       v.GetInt("shipping.max_retries"),
			RetryInitial:     v.GetDuration("shipping.retry_initial"),
			BreakerThreshold: v.GetInt("shipping.breaker_threshold"),
			BreakerCooldown:  v.GetDuration("shipping.breaker_cooldown"),
			DefaultShipMode:  v.GetString("shipping.default_ship_mode"),
			ManualFlatRate:   v.GetString("shipping.manual_flat_rate"),
			ManualETADays:    v.GetInt("shipping.manual_eta_days"),
		},
		Engine: EngineConfig{
			TransactionTimeout: v.GetDuration("engine.transaction_timeout"),
			LockTimeout:        v.GetDuration("engine.lock_timeout"),
			BulkMaxOrders:      v.GetInt("engine.bulk_max_orders"),
			IdempotencyTTL:     v.GetDuration("engine.idempotency_ttl"),

			IntegritySweepInterval: v.GetDuration("engine.integrity_sweep_interval"),
			SweepWorkers:           v.GetInt("engine.sweep_workers"),
		},
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
		cfg.App.Name = "salesflow"
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
		cfg.Database.DBName = "salesflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host != "" && cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "salesflow"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
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
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "salesflow"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.Profiling.ApplicationName == "" {
		cfg.Telemetry.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
	if cfg.Telemetry.Profiling.MutexFraction == 0 {
		cfg.Telemetry.Profiling.MutexFraction = 5
	}
	if cfg.Telemetry.Profiling.BlockRate == 0 {
		cfg.Telemetry.Profiling.BlockRate = 5
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "salesflow.domain-events"
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if len(cfg.Shipping.Providers) == 0 {
		cfg.Shipping.Providers = []string{"manual"}
	}
	if cfg.Shipping.CallTimeout == 0 {
		cfg.Shipping.CallTimeout = 10 * time.Second
	}
	if cfg.Shipping.MaxRetries == 0 {
		cfg.Shipping.MaxRetries = 2
	}
	if cfg.Shipping.RetryInitial == 0 {
		cfg.Shipping.RetryInitial = 200 * time.Millisecond
	}
	if cfg.Shipping.BreakerThreshold == 0 {
		cfg.Shipping.BreakerThreshold = 5
	}
	if cfg.Shipping.BreakerCooldown == 0 {
		cfg.Shipping.BreakerCooldown = 30 * time.Second
	}
	if cfg.Shipping.DefaultShipMode == "" {
		cfg.Shipping.DefaultShipMode = "required"
	}
	if cfg.Shipping.ManualFlatRate == "" {
		cfg.Shipping.ManualFlatRate = "5.00"
	}
	if cfg.Shipping.ManualETADays == 0 {
		cfg.Shipping.ManualETADays = 3
	}
	if cfg.Engine.TransactionTimeout == 0 {
		cfg.Engine.TransactionTimeout = 30 * time.Second
	}
	if cfg.Engine.LockTimeout == 0 {
		cfg.Engine.LockTimeout = 5 * time.Second
	}
	if cfg.Engine.BulkMaxOrders == 0 {
		cfg.Engine.BulkMaxOrders = 100
	}
	if cfg.Engine.IdempotencyTTL == 0 {
		cfg.Engine.IdempotencyTTL = 72 * time.Hour
	}
	if cfg.Engine.SweepWorkers == 0 {
		cfg.Engine.SweepWorkers = 2
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Engine.IntegritySweepInterval < 0 {
		return fmt.Errorf("engine.integrity_sweep_interval cannot be negative")
	}
	if c.Engine.BulkMaxOrders < 0 {
		return fmt.Errorf("engine.bulk_max_orders cannot be negative")
	}
	if c.Engine.LockTimeout >= c.Engine.TransactionTimeout {
		return fmt.Errorf("engine.lock_timeout (%s) must be shorter than engine.transaction_timeout (%s)",
			c.Engine.LockTimeout, c.Engine.TransactionTimeout)
	}
	switch c.Shipping.DefaultShipMode {
	case "required", "best_effort":
	default:
		return fmt.Errorf("shipping.default_ship_mode must be required or best_effort, got %q", c.Shipping.DefaultShipMode)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.Profiling.Enabled && c.Telemetry.Profiling.ServerAddress == "" {
		return fmt.Errorf("telemetry.profiling_server_address is required when profiling is enabled")
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
