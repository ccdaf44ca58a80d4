package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// DefaultPaths are tried in order by LoadFirst.
var DefaultPaths = []string{
	"configs/config.yaml",
	"./configs/config.yaml",
	"/etc/camwatch/config.yaml",
	"config.yaml",
}

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

		// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
		// honored. Empty trusts none and uses the peer address.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	// Worker controls where the unauthenticated worker routes are served.
	// An empty address mounts them on the main listener.
	Worker struct {
		Address string `yaml:"address"`
	} `yaml:"worker"`

	Hub struct {
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		SendBuffer   int           `yaml:"send_buffer"`
	} `yaml:"hub"`

	Storage struct {
		Driver         string `yaml:"driver"`
		ConnectRetries int    `yaml:"connect_retries"`

		Postgres struct {
			Host         string `yaml:"host"`
			Port         int    `yaml:"port"`
			User         string `yaml:"user"`
			Password     string `yaml:"password"`
			DBName       string `yaml:"dbname"`
			SSLMode      string `yaml:"sslmode"`
			MaxOpenConns int    `yaml:"max_open_conns"`
		} `yaml:"postgres"`

		Redis struct {
			Address   string `yaml:"address"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			PoolSize  int    `yaml:"pool_size"`
			KeyPrefix string `yaml:"key_prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Auth struct {
		JWTSecret      string        `yaml:"jwt_secret"`
		TokenTTL       time.Duration `yaml:"token_ttl"`
		BcryptCost     int           `yaml:"bcrypt_cost"`
		AllowedOrigins []string      `yaml:"allowed_origins"`

		BootstrapAdmin struct {
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"bootstrap_admin"`
	} `yaml:"auth"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests

			// IdleTTL evicts per-client limiters unused for this long.
			IdleTTL time.Duration `yaml:"idle_ttl"`
		} `yaml:"http"`

		WebSocket struct {
			MaxConcurrent       int   `yaml:"max_concurrent_connections"`
			MaxMessageSizeBytes int64 `yaml:"max_message_size_bytes"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", proxy)
			}
		}
	}
	if c.Worker.Address != "" && c.Worker.Address == c.Server.Address {
		return fmt.Errorf("worker.address must differ from server.address")
	}

	// Hub
	if c.Hub.PingInterval <= 0 {
		return fmt.Errorf("hub.ping_interval must be > 0")
	}
	if c.Hub.PongTimeout <= c.Hub.PingInterval {
		return fmt.Errorf("hub.pong_timeout must be > hub.ping_interval")
	}
	if c.Hub.WriteTimeout <= 0 {
		return fmt.Errorf("hub.write_timeout must be > 0")
	}
	if c.Hub.SendBuffer <= 0 {
		return fmt.Errorf("hub.send_buffer must be > 0")
	}

	// Storage
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.Postgres.Host == "" || c.Storage.Postgres.DBName == "" {
			return fmt.Errorf("storage.postgres.host and dbname must be set when storage.driver=postgres")
		}
		if c.Storage.Postgres.Port <= 0 {
			return fmt.Errorf("storage.postgres.port must be > 0")
		}
	case StorageRedis:
		if c.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address must not be empty when storage.driver=redis")
		}
		if c.Storage.Redis.PoolSize <= 0 {
			return fmt.Errorf("storage.redis.pool_size must be > 0 when storage.driver=redis")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, postgres, redis (got %q)", c.Storage.Driver)
	}
	if c.Storage.ConnectRetries < 0 {
		return fmt.Errorf("storage.connect_retries must be >= 0")
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	admin := c.Auth.BootstrapAdmin
	if (admin.Username == "") != (admin.Password == "") {
		return fmt.Errorf("auth.bootstrap_admin.username and password must be set together")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.IdleTTL <= 0 {
			return fmt.Errorf("rate_limiting.http.idle_ttl must be > 0 when rate limiting is enabled")
		}
	}
	if c.RateLimiting.WebSocket.MaxConcurrent < 0 {
		return fmt.Errorf("rate_limiting.websocket.max_concurrent_connections must be >= 0")
	}
	if c.RateLimiting.WebSocket.MaxMessageSizeBytes < 0 {
		return fmt.Errorf("rate_limiting.websocket.max_message_size_bytes must be >= 0")
	}

	return nil
}

// PostgresDSN renders the connection string for the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	pg := c.Storage.Postgres
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		pg.Host, pg.User, pg.Password, pg.DBName, pg.Port, pg.SSLMode,
	)
}

// Load reads configuration from YAML file, applies defaults and env overrides.
// A missing file is not an error: defaults plus environment are used.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFirst loads the first path that exists. When none exist the defaults
// (with env overrides) are returned and path is empty.
func LoadFirst(paths []string) (cfg *Config, path string, err error) {
	for _, p := range paths {
		if _, statErr := os.Stat(p); statErr == nil {
			cfg, err = Load(p)
			return cfg, p, err
		}
	}
	cfg, err = Load("")
	return cfg, "", err
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":3000"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 15 * time.Second

	cfg.Hub.PingInterval = 30 * time.Second
	cfg.Hub.PongTimeout = 60 * time.Second
	cfg.Hub.WriteTimeout = 10 * time.Second
	cfg.Hub.SendBuffer = 64

	cfg.Storage.Driver = StorageMemory
	cfg.Storage.ConnectRetries = 5
	cfg.Storage.Postgres.Host = "localhost"
	cfg.Storage.Postgres.Port = 5432
	cfg.Storage.Postgres.User = "postgres"
	cfg.Storage.Postgres.Password = "postgres"
	cfg.Storage.Postgres.DBName = "camwatch"
	cfg.Storage.Postgres.SSLMode = "disable"
	cfg.Storage.Postgres.MaxOpenConns = 10
	cfg.Storage.Redis.Address = "localhost:6379"
	cfg.Storage.Redis.PoolSize = 10
	cfg.Storage.Redis.KeyPrefix = "camwatch:"

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Auth.BcryptCost = 10
	cfg.Auth.AllowedOrigins = []string{"*"}

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "camwatch"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	cfg.RateLimiting.HTTP.IdleTTL = 10 * time.Minute
	cfg.RateLimiting.WebSocket.MaxConcurrent = 0
	cfg.RateLimiting.WebSocket.MaxMessageSizeBytes = 4 * 1024

	return cfg
}

func (c *Config) applyEnvOverrides() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("CAMWATCH_SERVER_ADDRESS", &c.Server.Address)
	setString("CAMWATCH_WORKER_ADDRESS", &c.Worker.Address)
	setString("CAMWATCH_LOG_LEVEL", &c.Logging.Level)
	setString("CAMWATCH_LOG_FORMAT", &c.Logging.Format)
	setString("CAMWATCH_JWT_SECRET", &c.Auth.JWTSecret)
	setString("CAMWATCH_STORAGE_DRIVER", &c.Storage.Driver)
	setString("CAMWATCH_DB_HOST", &c.Storage.Postgres.Host)
	setString("CAMWATCH_DB_USER", &c.Storage.Postgres.User)
	setString("CAMWATCH_DB_PASSWORD", &c.Storage.Postgres.Password)
	setString("CAMWATCH_DB_NAME", &c.Storage.Postgres.DBName)
	setString("CAMWATCH_DB_SSLMODE", &c.Storage.Postgres.SSLMode)
	setString("CAMWATCH_REDIS_ADDRESS", &c.Storage.Redis.Address)
	setString("CAMWATCH_REDIS_PASSWORD", &c.Storage.Redis.Password)
	setString("CAMWATCH_ADMIN_USERNAME", &c.Auth.BootstrapAdmin.Username)
	setString("CAMWATCH_ADMIN_PASSWORD", &c.Auth.BootstrapAdmin.Password)

	if proxies := os.Getenv("CAMWATCH_TRUSTED_PROXIES"); proxies != "" {
		c.Server.TrustedProxies = nil
		for _, p := range strings.Split(proxies, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Server.TrustedProxies = append(c.Server.TrustedProxies, p)
			}
		}
	}
	if port := os.Getenv("CAMWATCH_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Storage.Postgres.Port = p
		}
	}
	if ttl := os.Getenv("CAMWATCH_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Auth.TokenTTL = d
		}
	}
}
