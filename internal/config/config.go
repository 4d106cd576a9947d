package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and passed explicitly; nothing mutates it afterwards.
type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	JWT         JWTConfig        `mapstructure:"jwt"`
	Scheduling  SchedulingConfig `mapstructure:"scheduling"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Email       EmailConfig      `mapstructure:"email"`
	Audit       AuditConfig      `mapstructure:"audit"`
	Metrics     MetricsConfig    `mapstructure:"metrics"`
	Security    SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type SchedulingConfig struct {
	Timezone           string        `mapstructure:"timezone"`
	DefaultSlotMinutes int           `mapstructure:"default_slot_minutes"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
}

// Location resolves the clinic timezone.
func (s SchedulingConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

type StorageConfig struct {
	AttachmentsDir string `mapstructure:"attachments_dir"`
	PublicPrefix   string `mapstructure:"public_prefix"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	OnCall   string `mapstructure:"on_call"`
}

// Enabled reports whether alert emails should be sent.
func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.OnCall != ""
}

type AuditConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	CleanupPeriod time.Duration `mapstructure:"cleanup_period"`
}

type SecurityConfig struct {
	// EncryptionKey is a base64 AES key (16, 24 or 32 bytes) sealing
	// sensitive profile fields at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "care")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "care-api")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("scheduling.timezone", "UTC")
	v.SetDefault("scheduling.default_slot_minutes", 30)
	v.SetDefault("scheduling.lock_ttl", 5*time.Second)

	v.SetDefault("storage.attachments_dir", "./media/attachments")
	v.SetDefault("storage.public_prefix", "/media/attachments")
	v.SetDefault("storage.max_upload_bytes", 10<<20)

	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "alerts@care.local")
	v.SetDefault("email.on_call", "")

	v.SetDefault("audit.retention", 90*24*time.Hour)
	v.SetDefault("audit.cleanup_period", 24*time.Hour)

	v.SetDefault("metrics.namespace", "care")

	v.SetDefault("security.encryption_key", "")
	v.SetDefault("security.bcrypt_cost", 12)
}

// Load reads .env (when present), then config.yaml from path or the default
// search paths, then CARE_* environment variables.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for admin commands that only need the database.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if _, err := c.Scheduling.Location(); err != nil {
		return fmt.Errorf("invalid scheduling.timezone: %w", err)
	}
	if m := c.Scheduling.DefaultSlotMinutes; m < 5 || m > 240 {
		return fmt.Errorf("scheduling.default_slot_minutes must be within [5, 240], got %d", m)
	}
	if cost := c.Security.BcryptCost; cost < 4 || cost > 31 {
		return fmt.Errorf("security.bcrypt_cost must be within [4, 31], got %d", cost)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
