package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TEAMTASK"

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type NotificationConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SeedUser is an account created at startup when it does not exist yet.
type SeedUser struct {
	Name        string   `mapstructure:"name"`
	Email       string   `mapstructure:"email"`
	Password    string   `mapstructure:"password"`
	Roles       []string `mapstructure:"roles"`
	Departments []string `mapstructure:"departments"`
}

type SeedConfig struct {
	AdminName     string     `mapstructure:"admin_name"`
	AdminEmail    string     `mapstructure:"admin_email"`
	AdminPassword string     `mapstructure:"admin_password"`
	Departments   []string   `mapstructure:"departments"`
	Users         []SeedUser `mapstructure:"users"`
}

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	JWT           JWTConfig          `mapstructure:"jwt"`
	Log           LogConfig          `mapstructure:"log"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	RateLimit     RateLimitConfig    `mapstructure:"ratelimit"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Seed          SeedConfig         `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.path", "teamtask.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("notifications.workers", 5)
	v.SetDefault("notifications.queue_size", 100)
	v.SetDefault("ratelimit.limit", 100)
	v.SetDefault("ratelimit.window", time.Hour)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("seed.admin_name", "Admin User")
	v.SetDefault("seed.admin_email", "admin@test.com")
	v.SetDefault("seed.admin_password", "")
	v.SetDefault("seed.departments", []string{})
	v.SetDefault("seed.users", []SeedUser{})
}

// Load reads the optional YAML file at path, then applies TEAMTASK_*
// environment overrides (server.addr -> TEAMTASK_SERVER_ADDR). A missing
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must not be empty")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if c.RateLimit.Limit < 1 {
		return errors.New("ratelimit.limit must be at least 1")
	}
	return nil
}
