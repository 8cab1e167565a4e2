package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Social   SocialConfig   `mapstructure:"social"`
	Guild    GuildConfig    `mapstructure:"guild"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql | postgres
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	PostgresDSN  string        `mapstructure:"postgres_dsn"`
	ReplicaDSNs  []string      `mapstructure:"replica_dsns"` // postgres read replicas
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type SocialConfig struct {
	OnlineWindow        time.Duration `mapstructure:"online_window"`
	RecommendationLimit int           `mapstructure:"recommendation_limit"`
	SearchLimit         int           `mapstructure:"search_limit"`
	ActivityLimit       int           `mapstructure:"activity_limit"`
}

type GuildConfig struct {
	DefaultMaxMembers      int           `mapstructure:"default_max_members"`
	LeaderboardLimit       int           `mapstructure:"leaderboard_limit"`
	ChallengeSweepInterval time.Duration `mapstructure:"challenge_sweep_interval"`
}

type NotifyConfig struct {
	AMQPURL       string        `mapstructure:"amqp_url"` // empty disables the broker publisher
	AMQPExchange  string        `mapstructure:"amqp_exchange"`
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type MetricsConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Path     string   `mapstructure:"path"`
	AllowIPs []string `mapstructure:"allow_ips"` // empty allows everyone
}

// Load reads config from the given YAML file path. Values from a .env file in
// the working directory and GLIT_* environment variables override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GLIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that would keep the server from
// starting correctly.
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is not set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Mode {
	case "sqlite":
	case "mysql":
		if c.Database.MySQLDSN == "" {
			return errors.New("database.mysql_dsn is required in mysql mode")
		}
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return errors.New("database.postgres_dsn is required in postgres mode")
		}
	default:
		return fmt.Errorf("database.mode %q is not one of sqlite, mysql, postgres", c.Database.Mode)
	}
	if n := c.Guild.DefaultMaxMembers; n < 2 || n > 100 {
		return fmt.Errorf("guild.default_max_members %d must be within 2..100", n)
	}
	if c.Notify.AMQPURL != "" && c.Notify.AMQPExchange == "" {
		return errors.New("notify.amqp_exchange is required when amqp_url is set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/glit.db")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_life", "1h")
	v.SetDefault("cache.key_prefix", "glit:")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("social.online_window", "5m")
	v.SetDefault("social.recommendation_limit", 10)
	v.SetDefault("social.search_limit", 20)
	v.SetDefault("social.activity_limit", 20)
	v.SetDefault("guild.default_max_members", 20)
	v.SetDefault("guild.leaderboard_limit", 10)
	v.SetDefault("guild.challenge_sweep_interval", "5m")
	v.SetDefault("notify.amqp_exchange", "notifications")
	v.SetDefault("notify.retention", "720h")
	v.SetDefault("notify.prune_interval", "1h")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
