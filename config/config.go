package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AES      AESConfig      `mapstructure:"aes"`
	Log      LogConfig      `mapstructure:"log"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Gateways GatewaysConfig `mapstructure:"gateways"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Mode   string `mapstructure:"mode"`   // debug, release, test
	Secret string `mapstructure:"secret"` // server secret, hashes gateway ids and payment ids
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256, encrypts gateway secrets at rest
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// ThrottleConfig controls per-gateway+IP admission throttling.
// A zero limit, period or ban duration disables that respective check.
type ThrottleConfig struct {
	RequestsLimit int           `mapstructure:"requests_limit"`
	Period        time.Duration `mapstructure:"period"`
	IPBanDuration time.Duration `mapstructure:"ip_ban_duration"`
}

// OrdersConfig controls order lifecycle behaviour shared by all gateways.
type OrdersConfig struct {
	ExpirationOvertime   time.Duration `mapstructure:"expiration_overtime"`
	StatusCheckPeriod    time.Duration `mapstructure:"status_check_period"`
	CountOrders          bool          `mapstructure:"count_orders"`
	CheckStatusInDBFirst bool          `mapstructure:"check_status_in_db_first"`
}

// GatewaysConfig selects where gateway definitions live: a DB table or this
// config file. Static holds the config-file flavour.
type GatewaysConfig struct {
	Source string          `mapstructure:"source"` // db | config
	Dir    string          `mapstructure:"dir"`    // where static gateways persist last_keychain_index files
	Static []StaticGateway `mapstructure:"static"`
}

// StaticGateway is one gateway defined in the config file. Its id is its
// 1-based position in the list.
type StaticGateway struct {
	Name                     string   `mapstructure:"name"`
	PubKey                   string   `mapstructure:"pubkey"`
	Secret                   string   `mapstructure:"secret"`
	ConfirmationsRequired    int      `mapstructure:"confirmations_required"`
	CheckSignature           bool     `mapstructure:"check_signature"`
	CallbackURL              string   `mapstructure:"callback_url"`
	DefaultCurrency          string   `mapstructure:"default_currency"`
	ReuseThreshold           int      `mapstructure:"reuse_threshold"`
	OrderExpirationSeconds   int      `mapstructure:"order_expiration_seconds"`
	ExchangeRateAdapterNames []string `mapstructure:"exchange_rate_adapters"`
	Active                   bool     `mapstructure:"active"`
	TestMode                 bool     `mapstructure:"test_mode"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BPG_ (Bitcoin Payment
// Gateway). Nested keys use underscore: BPG_DATABASE_HOST, BPG_AES_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9696)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.secret", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "btc_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "btcgw")
	v.SetDefault("aes.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("throttle.requests_limit", 0)
	v.SetDefault("throttle.period", "0s")
	v.SetDefault("throttle.ip_ban_duration", "0s")
	v.SetDefault("orders.expiration_overtime", "0s")
	v.SetDefault("orders.status_check_period", "10s")
	v.SetDefault("orders.count_orders", false)
	v.SetDefault("orders.check_status_in_db_first", false)
	v.SetDefault("gateways.source", "db")
	v.SetDefault("gateways.dir", ".")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: BPG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("BPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
