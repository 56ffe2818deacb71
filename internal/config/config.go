package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Otp      OtpConfig
	Email    EmailConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode selects the Redis topology ("single", "sentinel", "cluster").
	// Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs lists Redis addresses (host:port). Used for all modes; for
	// "single" the first entry wins.
	Addrs []string `mapstructure:"addrs"`

	// Addr is the single-mode address, used when Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName is the Redis master name (sentinel mode only).
	MasterName string `mapstructure:"master_name"`
}

// JWTConfig holds the token settings.
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// OtpConfig holds the one-time passcode policy.
type OtpConfig struct {
	// TTL is the validity window of an issued code.
	TTL time.Duration `mapstructure:"ttl"`
	// MaxAttempts is the verification attempt limit per record.
	MaxAttempts int `mapstructure:"max_attempts"`
	// CleanupInterval is the period of the background sweeper.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// EmailConfig holds the outbound email settings. When ResendAPIKey is
// empty, OTP codes are only written to the log (the reference behavior).
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from the given file and the environment.
// Environment variables are bound explicitly so they work without a file.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("otp.ttl", 5*time.Minute)
	vip.SetDefault("otp.max_attempts", 3)
	vip.SetDefault("otp.cleanup_interval", 10*time.Minute)
	vip.SetDefault("jwt.expirationHrs", 168)

	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.issuer", "JWT_ISSUER")
	vip.BindEnv("jwt.audience", "JWT_AUDIENCE")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("otp.ttl", "OTP_TTL")
	vip.BindEnv("otp.max_attempts", "OTP_MAX_ATTEMPTS")
	vip.BindEnv("otp.cleanup_interval", "OTP_CLEANUP_INTERVAL")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, using environment variables/defaults.", configPath)
			} else {
				log.Printf("Warning: failed to read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}

	return &cfg, nil
}
