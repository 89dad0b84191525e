package config

import (
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	OIDC    OIDCConfig    `mapstructure:"oidc"`
	Log     LogConfig     `mapstructure:"log"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Admin   AdminConfig   `mapstructure:"admin"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver          string        `mapstructure:"driver"` // "mysql", "postgres" or "sqlite3"
	DSN             string        `mapstructure:"dsn"`    // overrides the individual fields when set
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// OIDCConfig holds OIDC client configuration. SSO is disabled when IssuerURL is empty.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// CacheConfig holds the settings cache configuration.
type CacheConfig struct {
	FilePath string        `mapstructure:"file_path"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// UploadConfig controls where uploaded images go and what is accepted.
type UploadConfig struct {
	Dir          string   `mapstructure:"dir"`
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// AdminConfig holds the credentials of the account seeded on first run.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
}

// DriverName returns the database/sql driver name registered for the configured database.
func (c DBConfig) DriverName() string {
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql", "pgx":
		return "pgx"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return "mysql"
	}
}

// DataSourceName builds the driver-specific DSN from the individual fields
// unless an explicit DSN was configured. MySQL DSNs always get clientFoundRows,
// so an UPDATE that matches a row reports it even when nothing changed.
func (c DBConfig) DataSourceName() string {
	if c.DSN != "" {
		if c.DriverName() == "mysql" {
			return withClientFoundRows(c.DSN)
		}
		return c.DSN
	}
	switch c.DriverName() {
	case "pgx":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     "/" + c.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case "sqlite3":
		return c.Name + "?_foreign_keys=on"
	default:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, c.Port)
		cfg.DBName = c.Name
		cfg.ParseTime = true
		cfg.MultiStatements = true
		cfg.ClientFoundRows = true
		return cfg.FormatDSN()
	}
}

// withClientFoundRows turns on clientFoundRows in a MySQL DSN. A DSN the driver
// cannot parse is returned unchanged and fails later, at connect time.
func withClientFoundRows(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.name", "news_portal")
	v.SetDefault("db.user", "portal")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "5m")
	v.SetDefault("session.lifetime", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.allowed_types", []string{"jpg", "jpeg", "png", "gif", "webp"})
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.email", "admin@localhost")

	// Set up viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-news-portal/")
	v.AddConfigPath("$HOME/.go-news-portal")

	// Attempt to read the config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The older deployments exported the libpq / MySQL variable names directly.
	aliases := map[string][]string{
		"db.host":            {"PORTAL_DB_HOST", "PGHOST", "MYSQL_HOST"},
		"db.port":            {"PORTAL_DB_PORT", "PGPORT", "MYSQL_PORT"},
		"db.name":            {"PORTAL_DB_NAME", "PGDATABASE", "MYSQL_DATABASE"},
		"db.user":            {"PORTAL_DB_USER", "PGUSER", "MYSQL_USER"},
		"db.password":        {"PORTAL_DB_PASSWORD", "PGPASSWORD", "MYSQL_PASSWORD"},
		"session.secret_key": {"PORTAL_SESSION_SECRET_KEY", "SESSION_SECRET"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	// Unmarshal the config into the Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
