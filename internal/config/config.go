package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Backend      BackendConfig
	Auth         AuthConfig
	Session      SessionConfig
	Storage      StorageConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Dashboard    DashboardConfig
	Notification NotificationConfig
	Worker       WorkerConfig
	Audit        AuditConfig
	CORS         CORSConfig
	CSRF         CSRFConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

// BackendConfig describes the external Sorvide REST API.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	// ServiceToken is used by background jobs only; operators bring their own.
	ServiceToken string `mapstructure:"serviceToken"`
}

type AuthConfig struct {
	// FallbackPasswordHash is a bcrypt hash checked when the backend auth
	// endpoint is unreachable or missing. Empty disables the fallback.
	FallbackPasswordHash string `mapstructure:"fallbackPasswordHash"`
}

type SessionConfig struct {
	SigningKey   string        `mapstructure:"signingKey"`
	Lifetime     time.Duration `mapstructure:"lifetime"`
	CookieName   string        `mapstructure:"cookieName"`
	CookieSecure bool          `mapstructure:"cookieSecure"`
	Issuer       string        `mapstructure:"issuer"`
}

// StorageConfig selects where sessions, toasts and snapshots live: "redis" or "memory".
type StorageConfig struct {
	Driver      string        `mapstructure:"driver"`
	SnapshotTTL time.Duration `mapstructure:"snapshotTTL"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DashboardConfig struct {
	LicensesPerPage   int     `mapstructure:"licensesPerPage"`
	ActivitiesPerPage int     `mapstructure:"activitiesPerPage"`
	MonthlyPrice      float64 `mapstructure:"monthlyPrice"`
	YearlyPrice       float64 `mapstructure:"yearlyPrice"`
	RevenuePolicy     string  `mapstructure:"revenuePolicy"`
}

type NotificationConfig struct {
	DefaultDuration time.Duration `mapstructure:"defaultDuration"`
	FadeOut         time.Duration `mapstructure:"fadeOut"`
	PendingTTL      time.Duration `mapstructure:"pendingTTL"`
}

type WorkerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Concurrency    int    `mapstructure:"concurrency"`
	DigestSchedule string `mapstructure:"digestSchedule"`
	PruneSchedule  string `mapstructure:"pruneSchedule"`
}

type AuditConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	PageSize  int           `mapstructure:"pageSize"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type CSRFConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AuthKey string `mapstructure:"authKey"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownPeriod", 15*time.Second)

	v.SetDefault("backend.baseURL", "https://sorvide-backend.onrender.com/api")
	v.SetDefault("backend.requestTimeout", 10*time.Second)
	v.SetDefault("backend.serviceToken", "")

	v.SetDefault("auth.fallbackPasswordHash", "")

	v.SetDefault("session.signingKey", "")
	v.SetDefault("session.lifetime", 8*time.Hour)
	v.SetDefault("session.cookieName", "sorvide_admin_session")
	v.SetDefault("session.cookieSecure", true)
	v.SetDefault("session.issuer", "sorvide-admin")

	v.SetDefault("storage.driver", "redis")
	v.SetDefault("storage.snapshotTTL", 8*time.Hour)

	v.SetDefault("database.url", "")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", 5*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("dashboard.licensesPerPage", 12)
	v.SetDefault("dashboard.activitiesPerPage", 5)
	v.SetDefault("dashboard.monthlyPrice", 9.99)
	v.SetDefault("dashboard.yearlyPrice", 99.99)
	v.SetDefault("dashboard.revenuePolicy", "per-renewal")

	v.SetDefault("notification.defaultDuration", 3*time.Second)
	v.SetDefault("notification.fadeOut", 300*time.Millisecond)
	v.SetDefault("notification.pendingTTL", time.Minute)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.digestSchedule", "@every 15m")
	v.SetDefault("worker.pruneSchedule", "@daily")

	v.SetDefault("audit.retention", 90*24*time.Hour)
	v.SetDefault("audit.pageSize", 50)

	v.SetDefault("cors.allowOrigins", []string{"http://localhost:3000"})

	v.SetDefault("csrf.enabled", true)
	v.SetDefault("csrf.authKey", "")

	v.SetDefault("log.level", "info")
}
