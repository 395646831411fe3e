package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Inventory InventoryConfig
	Seed      SeedConfig
}

// Load reads the process environment. Call godotenv.Load first when a .env
// file should take part.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.App.IsProd() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in %s", AppEnvProd)
	}
	return nil
}

type AppConfig struct {
	Name         string `envconfig:"APP_NAME" default:"Retail Inventory API"`
	Env          string `envconfig:"APP_ENV" default:"development"`
	Port         string `envconfig:"PORT" default:"3000"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"mysql"`
	DSN      string `envconfig:"DB_DSN"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"retail_inventory"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// ConnectionString returns DSN verbatim when set, otherwise builds one for the
// configured driver.
func (d DBConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
	case DriverSQLite:
		return d.Name + ".db"
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name)
	}
}

type RedisConfig struct {
	URL            string        `envconfig:"REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

const defaultJWTSecret = "your-super-secret-key-change-in-production"

type JWTConfig struct {
	Secret string        `envconfig:"JWT_SECRET" default:"your-super-secret-key-change-in-production"`
	Issuer string        `envconfig:"JWT_ISSUER" default:"go-retail-ws"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

type InventoryConfig struct {
	DefaultReorderLevel int `envconfig:"INVENTORY_DEFAULT_REORDER_LEVEL" default:"10"`
}

type SeedConfig struct {
	AdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"admin123"`
	AdminName     string `envconfig:"SEED_ADMIN_NAME" default:"Super Admin"`
}
