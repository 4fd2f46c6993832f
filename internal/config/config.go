package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"food-cart/internal/models"
)

// Config holds all configuration for the cart service
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" envPrefix:"RABBITMQ_"`
	Cart     CartConfig     `yaml:"cart" envPrefix:"CART_"`
	Checkout CheckoutConfig `yaml:"checkout" envPrefix:"CHECKOUT_"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" env:"PORT"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// Storage drivers
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects where cart snapshots are kept
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"DRIVER"`
	FileDir     string `yaml:"file_dir" env:"FILE_DIR"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	SnapshotKey string `yaml:"snapshot_key" env:"SNAPSHOT_KEY"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host       string `yaml:"host" env:"HOST"`
	Port       int    `yaml:"port" env:"PORT"`
	User       string `yaml:"user" env:"USER"`
	Password   string `yaml:"password" env:"PASSWORD"`
	Database   string `yaml:"database" env:"NAME"`
	Migrations string `yaml:"migrations" env:"MIGRATIONS"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
}

type CartConfig struct {
	ServiceFee        models.Money `yaml:"service_fee" env:"SERVICE_FEE"`
	FallbackItemName  string       `yaml:"fallback_item_name" env:"FALLBACK_ITEM_NAME"`
	FallbackItemPrice models.Money `yaml:"fallback_item_price" env:"FALLBACK_ITEM_PRICE"`
}

type CheckoutConfig struct {
	TaxRate           float64 `yaml:"tax_rate" env:"TAX_RATE"`
	DefaultTipPercent int     `yaml:"default_tip_percent" env:"DEFAULT_TIP_PERCENT"`
}

// Default returns the configuration used when a key is absent everywhere
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000},
		Storage: StorageConfig{
			Driver:      DriverFile,
			FileDir:     "data",
			SQLitePath:  "data/cart.db",
			SnapshotKey: "food-delivery-cart",
		},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, Migrations: "migrations"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672},
		Cart: CartConfig{
			ServiceFee:        models.MustParseMoney("2.99"),
			FallbackItemName:  "Sample Item",
			FallbackItemPrice: models.MustParseMoney("12.99"),
		},
		Checkout: CheckoutConfig{TaxRate: 0.08, DefaultTipPercent: 18},
	}
}

// Load reads the YAML file at filename over the defaults, then loads the
// given .env files (".env" when none are named) and finally applies
// environment overrides. A missing .env file is not an error.
func Load(filename string, envFiles ...string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	if c.Storage.SnapshotKey == "" {
		return errors.New("storage.snapshot_key must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cart.ServiceFee < 0 || c.Cart.FallbackItemPrice < 0 {
		return errors.New("cart fees must not be negative")
	}
	if c.Checkout.TaxRate < 0 {
		return fmt.Errorf("invalid tax rate: %v", c.Checkout.TaxRate)
	}
	if c.Checkout.DefaultTipPercent < 0 || c.Checkout.DefaultTipPercent > 100 {
		return fmt.Errorf("invalid default tip percent: %d", c.Checkout.DefaultTipPercent)
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
