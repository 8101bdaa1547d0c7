// Package config loads the frame configuration from defaults, an optional
// config file, .env files, and ICANVAS_ prefixed environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Redis   RedisConfig   `mapstructure:"redis"`
	S3      S3Config      `mapstructure:"s3"`
	Display DisplayConfig `mapstructure:"display"`
	Log     LogConfig     `mapstructure:"log"`
	Client  ClientConfig  `mapstructure:"client"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr" validate:"required"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type StorageConfig struct {
	RootPath string `mapstructure:"root_path" validate:"required"`
}

func (s StorageConfig) DBPath() string {
	return filepath.Join(s.RootPath, "iotacanvas.db")
}

func (s StorageConfig) ArtworkDir() string {
	return filepath.Join(s.RootPath, "artwork")
}

// QRPath is where the receive address qr code is written.
func (s StorageConfig) QRPath() string {
	return filepath.Join(s.RootPath, "static", "images", "receive_address_qr.jpg")
}

type WalletConfig struct {
	URL     string        `mapstructure:"url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Node replaces the stored iota node at startup when set.
	Node string `mapstructure:"node" validate:"omitempty,url"`
	// Commission buys new artwork from the ai marketplace on each refresh.
	Commission bool `mapstructure:"commission"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db" validate:"gte=0"`
	BalanceTTL time.Duration `mapstructure:"balance_ttl" validate:"gt=0"`
}

type S3Config struct {
	Profile string `mapstructure:"profile"`
	Bucket  string `mapstructure:"bucket" validate:"required_with=Profile"`
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

type DisplayConfig struct {
	Output   string `mapstructure:"output" validate:"required"`
	ImvPath  string `mapstructure:"imv_path" validate:"required"`
	Disabled bool   `mapstructure:"disabled"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gt=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("storage.root_path", ".")
	v.SetDefault("wallet.url", "")
	v.SetDefault("wallet.timeout", 30*time.Second)
	v.SetDefault("wallet.node", "")
	v.SetDefault("wallet.commission", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.balance_ttl", 2*time.Minute)
	v.SetDefault("s3.profile", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("display.output", "HDMI-A-1")
	v.SetDefault("display.imv_path", "/usr/bin/imv-wayland")
	v.SetDefault("display.disabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 10*time.Second)
}

// loadDotEnv loads every file that exists. Values already in the
// environment win, and earlier files win over later ones.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration. The config file named by ICANVAS_CONFIG is
// optional; environment variables override it, e.g. ICANVAS_WALLET_URL.
func Load() (*Config, error) {
	if err := loadDotEnv(".env.local", ".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("ICANVAS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("ICANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
