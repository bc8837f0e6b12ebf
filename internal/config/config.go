package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	ProviderS3     = "s3"
	ProviderMinio  = "minio"
	ProviderMemory = "memory"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
	Storage  StorageConfig  `mapstructure:"Storage"`
	Files    FilesConfig    `mapstructure:"Files"`
	Log      LogConfig      `mapstructure:"Log"`
}

type ServerConfig struct {
	Port               string        `mapstructure:"Port"`
	GRPCPort           string        `mapstructure:"GRPCPort"`
	RequestTimeout     time.Duration `mapstructure:"RequestTimeout"`
	ShutdownTimeout    time.Duration `mapstructure:"ShutdownTimeout"`
	CORSAllowedOrigins []string      `mapstructure:"CORSAllowedOrigins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"Driver"`
	Host            string        `mapstructure:"Host"`
	Port            string        `mapstructure:"Port"`
	User            string        `mapstructure:"User"`
	Password        string        `mapstructure:"Password"`
	Name            string        `mapstructure:"Name"`
	SSLMode         string        `mapstructure:"SSLMode"`
	Path            string        `mapstructure:"Path"`
	MaxOpenConns    int           `mapstructure:"MaxOpenConns"`
	MaxIdleConns    int           `mapstructure:"MaxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"ConnMaxLifetime"`
	ConnectAttempts int           `mapstructure:"ConnectAttempts"`
	ConnectDelay    time.Duration `mapstructure:"ConnectDelay"`
}

type StorageConfig struct {
	Provider        string `mapstructure:"Provider"`
	Endpoint        string `mapstructure:"Endpoint"`
	Region          string `mapstructure:"Region"`
	AccessKeyID     string `mapstructure:"AccessKeyID"`
	SecretAccessKey string `mapstructure:"SecretAccessKey"`
	Bucket          string `mapstructure:"Bucket"`
	UsePathStyle    bool   `mapstructure:"UsePathStyle"`
	UseSSL          bool   `mapstructure:"UseSSL"`
	CreateBucket    bool   `mapstructure:"CreateBucket"`
}

type FilesConfig struct {
	MaxFileSize        int64    `mapstructure:"MaxFileSize"`
	BlockedExtensions  []string `mapstructure:"BlockedExtensions"`
	PresignedURLExpiry int      `mapstructure:"PresignedURLExpiry"`
	BulkUploadMaxFiles int      `mapstructure:"BulkUploadMaxFiles"`
	KeySuffixLength    int      `mapstructure:"KeySuffixLength"`
	DefaultContentType string   `mapstructure:"DefaultContentType"`
}

type LogConfig struct {
	Level  string `mapstructure:"Level"`
	Format string `mapstructure:"Format"`
}

// PresignExpiry возвращает срок жизни временной ссылки.
func (f FilesConfig) PresignExpiry() time.Duration {
	return time.Duration(f.PresignedURLExpiry) * time.Second
}

// SetDefaults регистрирует значения по умолчанию
func SetDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "2525")
	v.SetDefault("Server.GRPCPort", "50051")
	v.SetDefault("Server.RequestTimeout", 30*time.Minute)
	v.SetDefault("Server.ShutdownTimeout", 30*time.Second)
	v.SetDefault("Server.CORSAllowedOrigins", []string{"*"})

	v.SetDefault("Database.Driver", DriverPostgres)
	v.SetDefault("Database.Host", "localhost")
	v.SetDefault("Database.Port", "5432")
	v.SetDefault("Database.User", "postgres")
	v.SetDefault("Database.Password", "")
	v.SetDefault("Database.Name", "filestorage")
	v.SetDefault("Database.SSLMode", "disable")
	v.SetDefault("Database.Path", "filestorage.db")
	v.SetDefault("Database.MaxOpenConns", 25)
	v.SetDefault("Database.MaxIdleConns", 5)
	v.SetDefault("Database.ConnMaxLifetime", 5*time.Minute)
	v.SetDefault("Database.ConnectAttempts", 5)
	v.SetDefault("Database.ConnectDelay", 5*time.Second)

	v.SetDefault("Storage.Provider", ProviderMinio)
	v.SetDefault("Storage.Endpoint", "")
	v.SetDefault("Storage.Region", "us-east-1")
	v.SetDefault("Storage.AccessKeyID", "")
	v.SetDefault("Storage.SecretAccessKey", "")
	v.SetDefault("Storage.Bucket", "resources")
	v.SetDefault("Storage.UsePathStyle", true)
	v.SetDefault("Storage.UseSSL", false)
	v.SetDefault("Storage.CreateBucket", false)

	v.SetDefault("Files.MaxFileSize", int64(100<<20))
	v.SetDefault("Files.BlockedExtensions", []string{"exe", "bat", "cmd", "sh", "msi", "com", "scr"})
	v.SetDefault("Files.PresignedURLExpiry", 3600)
	v.SetDefault("Files.BulkUploadMaxFiles", 10)
	v.SetDefault("Files.KeySuffixLength", 8)
	v.SetDefault("Files.DefaultContentType", "application/octet-stream")

	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.Format", "text")
}

// NewConfig читает конфигурацию из файла path (или из стандартных каталогов) и переменных окружения
func NewConfig(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("filestorage")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home + "/.filestorage")
		}
		v.AddConfigPath("/etc/filestorage")
	}

	v.SetEnvPrefix("FILESTORAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Files.BlockedExtensions = normalizeExtensions(cfg.Files.BlockedExtensions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Port == "" || c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("database configuration is incomplete: host=%s, port=%s, user=%s, name=%s",
				c.Database.Host, c.Database.Port, c.Database.User, c.Database.Name)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Storage.Provider {
	case ProviderS3, ProviderMinio:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("unsupported storage provider %q", c.Storage.Provider)
	}

	if c.Files.MaxFileSize <= 0 {
		return fmt.Errorf("Files.MaxFileSize must be positive")
	}
	if c.Files.PresignedURLExpiry <= 0 {
		return fmt.Errorf("Files.PresignedURLExpiry must be positive")
	}
	if c.Files.BulkUploadMaxFiles <= 0 {
		return fmt.Errorf("Files.BulkUploadMaxFiles must be positive")
	}
	if c.Files.KeySuffixLength <= 0 || c.Files.KeySuffixLength > 32 {
		return fmt.Errorf("Files.KeySuffixLength must be between 1 and 32")
	}
	return nil
}

// GetDSN возвращает строку подключения для database/sql
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", c.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// MigrationURL возвращает URL базы в формате golang-migrate
func (c *DatabaseConfig) MigrationURL() string {
	if c.Driver == DriverSQLite {
		return "sqlite3://" + c.Path + "?_foreign_keys=on"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func normalizeExtensions(exts []string) []string {
	var out []string
	for _, e := range exts {
		for _, part := range strings.Split(e, ",") {
			part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
