package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-transcoder/internal/lock"
	"audio-transcoder/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ApplicationName names the config file and the flag set.
const ApplicationName = "audio-transcoder"

// Config holds all application configuration. Keys match the environment
// variable names in lower case; the same keys are accepted in a config file.
type Config struct {
	Port            string `mapstructure:"port" validate:"required,numeric"`
	MetricsPort     string `mapstructure:"metrics_port" validate:"required,numeric"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
	LogLevel        string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string `mapstructure:"log_format" validate:"oneof=json console auto"`
	LogHealthChecks bool   `mapstructure:"log_health_checks"`

	StorageBackend    string `mapstructure:"storage_backend" validate:"oneof=gcs s3 minio"`
	StorageEndpoint   string `mapstructure:"storage_endpoint"`
	S3Region          string `mapstructure:"s3_region"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3UsePathStyle    bool   `mapstructure:"s3_use_path_style"`
	MinIOEndpoint     string `mapstructure:"minio_endpoint" validate:"required_if=StorageBackend minio"`
	MinIOAccessKey    string `mapstructure:"minio_access_key"`
	MinIOSecretKey    string `mapstructure:"minio_secret_key"`
	MinIOUseSSL       bool   `mapstructure:"minio_use_ssl"`
	MinIORegion       string `mapstructure:"minio_region"`

	ScratchDir     string        `mapstructure:"scratch_dir" validate:"required"`
	FFmpegPath     string        `mapstructure:"ffmpeg_path" validate:"required"`
	EncoderTimeout time.Duration `mapstructure:"encoder_timeout" validate:"gt=0"`

	// MaxConcurrentEncodes caps parallel encoder processes; 0 means one per CPU.
	MaxConcurrentEncodes int `mapstructure:"max_concurrent_encodes" validate:"gte=0"`

	// MemoryLimit is the container memory limit in bytes, typically from the
	// Kubernetes Downward API. Zero leaves GOMEMLIMIT alone.
	MemoryLimit int64   `mapstructure:"memory_limit" validate:"gte=0"`
	MemoryRatio float64 `mapstructure:"memory_ratio" validate:"gt=0,lte=1"`

	LockBackend   string        `mapstructure:"lock_backend" validate:"oneof=file redis none"`
	LockTTL       time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	RedisAddr     string        `mapstructure:"redis_addr" validate:"required_if=LockBackend redis"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`

	TagSourceOnRename bool  `mapstructure:"tag_source_on_rename"`
	ProcessAllEvents  bool  `mapstructure:"process_all_events"`
	MaxBodyBytes      int64 `mapstructure:"max_body_bytes" validate:"gt=0"`

	SentryDSN         string `mapstructure:"sentry_dsn"`
	SentryEnvironment string `mapstructure:"sentry_environment"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
	// ShowVersion is set by --version; the caller prints build info and exits.
	ShowVersion bool `mapstructure:"-"`
}

var defaults = map[string]interface{}{
	"port":                   "8080",
	"metrics_port":           "9090",
	"metrics_enabled":        true,
	"log_level":              "info",
	"log_format":             "json",
	"log_health_checks":      false,
	"storage_backend":        storage.BackendGCS,
	"storage_endpoint":       "",
	"s3_region":              "",
	"s3_endpoint":            "",
	"s3_access_key_id":       "",
	"s3_secret_access_key":   "",
	"s3_use_path_style":      false,
	"minio_endpoint":         "",
	"minio_access_key":       "",
	"minio_secret_key":       "",
	"minio_use_ssl":          true,
	"minio_region":           "",
	"scratch_dir":            filepath.Join(os.TempDir(), ApplicationName),
	"ffmpeg_path":            "ffmpeg",
	"encoder_timeout":        "10m",
	"max_concurrent_encodes": 0,
	"memory_limit":           int64(0),
	"memory_ratio":           0.5,
	"lock_backend":           lock.BackendFile,
	"lock_ttl":               "15m",
	"redis_addr":             "",
	"redis_password":         "",
	"redis_db":               0,
	"tag_source_on_rename":   true,
	"process_all_events":     false,
	"max_body_bytes":         int64(1 << 20),
	"sentry_dsn":             "",
	"sentry_environment":     "",
}

var configValidate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig resolves configuration from flags, environment, an optional
// config file and defaults, in that order of precedence. It returns
// pflag.ErrHelp when --help was requested.
func LoadConfig(args []string) (*Config, error) {
	fs := pflag.NewFlagSet(ApplicationName, pflag.ContinueOnError)
	fs.String("port", "", "HTTP listen port")
	fs.String("metrics-port", "", "metrics listen port")
	fs.StringP("config", "c", "", "config file (yaml, json or toml)")
	fs.BoolP("debug", "d", false, "enable debug logging")
	fs.BoolP("version", "v", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if showVersion, _ := fs.GetBool("version"); showVersion {
		cfg.ShowVersion = true
		return cfg, nil
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("metrics_port", fs.Lookup("metrics-port")); err != nil {
		return nil, err
	}

	if err := readConfigFile(v, fs); err != nil {
		return nil, err
	}

	if debug, _ := fs.GetBool("debug"); debug {
		v.Set("log_level", "debug")
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(cfg.LockBackend))

	scratch, err := filepath.Abs(cfg.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory path: %w", err)
	}
	cfg.ScratchDir = scratch

	if err := configValidate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	// A redis lease that expires mid-encode lets a redelivery start a second
	// encode of the same object.
	if cfg.LockBackend == lock.BackendRedis && cfg.LockTTL <= cfg.EncoderTimeout {
		return nil, fmt.Errorf("invalid configuration: LOCK_TTL (%v) must exceed ENCODER_TIMEOUT (%v) with the redis lock backend",
			cfg.LockTTL, cfg.EncoderTimeout)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	if file, _ := fs.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName(ApplicationName)
	v.AddConfigPath(fmt.Sprintf("/etc/%s", ApplicationName))
	v.AddConfigPath(fmt.Sprintf("$HOME/.%s", ApplicationName))
	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// StorageConfig returns the settings for storage.New.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:           c.StorageBackend,
		GCSEndpoint:       c.StorageEndpoint,
		S3Region:          c.S3Region,
		S3Endpoint:        c.S3Endpoint,
		S3AccessKeyID:     c.S3AccessKeyID,
		S3SecretAccessKey: c.S3SecretAccessKey,
		S3UsePathStyle:    c.S3UsePathStyle,
		MinIOEndpoint:     c.MinIOEndpoint,
		MinIOAccessKey:    c.MinIOAccessKey,
		MinIOSecretKey:    c.MinIOSecretKey,
		MinIOUseSSL:       c.MinIOUseSSL,
		MinIORegion:       c.MinIORegion,
	}
}

// LockConfig returns the settings for lock.New. File locks live under the
// scratch root so they share its lifecycle.
func (c *Config) LockConfig() lock.Config {
	return lock.Config{
		Backend:       c.LockBackend,
		Dir:           c.LockDir(),
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		TTL:           c.LockTTL,
	}
}

// LockDir is where the file lock backend keeps its lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.ScratchDir, ".locks")
}

func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "********"
}
