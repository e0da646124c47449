package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

// Config — корневая конфигурация сервиса, читается из config.yaml и .env.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig описывает HTTP сервер и лимиты загрузки.
type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	APIPrefix          string `mapstructure:"api_prefix"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
	MaxUploadSizeMB    int    `mapstructure:"max_upload_size_mb"`
}

// StoreConfig describes the status-check store. DSN and Namespace are required.
type StoreConfig struct {
	Driver               string `mapstructure:"driver"`
	DSN                  string `mapstructure:"dsn"`
	Namespace            string `mapstructure:"namespace"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectRetries       int    `mapstructure:"connect_retries"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec"`
}

// KafkaConfig enables removal events when at least one broker is set.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Enabled сообщает, настроена ли отправка событий.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// StorageConfig configures the optional archive of processed images.
type StorageConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Type         string `mapstructure:"type"`
	LocalPath    string `mapstructure:"local_path"`
	ProcessedDir string `mapstructure:"processed_dir"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

// ProcessingConfig selects the removal backend and sizes the worker pool.
// Tolerance and Softness are pointers so that an explicit 0 differs from an absent key.
type ProcessingConfig struct {
	Backend         string   `mapstructure:"backend"`
	Workers         int      `mapstructure:"workers"`
	MaxQueue        int      `mapstructure:"max_queue"`
	Tolerance       *float64 `mapstructure:"tolerance"`
	Softness        *float64 `mapstructure:"softness"`
	RembgURL        string   `mapstructure:"rembg_url"`
	RembgModel      string   `mapstructure:"rembg_model"`
	RembgTimeoutSec int      `mapstructure:"rembg_timeout_sec"`
}

// LocalTolerance возвращает допуск цвета фона, DefaultTolerance если ключ не задан.
func (p ProcessingConfig) LocalTolerance() float64 {
	if p.Tolerance == nil {
		return DefaultTolerance
	}
	return *p.Tolerance
}

// LocalSoftness возвращает ширину полосы растушёвки, DefaultSoftness если ключ не задан.
func (p ProcessingConfig) LocalSoftness() float64 {
	if p.Softness == nil {
		return DefaultSoftness
	}
	return *p.Softness
}

// LoggingConfig задаёт уровень логирования zerolog.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

const (
	DefaultAPIPrefix = "/api"
	DefaultWorkers   = 2
	DefaultTolerance = 48
	DefaultSoftness  = 24
)

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// Load загружает конфиг через wbf, применяет переменные окружения и значения
// по умолчанию, затем валидирует. Пустой path ищет config.yaml в рабочей
// директории и в /app.
func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(appConfig)
	applyDefaults(appConfig)

	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("store_driver", appConfig.Store.Driver).
		Str("store_namespace", appConfig.Store.Namespace).
		Str("backend", appConfig.Processing.Backend).
		Int("workers", appConfig.Processing.Workers).
		Bool("archive", appConfig.Storage.Enabled).
		Bool("events", appConfig.Kafka.Enabled()).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

// applyEnvOverrides подставляет STORE_DSN и STORE_NAMESPACE поверх config.yaml.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("STORE_DSN")); v != "" {
		cfg.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("STORE_NAMESPACE")); v != "" {
		cfg.Store.Namespace = v
	}
}

// applyDefaults заполняет незаданные поля значениями по умолчанию.
func applyDefaults(cfg *Config) {
	if cfg.Server.APIPrefix == "" {
		cfg.Server.APIPrefix = DefaultAPIPrefix
	}
	cfg.Server.APIPrefix = "/" + strings.Trim(cfg.Server.APIPrefix, "/")
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "postgres"
	}
	if cfg.Processing.Backend == "" {
		cfg.Processing.Backend = "local"
	}
	if cfg.Processing.Workers == 0 {
		cfg.Processing.Workers = DefaultWorkers
	}
	if cfg.Storage.ProcessedDir == "" {
		cfg.Storage.ProcessedDir = "processed"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// validateConfig возвращает первую найденную ошибку конфигурации.
func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}
	if cfg.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb must be positive")
	}

	// Store
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if cfg.Store.Namespace == "" {
		return fmt.Errorf("store.namespace is required")
	}
	if !namespacePattern.MatchString(cfg.Store.Namespace) {
		return fmt.Errorf("store.namespace may contain only letters, digits, '_' and '-'")
	}
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.MaxOpenConns <= 0 {
			return fmt.Errorf("store.max_open_conns must be positive")
		}
		if cfg.Store.MaxIdleConns < 0 {
			return fmt.Errorf("store.max_idle_conns must be non-negative")
		}
	case "redis", "sqlite":
	default:
		return fmt.Errorf("store.driver must be 'postgres', 'redis' or 'sqlite'")
	}

	// Kafka
	if cfg.Kafka.Enabled() && cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}

	// Storage
	if cfg.Storage.Enabled {
		if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
			return fmt.Errorf("storage.type must be 'local' or 's3'")
		}
		if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for local storage")
		}
		if cfg.Storage.Type == "s3" {
			if cfg.Storage.S3Endpoint == "" {
				return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
			}
			if cfg.Storage.S3Bucket == "" {
				return fmt.Errorf("storage.s3_bucket is required for s3 storage")
			}
			if cfg.Storage.S3AccessKey == "" || cfg.Storage.S3SecretKey == "" {
				return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
			}
		}
	}

	// Processing
	if cfg.Processing.Workers <= 0 {
		return fmt.Errorf("processing.workers must be positive")
	}
	if cfg.Processing.MaxQueue < 0 {
		return fmt.Errorf("processing.max_queue must be non-negative")
	}
	switch cfg.Processing.Backend {
	case "local":
		if cfg.Processing.LocalTolerance() < 0 || cfg.Processing.LocalSoftness() < 0 {
			return fmt.Errorf("processing.tolerance and processing.softness must be non-negative")
		}
	case "rembg":
		if cfg.Processing.RembgURL == "" {
			return fmt.Errorf("processing.rembg_url is required for the rembg backend")
		}
	default:
		return fmt.Errorf("processing.backend must be 'local' or 'rembg'")
	}

	return nil
}
