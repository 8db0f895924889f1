package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"upload-converter/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Env       string          `yaml:"env" env:"APP_ENV" env-default:"local" validate:"oneof=local dev prod"`
	Debug     bool            `yaml:"debug" env:"APP_DEBUG" env-default:"false"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Converter ConverterConfig `yaml:"converter"`
	DB        DBConfig        `yaml:"db"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Retry     RetryConfig     `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type StorageConfig struct {
	UploadsDir    string `yaml:"uploads_dir" env:"STORAGE_UPLOADS_DIR" env-default:"./uploads" validate:"required"`
	BaseURL       string `yaml:"base_url" env:"STORAGE_BASE_URL" env-default:"http://localhost:8080/uploads" validate:"required,url"`
	MaxUploadSize int64  `yaml:"max_upload_size" env:"STORAGE_MAX_UPLOAD_SIZE" env-default:"33554432" validate:"min=1"`
}

// ConverterConfig mirrors the media settings of the converter.
type ConverterConfig struct {
	Enabled   bool `yaml:"enabled" env:"CONVERTER_ENABLED" env-default:"false"`
	MaxWidth  uint `yaml:"max_width" env:"CONVERTER_MAX_WIDTH" env-default:"1920" validate:"min=1,max=9999"`
	MaxHeight uint `yaml:"max_height" env:"CONVERTER_MAX_HEIGHT" env-default:"1080" validate:"min=1,max=9999"`
	Quality   uint `yaml:"quality" env:"CONVERTER_QUALITY" env-default:"80"`
	MaxPixels int  `yaml:"max_pixels" env:"CONVERTER_MAX_PIXELS" env-default:"100000000" validate:"min=1"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"uploads"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"uploads"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	UploadTopic string   `yaml:"upload_topic" env:"KAFKA_UPLOAD_TOPIC" env-default:"media-uploads"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"min=1"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads the YAML file named by CONFIG_PATH when it is set, otherwise the
// environment alone, and validates the result.
func MustLoad() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("invalid config: %s", verrs.Error())
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DBEnabled() bool {
	return c.DB.Host != ""
}

func (c *Config) MinIOEnabled() bool {
	return c.MinIO.Endpoint != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

// ConversionConfig is read by the upload hook before every conversion.
func (c *Config) ConversionConfig() domain.ConversionConfig {
	return domain.ConversionConfig{
		Enabled:   c.Converter.Enabled,
		MaxWidth:  c.Converter.MaxWidth,
		MaxHeight: c.Converter.MaxHeight,
		Quality:   c.Converter.Quality,
	}
}
