package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the preservation service.
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Archive    ArchiveConfig
	Kafka      KafkaConfig
	Tracing    TracingConfig
	Upload     UploadConfig
	Processing ProcessingConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"preservd"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
}

type DatabaseConfig struct {
	URI            string        `env:"DATABASE_URI" envDefault:"mongodb://localhost:27017"`
	Name           string        `env:"DATABASE_NAME" envDefault:"preservd"`
	ConnectTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"10s"`
}

type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"STORAGE_BUCKET" envDefault:"preservd-artifacts"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
}

// ArchiveConfig points at the cold-tier archive filesystem (Globus Transfer).
type ArchiveConfig struct {
	Enabled      bool   `env:"ARCHIVE_ENABLED" envDefault:"false"`
	EndpointID   string `env:"ARCHIVE_ENDPOINT_ID"`
	BasePath     string `env:"ARCHIVE_BASE_PATH" envDefault:"/archive"`
	ClientID     string `env:"ARCHIVE_CLIENT_ID"`
	ClientSecret string `env:"ARCHIVE_CLIENT_SECRET"`
	TokenURL     string `env:"ARCHIVE_TOKEN_URL" envDefault:"https://auth.globus.org/v2/oauth2/token"`
	TransferURL  string `env:"ARCHIVE_TRANSFER_URL" envDefault:"https://transfer.api.globus.org/v0.10"`
}

type KafkaConfig struct {
	Brokers          []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	IngestionTopic   string        `env:"KAFKA_INGESTION_TOPIC" envDefault:"preservd.artifact.ingested"`
	Retries          int           `env:"KAFKA_RETRIES" envDefault:"3"`
	RetryBackoff     time.Duration `env:"KAFKA_RETRY_BACKOFF" envDefault:"500ms"`
	CompressionCodec string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchTimeout     time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=preservd"`
}

type UploadConfig struct {
	MaxSizeBytes      int64 `env:"UPLOAD_MAX_SIZE_BYTES" envDefault:"10737418240"`
	MultipartMemBytes int64 `env:"UPLOAD_MULTIPART_MEM_BYTES" envDefault:"52428800"`
}

// ProcessingConfig controls which downstream enrichment stages run after
// intake. When metadata extraction is enabled, freshly ingested artifacts
// stay in processing status until the extraction worker finishes.
type ProcessingConfig struct {
	EnableMetadataExtraction bool `env:"PROCESSING_ENABLE_METADATA_EXTRACTION" envDefault:"false"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
