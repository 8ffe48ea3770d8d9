package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSecretKey is returned by Validate when no token signing key is configured.
var ErrMissingSecretKey = errors.New("SECRET_KEY is required")

const (
	defaultTokenTTL   = 30 * time.Minute
	defaultBcryptCost = 10
)

type Config struct {
	ServerPort int
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Cache      CacheConfig
	Storage    StorageConfig
	MQ         MQConfig
	NewRelic   NewRelicConfig
}

type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

type DatabaseConfig struct {
	// Driver is the database/sql driver name: "postgres" (lib/pq) or "pgx".
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	UseSSL      bool
	AutoMigrate bool
}

type AuthConfig struct {
	SecretKey  string
	TokenTTL   time.Duration
	BcryptCost int
}

// CacheConfig configures the redis note cache. An empty Addr disables caching.
type CacheConfig struct {
	Addr             string
	User             string
	Password         string
	TTL              time.Duration
	PingTimeout      time.Duration
	OperationTimeout time.Duration
	InvalidateDelay  time.Duration
}

// StorageConfig selects the object storage backend used for note exports.
// An empty Backend disables exports.
type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
	S3      S3Config
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// MQConfig selects the message broker used for note events and imports.
// An empty Backend disables publishing.
type MQConfig struct {
	Backend       string
	EventsChannel string
	ImportChannel string
	RabbitMQ      RabbitMQConfig
	PubSub        PubSubConfig
	SQS           SQSConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type SQSConfig struct {
	Region         string
	QueueURLPrefix string
	WaitTime       time.Duration
}

type NewRelicConfig struct {
	Enabled bool
	AppName string
	License string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Driver:      getEnv("DB_DRIVER", "postgres"),
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        getEnvInt("DB_PORT", 5432),
		User:        getEnv("DB_USER", "jotnotes"),
		Password:    getEnv("DB_PASSWORD", "password"),
		DBName:      getEnv("DB_NAME", "jotnotes_db"),
		UseSSL:      getEnvBool("DB_USE_SSL", false),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
	}

	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Server: ServerConfig{
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvBool("LOG_DEVELOPMENT", false),
		},
		Database: dbConfig,
		Auth: AuthConfig{
			SecretKey:  secret,
			TokenTTL:   getEnvDuration("ACCESS_TOKEN_TTL", defaultTokenTTL),
			BcryptCost: getEnvInt("BCRYPT_COST", defaultBcryptCost),
		},
		Cache: CacheConfig{
			Addr:             getEnv("CACHE_ADDR", ""),
			User:             getEnv("CACHE_USER", ""),
			Password:         getEnv("CACHE_PASSWORD", ""),
			TTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
			PingTimeout:      getEnvDuration("CACHE_PING_TIMEOUT", 2*time.Second),
			OperationTimeout: getEnvDuration("CACHE_OPERATION_TIMEOUT", time.Second),
			InvalidateDelay:  getEnvDuration("CACHE_INVALIDATE_DELAY", 500*time.Millisecond),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "")),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "jotnotes"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
			S3: S3Config{
				Bucket:       getEnv("S3_BUCKET", ""),
				Region:       getEnv("S3_REGION", "us-east-1"),
				BaseEndpoint: getEnv("S3_BASE_ENDPOINT", ""),
				AccessKey:    getEnv("S3_ACCESS_KEY", ""),
				SecretKey:    getEnv("S3_SECRET_KEY", ""),
			},
		},
		MQ: MQConfig{
			Backend:       strings.ToLower(getEnv("MQ_BACKEND", "")),
			EventsChannel: getEnv("MQ_EVENTS_CHANNEL", "notes-events"),
			ImportChannel: getEnv("MQ_IMPORT_CHANNEL", "notes-import"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
			SQS: SQSConfig{
				Region:         getEnv("SQS_REGION", "us-east-1"),
				QueueURLPrefix: getEnv("SQS_QUEUE_URL_PREFIX", ""),
				WaitTime:       getEnvDuration("SQS_WAIT_TIME", 10*time.Second),
			},
		},
		NewRelic: NewRelicConfig{
			Enabled: getEnvBool("NEW_RELIC_ENABLED", false),
			AppName: getEnv("NEW_RELIC_APP_NAME", "jotnotes-apiserver"),
			License: getEnv("NEW_RELIC_LICENSE", ""),
		},
	}
}

// Validate reports configuration that would leave the server unable to run.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return ErrMissingSecretKey
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "t", "true", "yes", "y":
		return true
	case "0", "f", "false", "no", "n":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}
