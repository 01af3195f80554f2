// Package config carga y valida la configuración desde variables de entorno (.env opcional).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

type Config struct {
	Port    string
	AppName string

	Log     LogConfig
	Store   StoreConfig
	Blob    BlobConfig
	Auth    AuthConfig
	Workers WorkerConfig
	HTTP    HTTPConfig

	// BackupSchedule es una expresión cron (vacío => sin backups programados).
	BackupSchedule string
	// Seed carga datos de ejemplo cuando el store está vacío.
	Seed    bool
	Swagger bool
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type StoreConfig struct {
	Driver     string
	DSN        string // postgres
	SQLitePath string
	Dynamo     DynamoConfig
}

type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string
	// crea la tabla si no existe (local/dev)
	CreateTable bool
}

type BlobConfig struct {
	Driver     string // memory | fs | s3
	Dir        string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	PathStyle  bool
}

type AuthConfig struct {
	// JWTSecret habilita la verificación local HS256.
	JWTSecret string
	JWTIssuer string
	// IntrospectURL habilita la verificación remota.
	IntrospectURL string
	APIKey        string
	Timeout       time.Duration
}

// DevMode: sin verificador configurado se aceptan headers X-Debug-*.
func (a AuthConfig) DevMode() bool {
	return a.JWTSecret == "" && a.IntrospectURL == ""
}

type WorkerConfig struct {
	Count     int
	QueueSize int
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load lee .env (si existe), luego el entorno, y valida.
func Load() (*Config, error) {
	// .env es opcional
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv arma la Config con defaults sin validar.
func FromEnv() *Config {
	return &Config{
		Port:    getEnv("PORT", "8080"),
		AppName: getEnv("APP_NAME", "procurement-hub"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
			DSN:        getEnv("DB_DSN", ""),
			SQLitePath: getEnv("SQLITE_PATH", "data/procurement.db"),
			Dynamo: DynamoConfig{
				Table:       getEnv("DYNAMODB_TABLE", "procurement_records"),
				Region:      getEnv("AWS_REGION", "us-east-1"),
				Endpoint:    getEnv("DYNAMODB_ENDPOINT", ""),
				CreateTable: getEnvBool("DYNAMODB_CREATE_TABLE", false),
			},
		},
		Blob: BlobConfig{
			Driver:     strings.ToLower(getEnv("BLOB_DRIVER", "memory")),
			Dir:        getEnv("BLOB_DIR", "data/blobs"),
			S3Bucket:   getEnv("BLOB_S3_BUCKET", ""),
			S3Region:   getEnv("BLOB_S3_REGION", "us-east-1"),
			S3Endpoint: getEnv("BLOB_S3_ENDPOINT", ""),
			PathStyle:  getEnvBool("BLOB_S3_PATH_STYLE", false),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			JWTIssuer:     getEnv("JWT_ISSUER", ""),
			IntrospectURL: getEnv("AUTH_INTROSPECT_URL", ""),
			APIKey:        getEnv("AUTH_API_KEY", ""),
			Timeout:       getEnvDuration("AUTH_TIMEOUT", 5*time.Second),
		},
		Workers: WorkerConfig{
			Count:     getEnvInt("WORKER_COUNT", 2),
			QueueSize: getEnvInt("WORKER_QUEUE_SIZE", 64),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		BackupSchedule: getEnv("BACKUP_SCHEDULE", ""),
		Seed:           getEnvBool("SEED_DATA", true),
		Swagger:        getEnvBool("SWAGGER_ENABLED", true),
	}
}

// Default es la configuración de dev/tests: todo en memoria, modo dev de auth.
func Default() *Config {
	return &Config{
		Port:    "8080",
		AppName: "procurement-hub",
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Driver: StoreMemory},
		Blob:    BlobConfig{Driver: "memory"},
		Auth:    AuthConfig{Timeout: 5 * time.Second},
		Workers: WorkerConfig{Count: 2, QueueSize: 64},
		HTTP: HTTPConfig{
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Seed:    true,
		Swagger: true,
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("DB_DSN is required for STORE_DRIVER=postgres")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for STORE_DRIVER=sqlite")
		}
	case StoreDynamoDB:
		if c.Store.Dynamo.Table == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for STORE_DRIVER=dynamodb")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Blob.Driver {
	case "memory", "fs":
	case "s3":
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("BLOB_S3_BUCKET is required for BLOB_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Workers.Count <= 0 || c.Workers.QueueSize <= 0 {
		return fmt.Errorf("WORKER_COUNT and WORKER_QUEUE_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
