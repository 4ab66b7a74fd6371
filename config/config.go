package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvDev        = "dev"
	EnvProduction = "production"
)

type Config struct {
	ServerPort int
	Env        string
	Database   DatabaseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	OTP        OTPConfig
	SMS        SMSConfig
	SMTP       SMTPConfig
	Storage    StorageConfig
	MQ         MQConfig
	Log        LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
}

// AdminConfig holds the built-in administrator credentials. The
// administrator never has a database row; these values are the only
// place it exists.
type AdminConfig struct {
	Email    string
	Password string
	Username string
}

type OTPConfig struct {
	// Store selects the ledger backend: "memory" or "redis".
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type SMSConfig struct {
	// Mode selects the outbound path: "gateway" posts directly to the
	// SMS gateway, "queue" publishes to the message broker for the
	// sms-worker to drain.
	Mode         string
	GatewayURL   string
	GatewayKey   string
	From         string
	QueueChannel string
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	MaxConns    int
	SendTimeout int // seconds
}

type StorageConfig struct {
	// Backend selects the object storage: "minio" or "gcs".
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
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

type MQConfig struct {
	// Backend selects the broker: "rabbitmq" or "pubsub".
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type LogConfig struct {
	Level      string
	ToFile     bool
	Filename   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

func LoadConfig() Config {
	if os.Getenv("ENV") == EnvDev {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Env:        getEnv("ENV", EnvDev),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "storefront_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@ecommerce.com"),
			Password: getEnv("ADMIN_PASSWORD", "Admin@123"),
			Username: getEnv("ADMIN_USERNAME", "Admin"),
		},
		OTP: OTPConfig{
			Store:         getEnv("OTP_STORE", "memory"),
			RedisAddr:     getEnv("OTP_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("OTP_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("OTP_REDIS_DB", 0),
		},
		SMS: SMSConfig{
			Mode:         getEnv("SMS_MODE", "gateway"),
			GatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
			GatewayKey:   getEnv("SMS_GATEWAY_KEY", ""),
			From:         getEnv("SMS_FROM", "Storefront"),
			QueueChannel: getEnv("SMS_QUEUE_CHANNEL", "sms-outbound"),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			From:        getEnv("SMTP_FROM", "E-Commerce App <no-reply@ecommerce.com>"),
			MaxConns:    getEnvInt("SMTP_MAX_CONNS", 2),
			SendTimeout: getEnvInt("SMTP_SEND_TIMEOUT", 10),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "minio"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "product-images"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		MQ: MQConfig{
			Backend: getEnv("MQ_BACKEND", "rabbitmq"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			ToFile:     getEnvBool("LOG_TO_FILE", false),
			Filename:   getEnv("LOG_FILENAME", "logs/api.log"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}
}

// IsProduction reports whether the server runs with production settings.
// It controls the Secure flag on the refresh token cookie.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
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
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}
