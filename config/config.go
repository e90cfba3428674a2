package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"

	// Public sandbox credentials published by eSewa for integration testing.
	ESewaTestSecretKey   = "8gBm/:&EnhH.1/q"
	ESewaTestProductCode = "EPAYTEST"
	ESewaTestFormURL     = "https://rc-epay.esewa.com.np/api/epay/main/v2/form"
	ESewaTestStatusURL   = "https://rc.esewa.com.np/api/epay/transaction/status/"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Redis             RedisConfig
	Kafka             KafkaConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	ESewa             ESewaConfig
	Payments          PaymentsConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	Environment string
	APIKey      string
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvProduction)
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	StatusTTL time.Duration
}

type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type ESewaConfig struct {
	SecretKey   string
	ProductCode string
	FormURL     string
	StatusURL   string
	SuccessURL  string
	FailureURL  string
	HTTPTimeout time.Duration
	// UsingTestCredentials is set when the sandbox secret was applied as a fallback.
	UsingTestCredentials bool
}

type PaymentsConfig struct {
	Currency                  string
	NotificationMaxAttempts   int32
	NotificationRetryInterval time.Duration
	NotificationHTTPTimeout   time.Duration
	PendingTimeout            time.Duration
	ReconcileStaleAfter       time.Duration
	JobBatchSize              int32
}

type JobsConfig struct {
	ReconcileInterval            time.Duration
	NotificationDispatchInterval time.Duration
	ExpirePendingInterval        time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	app := AppConfig{
		ServiceName: getEnv("APP_SERVICE_NAME", "pos-payments-service"),
		Environment: getEnv("APP_ENV", "development"),
		APIKey:      getEnv("APP_API_KEY", ""),
	}

	esewa, err := loadESewaConfig(app)
	if err != nil {
		return nil, err
	}

	return &Config{
		App: app,
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			StatusTTL: getSecondsEnv("REDIS_STATUS_TTL_SECONDS", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           getListEnv("KAFKA_BROKERS"),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "payments.status"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		ESewa: esewa,
		Payments: PaymentsConfig{
			Currency:                  strings.ToUpper(getEnv("PAYMENTS_CURRENCY", "NPR")),
			NotificationMaxAttempts:   int32(getIntEnv("PAYMENTS_NOTIFICATION_MAX_ATTEMPTS", 10)),
			NotificationRetryInterval: getMinutesEnv("PAYMENTS_NOTIFICATION_RETRY_INTERVAL_MINUTES", 5*time.Minute),
			NotificationHTTPTimeout:   getSecondsEnv("PAYMENTS_NOTIFICATION_HTTP_TIMEOUT_SECONDS", 10*time.Second),
			PendingTimeout:            getMinutesEnv("PAYMENTS_PENDING_TIMEOUT_MINUTES", 60*time.Minute),
			ReconcileStaleAfter:       getMinutesEnv("PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			JobBatchSize:              int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			ReconcileInterval:            getMinutesEnv("PAYMENTS_RECONCILE_INTERVAL_MINUTES", 2*time.Minute),
			NotificationDispatchInterval: getMinutesEnv("PAYMENTS_NOTIFICATION_DISPATCH_INTERVAL_MINUTES", time.Minute),
			ExpirePendingInterval:        getMinutesEnv("PAYMENTS_EXPIRE_PENDING_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

// loadESewaConfig refuses to start a production deployment without explicit
// gateway credentials. Other environments fall back to the public sandbox.
func loadESewaConfig(app AppConfig) (ESewaConfig, error) {
	cfg := ESewaConfig{
		SecretKey:   os.Getenv("ESEWA_SECRET_KEY"),
		ProductCode: os.Getenv("ESEWA_PRODUCT_CODE"),
		FormURL:     os.Getenv("ESEWA_FORM_URL"),
		StatusURL:   os.Getenv("ESEWA_STATUS_URL"),
		SuccessURL:  getEnv("ESEWA_SUCCESS_URL", "http://localhost:3000/payment/success"),
		FailureURL:  getEnv("ESEWA_FAILURE_URL", "http://localhost:3000/payment/failure"),
		HTTPTimeout: getSecondsEnv("ESEWA_HTTP_TIMEOUT_SECONDS", 10*time.Second),
	}

	if app.IsProduction() {
		switch {
		case cfg.SecretKey == "":
			return ESewaConfig{}, errors.New("ESEWA_SECRET_KEY environment variable is required in production")
		case cfg.ProductCode == "":
			return ESewaConfig{}, errors.New("ESEWA_PRODUCT_CODE environment variable is required in production")
		case cfg.FormURL == "" || cfg.StatusURL == "":
			return ESewaConfig{}, errors.New("ESEWA_FORM_URL and ESEWA_STATUS_URL are required in production")
		}
		return cfg, nil
	}

	if cfg.SecretKey == "" {
		cfg.SecretKey = ESewaTestSecretKey
		cfg.UsingTestCredentials = true
	}
	if cfg.ProductCode == "" {
		cfg.ProductCode = ESewaTestProductCode
	}
	if cfg.FormURL == "" {
		cfg.FormURL = ESewaTestFormURL
	}
	if cfg.StatusURL == "" {
		cfg.StatusURL = ESewaTestStatusURL
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	items := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
