package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ledger   LedgerConfig
	Feed     FeedConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LedgerConfig - настройки движка расчётов
type LedgerConfig struct {
	// Таймаут ожидания блокировки кошелька внутри транзакции.
	// Неположительное значение заменяется движком на значение
	// по умолчанию (3s), см. ledger.DefaultLockTimeout.
	LockTimeout time.Duration
}

// FeedConfig - настройки потребителя ценового фида
type FeedConfig struct {
	// Подключаться ли к внешнему фиду при старте.
	// При false тики принимаются только через HTTP API.
	Enabled bool

	// WebSocket URL источника цен
	URL string

	// WebSocket настройки (event-driven, без polling)
	ReconnectDelay time.Duration // задержка перед переподключением WS
	PingInterval   time.Duration // интервал ping для поддержания соединения
	ReadTimeout    time.Duration // таймаут чтения WS сообщений

	// Retry логика переподключения
	MaxRetries   int
	RetryBackoff time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "pickcoin"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Ledger: LedgerConfig{
			LockTimeout: getEnvAsDuration("LEDGER_LOCK_TIMEOUT", 3*time.Second),
		},
		Feed: FeedConfig{
			Enabled:        getEnvAsBool("FEED_ENABLED", false),
			URL:            getEnv("FEED_URL", ""),
			ReconnectDelay: getEnvAsDuration("FEED_RECONNECT_DELAY", 1*time.Second),
			PingInterval:   getEnvAsDuration("FEED_PING_INTERVAL", 15*time.Second),
			ReadTimeout:    getEnvAsDuration("FEED_READ_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvAsInt("FEED_MAX_RETRIES", 4),
			RetryBackoff:   getEnvAsDuration("FEED_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}

	if c.Ledger.LockTimeout < 0 {
		return fmt.Errorf("LEDGER_LOCK_TIMEOUT cannot be negative, got %v", c.Ledger.LockTimeout)
	}

	if c.Feed.Enabled && c.Feed.URL == "" {
		return fmt.Errorf("FEED_URL is required when FEED_ENABLED is set")
	}

	if c.Feed.MaxRetries < 0 {
		return fmt.Errorf("FEED_MAX_RETRIES cannot be negative, got %d", c.Feed.MaxRetries)
	}

	if c.Feed.MaxRetries > 10 {
		return fmt.Errorf("FEED_MAX_RETRIES should not exceed 10, got %d", c.Feed.MaxRetries)
	}

	if c.Feed.ReadTimeout <= 0 {
		return fmt.Errorf("FEED_READ_TIMEOUT must be positive, got %v", c.Feed.ReadTimeout)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
