package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Auth        AuthConfig     `yaml:"auth"`
	SMS         SMSConfig      `yaml:"sms"`
	Kafka       KafkaConfig    `yaml:"kafka"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host                 string          `yaml:"host"`
	Port                 int             `yaml:"port"`
	ReadTimeout          time.Duration   `yaml:"read_timeout"`
	WriteTimeout         time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout      time.Duration   `yaml:"shutdown_timeout"`
	MaintenanceWhitelist []string        `yaml:"maintenance_whitelist"`
	CORS                 CORSConfig      `yaml:"cors"`
	RateLimit            RateLimitConfig `yaml:"rate_limit"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConns        int32         `yaml:"max_connections"`
	MinConns        int32         `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	AccessSecret       string        `yaml:"access_secret"`
	RefreshSecret      string        `yaml:"refresh_secret"`
	Issuer             string        `yaml:"issuer"`
	AccessExpiration   time.Duration `yaml:"access_expiration"`
	RefreshExpiration  time.Duration `yaml:"refresh_expiration"`
	OTPExpiration      time.Duration `yaml:"otp_expiration"`
	VerifiedExpiration time.Duration `yaml:"verified_expiration"`
	DailyOTPLimit      int           `yaml:"daily_otp_limit"`
	LoginFailureLimit  int           `yaml:"login_failure_limit"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	UseTestOTP         bool          `yaml:"use_test_otp"`
}

// SMSConfig represents SMS configuration
type SMSConfig struct {
	Provider string        `yaml:"provider"` // arkesel, kafka, log
	AppName  string        `yaml:"app_name"`
	Arkesel  ArkeselConfig `yaml:"arkesel"`
}

// ArkeselConfig represents Arkesel configuration
type ArkeselConfig struct {
	ApiKey string `yaml:"api_key"`
	Sender string `yaml:"sender"`
}

// KafkaConfig represents the broker used for OTP delivery
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ConnectionString returns the PostgreSQL connection string
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Load loads configuration from .env, file and environment variables
func Load() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	config := getDefaultConfig()

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnv(config)

	if err := NewConfigValidator().Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// getDefaultConfig returns default configuration
func getDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:                 "localhost",
			Port:                 8080,
			ReadTimeout:          30 * time.Second,
			WriteTimeout:         30 * time.Second,
			ShutdownTimeout:      30 * time.Second,
			MaintenanceWhitelist: []string{"127.0.0.1"},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"http://localhost:5173"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Refresh-Token"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           86400,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 100,
			},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "furniture",
			User:            "postgres",
			Password:        "password",
			SSLMode:         "disable",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Auth: AuthConfig{
			Issuer:             "furniture-auth",
			AccessExpiration:   15 * time.Minute,
			RefreshExpiration:  30 * 24 * time.Hour,
			OTPExpiration:      2 * time.Minute,
			VerifiedExpiration: 10 * time.Minute,
			DailyOTPLimit:      3,
			LoginFailureLimit:  2,
			BcryptCost:         10,
		},
		SMS: SMSConfig{
			Provider: "log",
			AppName:  "Furniture",
		},
		Kafka: KafkaConfig{
			Topic: "otp-delivery",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// getConfigPath returns the configuration file path
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	locations := []string{
		"./config.yaml",
		"./config.yml",
		"./configs/config.yaml",
		"./configs/config.yml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "./config.yaml"
}

// loadFromFile loads configuration from YAML file
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Database configuration
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		config.Database.Name = name
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		config.Database.SSLMode = sslMode
	}

	// Redis configuration
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}

	// Auth configuration
	if secret := os.Getenv("ACCESS_TOKEN_SECRET"); secret != "" {
		config.Auth.AccessSecret = secret
	}
	if secret := os.Getenv("REFRESH_TOKEN_SECRET"); secret != "" {
		config.Auth.RefreshSecret = secret
	}
	if v := os.Getenv("USE_TEST_OTP"); v != "" {
		config.Auth.UseTestOTP = v == "true" || v == "1"
	}

	// SMS configuration
	if provider := os.Getenv("SMS_PROVIDER"); provider != "" {
		config.SMS.Provider = provider
	}
	if key := os.Getenv("ARKESEL_API_KEY"); key != "" {
		config.SMS.Arkesel.ApiKey = key
	}
	if sender := os.Getenv("ARKESEL_SENDER"); sender != "" {
		config.SMS.Arkesel.Sender = sender
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		config.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("KAFKA_OTP_TOPIC"); topic != "" {
		config.Kafka.Topic = topic
	}

	// Logging configuration
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// SaveExample saves an example configuration file
func SaveExample(path string) error {
	config := getDefaultConfig()

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
