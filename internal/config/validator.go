package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ConfigValidator collects every configuration problem before failing
type ConfigValidator struct {
	errors ValidationErrors
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration
func (cv *ConfigValidator) Validate(config *Config) error {
	cv.errors = make(ValidationErrors, 0)

	validEnvironments := []string{"development", "test", "staging", "production"}
	if !cv.isValidChoice(config.Environment, validEnvironments) {
		cv.addError("environment", fmt.Sprintf("environment must be one of: %s", strings.Join(validEnvironments, ", ")))
	}

	cv.validateServer(&config.Server)
	cv.validateDatabase(&config.Database)
	cv.validateAuth(&config.Auth, config.IsProduction())
	cv.validateSMS(&config.SMS, &config.Kafka, config.IsProduction())
	cv.validateLogging(&config.Logging)

	if len(cv.errors) > 0 {
		return cv.errors
	}

	return nil
}

// validateServer validates server configuration
func (cv *ConfigValidator) validateServer(config *ServerConfig) {
	if config.Port <= 0 || config.Port > 65535 {
		cv.addError("server.port", fmt.Sprintf("port must be between 1 and 65535, got %d", config.Port))
	}

	if config.ReadTimeout <= 0 {
		cv.addError("server.read_timeout", "read timeout must be positive")
	}

	if config.WriteTimeout <= 0 {
		cv.addError("server.write_timeout", "write timeout must be positive")
	}

	if config.RateLimit.Enabled && config.RateLimit.RequestsPerMinute <= 0 {
		cv.addError("server.rate_limit.requests_per_minute", "requests per minute must be positive when rate limiting is enabled")
	}
}

// validateDatabase validates database configuration
func (cv *ConfigValidator) validateDatabase(config *DatabaseConfig) {
	if config.Host == "" {
		cv.addError("database.host", "host cannot be empty")
	}

	if config.Port <= 0 || config.Port > 65535 {
		cv.addError("database.port", fmt.Sprintf("port must be between 1 and 65535, got %d", config.Port))
	}

	if config.Name == "" {
		cv.addError("database.name", "database name cannot be empty")
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !cv.isValidChoice(config.SSLMode, validSSLModes) {
		cv.addError("database.ssl_mode", fmt.Sprintf("SSL mode must be one of: %s", strings.Join(validSSLModes, ", ")))
	}

	if config.MaxConns <= 0 {
		cv.addError("database.max_connections", "max connections must be positive")
	}

	if config.MinConns > config.MaxConns {
		cv.addError("database.min_connections", "min connections cannot exceed max connections")
	}
}

// validateAuth validates authentication configuration
func (cv *ConfigValidator) validateAuth(config *AuthConfig, production bool) {
	if config.AccessSecret == "" {
		cv.addError("auth.access_secret", "access token secret cannot be empty")
	}

	if config.RefreshSecret == "" {
		cv.addError("auth.refresh_secret", "refresh token secret cannot be empty")
	}

	if config.AccessSecret != "" && config.AccessSecret == config.RefreshSecret {
		cv.addError("auth.refresh_secret", "refresh token secret must differ from the access token secret")
	}

	if production && len(config.AccessSecret) < 32 {
		cv.addError("auth.access_secret", "access token secret should be at least 32 characters long in production")
	}

	if config.AccessExpiration <= 0 {
		cv.addError("auth.access_expiration", "access token expiration must be positive")
	}

	if config.RefreshExpiration <= config.AccessExpiration {
		cv.addError("auth.refresh_expiration", "refresh token expiration should be longer than access token expiration")
	}

	if config.OTPExpiration <= 0 {
		cv.addError("auth.otp_expiration", "OTP expiration must be positive")
	}

	if config.VerifiedExpiration <= 0 {
		cv.addError("auth.verified_expiration", "verified token expiration must be positive")
	}

	if config.DailyOTPLimit <= 0 {
		cv.addError("auth.daily_otp_limit", "daily OTP limit must be positive")
	}

	if config.LoginFailureLimit <= 0 {
		cv.addError("auth.login_failure_limit", "login failure limit must be positive")
	}

	if config.BcryptCost < 4 || config.BcryptCost > 31 {
		cv.addError("auth.bcrypt_cost", "bcrypt cost must be between 4 and 31")
	}

	if production && config.UseTestOTP {
		cv.addError("auth.use_test_otp", "the fixed test OTP cannot be enabled in production")
	}
}

// validateSMS validates the OTP delivery configuration
func (cv *ConfigValidator) validateSMS(config *SMSConfig, kafka *KafkaConfig, production bool) {
	switch config.Provider {
	case "log":
		if production {
			cv.addError("sms.provider", "the log provider writes OTPs to the log and cannot be used in production")
		}
	case "arkesel":
		if config.Arkesel.ApiKey == "" {
			cv.addError("sms.arkesel.api_key", "api key is required for the arkesel provider")
		}
	case "kafka":
		if len(kafka.Brokers) == 0 {
			cv.addError("kafka.brokers", "at least one broker is required for the kafka provider")
		}
		if kafka.Topic == "" {
			cv.addError("kafka.topic", "topic is required for the kafka provider")
		}
	default:
		cv.addError("sms.provider", fmt.Sprintf("unknown SMS provider: %s", config.Provider))
	}
}

// validateLogging validates logging configuration
func (cv *ConfigValidator) validateLogging(config *LoggingConfig) {
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !cv.isValidChoice(config.Level, validLogLevels) {
		cv.addError("logging.level", fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validFormats := []string{"json", "console"}
	if !cv.isValidChoice(config.Format, validFormats) {
		cv.addError("logging.format", fmt.Sprintf("log format must be one of: %s", strings.Join(validFormats, ", ")))
	}
}

func (cv *ConfigValidator) addError(field, message string) {
	cv.errors = append(cv.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func (cv *ConfigValidator) isValidChoice(value string, choices []string) bool {
	for _, choice := range choices {
		if value == choice {
			return true
		}
	}
	return false
}
