package sms

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/taqiudeen275/furniture-auth/internal/config"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

var phonePattern = regexp.MustCompile(`^\d{5,15}$`)

// Service delivers OTP codes through the configured provider
type Service struct {
	provider SMSProvider
	appName  string
}

// NewService creates a new SMS service
func NewService(provider SMSProvider, appName string) *Service {
	return &Service{
		provider: provider,
		appName:  appName,
	}
}

// NewProvider builds the provider named by the SMS configuration
func NewProvider(cfg *config.Config, log logger.Logger) (SMSProvider, error) {
	switch cfg.SMS.Provider {
	case "arkesel":
		return NewArkeselProvider(cfg.SMS.Arkesel.ApiKey, cfg.SMS.Arkesel.Sender), nil
	case "kafka":
		return NewKafkaProvider(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	case "log", "":
		return NewLogProvider(log), nil
	default:
		return nil, fmt.Errorf("unknown SMS provider %q", cfg.SMS.Provider)
	}
}

// SendOTP sends an OTP to phone
func (s *Service) SendOTP(ctx context.Context, phone, code string) error {
	if err := validatePhoneNumber(phone); err != nil {
		return fmt.Errorf("invalid phone number: %w", err)
	}

	return s.provider.SendOTP(ctx, phone, code, s.appName)
}

// SendMessage sends a custom SMS message
func (s *Service) SendMessage(ctx context.Context, to, message string) error {
	if err := validatePhoneNumber(to); err != nil {
		return fmt.Errorf("invalid phone number: %w", err)
	}

	return s.provider.SendSMS(ctx, to, message)
}

// validatePhoneNumber validates a phone number format
func validatePhoneNumber(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	cleanPhone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "").Replace(phone)
	if !phonePattern.MatchString(cleanPhone) {
		return fmt.Errorf("phone number must contain 5-15 digits")
	}

	return nil
}

// LogProvider writes messages to the log instead of sending them
type LogProvider struct {
	logger logger.Logger
}

// NewLogProvider creates a provider for local development
func NewLogProvider(log logger.Logger) *LogProvider {
	return &LogProvider{logger: log}
}

// SendSMS logs the message
func (p *LogProvider) SendSMS(_ context.Context, to, message string) error {
	p.logger.With("to", to).Info("SMS: %s", message)
	return nil
}

// SendOTP logs the code
func (p *LogProvider) SendOTP(_ context.Context, to, otp, appName string) error {
	p.logger.With("to", to).Info("%s OTP: %s", appName, otp)
	return nil
}
