package sms

import "context"

// SMSProvider defines the interface for SMS sending providers
type SMSProvider interface {
	SendSMS(ctx context.Context, to, message string) error
	SendOTP(ctx context.Context, to, otp, appName string) error
}

// SMSResponse represents a generic SMS API response
type SMSResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
