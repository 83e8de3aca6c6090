package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const arkeselBaseURL = "https://sms.arkesel.com/api/v2"

var nonDigits = regexp.MustCompile(`\D`)

// ArkeselProvider implements SMS provider for Arkesel API
type ArkeselProvider struct {
	apiKey  string
	sender  string
	baseURL string
	client  *http.Client
}

// ArkeselSMSRequest represents the request payload for Arkesel SMS API
type ArkeselSMSRequest struct {
	Sender     string   `json:"sender"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// NewArkeselProvider creates a new Arkesel SMS provider
func NewArkeselProvider(apiKey, sender string) *ArkeselProvider {
	return &ArkeselProvider{
		apiKey:  apiKey,
		sender:  sender,
		baseURL: arkeselBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL points the provider at another endpoint
func (a *ArkeselProvider) WithBaseURL(baseURL string) *ArkeselProvider {
	a.baseURL = strings.TrimRight(baseURL, "/")
	return a
}

// SendSMS sends an SMS using Arkesel API
func (a *ArkeselProvider) SendSMS(ctx context.Context, to, message string) error {
	payload := ArkeselSMSRequest{
		Sender:     a.sender,
		Message:    message,
		Recipients: []string{formatGhanaianNumber(to)},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/sms/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("api-key", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	var response SMSResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("arkesel API error: %s", response.Message)
	}

	return nil
}

// SendOTP sends an OTP SMS using Arkesel API
func (a *ArkeselProvider) SendOTP(ctx context.Context, to, otp, appName string) error {
	return a.SendSMS(ctx, to, otpMessage(appName, otp))
}

func otpMessage(appName, otp string) string {
	return fmt.Sprintf("Your %s verification code is: %s. This code expires in 2 minutes. Do not share this code with anyone.", appName, otp)
}

// formatGhanaianNumber converts local numbers to the 233 international form
func formatGhanaianNumber(phoneNumber string) string {
	cleaned := nonDigits.ReplaceAllString(phoneNumber, "")

	switch {
	case strings.HasPrefix(cleaned, "233"):
		return cleaned
	case strings.HasPrefix(cleaned, "0"):
		return "233" + cleaned[1:]
	case len(cleaned) == 9:
		return "233" + cleaned
	}

	return cleaned
}
