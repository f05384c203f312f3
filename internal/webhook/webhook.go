// internal/webhook/webhook.go

// Package webhook delivers extraction records to a user-configured HTTP
// endpoint and classifies delivery failures so callers can tell a
// misconfigured URL apart from a transient network blip.
package webhook

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/record"
	"github.com/finlayconn-ai/webhooks-for-tella/internal/utils"
)

// ErrorCategory classifies a delivery failure.
type ErrorCategory string

const (
	// CategoryConfig means the endpoint URL is unusable as given.
	CategoryConfig ErrorCategory = "config"
	// CategoryNetwork means the endpoint could not be reached.
	CategoryNetwork ErrorCategory = "network"
	// CategoryCertificate means TLS verification of the endpoint failed.
	CategoryCertificate ErrorCategory = "certificate"
	// CategoryClient means the endpoint rejected the request (4xx).
	CategoryClient ErrorCategory = "client"
	// CategoryServer means the endpoint failed to process it (5xx).
	CategoryServer ErrorCategory = "server"
)

// DeliveryError is a categorized delivery failure. The original error is
// preserved for unwrapping; StatusCode is set for HTTP-level rejections.
type DeliveryError struct {
	Category   ErrorCategory
	StatusCode int
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook delivery failed (%s): endpoint returned %d", e.Category, e.StatusCode)
	}
	return fmt.Sprintf("webhook delivery failed (%s): %v", e.Category, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a later delivery of the same record could
// plausibly succeed without operator intervention.
func (e *DeliveryError) Retryable() bool {
	return e.Category == CategoryNetwork || e.Category == CategoryServer
}

// SenderConfig tunes the delivery client.
type SenderConfig struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Sender posts records to the configured endpoint.
type Sender struct {
	config SenderConfig
	client *http.Client
	log    utils.Logger

	delivered int
	failed    int
}

// NewSender validates the endpoint URL and builds a sender.
func NewSender(config SenderConfig, log utils.Logger) (*Sender, error) {
	if err := ValidateURL(config.URL); err != nil {
		return nil, err
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if log == nil {
		log = utils.NewLogger()
	}

	return &Sender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    log,
	}, nil
}

// ValidateURL checks that a webhook endpoint is a usable absolute HTTP(S)
// URL. The returned error is a config-category DeliveryError.
func ValidateURL(raw string) error {
	configErr := func(cause error) error {
		return &DeliveryError{Category: CategoryConfig, Cause: cause}
	}

	if strings.TrimSpace(raw) == "" {
		return configErr(errors.New("webhook URL is empty"))
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return configErr(fmt.Errorf("webhook URL does not parse: %w", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return configErr(fmt.Errorf("webhook URL scheme %q is not http or https", parsed.Scheme))
	}
	if parsed.Host == "" {
		return configErr(errors.New("webhook URL has no host"))
	}
	return nil
}

// Send delivers one record as a JSON POST. The payload is the pruned
// record document; absent fields never appear.
func (s *Sender) Send(ctx context.Context, rec *record.Record) error {
	payload, err := rec.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Category: CategoryConfig, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.UserAgent != "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.failed++
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.failed++
		category := CategoryServer
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			category = CategoryClient
		}
		return &DeliveryError{
			Category:   category,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("endpoint %s returned status %d", s.config.URL, resp.StatusCode),
		}
	}

	s.delivered++
	s.log.WithField("status", resp.StatusCode).Debug("webhook delivered")
	return nil
}

// classifyTransportError distinguishes certificate problems from plain
// connectivity failures.
func classifyTransportError(err error) *DeliveryError {
	var certInvalid x509.CertificateInvalidError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certVerify *tls.CertificateVerificationError
	if errors.As(err, &certVerify) ||
		errors.As(err, &certInvalid) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) {
		return &DeliveryError{Category: CategoryCertificate, Cause: err}
	}
	return &DeliveryError{Category: CategoryNetwork, Cause: err}
}

// GetStats returns delivery counters.
func (s *Sender) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":  s.config.URL,
		"delivered": s.delivered,
		"failed":    s.failed,
	}
}
