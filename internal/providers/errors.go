// Package providers holds the failure taxonomy shared by the external integration clients.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorConnection indicates the provider could not be reached at all
	ErrorConnection ErrorCategory = "connection"

	// ErrorBadData indicates the provider returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorRejected indicates the provider answered with a non-success status
	ErrorRejected ErrorCategory = "rejected"

	// ErrorContractMismatch indicates a response outside the documented contract
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorConfiguration indicates missing local credentials or endpoints
	ErrorConfiguration ErrorCategory = "configuration"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// Provider identifiers used in errors, logs and metrics.
const (
	Biometrics  = "decrim"
	Oracle      = "linix_oracle"
	AgileLinix  = "linix_api"
	Notifier    = "n8n"
	KafkaEvents = "kafka"
)

// Error wraps provider failures with normalized categorization.
// Message is safe to show to operators; it never contains credentials.
type Error struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	StatusCode int
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a new normalized provider error
func NewError(category ErrorCategory, providerID, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
	}
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// MessageOf returns the operator-facing message of a provider error, or err.Error().
func MessageOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

// ClassifyTransport maps an http.Client error to timeout, connection or internal.
func ClassifyTransport(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorConnection
	}
	return ErrorInternal
}
