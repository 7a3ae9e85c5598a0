package shipper

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ShipperError represents an error from, or about, a courier carrier.
type ShipperError struct {
	Carrier    string
	Kind       error // one of the Err* kind sentinels below
	Code       string
	Message    string
	StatusCode int
	Raw        string // provider error text, when available
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// Is matches the error kind sentinel, or another ShipperError with the same code.
func (e *ShipperError) Is(target error) bool {
	if e.Kind != nil && target == e.Kind {
		return true
	}
	t, ok := target.(*ShipperError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewShipperError creates a new ShipperError of kind ErrProvider.
func NewShipperError(carrier, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Kind:    ErrProvider,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// Error kinds. Every ShipperError carries exactly one of them.
var (
	// ErrConfiguration indicates the carrier is not usable as configured.
	ErrConfiguration = errors.New("carrier configuration error")

	// ErrValidation indicates a locally detectable input problem.
	ErrValidation = errors.New("validation error")

	// ErrAreaResolution indicates no catalog area matched the merchant's input.
	ErrAreaResolution = errors.New("area resolution failed")

	// ErrProvider indicates the carrier answered with a non-success response.
	ErrProvider = errors.New("provider error")

	// ErrTransient indicates a network or timeout failure talking to the carrier.
	ErrTransient = errors.New("transient carrier error")
)

// Sentinel errors for common dispatch scenarios.
var (
	// ErrCarrierNotFound indicates the requested carrier is not known or not configured.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrCarrierDisabled indicates the tenant has the carrier switched off.
	ErrCarrierDisabled = errors.New("carrier disabled")

	// ErrOrderNotFound indicates the order ID was not found.
	ErrOrderNotFound = errors.New("order not found")

	// ErrNoCourierBinding indicates the order has not been handed to a carrier.
	ErrNoCourierBinding = errors.New("order has no courier binding")

	// ErrVariationsExhausted indicates every address variation was rejected.
	ErrVariationsExhausted = errors.New("all address variations rejected")
)

// ConfigurationError builds an ErrConfiguration error.
func ConfigurationError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: ErrConfiguration, Code: "CONFIGURATION", Message: message}
}

// ValidationError builds an ErrValidation error.
func ValidationError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: ErrValidation, Code: "VALIDATION", Message: message}
}

// AreaResolutionError builds an ErrAreaResolution error.
func AreaResolutionError(carrier, message string) *ShipperError {
	return &ShipperError{Carrier: carrier, Kind: ErrAreaResolution, Code: "AREA_NOT_FOUND", Message: message}
}

// ProviderError builds an ErrProvider error carrying the provider's raw text.
func ProviderError(carrier string, statusCode int, raw string) *ShipperError {
	msg := raw
	if msg == "" {
		msg = "carrier rejected the request"
	}
	return &ShipperError{
		Carrier:    carrier,
		Kind:       ErrProvider,
		Code:       fmt.Sprintf("HTTP_%d", statusCode),
		Message:    msg,
		StatusCode: statusCode,
		Raw:        raw,
	}
}

// TransientError wraps a transport failure talking to the carrier.
func TransientError(carrier string, err error) *ShipperError {
	code := "NETWORK"
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		code = "TIMEOUT"
	}
	return &ShipperError{
		Carrier:   carrier,
		Kind:      ErrTransient,
		Code:      code,
		Message:   "carrier unreachable",
		Retryable: true,
		Cause:     err,
	}
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Retryable
	}
	return errors.Is(err, ErrTransient)
}

// RawText returns the provider's raw error text if err carries one,
// falling back to the error message.
func RawText(err error) string {
	if err == nil {
		return ""
	}
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) && shipperErr.Raw != "" {
		return shipperErr.Raw
	}
	return err.Error()
}

// Kind classifies err into a short label for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrCarrierDisabled), errors.Is(err, ErrCarrierNotFound):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAreaResolution):
		return "area_resolution"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrProvider), errors.Is(err, ErrVariationsExhausted):
		return "provider"
	default:
		return "internal"
	}
}
