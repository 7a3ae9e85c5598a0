package shipper_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/courier/pkg/shipper"
)

func TestShipperError_Error(t *testing.T) {
	err := shipper.AreaResolutionError("redx", `no area matches "Zzyzx" in "Dhaka"`)
	assert.Equal(t, `redx error (AREA_NOT_FOUND): no area matches "Zzyzx" in "Dhaka"`, err.Error())
}

func TestShipperError_DecodeFailureKeepsCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := shipper.NewShipperError("paperfly", "DECODE", "unreadable response").WithCause(cause)

	assert.Equal(t, "paperfly error (DECODE): unreadable response: unexpected end of JSON input", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, shipper.ErrProvider))
	assert.False(t, shipper.IsRetryable(err))
}

func TestShipperError_IsMatchesStatusCode(t *testing.T) {
	rejected := shipper.ProviderError("steadfast", 422, "invalid phone")

	assert.True(t, errors.Is(rejected, shipper.ProviderError("pathao", 422, "other text")))
	assert.False(t, errors.Is(rejected, shipper.ProviderError("steadfast", 500, "invalid phone")))
}

func TestShipperError_KindsDoNotOverlap(t *testing.T) {
	kinds := []error{
		shipper.ErrConfiguration,
		shipper.ErrValidation,
		shipper.ErrAreaResolution,
		shipper.ErrProvider,
		shipper.ErrTransient,
	}
	built := map[error]*shipper.ShipperError{
		shipper.ErrConfiguration:  shipper.ConfigurationError("pathao", "missing credentials: client_id"),
		shipper.ErrValidation:     shipper.ValidationError("pathao", "bad phone"),
		shipper.ErrAreaResolution: shipper.AreaResolutionError("redx", "no area matches"),
		shipper.ErrProvider:       shipper.ProviderError("steadfast", 400, "bad request"),
		shipper.ErrTransient:      shipper.TransientError("paperfly", errors.New("connection reset")),
	}

	for _, want := range kinds {
		err := fmt.Errorf("dispatch o1: %w", built[want])
		for _, other := range kinds {
			assert.Equal(t, other == want, errors.Is(err, other), "%v is %v", err, other)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, shipper.IsRetryable(shipper.TransientError("redx", errors.New("connection refused"))))
	assert.True(t, shipper.IsRetryable(fmt.Errorf("wrapped: %w", shipper.ErrTransient)))
	assert.False(t, shipper.IsRetryable(shipper.ProviderError("redx", 429, "slow down")))
	assert.False(t, shipper.IsRetryable(shipper.ValidationError("redx", "area is required")))
	assert.False(t, shipper.IsRetryable(errors.New("plain")))
}

func TestTransientError(t *testing.T) {
	err := shipper.TransientError("steadfast", context.DeadlineExceeded)

	assert.Equal(t, "TIMEOUT", err.Code)
	assert.True(t, shipper.IsRetryable(err))
	assert.True(t, errors.Is(err, shipper.ErrTransient))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	assert.Equal(t, "NETWORK", shipper.TransientError("steadfast", errors.New("connection refused")).Code)
}

func TestProviderError(t *testing.T) {
	err := shipper.ProviderError("pathao", 422, "recipient_phone: invalid")

	assert.Equal(t, "HTTP_422", err.Code)
	assert.Equal(t, 422, err.StatusCode)
	assert.True(t, errors.Is(err, shipper.ErrProvider))
	assert.Equal(t, "recipient_phone: invalid", shipper.RawText(err))
	assert.Equal(t, "carrier rejected the request", shipper.ProviderError("pathao", 500, "").Message)
}

func TestRawText(t *testing.T) {
	assert.Equal(t, "", shipper.RawText(nil))
	assert.Equal(t, "plain", shipper.RawText(errors.New("plain")))
	assert.Equal(t, "boom", shipper.RawText(fmt.Errorf("wrapped: %w", shipper.ProviderError("redx", 400, "boom"))))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{shipper.ConfigurationError("redx", "x"), "configuration"},
		{shipper.ErrCarrierDisabled, "configuration"},
		{shipper.ValidationError("redx", "x"), "validation"},
		{shipper.AreaResolutionError("redx", "x"), "area_resolution"},
		{shipper.TransientError("redx", errors.New("x")), "transient"},
		{shipper.ProviderError("redx", 400, "x"), "provider"},
		{errors.New("x"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, shipper.Kind(tt.err))
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrConfiguration", shipper.ErrConfiguration},
		{"ErrValidation", shipper.ErrValidation},
		{"ErrAreaResolution", shipper.ErrAreaResolution},
		{"ErrProvider", shipper.ErrProvider},
		{"ErrTransient", shipper.ErrTransient},
		{"ErrCarrierNotFound", shipper.ErrCarrierNotFound},
		{"ErrCarrierDisabled", shipper.ErrCarrierDisabled},
		{"ErrOrderNotFound", shipper.ErrOrderNotFound},
		{"ErrNoCourierBinding", shipper.ErrNoCourierBinding},
		{"ErrVariationsExhausted", shipper.ErrVariationsExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}
