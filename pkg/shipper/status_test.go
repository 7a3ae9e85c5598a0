package shipper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/courier/pkg/shipper"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"in_transit", "In Transit"},
		{"delivered", "Delivered"},
		{"Pickup-Pending", "Pickup Pending"},
		{"  ready_for   delivery ", "Ready For Delivery"},
		{"PARTIAL_DELIVERY", "Partial Delivery"},
		{"", "Pending"},
		{" _- ", "Pending"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, shipper.NormalizeStatus(tt.raw))
		})
	}
}

func TestNormalizeStatus_Idempotent(t *testing.T) {
	for _, raw := range []string{"in_transit", "Hold-At-Hub", "", "returned to merchant"} {
		once := shipper.NormalizeStatus(raw)
		assert.Equal(t, once, shipper.NormalizeStatus(once), raw)
	}
}
