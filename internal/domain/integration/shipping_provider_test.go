package integration

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeTrackingStatus(t *testing.T) {
	tests := map[string]TrackingStatus{
		"DELIVERED":        TrackingStatusDelivered,
		" delivered ":      TrackingStatusDelivered,
		"out_for_delivery": TrackingStatusInTransit,
		"label_created":    TrackingStatusPending,
		"return_to_sender": TrackingStatusReturned,
		"lost":             TrackingStatusException,
		"teleported":       TrackingStatusUnknown,
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeTrackingStatus(raw), raw)
	}
}

func TestPackage_Validate(t *testing.T) {
	assert.NoError(t, Package{WeightKg: decimal.NewFromFloat(0.5)}.Validate())
	assert.ErrorIs(t, Package{}.Validate(), ErrInvalidPackage)
}
