package integration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProviderNotRegistered = errors.New("integration: shipping provider not registered")
	ErrProviderUnavailable   = errors.New("integration: shipping provider temporarily unavailable")
	ErrShipmentNotFound      = errors.New("integration: shipment not found")
	ErrInvalidPackage        = errors.New("integration: invalid package")
)

// TrackingStatus is the carrier-neutral status of a shipment
type TrackingStatus string

const (
	TrackingStatusPending   TrackingStatus = "pending"
	TrackingStatusInTransit TrackingStatus = "in_transit"
	TrackingStatusDelivered TrackingStatus = "delivered"
	TrackingStatusReturned  TrackingStatus = "returned"
	TrackingStatusException TrackingStatus = "exception"
	TrackingStatusUnknown   TrackingStatus = "unknown"
)

// NormalizeTrackingStatus maps free-form carrier vocabulary onto TrackingStatus
func NormalizeTrackingStatus(raw string) TrackingStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "created", "label_created", "info_received":
		return TrackingStatusPending
	case "in_transit", "in transit", "transit", "out_for_delivery", "picked_up":
		return TrackingStatusInTransit
	case "delivered":
		return TrackingStatusDelivered
	case "returned", "return_to_sender":
		return TrackingStatusReturned
	case "exception", "failed", "failed_attempt", "lost":
		return TrackingStatusException
	default:
		return TrackingStatusUnknown
	}
}

// Address is a postal location used for rating
type Address struct {
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Line1      string `json:"line1,omitempty"`
}

// Package describes the parcel being rated
type Package struct {
	WeightKg decimal.Decimal `json:"weight_kg"`
	LengthCm decimal.Decimal `json:"length_cm,omitempty"`
	WidthCm  decimal.Decimal `json:"width_cm,omitempty"`
	HeightCm decimal.Decimal `json:"height_cm,omitempty"`
}

// Validate checks the package has a positive weight
func (p Package) Validate() error {
	if !p.WeightKg.IsPositive() {
		return ErrInvalidPackage
	}
	return nil
}

// Rate is one priced delivery option
type Rate struct {
	Provider string          `json:"provider"`
	Service  string          `json:"service"`
	Cost     decimal.Decimal `json:"cost"`
	ETADays  int             `json:"eta_days"`
}

// ShipmentRequest is the order snapshot a carrier needs to create a shipment
type ShipmentRequest struct {
	TenantID        uuid.UUID
	OrderID         uuid.UUID
	Quantity        int64
	Total           decimal.Decimal
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
}

// Shipment is the carrier's acknowledgement of a created shipment
type Shipment struct {
	Provider       string `json:"provider"`
	TrackingNumber string `json:"tracking_number"`
}

// ShippingProvider is the capability set every carrier adapter offers.
// The order lifecycle never calls it while holding a row lock.
type ShippingProvider interface {
	// Code is the identifier the provider is registered under
	Code() string
	GetRates(ctx context.Context, origin, destination Address, pkg Package) ([]Rate, error)
	CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error)
	TrackShipment(ctx context.Context, trackingNumber string) (TrackingStatus, error)
}

// ShippingProviderResolver selects a carrier by its code
type ShippingProviderResolver interface {
	Get(code string) (ShippingProvider, error)
	Codes() []string
}
