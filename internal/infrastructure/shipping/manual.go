package shipping

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// ManualProviderCode is the code of the built-in self-delivery carrier
const ManualProviderCode = "manual"

// ManualProvider is the built-in carrier for tenants that deliver themselves.
// It quotes a flat rate and keeps shipment statuses in memory, each owned by
// the tenant that created it; an operator moves them through SetStatus.
type ManualProvider struct {
	rate    decimal.Decimal
	etaDays int

	mu        sync.RWMutex
	shipments map[string]manualShipment
}

type manualShipment struct {
	tenantID uuid.UUID
	status   integration.TrackingStatus
}

// NewManualProvider creates a ManualProvider quoting rate per parcel
func NewManualProvider(rate decimal.Decimal, etaDays int) *ManualProvider {
	return &ManualProvider{
		rate:      rate,
		etaDays:   etaDays,
		shipments: make(map[string]manualShipment),
	}
}

// Code returns "manual"
func (p *ManualProvider) Code() string {
	return ManualProviderCode
}

// GetRates returns the single flat-rate option
func (p *ManualProvider) GetRates(_ context.Context, _, _ integration.Address, pkg integration.Package) ([]integration.Rate, error) {
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return []integration.Rate{{
		Provider: ManualProviderCode,
		Service:  "self_delivery",
		Cost:     p.rate,
		ETADays:  p.etaDays,
	}}, nil
}

// CreateShipment issues a MAN- tracking number in pending state
func (p *ManualProvider) CreateShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.OrderID == uuid.Nil || req.TenantID == uuid.Nil {
		return nil, fmt.Errorf("manual shipment requires an order and a tenant")
	}
	trackingNumber := "MAN-" + strings.ToUpper(uuid.New().String()[:8])

	p.mu.Lock()
	p.shipments[trackingNumber] = manualShipment{tenantID: req.TenantID, status: integration.TrackingStatusPending}
	p.mu.Unlock()

	return &integration.Shipment{Provider: ManualProviderCode, TrackingNumber: trackingNumber}, nil
}

// TrackShipment returns the recorded status of a shipment. When ctx carries
// a tenant, shipments of other tenants are reported as not found.
func (p *ManualProvider) TrackShipment(ctx context.Context, trackingNumber string) (integration.TrackingStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	shipment, ok := p.lookup(logger.GetTenantID(ctx), trackingNumber)
	if !ok {
		return integration.TrackingStatusUnknown, integration.ErrShipmentNotFound
	}
	return shipment.status, nil
}

// SetStatus moves a shipment owned by tenantID to status
func (p *ManualProvider) SetStatus(tenantID uuid.UUID, trackingNumber string, status integration.TrackingStatus) error {
	if tenantID == uuid.Nil {
		return shared.ErrTenantRequired
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	shipment, ok := p.lookup(tenantID, trackingNumber)
	if !ok {
		return integration.ErrShipmentNotFound
	}
	shipment.status = status
	p.shipments[trackingNumber] = shipment
	return nil
}

// lookup must be called with mu held; a nil tenantID skips the owner check
func (p *ManualProvider) lookup(tenantID uuid.UUID, trackingNumber string) (manualShipment, bool) {
	shipment, ok := p.shipments[trackingNumber]
	if !ok || (tenantID != uuid.Nil && shipment.tenantID != tenantID) {
		return manualShipment{}, false
	}
	return shipment, true
}

var _ integration.ShippingProvider = (*ManualProvider)(nil)
