// Package shipping holds the carrier adapters behind integration.ShippingProvider
// and the registry the order lifecycle resolves them from.
package shipping

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Factory is the registry of carriers keyed by provider code
type Factory struct {
	mu        sync.RWMutex
	providers map[string]integration.ShippingProvider
}

// NewFactory creates an empty Factory
func NewFactory() *Factory {
	return &Factory{providers: make(map[string]integration.ShippingProvider)}
}

// Register adds or replaces the provider under its code
func (f *Factory) Register(provider integration.ShippingProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[strings.ToLower(provider.Code())] = provider
}

// Get returns the provider registered under code
func (f *Factory) Get(code string) (integration.ShippingProvider, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	provider, ok := f.providers[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, shared.WrapDomainError(
			shared.CodeShippingProviderError,
			fmt.Sprintf("Unknown shipping provider %q", code),
			integration.ErrProviderNotRegistered,
		)
	}
	return provider, nil
}

// Codes returns the registered provider codes in sorted order
func (f *Factory) Codes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	codes := make([]string, 0, len(f.providers))
	for code := range f.providers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Providers bundles the registry with direct handles to built-in carriers
type Providers struct {
	Factory *Factory
	// Manual is nil when the manual carrier is not enabled
	Manual *ManualProvider
}

// NewFromConfig builds the registry for the configured provider codes.
// Every carrier is wrapped in a ResilientProvider.
func NewFromConfig(cfg config.ShippingConfig, logger *zap.Logger) (*Providers, error) {
	opts := ResilienceOptions{
		CallTimeout:      cfg.CallTimeout,
		MaxRetries:       cfg.MaxRetries,
		RetryInitial:     cfg.RetryInitial,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
	}

	out := &Providers{Factory: NewFactory()}
	for _, code := range cfg.Providers {
		switch strings.ToLower(strings.TrimSpace(code)) {
		case ManualProviderCode:
			rate, err := decimal.NewFromString(cfg.ManualFlatRate)
			if err != nil {
				return nil, fmt.Errorf("invalid shipping.manual_flat_rate %q: %w", cfg.ManualFlatRate, err)
			}
			out.Manual = NewManualProvider(rate, cfg.ManualETADays)
			out.Factory.Register(NewResilientProvider(out.Manual, opts, logger))
		case "":
		default:
			return nil, fmt.Errorf("unsupported shipping provider %q", code)
		}
	}
	return out, nil
}

var _ integration.ShippingProviderResolver = (*Factory)(nil)
