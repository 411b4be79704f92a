package trade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	"github.com/salesflow/backend/internal/domain/catalog"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SystemActorID is recorded as the actor of transitions driven by carrier callbacks
var SystemActorID = uuid.Nil

const defaultBulkLimit = 100

// OrderLifecycleService is the single entry point for order status changes.
// Every entry point (status PATCH, return, bulk, ship, tracking callback)
// funnels into applyTransition, which re-reads the order under a row lock
// inside the unit of work before deciding.
type OrderLifecycleService struct {
	scope          appinventory.TransactionScope
	ledger         *inventory.StockLedger
	providers      integration.ShippingProviderResolver
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher shared.EventPublisher
	metrics        MetricsRecorder
	logger         *zap.Logger
	bulkLimit      int
	now            func() time.Time
}

// NewOrderLifecycleService creates a new OrderLifecycleService
func NewOrderLifecycleService(scope appinventory.TransactionScope, ledger *inventory.StockLedger, logger *zap.Logger) *OrderLifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderLifecycleService{
		scope:          scope,
		ledger:         ledger,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		metrics:        nopMetrics{},
		logger:         logger,
		bulkLimit:      defaultBulkLimit,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher used after commit
func (s *OrderLifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetShippingProviders sets the carrier registry
func (s *OrderLifecycleService) SetShippingProviders(providers integration.ShippingProviderResolver) {
	s.providers = providers
}

// SetIdempotencyStore sets the store used to drop replayed tracking callbacks
func (s *OrderLifecycleService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetMetrics sets the metrics recorder
func (s *OrderLifecycleService) SetMetrics(metrics MetricsRecorder) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// SetBulkLimit caps the number of orders a bulk request may move
func (s *OrderLifecycleService) SetBulkLimit(limit int) {
	if limit > 0 {
		s.bulkLimit = limit
	}
}

// SetClock overrides the time source
func (s *OrderLifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// transitionResult collects what one committed transition produced
type transitionResult struct {
	order      *trade.Order
	from       trade.OrderStatus
	product    *catalog.Product
	adjustment *inventory.StockAdjustment
}

// CreateOrder records a sale in PENDING. The total is priced once from the
// current product price and never recomputed. Stock is not touched.
func (s *OrderLifecycleService) CreateOrder(ctx context.Context, tenantID, actorID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	var order *trade.Order
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos appinventory.TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		order, err = trade.NewOrder(tenantID, product.ID, req.Quantity, product.LineTotal(req.Quantity), trade.Customer{
			Name:    strings.TrimSpace(req.CustomerName),
			Phone:   strings.TrimSpace(req.CustomerPhone),
			Address: strings.TrimSpace(req.CustomerAddress),
			City:    strings.TrimSpace(req.CustomerCity),
		})
		if err != nil {
			return err
		}
		if req.LeadID != nil {
			order.SetLead(*req.LeadID)
		}
		order.SetCreatedBy(actorID)
		return repos.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("product_id", order.ProductID.String()),
		zap.Int64("quantity", order.Quantity),
		zap.String("total", order.Total.String()),
	)
	s.publish(ctx, order.PullDomainEvents()...)

	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetOrder returns one order of the tenant
func (s *OrderLifecycleService) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders returns a page of the tenant's orders
func (s *OrderLifecycleService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	f := trade.OrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if filter.ProductID != "" {
		productID, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeValidationFailed, "Invalid product_id format")
		}
		f.ProductID = &productID
	}
	if filter.Status != "" {
		status, err := trade.ParseOrderStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		f.Status = status
	}

	orders, total, err := repos.Orders().FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Transition moves an order to the requested status.
// NOT_FOUND is returned for orders of other tenants exactly as for missing
// orders. On any error nothing is written.
func (s *OrderLifecycleService) Transition(ctx context.Context, tenantID, orderID uuid.UUID, status trade.OrderStatus, actorID uuid.UUID) (*OrderResponse, error) {
	res, err := s.transition(ctx, tenantID, orderID, status, actorID, nil)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(res.order)
	return &resp, nil
}

// ReturnOrder is the return flow: DELIVERED to RETURNED with the stock credit
func (s *OrderLifecycleService) ReturnOrder(ctx context.Context, tenantID, orderID, actorID uuid.UUID) (*OrderResponse, error) {
	return s.Transition(ctx, tenantID, orderID, trade.OrderStatusReturned, actorID)
}

// BulkTransition moves every listed order to one status in a single unit of
// work. Either all orders move or none does. Orders are locked in id order;
// for returns the credited products are then locked in id order as well, so
// two bulk returns over the same products cannot deadlock.
func (s *OrderLifecycleService) BulkTransition(ctx context.Context, tenantID uuid.UUID, req BulkTransitionRequest, actorID uuid.UUID) (*BulkTransitionResponse, error) {
	status := trade.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	ids := uniqueSortedIDs(req.OrderIDs)
	if len(ids) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "At least one order ID is required")
	}
	if len(ids) > s.bulkLimit {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, fmt.Sprintf("A bulk request may move at most %d orders", s.bulkLimit))
	}

	results := make([]*transitionResult, 0, len(ids))
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos appinventory.TransactionalRepositories) error {
		if status == trade.OrderStatusReturned {
			if err := lockReturnedProducts(ctx, repos, ids); err != nil {
				return err
			}
		}
		for _, id := range ids {
			res, err := s.applyTransition(ctx, repos, id, status, actorID, nil)
			if err != nil {
				return annotateOrderError(id, err)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordTransition(ctx, "", status.String(), outcomeOf(err))
		s.logger.Info("bulk order transition rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("orders", len(ids)),
			zap.String("to", status.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.afterCommit(ctx, tenantID, actorID, results...)

	resp := &BulkTransitionResponse{Status: status.String(), Orders: make([]OrderResponse, len(results))}
	for i, res := range results {
		resp.Orders[i] = ToOrderResponse(res.order)
	}
	return resp, nil
}

// ShipOrder moves an order to SHIPPED and, when a provider is named,
// dispatches it to the carrier. The carrier is never called while the
// order row is locked.
func (s *OrderLifecycleService) ShipOrder(ctx context.Context, tenantID, orderID uuid.UUID, req ShipOrderRequest, actorID uuid.UUID) (*ShipOrderResponse, error) {
	if strings.TrimSpace(req.Provider) == "" {
		res, err := s.transition(ctx, tenantID, orderID, trade.OrderStatusShipped, actorID, nil)
		if err != nil {
			return nil, err
		}
		return &ShipOrderResponse{Order: ToOrderResponse(res.order)}, nil
	}

	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case "", ShipmentRequired:
		return s.shipWithRequiredShipment(ctx, tenantID, orderID, provider, actorID)
	case ShipmentBestEffort:
		return s.shipBestEffort(ctx, tenantID, orderID, provider, actorID)
	default:
		return nil, shared.NewDomainError(shared.CodeValidationFailed, fmt.Sprintf("Unknown shipment mode %q", req.Mode))
	}
}

// shipWithRequiredShipment creates the shipment before taking any lock and
// only then commits SHIPPED. A carrier failure leaves the order untouched.
func (s *OrderLifecycleService) shipWithRequiredShipment(ctx context.Context, tenantID, orderID uuid.UUID, provider integration.ShippingProvider, actorID uuid.UUID) (*ShipOrderResponse, error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := trade.DecideTransition(order.Status, trade.OrderStatusShipped); err != nil {
		return nil, err
	}

	shipment, err := s.createShipment(ctx, provider, order)
	if err != nil {
		return nil, err
	}

	res, err := s.transition(ctx, tenantID, orderID, trade.OrderStatusShipped, actorID, func(o *trade.Order) error {
		return o.AssignShipment(provider.Code(), shipment.TrackingNumber, s.now())
	})
	if err != nil {
		s.logger.Warn("shipment created but order transition failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("provider", provider.Code()),
			zap.String("tracking_number", shipment.TrackingNumber),
			zap.Error(err),
		)
		return nil, err
	}
	return &ShipOrderResponse{Order: ToOrderResponse(res.order), Shipment: shipment}, nil
}

// shipBestEffort commits SHIPPED first and dispatches afterwards. A carrier
// failure does not roll the committed transition back.
func (s *OrderLifecycleService) shipBestEffort(ctx context.Context, tenantID, orderID uuid.UUID, provider integration.ShippingProvider, actorID uuid.UUID) (*ShipOrderResponse, error) {
	res, err := s.transition(ctx, tenantID, orderID, trade.OrderStatusShipped, actorID, nil)
	if err != nil {
		return nil, err
	}
	resp := &ShipOrderResponse{Order: ToOrderResponse(res.order)}

	shipment, err := s.createShipment(ctx, provider, res.order)
	if err != nil {
		s.logger.Warn("order shipped but carrier dispatch failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("provider", provider.Code()),
			zap.Error(err),
		)
		resp.ShipmentError = err.Error()
		return resp, nil
	}
	resp.Shipment = shipment

	order, err := s.recordShipment(ctx, tenantID, orderID, provider.Code(), shipment.TrackingNumber)
	if err != nil {
		s.logger.Warn("shipment created but tracking data could not be recorded",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("tracking_number", shipment.TrackingNumber),
			zap.Error(err),
		)
		resp.ShipmentError = "shipment created but tracking data could not be recorded: " + err.Error()
		return resp, nil
	}
	resp.Order = ToOrderResponse(order)
	return resp, nil
}

func (s *OrderLifecycleService) recordShipment(ctx context.Context, tenantID, orderID uuid.UUID, provider, trackingNumber string) (*trade.Order, error) {
	var order *trade.Order
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos appinventory.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.AssignShipment(provider, trackingNumber, s.now()); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, order.PullDomainEvents()...)
	return order, nil
}

// MarkInvoicePrinted flags the order invoice as printed. It does not touch status.
func (s *OrderLifecycleService) MarkInvoicePrinted(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	var order *trade.Order
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos appinventory.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.MarkInvoicePrinted(s.now()) {
			return nil
		}
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// IngestTracking handles a carrier tracking callback. The carrier is asked
// for the shipment status before any lock is taken; only "delivered" leads to
// a transition. Replayed callbacks are dropped by event ID.
func (s *OrderLifecycleService) IngestTracking(ctx context.Context, tenantID uuid.UUID, providerCode string, req TrackingWebhookRequest) (*TrackingIngestResponse, error) {
	key := ""
	if req.EventID != "" && s.idempotency != nil {
		key = fmt.Sprintf("tracking:%s:%s:%s", tenantID, providerCode, req.EventID)
		done, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			s.logger.Warn("idempotency check failed, processing tracking event anyway",
				zap.String("event_id", req.EventID),
				zap.Error(err),
			)
		} else if done {
			return &TrackingIngestResponse{Outcome: TrackingOutcomeDuplicate}, nil
		}
	}

	provider, err := s.resolveProvider(providerCode)
	if err != nil {
		return nil, err
	}
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := repos.Orders().FindByTrackingNumber(ctx, provider.Code(), req.TrackingNumber)
	if err != nil {
		return nil, err
	}

	resp, err := s.applyTracking(ctx, tenantID, provider, order)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL); err != nil {
			s.logger.Warn("failed to mark tracking event processed",
				zap.String("event_id", req.EventID),
				zap.Error(err),
			)
		}
	}
	return resp, nil
}

// RefreshTracking polls the carrier for an order that already has tracking data
func (s *OrderLifecycleService) RefreshTracking(ctx context.Context, tenantID, orderID uuid.UUID) (*TrackingIngestResponse, error) {
	repos, err := s.scope.Read(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TrackingNumber == "" || order.ShippingProvider == "" {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Order has no shipment to track")
	}
	provider, err := s.resolveProvider(order.ShippingProvider)
	if err != nil {
		return nil, err
	}
	return s.applyTracking(ctx, tenantID, provider, order)
}

func (s *OrderLifecycleService) applyTracking(ctx context.Context, tenantID uuid.UUID, provider integration.ShippingProvider, order *trade.Order) (*TrackingIngestResponse, error) {
	status, err := provider.TrackShipment(ctx, order.TrackingNumber)
	s.metrics.RecordShippingCall(ctx, provider.Code(), "track_shipment", err)
	if err != nil {
		return nil, providerError(provider.Code(), "track shipment", err)
	}

	orderID := order.ID
	resp := &TrackingIngestResponse{OrderID: &orderID, TrackingStatus: status}

	if status != integration.TrackingStatusDelivered {
		s.logger.Debug("tracking status does not drive a transition",
			zap.String("order_id", orderID.String()),
			zap.String("tracking_status", string(status)),
		)
		resp.Outcome = TrackingOutcomeIgnored
		return resp, nil
	}

	if alreadyDelivered(order.Status) {
		current := ToOrderResponse(order)
		resp.Outcome = TrackingOutcomeAlreadyApplied
		resp.Order = &current
		return resp, nil
	}

	res, err := s.transition(ctx, tenantID, orderID, trade.OrderStatusDelivered, SystemActorID, nil)
	if err != nil {
		// A concurrent callback may have delivered the order first
		if errors.Is(err, shared.ErrInvalidTransition) {
			if repos, rerr := s.scope.Read(ctx, tenantID); rerr == nil {
				if latest, ferr := repos.Orders().FindByID(ctx, orderID); ferr == nil && alreadyDelivered(latest.Status) {
					current := ToOrderResponse(latest)
					resp.Outcome = TrackingOutcomeAlreadyApplied
					resp.Order = &current
					return resp, nil
				}
			}
		}
		return nil, err
	}

	current := ToOrderResponse(res.order)
	resp.Outcome = TrackingOutcomeApplied
	resp.Order = &current
	return resp, nil
}

// GetRates asks one carrier for delivery options
func (s *OrderLifecycleService) GetRates(ctx context.Context, req RatesRequest) ([]integration.Rate, error) {
	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	if err := req.Package.Validate(); err != nil {
		return nil, shared.WrapDomainError(shared.CodeValidationFailed, "Package weight must be positive", err)
	}
	rates, err := provider.GetRates(ctx, req.Origin, req.Destination, req.Package)
	s.metrics.RecordShippingCall(ctx, provider.Code(), "get_rates", err)
	if err != nil {
		return nil, providerError(provider.Code(), "get rates", err)
	}
	return rates, nil
}

// transition runs one status change in its own unit of work
func (s *OrderLifecycleService) transition(
	ctx context.Context,
	tenantID, orderID uuid.UUID,
	status trade.OrderStatus,
	actorID uuid.UUID,
	after func(*trade.Order) error,
) (*transitionResult, error) {
	var res *transitionResult
	err := s.scope.Execute(ctx, tenantID, func(ctx context.Context, repos appinventory.TransactionalRepositories) error {
		var err error
		res, err = s.applyTransition(ctx, repos, orderID, status, actorID, after)
		return err
	})
	if err != nil {
		s.metrics.RecordTransition(ctx, "", status.String(), outcomeOf(err))
		s.logger.Info("order transition rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("to", status.String()),
			zap.String("code", shared.ErrorCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.afterCommit(ctx, tenantID, actorID, res)
	return res, nil
}

// applyTransition must run inside a unit of work. The order is re-read under
// a row lock so the decision is made on committed state; the status write,
// the ledger entry and the projection update then commit together.
func (s *OrderLifecycleService) applyTransition(
	ctx context.Context,
	repos appinventory.TransactionalRepositories,
	orderID uuid.UUID,
	status trade.OrderStatus,
	actorID uuid.UUID,
	after func(*trade.Order) error,
) (*transitionResult, error) {
	order, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	effect, err := order.Transition(status, actorID, s.now())
	if err != nil {
		return nil, err
	}
	res := &transitionResult{order: order, from: from}

	if effect.StockCredit > 0 {
		orderRef := order.ID
		res.product, res.adjustment, err = s.ledger.Record(ctx, repos, inventory.RecordRequest{
			ProductID: order.ProductID,
			Delta:     effect.StockCredit,
			Reason:    inventory.ReturnReason(order.ID),
			ActorID:   actorID,
			OrderID:   &orderRef,
		})
		if err != nil {
			return nil, err
		}
	}

	if after != nil {
		if err := after(order); err != nil {
			return nil, err
		}
	}

	if err := repos.Orders().Save(ctx, order); err != nil {
		return nil, err
	}
	return res, nil
}

// lockReturnedProducts locks orderIDs in the given order, then the distinct
// products of those that may be returned, in ascending id order. Orders that
// cannot be returned are left for applyTransition to reject.
func lockReturnedProducts(ctx context.Context, repos appinventory.TransactionalRepositories, orderIDs []uuid.UUID) error {
	productIDs := make([]uuid.UUID, 0, len(orderIDs))
	for _, id := range orderIDs {
		order, err := repos.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return annotateOrderError(id, err)
		}
		if trade.DecideTransition(order.Status, trade.OrderStatusReturned) != nil {
			continue
		}
		productIDs = append(productIDs, order.ProductID)
	}
	for _, id := range uniqueSortedIDs(productIDs) {
		if _, err := repos.Products().FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderLifecycleService) afterCommit(ctx context.Context, tenantID, actorID uuid.UUID, results ...*transitionResult) {
	events := make([]shared.DomainEvent, 0, len(results))
	for _, res := range results {
		s.metrics.RecordTransition(ctx, res.from.String(), res.order.Status.String(), "success")

		fields := []zap.Field{
			zap.String("tenant_id", tenantID.String()),
			zap.String("order_id", res.order.ID.String()),
			zap.String("from", res.from.String()),
			zap.String("to", res.order.Status.String()),
			zap.String("actor_id", actorID.String()),
		}
		if res.adjustment != nil {
			fields = append(fields,
				zap.String("product_id", res.adjustment.ProductID.String()),
				zap.Int64("stock_credit", res.adjustment.Quantity),
				zap.Int64("new_stock", res.adjustment.NewStock),
			)
		}
		s.logger.Info("order status changed", fields...)

		events = append(events, res.order.PullDomainEvents()...)
		if res.product != nil {
			events = append(events, res.product.PullDomainEvents()...)
		}
	}
	s.publish(ctx, events...)
}

func (s *OrderLifecycleService) createShipment(ctx context.Context, provider integration.ShippingProvider, order *trade.Order) (*integration.Shipment, error) {
	shipment, err := provider.CreateShipment(ctx, integration.ShipmentRequest{
		TenantID:        order.TenantID,
		OrderID:         order.ID,
		Quantity:        order.Quantity,
		Total:           order.Total,
		CustomerName:    order.Customer.Name,
		CustomerPhone:   order.Customer.Phone,
		CustomerAddress: order.Customer.Address,
		CustomerCity:    order.Customer.City,
	})
	s.metrics.RecordShippingCall(ctx, provider.Code(), "create_shipment", err)
	if err != nil {
		return nil, providerError(provider.Code(), "create shipment", err)
	}
	if shipment == nil || shipment.TrackingNumber == "" {
		return nil, shared.NewDomainError(shared.CodeShippingProviderError, fmt.Sprintf("Shipping provider %s returned no tracking number", provider.Code()))
	}
	if shipment.Provider == "" {
		shipment.Provider = provider.Code()
	}
	return shipment, nil
}

func (s *OrderLifecycleService) resolveProvider(code string) (integration.ShippingProvider, error) {
	if s.providers == nil {
		return nil, shared.NewDomainError(shared.CodeShippingProviderError, "No shipping providers are configured")
	}
	provider, err := s.providers.Get(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, providerError(code, "resolve", err)
	}
	return provider, nil
}

func (s *OrderLifecycleService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func providerError(provider, operation string, err error) error {
	if shared.ErrorCode(err) == shared.CodeShippingProviderError {
		return err
	}
	return shared.WrapDomainError(
		shared.CodeShippingProviderError,
		fmt.Sprintf("Shipping provider %s failed to %s: %v", provider, operation, err),
		err,
	)
}

func annotateOrderError(orderID uuid.UUID, err error) error {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return err
	}
	return shared.WrapDomainError(de.Code, fmt.Sprintf("order %s: %s", orderID, de.Message), err)
}

func outcomeOf(err error) string {
	if code := shared.ErrorCode(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}

func alreadyDelivered(status trade.OrderStatus) bool {
	return status == trade.OrderStatusDelivered || status == trade.OrderStatusReturned
}

func uniqueSortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
