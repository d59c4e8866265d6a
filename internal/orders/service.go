package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
	"github.com/mkotelnikov/pizzeria-backend/pkg/outbox"
	"github.com/mkotelnikov/pizzeria-backend/pkg/pagination"
	"github.com/mkotelnikov/pizzeria-backend/pkg/zones"
)

// Service exposes order ledger operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, filter ListFilter) (*OrderPage, error)
}

// CreateOrderInput holds the validated payload to create an order.
type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress *string
	DeliveryLat     *float64
	DeliveryLng     *float64
	DeliveryType    enums.DeliveryType
	PaymentMethod   enums.PaymentMethod
	DiscountCents   int
	Comment         *string
	Items           []CreateOrderItemInput
}

// CreateOrderItemInput is one requested order line.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

type repository interface {
	NextOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.OrderStatus) error
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type syncEnqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, target enums.SyncTarget, operation, entityType string, entityID uuid.UUID, payload any) error
}

type service struct {
	repo            repository
	tx              txRunner
	products        productReader
	zoneLookup      zones.Lookup
	events          eventEmitter
	syncs           syncEnqueuer
	defaultFeeCents int
	logg            *logger.Logger
}

// NewService constructs an order service instance.
func NewService(repo repository, tx txRunner, products productReader, zoneLookup zones.Lookup, events eventEmitter, syncs syncEnqueuer, defaultFeeCents int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if syncs == nil {
		return nil, fmt.Errorf("sync enqueuer required")
	}
	return &service{
		repo:            repo,
		tx:              tx,
		products:        products,
		zoneLookup:      zoneLookup,
		events:          events,
		syncs:           syncs,
		defaultFeeCents: defaultFeeCents,
		logg:            logg,
	}, nil
}

// Create records a new order. Product names and prices are captured at order
// time; the total is computed from captured prices, never from the catalog.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	subtotal := 0
	for _, line := range input.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product").
				WithDetails(map[string]any{"productId": line.ProductID.String()})
		}
		if !product.IsAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]any{"productId": line.ProductID.String(), "name": product.Name})
		}
		lineTotal := product.PriceCents * line.Qty
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			PriceCents:  product.PriceCents,
			Qty:         line.Qty,
			TotalCents:  lineTotal,
		})
		subtotal += lineTotal
	}

	deliveryCost := s.resolveDeliveryCost(ctx, input)
	total := subtotal + deliveryCost - input.DiscountCents
	if total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order value")
	}

	order := &models.Order{
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerPhone:     strings.TrimSpace(input.CustomerPhone),
		DeliveryAddress:   input.DeliveryAddress,
		DeliveryLat:       input.DeliveryLat,
		DeliveryLng:       input.DeliveryLng,
		DeliveryType:      input.DeliveryType,
		PaymentMethod:     input.PaymentMethod,
		Status:            enums.OrderStatusAccepted,
		SubtotalCents:     subtotal,
		DeliveryCostCents: deliveryCost,
		DiscountCents:     input.DiscountCents,
		TotalCents:        total,
		Comment:           input.Comment,
		Items:             items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.repo.NextOrderNumber(ctx, tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		_, err = s.repo.Create(ctx, tx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order created")
	}
	return toOrderDTO(order), nil
}

// resolveDeliveryCost prices delivery via the zone collaborator when a
// coordinate is present; pickup orders cost nothing. A failed lookup falls
// back to the configured flat fee so order intake keeps working.
func (s *service) resolveDeliveryCost(ctx context.Context, input CreateOrderInput) int {
	if input.DeliveryType != enums.DeliveryTypeDelivery {
		return 0
	}
	if s.zoneLookup == nil || input.DeliveryLat == nil || input.DeliveryLng == nil {
		return s.defaultFeeCents
	}
	quote, err := s.zoneLookup.Quote(ctx, *input.DeliveryLat, *input.DeliveryLng)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "fallback_fee_cents", s.defaultFeeCents), "zone lookup failed, using flat delivery fee")
		}
		return s.defaultFeeCents
	}
	return quote.FeeCents
}

// TransitionStatus moves the order along its forward-only state machine.
// Entering delivered emits the outbox event that drives fiscal receipt
// issuance, and queues the aggregator status push.
func (s *service) TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.LockByID(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if !CanTransition(order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition disallowed").
				WithDetails(map[string]any{"from": order.Status.String(), "to": next.String()})
		}
		if err := s.repo.UpdateStatus(ctx, tx, orderID, next); err != nil {
			return err
		}

		switch next {
		case enums.OrderStatusDelivered:
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderDelivered,
				AggregateType: enums.AggregateOrder,
				AggregateID:   orderID,
				Data: map[string]any{
					"orderId":       orderID.String(),
					"totalCents":    order.TotalCents,
					"paymentMethod": order.PaymentMethod.String(),
				},
				Version: 1,
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
			if err := s.syncs.Enqueue(ctx, tx, enums.SyncTargetAggregator, "update_order_status", "order", orderID, map[string]any{
				"status": next.String(),
			}); err != nil {
				return err
			}
		case enums.OrderStatusCancelled:
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderCancelled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   orderID,
				Data: map[string]any{
					"orderId": orderID.String(),
				},
				Version: 1,
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transitioning order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"status":   next.String(),
		})
		s.logg.Info(logCtx, "order status changed")
	}
	return toOrderDTO(order), nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return toOrderDTO(order), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*OrderPage, error) {
	limit := pagination.NormalizeLimit(filter.Limit)
	fetch := filter
	fetch.Limit = pagination.LimitWithBuffer(filter.Limit)

	rows, err := s.repo.List(ctx, fetch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	page := &OrderPage{Orders: make([]OrderDTO, 0, min(len(rows), limit))}
	for i := range rows {
		if i == limit {
			break
		}
		page.Orders = append(page.Orders, *toOrderDTO(&rows[i]))
	}
	if len(rows) > limit {
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if !input.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery type")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive").
				WithDetails(map[string]any{"productId": item.ProductID.String()})
		}
	}
	if input.DiscountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	if input.DeliveryType == enums.DeliveryTypeDelivery {
		if input.DeliveryAddress == nil || strings.TrimSpace(*input.DeliveryAddress) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required for delivery orders")
		}
	}
	return nil
}
