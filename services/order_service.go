package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/common/logger"
	"github.com/jonbarlo/onlineshop-api/events"
	"github.com/jonbarlo/onlineshop-api/models"
	awspkg "github.com/jonbarlo/onlineshop-api/pkg/aws"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxOrderNumberAttempts bounds retries after an order number collision.
const maxOrderNumberAttempts = 3

// OrderService places orders and moves them through fulfilment.
type OrderService interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber, email string) (*models.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error)
}

type orderService struct {
	store     repository.Store
	variants  VariantService
	cache     ProductCache
	publisher events.Publisher
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger

	now            func() time.Time
	newOrderNumber func(time.Time) string
	publishTimeout time.Duration
}

// OrderServiceOption customizes an order service.
type OrderServiceOption func(*orderService)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *orderService) { s.now = now }
}

// WithOrderNumberGenerator replaces the order number generator.
func WithOrderNumberGenerator(gen func(time.Time) string) OrderServiceOption {
	return func(s *orderService) { s.newOrderNumber = gen }
}

func NewOrderService(
	store repository.Store,
	variants VariantService,
	cache ProductCache,
	publisher events.Publisher,
	metrics awspkg.MetricsRecorder,
	logger *zap.Logger,
	opts ...OrderServiceOption,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &orderService{
		store:          store,
		variants:       variants,
		cache:          cache,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
		newOrderNumber: GenerateOrderNumber,
		publishTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOrderNumber returns ORD-<date>-<time>-<8 random hex chars>.
func GenerateOrderNumber(t time.Time) string {
	return "ORD-" + t.UTC().Format("20060102-150405") + "-" + strings.ToUpper(uuid.New().String()[:8])
}

// stockPool identifies the inventory a line draws from: a variant when the
// line has one, otherwise the product itself.
type stockPool struct {
	productID uuid.UUID
	variantID uuid.UUID
}

func poolOf(item models.OrderItem) stockPool {
	p := stockPool{productID: item.ProductID}
	if item.ProductVariantID != nil {
		p.variantID = *item.ProductVariantID
	}
	return p
}

func (p stockPool) isVariant() bool { return p.variantID != uuid.Nil }

// CreateOrder validates every line against current stock, prices the order
// from the catalog and stores the order with its items in one transaction.
// Stock is only checked here; it is deducted when the order is paid.
func (s *orderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	log := logger.With(ctx, s.logger)

	if len(req.Items) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("Order must contain at least one item")
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	seen := make(map[uuid.UUID]bool, len(req.Items))
	lineIDs := make([]uuid.UUID, len(req.Items))
	for i, line := range req.Items {
		id, err := parseID(line.ProductID, "productId")
		if err != nil {
			return nil, err
		}
		if line.Quantity <= 0 {
			return nil, apperrors.ErrValidation.WithMessage("Item quantity must be greater than zero")
		}
		lineIDs[i] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	products, err := s.store.Products().FindAvailableByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err, nil)
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	if len(byID) != len(ids) {
		missing := make([]string, 0)
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		log.Info("order rejected: products unavailable", zap.Strings("product_ids", missing))
		return nil, apperrors.ErrProductNotFound.WithDetails(map[string]interface{}{"productIds": missing})
	}

	requested := make(map[stockPool]int, len(req.Items))
	items := make([]models.OrderItem, 0, len(req.Items))
	total := decimal.Zero

	for i, line := range req.Items {
		product := byID[lineIDs[i]]
		color := trimmedOrNil(line.SelectedColor)
		size := trimmedOrNil(line.SelectedSize)

		item := models.OrderItem{
			ProductID:     product.ID,
			Quantity:      line.Quantity,
			UnitPrice:     product.Price,
			SelectedColor: color,
			SelectedSize:  size,
		}

		available := product.Quantity
		if color != nil && size != nil {
			variant, err := s.variants.FindOrCreateVariant(ctx, product, *color, *size)
			if err != nil {
				return nil, err
			}
			variantID := variant.ID
			item.ProductVariantID = &variantID
			item.SelectedColor = &variant.Color
			item.SelectedSize = &variant.Size
			available = variant.Quantity
			if !variant.IsActive {
				available = 0
			}
		}

		pool := poolOf(item)
		requested[pool] += item.Quantity
		if requested[pool] > available {
			s.recordCount(ctx, awspkg.MetricInventoryInsufficient, map[string]string{"Stage": "create"})
			return nil, apperrors.InsufficientInventory(apperrors.InventoryShortage{
				ProductID:   product.ID.String(),
				ProductName: product.Name,
				Color:       item.SelectedColor,
				Size:        item.SelectedSize,
				Available:   available,
				Requested:   requested[pool],
			})
		}

		total = total.Add(item.Subtotal())
		items = append(items, item)
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order = &models.Order{
			OrderNumber:     s.newOrderNumber(s.now()),
			CustomerName:    strings.TrimSpace(req.CustomerName),
			CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
			DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
			Status:          models.OrderStatusNew,
			TotalAmount:     total,
			Items:           cloneItems(items),
		}

		err = s.store.Transaction(ctx, func(tx repository.Store) error {
			return tx.Orders().Create(ctx, order)
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxOrderNumberAttempts {
			log.Warn("order number collision, retrying", zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt))
			continue
		}
		log.Error("failed to create order", zap.Error(err))
		return nil, translate(err, nil)
	}

	created, err := s.store.Orders().FindByID(ctx, order.ID)
	if err != nil {
		return nil, translate(err, apperrors.ErrOrderNotFound)
	}

	log.Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
		zap.String("total", created.TotalAmount.StringFixed(2)),
		zap.Int("items", len(created.Items)),
	)

	s.publish(ctx, events.New(events.OrderCreated, created.ID.String(), events.OrderCreatedPayload{
		OrderID:       created.ID.String(),
		OrderNumber:   created.OrderNumber,
		CustomerEmail: created.CustomerEmail,
		TotalAmount:   created.TotalAmount,
		ItemCount:     len(created.Items),
	}))
	s.recordCount(ctx, awspkg.MetricOrdersCreated, nil)
	if s.metrics != nil && s.metrics.IsEnabled() {
		_ = s.metrics.RecordValue(ctx, awspkg.MetricOrderRevenue, created.TotalAmount.InexactFloat64(), nil)
	}

	return created, nil
}

func cloneItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].ID = uuid.Nil
		out[i].OrderID = uuid.Nil
	}
	return out
}

// UpdateOrderStatus changes the status of an order. The first transition to
// paid deducts every line from its stock pool inside the same transaction as
// the status write, so either all stock moves and the order is paid, or
// nothing changes. Later transitions never touch stock again.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	log := logger.With(ctx, s.logger)

	id, err := parseID(orderID, "id")
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.ErrValidation.WithMessagef("Invalid order status %q", status)
	}

	var (
		previous   models.OrderStatus
		order      *models.Order
		deducted   bool
		productIDs []uuid.UUID
	)

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Orders().LockByID(ctx, id)
		if err != nil {
			return translate(err, apperrors.ErrOrderNotFound)
		}
		order = locked
		previous = locked.Status

		if locked.Status == status {
			return nil
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":     string(status),
			"updated_at": now,
		}

		if status == models.OrderStatusPaid && !locked.StockDeducted {
			touched, err := s.deductStock(ctx, tx, locked)
			if err != nil {
				return err
			}
			productIDs = touched
			deducted = true
			updates["stock_deducted"] = true
			updates["paid_at"] = now
		}

		return tx.Orders().Update(ctx, id, updates)
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Code < 500 {
			log.Info("order status change rejected", zap.String("order_id", orderID), zap.String("target", string(status)), zap.String("reason", appErr.Type))
		} else {
			log.Error("order status change failed", zap.String("order_id", orderID), zap.Error(err))
		}
		if errors.Is(err, apperrors.ErrInsufficientInventory) {
			s.recordCount(ctx, awspkg.MetricInventoryInsufficient, map[string]string{"Stage": "payment"})
		}
		return nil, translate(err, apperrors.ErrOrderNotFound)
	}

	if previous != status {
		log.Info("order status changed",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(status)),
			zap.Bool("stock_deducted", deducted),
		)
		if deducted {
			invalidate(ctx, s.cache, productIDs...)
			s.recordCount(ctx, awspkg.MetricOrdersPaid, nil)
			s.recordCount(ctx, awspkg.MetricInventoryDeducted, nil)
		}
		s.recordCount(ctx, awspkg.MetricOrderStatusChanged, map[string]string{"To": string(status)})
		s.publish(ctx, events.New(events.OrderStatusChanged, order.ID.String(), events.OrderStatusChangedPayload{
			OrderID:       order.ID.String(),
			OrderNumber:   order.OrderNumber,
			From:          string(previous),
			To:            string(status),
			StockDeducted: deducted,
		}))
	}

	updated, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, apperrors.ErrOrderNotFound)
	}
	return updated, nil
}

// deductStock locks every stock row the order draws from, verifies all of
// them before writing any, then applies conditional decrements. Products are
// locked before variants and each set in id order, which gives every
// transaction the same lock order. It returns the ids of touched products.
func (s *orderService) deductStock(ctx context.Context, tx repository.Store, order *models.Order) ([]uuid.UUID, error) {
	requested := make(map[stockPool]int)
	pools := make([]stockPool, 0, len(order.Items))
	for _, item := range order.Items {
		pool := poolOf(item)
		if _, ok := requested[pool]; !ok {
			pools = append(pools, pool)
		}
		requested[pool] += item.Quantity
	}

	productIDs := make([]uuid.UUID, 0, len(pools))
	variantIDs := make([]uuid.UUID, 0, len(pools))
	seenProducts := make(map[uuid.UUID]bool)
	for _, pool := range pools {
		if !seenProducts[pool.productID] {
			seenProducts[pool.productID] = true
			productIDs = append(productIDs, pool.productID)
		}
		if pool.isVariant() {
			variantIDs = append(variantIDs, pool.variantID)
		}
	}
	sortIDs(productIDs)
	sortIDs(variantIDs)

	products, err := tx.Products().LockByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	variantByID := make(map[uuid.UUID]models.ProductVariant, len(variantIDs))
	if len(variantIDs) > 0 {
		variants, err := tx.Variants().LockByIDs(ctx, variantIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range variants {
			variantByID[v.ID] = v
		}
	}

	shortage := func(pool stockPool, available int) error {
		product := productByID[pool.productID]
		sh := apperrors.InventoryShortage{
			ProductID:   pool.productID.String(),
			ProductName: product.Name,
			Available:   available,
			Requested:   requested[pool],
		}
		if v, ok := variantByID[pool.variantID]; ok && pool.isVariant() {
			color, size := v.Color, v.Size
			sh.Color, sh.Size = &color, &size
		}
		if sh.ProductName == "" {
			sh.ProductName = pool.productID.String()
		}
		return apperrors.InsufficientInventory(sh)
	}

	for _, pool := range pools {
		available := 0
		if pool.isVariant() {
			if v, ok := variantByID[pool.variantID]; ok {
				available = v.Quantity
			}
		} else if p, ok := productByID[pool.productID]; ok {
			available = p.Quantity
		}
		if available < requested[pool] {
			return nil, shortage(pool, available)
		}
	}

	for _, pool := range pools {
		var ok bool
		var err error
		if pool.isVariant() {
			ok, err = tx.Variants().DeductStock(ctx, pool.variantID, requested[pool])
		} else {
			ok, err = tx.Products().DeductStock(ctx, pool.productID, requested[pool])
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, shortage(pool, 0)
		}
	}

	return productIDs, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "id")
	if err != nil {
		return nil, err
	}
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, apperrors.ErrOrderNotFound)
	}
	return order, nil
}

// GetOrderByNumber is the customer-facing lookup; the email must match the
// one the order was placed with.
func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber, email string) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	email = strings.TrimSpace(email)
	if orderNumber == "" || email == "" {
		return nil, apperrors.ErrValidation.WithMessage("orderNumber and email are required")
	}
	order, err := s.store.Orders().FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, translate(err, apperrors.ErrOrderNotFound)
	}
	if !strings.EqualFold(order.CustomerEmail, email) {
		return nil, apperrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.ErrValidation.WithMessagef("Invalid order status %q", *filter.Status)
	}
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return orders, total, nil
}

// publish delivers event best-effort; failures are logged only.
func (s *orderService) publish(ctx context.Context, event events.Event) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		logger.With(ctx, s.logger).Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}
}

func (s *orderService) recordCount(ctx context.Context, metric string, dims map[string]string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, dims); err != nil {
		s.logger.Debug("failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
