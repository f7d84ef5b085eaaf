package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/port"
	"github.com/dmoraru/floraria/pkg/logging"
)

var (
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrValidation         = errors.New("validation failed")
	ErrPendingNotFound    = errors.New("no pending card payment")
	ErrPendingExpired     = errors.New("pending card payment expired")
	ErrPaymentNotVerified = errors.New("payment not verified by gateway")
)

// CheckoutResult is what the orchestration hands back to the HTTP
// layer: the terminal state, a user-facing message and, on success,
// the persisted order.
type CheckoutResult struct {
	State   CheckoutState
	Message string
	Order   *domain.Order
}

// OrderDraft carries the contact and delivery fields of a checkout
// submission. Line items always come from the session cart, never
// from the client.
type OrderDraft struct {
	RequestID     string
	UserID        string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	DeliveryDate  *time.Time
	Info          string
}

type CheckoutConfig struct {
	ReturnURL      string
	CancelURL      string
	RetryQueueSize int
}

// CheckoutService orchestrates cart validation, stock checking, order
// persistence and the two payment paths. Failed confirmation emails
// land on a retry queue drained by workers in main; the order itself
// is already persisted with Confirmation = pending at that point, so
// nothing is silently lost.
type CheckoutService struct {
	orders   port.OrderRepository
	carts    *CartService
	stock    *StockService
	pending  port.PendingStore
	cache    port.CacheRepository
	gateway  port.PaymentGateway
	notifier port.Notifier
	cfg      CheckoutConfig

	retryQueue chan domain.Order
}

func NewCheckoutService(
	orders port.OrderRepository,
	carts *CartService,
	stock *StockService,
	pending port.PendingStore,
	cache port.CacheRepository,
	gateway port.PaymentGateway,
	notifier port.Notifier,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.RetryQueueSize <= 0 {
		cfg.RetryQueueSize = 100
	}
	return &CheckoutService{
		orders:     orders,
		carts:      carts,
		stock:      stock,
		pending:    pending,
		cache:      cache,
		gateway:    gateway,
		notifier:   notifier,
		cfg:        cfg,
		retryQueue: make(chan domain.Order, cfg.RetryQueueSize),
	}
}

// NotificationRetries exposes orders whose confirmation email failed,
// for the retry workers started in main.
func (s *CheckoutService) NotificationRetries() <-chan domain.Order {
	return s.retryQueue
}

func (s *CheckoutService) Close() {
	close(s.retryQueue)
}

// FinalizeCash runs the cash-on-delivery path end to end: validate,
// check stock, reserve, persist, notify, clear cart.
func (s *CheckoutService) FinalizeCash(ctx context.Context, sessionID string, draft OrderDraft) (CheckoutResult, error) {
	state, _ := Transition(StateIdle, StateValidating)

	order, err := s.buildOrder(ctx, sessionID, draft, domain.PaymentMethodRamburs)
	if err != nil {
		return s.fail(state, "could not read your cart"), err
	}

	if res := ValidateOrder(order); !res.Valid {
		return s.fail(state, res.Message), fmt.Errorf("%s: %w", res.Message, ErrValidation)
	}

	idempotencyKey := fmt.Sprintf("checkout:%s:%s", sessionID, draft.RequestID)
	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return s.fail(state, "please retry"), fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return s.fail(state, "order already submitted"), ErrDuplicateRequest
	}

	if err := s.stock.CheckComposition(ctx, OrderProducts(order.Products).CartView()); err != nil {
		s.clearIdempotency(ctx, idempotencyKey)
		return s.fail(state, "some flowers are out of stock"), err
	}

	state, _ = Transition(state, StateCashProcessing)

	reserved, err := s.reserve(ctx, order)
	if err != nil {
		s.clearIdempotency(ctx, idempotencyKey)
		return s.fail(state, "some flowers are out of stock"), err
	}

	if err := s.persist(ctx, &order); err != nil {
		s.release(ctx, reserved)
		s.clearIdempotency(ctx, idempotencyKey)
		return s.fail(state, "could not place your order, please retry"), err
	}

	message := s.notify(ctx, &order)

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "clear_cart", Status: "error", Message: err.Error()})
	}

	state, _ = Transition(state, StateSuccess)
	return CheckoutResult{State: state, Message: message, Order: &order}, nil
}

// StartCard stages the order, reserves component stock and asks the
// gateway for a hosted payment page. Nothing is persisted until the
// payment is verified on the return callback.
func (s *CheckoutService) StartCard(ctx context.Context, sessionID string, draft OrderDraft) (port.RedirectSession, error) {
	order, err := s.buildOrder(ctx, sessionID, draft, domain.PaymentMethodCard)
	if err != nil {
		return port.RedirectSession{}, err
	}

	if res := ValidateOrder(order); !res.Valid {
		return port.RedirectSession{}, fmt.Errorf("%s: %w", res.Message, ErrValidation)
	}

	if err := s.stock.CheckComposition(ctx, OrderProducts(order.Products).CartView()); err != nil {
		return port.RedirectSession{}, err
	}

	// a re-submitted card start supersedes the staged one: hand its
	// reservation back before taking a new one, or the units would
	// stay decremented with no pending entry left to release them
	prev, err := s.pending.GetPending(ctx, sessionID)
	if err != nil {
		return port.RedirectSession{}, fmt.Errorf("read pending order: %w", err)
	}
	if prev != nil {
		s.release(ctx, reservedUnits(prev.Order))
		if err := s.pending.DeletePending(ctx, sessionID); err != nil {
			return port.RedirectSession{}, fmt.Errorf("delete pending order: %w", err)
		}
	}

	reserved, err := s.reserve(ctx, order)
	if err != nil {
		return port.RedirectSession{}, err
	}

	redirect, err := s.gateway.CreateRedirect(ctx, order, s.cfg.ReturnURL, s.cfg.CancelURL)
	if err != nil {
		s.release(ctx, reserved)
		return port.RedirectSession{}, fmt.Errorf("payment gateway: %w", err)
	}

	pendingOrder := domain.PendingOrder{
		Order:     order,
		PaymentID: redirect.PaymentID,
		CreatedAt: time.Now(),
	}
	if err := s.pending.PutPending(ctx, sessionID, pendingOrder); err != nil {
		s.release(ctx, reserved)
		return port.RedirectSession{}, fmt.Errorf("stage pending order: %w", err)
	}

	logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "card_redirect", Status: "pending"})
	return redirect, nil
}

// ConfirmCard completes a card payment after the gateway sends the
// shopper back. The payment is verified server-to-server; the return
// page's query string is never trusted on its own.
func (s *CheckoutService) ConfirmCard(ctx context.Context, sessionID string) (CheckoutResult, error) {
	pending, err := s.pending.GetPending(ctx, sessionID)
	if err != nil {
		return s.fail(StateCardPending, "please retry"), fmt.Errorf("read pending order: %w", err)
	}
	if pending == nil {
		return s.fail(StateCardPending, "no payment in progress"), ErrPendingNotFound
	}
	if pending.Expired(time.Now()) {
		s.release(ctx, reservedUnits(pending.Order))
		_ = s.pending.DeletePending(ctx, sessionID)
		return s.fail(StateCardPending, "payment session expired"), ErrPendingExpired
	}

	paid, err := s.gateway.VerifyPayment(ctx, pending.PaymentID)
	if err != nil {
		return s.fail(StateCardPending, "could not verify payment, please retry"), fmt.Errorf("verify payment: %w", err)
	}
	if !paid {
		// keep the pending data: the shopper can retry until the TTL runs out
		return s.fail(StateCardPending, "payment was not completed"), ErrPaymentNotVerified
	}

	order := pending.Order
	if err := s.persist(ctx, &order); err != nil {
		return s.fail(StateCardPending, "could not place your order, please retry"), err
	}

	message := s.notify(ctx, &order)

	if err := s.pending.DeletePending(ctx, sessionID); err != nil {
		logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "clear_pending", Status: "error", Message: err.Error()})
	}
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "clear_cart", Status: "error", Message: err.Error()})
	}

	state, _ := Transition(StateCardPending, StateSuccess)
	return CheckoutResult{State: state, Message: message, Order: &order}, nil
}

// CancelCard drops the staged order and frees its reservation. The
// cart is left untouched so the shopper can retry.
func (s *CheckoutService) CancelCard(ctx context.Context, sessionID string) error {
	pending, err := s.pending.GetPending(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("read pending order: %w", err)
	}
	if pending != nil {
		s.release(ctx, reservedUnits(pending.Order))
	}
	if err := s.pending.DeletePending(ctx, sessionID); err != nil {
		return fmt.Errorf("delete pending order: %w", err)
	}
	return nil
}

func (s *CheckoutService) buildOrder(ctx context.Context, sessionID string, draft OrderDraft, method domain.PaymentMethod) (domain.Order, error) {
	items, err := s.carts.Items(ctx, sessionID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load cart: %w", err)
	}

	products := make(OrderProducts, 0, len(items))
	for _, item := range items {
		products = append(products, domain.OrderProduct{
			ProductID:   item.ProductID,
			Title:       item.Title,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Composition: item.Composition,
		})
	}

	now := time.Now()
	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        draft.UserID,
		ClientName:    draft.ClientName,
		ClientEmail:   draft.ClientEmail,
		ClientPhone:   draft.ClientPhone,
		ClientAddress: draft.ClientAddress,
		OrderDate:     now,
		DeliveryDate:  draft.DeliveryDate,
		Info:          draft.Info,
		Status:        domain.OrderStatusPending,
		Confirmation:  domain.ConfirmationPending,
		PaymentMethod: method,
		Products:      products,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.TotalPrice = order.Total()
	return order, nil
}

// persist assigns the server-side order number and writes the order.
// The number comes from an atomic counter, so two concurrent
// checkouts can never share one.
func (s *CheckoutService) persist(ctx context.Context, order *domain.Order) error {
	number, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return fmt.Errorf("next order number: %w", err)
	}
	order.OrderNumber = number

	if err := s.orders.CreateOrder(ctx, *order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "persist", Status: "ok"})
	return nil
}

// notify sends the confirmation email and flips the confirmation
// flag. On failure the order stays persisted with Confirmation =
// pending and goes to the retry queue; the checkout still succeeds.
func (s *CheckoutService) notify(ctx context.Context, order *domain.Order) string {
	if err := s.notifier.SendOrderConfirmation(ctx, *order); err != nil {
		logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "notify", Status: "retry", Message: err.Error()})
		select {
		case s.retryQueue <- *order:
		default:
			logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "notify", Status: "queue_full"})
		}
		return "order placed, the confirmation email will follow shortly"
	}

	if err := s.orders.MarkConfirmationSent(ctx, order.ID); err != nil {
		logging.Log(logging.Fields{Service: "checkout", OrderID: order.ID, Step: "mark_confirmed", Status: "error", Message: err.Error()})
	} else {
		order.Confirmation = domain.ConfirmationSent
	}
	return "order placed successfully"
}

// clearIdempotency drops the request key after a failed submission so
// the "please retry" message stays true for the same request ID.
func (s *CheckoutService) clearIdempotency(ctx context.Context, key string) {
	if err := s.cache.DeleteIdempotency(ctx, key); err != nil {
		logging.Log(logging.Fields{Service: "checkout", Step: "clear_idempotency", Status: "error", Message: err.Error()})
	}
}

func (s *CheckoutService) fail(from CheckoutState, message string) CheckoutResult {
	state, _ := Transition(from, StateFailed)
	return CheckoutResult{State: state, Message: message}
}

// reserve decrements the free-stock counters for every simple product
// the order consumes. On a shortfall it rolls back what it already
// took and reports ErrInsufficientStock.
func (s *CheckoutService) reserve(ctx context.Context, order domain.Order) (map[string]int, error) {
	units := reservedUnits(order)

	taken := make(map[string]int, len(units))
	for productID, quantity := range units {
		ok, err := s.cache.ReserveStock(ctx, productID, quantity)
		if err != nil {
			s.release(ctx, taken)
			return nil, fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			s.release(ctx, taken)
			return nil, fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
		}
		taken[productID] = quantity
	}
	return taken, nil
}

func (s *CheckoutService) release(ctx context.Context, units map[string]int) {
	for productID, quantity := range units {
		if err := s.cache.ReleaseStock(ctx, productID, quantity); err != nil {
			logging.Log(logging.Fields{Service: "checkout", Step: "release_stock", Status: "critical", Message: fmt.Sprintf("product %s: %v", productID, err)})
		}
	}
}

// reservedUnits flattens an order into simple-product demand:
// composed lines contribute component quantity x line quantity.
func reservedUnits(order domain.Order) map[string]int {
	units := make(map[string]int)
	for _, p := range order.Products {
		if len(p.Composition) == 0 {
			units[p.ProductID] += p.Quantity
			continue
		}
		for _, comp := range p.Composition {
			units[comp.ProductID] += comp.Quantity * p.Quantity
		}
	}
	return units
}

// OrderProducts adapts order lines back into cart line items for the
// read-only stock check.
type OrderProducts []domain.OrderProduct

func (ps OrderProducts) CartView() []domain.CartItem {
	items := make([]domain.CartItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, domain.CartItem{
			ProductID:   p.ProductID,
			Title:       p.Title,
			Price:       p.Price,
			Quantity:    p.Quantity,
			Composition: p.Composition,
		})
	}
	return items
}
