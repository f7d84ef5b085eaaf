package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/core/service"
	"github.com/dmoraru/floraria/internal/port"
	"github.com/dmoraru/floraria/pkg/events"
	"github.com/dmoraru/floraria/pkg/logging"
	"github.com/dmoraru/floraria/pkg/metrics"
)

const sessionHeader = "X-Session-ID"

type HTTPHandler struct {
	carts    *service.CartService
	stock    *service.StockService
	checkout *service.CheckoutService
	orders   port.OrderRepository
	products port.ProductRepository
	notifier port.Notifier
	events   *events.Publisher
	metrics  *metrics.ServerMetrics
}

func NewHTTPHandler(
	carts *service.CartService,
	stock *service.StockService,
	checkout *service.CheckoutService,
	orders port.OrderRepository,
	products port.ProductRepository,
	notifier port.Notifier,
	publisher *events.Publisher,
	srvMetrics *metrics.ServerMetrics,
) *HTTPHandler {
	return &HTTPHandler{
		carts:    carts,
		stock:    stock,
		checkout: checkout,
		orders:   orders,
		products: products,
		notifier: notifier,
		events:   publisher,
		metrics:  srvMetrics,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/cart", h.instrument("cart_get", h.GetCart))
	mux.HandleFunc("POST /api/cart", h.instrument("cart_set", h.SetCart))
	mux.HandleFunc("POST /api/cart/items", h.instrument("cart_add", h.AddCartItem))
	mux.HandleFunc("PATCH /api/cart/items", h.instrument("cart_update", h.UpdateCartItem))
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.instrument("cart_remove", h.RemoveCartItem))
	mux.HandleFunc("DELETE /api/cart", h.instrument("cart_clear", h.ClearCart))

	mux.HandleFunc("POST /api/check-composition", h.instrument("check_composition", h.CheckComposition))

	mux.HandleFunc("POST /api/orders", h.instrument("order_finalize", h.FinalizeOrder))
	mux.HandleFunc("GET /api/orders", h.instrument("order_list", h.ListOrders))
	mux.HandleFunc("GET /api/orders/number", h.instrument("order_count", h.OrderCount))
	mux.HandleFunc("PATCH /api/orders/status", h.instrument("order_status", h.UpdateOrderStatus))

	mux.HandleFunc("POST /api/send-email/placed-order", h.instrument("send_email", h.ResendConfirmation))

	mux.HandleFunc("POST /api/payment-card", h.instrument("card_start", h.StartCardPayment))
	mux.HandleFunc("POST /api/payment-card/confirm", h.instrument("card_confirm", h.ConfirmCardPayment))
	mux.HandleFunc("POST /api/payment-card/cancel", h.instrument("card_cancel", h.CancelCardPayment))

	mux.HandleFunc("GET /api/products", h.instrument("product_list", h.ListProducts))
	mux.HandleFunc("GET /api/products/{id}", h.instrument("product_get", h.GetProduct))
}

// instrument wraps a handler that reports its response status so the
// request counter and latency histogram stay accurate per endpoint.
func (h *HTTPHandler) instrument(name string, fn func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := fn(w, r)
		h.metrics.Requests.WithLabelValues(name, strconv.Itoa(status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- cart ---

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	items, err := h.carts.Items(r.Context(), sessionID)
	if err != nil {
		return h.writeError(w, err)
	}

	return writeJSON(w, http.StatusOK, cartResponse(items))
}

func (h *HTTPHandler) SetCart(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	var dtos []cartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	items, err := cartItemsFromDTO(dtos)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	}

	if err := h.carts.SetItems(r.Context(), sessionID, items); err != nil {
		return h.writeError(w, err)
	}

	return writeJSON(w, http.StatusOK, cartResponse(items))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	var dto cartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	item, err := dto.toDomain()
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	}

	if err := h.carts.AddItem(r.Context(), sessionID, item); err != nil {
		return h.writeError(w, err)
	}

	items, err := h.carts.Items(r.Context(), sessionID)
	if err != nil {
		return h.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, cartResponse(items))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	var req struct {
		ProductID string `json:"id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	if err := h.carts.UpdateQuantity(r.Context(), sessionID, req.ProductID, req.Quantity); err != nil {
		return h.writeError(w, err)
	}

	items, err := h.carts.Items(r.Context(), sessionID)
	if err != nil {
		return h.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, cartResponse(items))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	if err := h.carts.RemoveItem(r.Context(), sessionID, r.PathValue("id")); err != nil {
		return h.writeError(w, err)
	}

	items, err := h.carts.Items(r.Context(), sessionID)
	if err != nil {
		return h.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, cartResponse(items))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	if err := h.carts.Clear(r.Context(), sessionID); err != nil {
		return h.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- stock ---

// CheckComposition answers 200 when every line item can be fulfilled
// and 403 when any composition component is under-stocked. Read-only,
// called both from the product page and right before checkout.
func (h *HTTPHandler) CheckComposition(w http.ResponseWriter, r *http.Request) int {
	var dtos []cartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	items, err := cartItemsFromDTO(dtos)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	}

	if err := h.stock.CheckComposition(r.Context(), items); err != nil {
		return h.writeError(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- checkout ---

func (h *HTTPHandler) FinalizeOrder(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}
	if req.RequestID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing request_id"))
	}

	draft, err := req.toDraft()
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	}

	result, err := h.checkout.FinalizeCash(r.Context(), sessionID, draft)
	if err != nil {
		return h.writeCheckoutError(w, result, err)
	}

	h.publishPlaced(r, result.Order)

	return writeJSON(w, http.StatusOK, checkoutResponse{
		Success:     true,
		Message:     result.Message,
		State:       string(result.State),
		OrderNumber: result.Order.OrderNumber,
	})
}

func (h *HTTPHandler) StartCardPayment(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	draft, err := req.toDraft()
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	}

	redirect, err := h.checkout.StartCard(r.Context(), sessionID, draft)
	if err != nil {
		return h.writeError(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirect.RedirectURL})
}

func (h *HTTPHandler) ConfirmCardPayment(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	result, err := h.checkout.ConfirmCard(r.Context(), sessionID)
	if err != nil {
		return h.writeCheckoutError(w, result, err)
	}

	h.publishPlaced(r, result.Order)

	return writeJSON(w, http.StatusOK, checkoutResponse{
		Success:     true,
		Message:     result.Message,
		State:       string(result.State),
		OrderNumber: result.Order.OrderNumber,
	})
}

func (h *HTTPHandler) CancelCardPayment(w http.ResponseWriter, r *http.Request) int {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("missing session"))
	}

	if err := h.checkout.CancelCard(r.Context(), sessionID); err != nil {
		return h.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- orders ---

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) int {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		return h.writeError(w, err)
	}

	dtos := make([]orderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, orderToDTO(order))
	}
	return writeJSON(w, http.StatusOK, dtos)
}

// OrderCount reports how many orders exist. Order numbers themselves
// are assigned server-side from an atomic counter at insert time, so
// this is informational only.
func (h *HTTPHandler) OrderCount(w http.ResponseWriter, r *http.Request) int {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		return h.writeError(w, err)
	}
	return writeJSON(w, http.StatusOK, map[string]int{"count": len(orders)})
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) int {
	var req struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	status := domain.OrderStatus(req.Status)
	if status != domain.OrderStatusPending && status != domain.OrderStatusDelivered {
		return writeJSON(w, http.StatusBadRequest, errorResponse("unknown status"))
	}

	order, err := h.orders.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		return h.writeError(w, err)
	}
	if order == nil {
		return writeJSON(w, http.StatusNotFound, errorResponse("order not found"))
	}
	// delivery is one-way: a delivered order never goes back to pending
	if order.Status == domain.OrderStatusDelivered && status == domain.OrderStatusPending {
		return writeJSON(w, http.StatusConflict, errorResponse("order already delivered"))
	}

	if err := h.orders.UpdateStatus(r.Context(), req.OrderID, status); err != nil {
		return h.writeError(w, err)
	}

	if status == domain.OrderStatusDelivered && h.events.Enabled() {
		if err := h.events.Publish(r.Context(), events.OrderEvent{
			Type:        events.TypeOrderDelivered,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Total:       order.TotalPrice.Amount.String(),
			Currency:    order.TotalPrice.Currency.String(),
		}); err != nil {
			logging.Log(logging.Fields{Service: "storefront", OrderID: order.ID, Step: "publish_event", Status: "error", Message: err.Error()})
		}
	}

	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ResendConfirmation re-delivers the confirmation email of a
// persisted order, used when the original send failed and the order
// is sitting with confirmation = pending.
func (h *HTTPHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) int {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		return writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
	}

	order, err := h.orders.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		return h.writeError(w, err)
	}
	if order == nil {
		return writeJSON(w, http.StatusNotFound, errorResponse("order not found"))
	}

	if err := h.notifier.SendOrderConfirmation(r.Context(), *order); err != nil {
		return h.writeError(w, err)
	}
	if err := h.orders.MarkConfirmationSent(r.Context(), order.ID); err != nil {
		return h.writeError(w, err)
	}

	return writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- catalog ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) int {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		return h.writeError(w, err)
	}

	dtos := make([]productDTO, 0, len(products))
	for _, product := range products {
		dtos = append(dtos, productToDTO(product))
	}
	return writeJSON(w, http.StatusOK, dtos)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) int {
	product, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		return h.writeError(w, err)
	}
	if product == nil {
		return writeJSON(w, http.StatusNotFound, errorResponse("product not found"))
	}
	return writeJSON(w, http.StatusOK, productToDTO(*product))
}

// --- helpers ---

func (h *HTTPHandler) publishPlaced(r *http.Request, order *domain.Order) {
	if order == nil || !h.events.Enabled() {
		return
	}
	if err := h.events.Publish(r.Context(), events.OrderEvent{
		Type:        events.TypeOrderPlaced,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.TotalPrice.Amount.String(),
		Currency:    order.TotalPrice.Currency.String(),
	}); err != nil {
		logging.Log(logging.Fields{Service: "storefront", OrderID: order.ID, Step: "publish_event", Status: "error", Message: err.Error()})
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNegativePrice):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, port.ErrStockConflict):
		status = http.StatusForbidden
		message = "insufficient stock"
	case errors.Is(err, service.ErrUnknownProduct):
		status = http.StatusNotFound
		message = "unknown product"
	case errors.Is(err, service.ErrDuplicateRequest):
		status = http.StatusConflict
		message = "duplicate request"
	case errors.Is(err, service.ErrPendingNotFound),
		errors.Is(err, service.ErrPendingExpired):
		status = http.StatusGone
		message = "no payment in progress"
	case errors.Is(err, service.ErrPaymentNotVerified):
		status = http.StatusPaymentRequired
		message = "payment was not completed"
	}

	return writeJSON(w, status, errorResponse(message))
}

// writeCheckoutError prefers the orchestration's user-facing message
// over the generic mapping.
func (h *HTTPHandler) writeCheckoutError(w http.ResponseWriter, result service.CheckoutResult, err error) int {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, port.ErrStockConflict):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrDuplicateRequest):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPendingNotFound), errors.Is(err, service.ErrPendingExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrPaymentNotVerified):
		status = http.StatusPaymentRequired
	}

	message := result.Message
	if message == "" {
		message = "internal error"
	}
	return writeJSON(w, status, checkoutResponse{Message: message, State: string(result.State)})
}

func errorResponse(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
	return status
}
