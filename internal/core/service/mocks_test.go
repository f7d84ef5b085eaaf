package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/port"
)

func ron(amount string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(amount))
}

// Mock CartStore
type memCartStore struct {
	mu    sync.Mutex
	carts map[string][]domain.CartItem
	err   error
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string][]domain.CartItem)}
}

func (m *memCartStore) SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[sessionID] = append([]domain.CartItem(nil), items...)
	return nil
}

func (m *memCartStore) LoadCart(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.CartItem(nil), m.carts[sessionID]...), nil
}

func (m *memCartStore) DeleteCart(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// Mock ProductRepository
type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMockProductRepo(products ...domain.Product) *mockProductRepo {
	repo := &mockProductRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (m *mockProductRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

func (m *mockProductRepo) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]domain.Product)
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func (m *mockProductRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var products []domain.Product
	for _, p := range m.products {
		products = append(products, p)
	}
	return products, nil
}

// Mock OrderRepository
type mockOrderRepo struct {
	mu           sync.Mutex
	orders       []domain.Order
	nextNumber   int64
	confirmed    map[string]bool
	createErr    error
	numberCalled int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{confirmed: make(map[string]bool)}
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numberCalled++
	m.nextNumber++
	return m.nextNumber, nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.ID == id {
			return &order, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Order(nil), m.orders...), nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			return nil
		}
	}
	return nil
}

func (m *mockOrderRepo) MarkConfirmationSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed[id] = true
	return nil
}

// Mock PendingStore
type mockPendingStore struct {
	mu      sync.Mutex
	entries map[string]domain.PendingOrder
}

func newMockPendingStore() *mockPendingStore {
	return &mockPendingStore{entries: make(map[string]domain.PendingOrder)}
}

func (m *mockPendingStore) PutPending(ctx context.Context, sessionID string, pending domain.PendingOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = pending
	return nil
}

func (m *mockPendingStore) GetPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending, ok := m.entries[sessionID]
	if !ok {
		return nil, nil
	}
	return &pending, nil
}

func (m *mockPendingStore) DeletePending(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	stock          map[string]int
	idempotencySet map[string]bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		stock:          make(map[string]int),
		idempotencySet: make(map[string]bool),
	}
}

func (m *mockCacheRepo) ReserveStock(ctx context.Context, productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stock[productID] >= quantity {
		m.stock[productID] -= quantity
		return true, nil
	}
	return false, nil
}

func (m *mockCacheRepo) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] += quantity
	return nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) DeleteIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

// Mock PaymentGateway
type mockGateway struct {
	mu          sync.Mutex
	redirect    port.RedirectSession
	paid        bool
	createErr   error
	verifyErr   error
	verifyCalls int
}

func (m *mockGateway) CreateRedirect(ctx context.Context, order domain.Order, returnURL, cancelURL string) (port.RedirectSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return port.RedirectSession{}, m.createErr
	}
	return m.redirect, nil
}

func (m *mockGateway) VerifyPayment(ctx context.Context, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	if m.verifyErr != nil {
		return false, m.verifyErr
	}
	return m.paid, nil
}

// Mock Notifier
type mockNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockNotifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
