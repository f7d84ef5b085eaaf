package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/port"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// CreateOrder inserts the order and its lines and decrements the
// stock of every simple product the order consumes, all in one
// transaction. The stock update carries a stock >= ? guard so a
// concurrent checkout that drained the shelf first turns into
// port.ErrStockConflict instead of negative stock.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, user_id, client_name, client_email,
			client_phone, client_address, order_date, delivery_date, info,
			status, confirmation, total_price, currency, payment_method,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.UserID, order.ClientName, order.ClientEmail,
		order.ClientPhone, order.ClientAddress, order.OrderDate, order.DeliveryDate, order.Info,
		string(order.Status), string(order.Confirmation), order.TotalPrice.Amount,
		order.TotalPrice.Currency.String(), string(order.PaymentMethod),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, product := range order.Products {
		composition, err := marshalComposition(product.Composition)
		if err != nil {
			return fmt.Errorf("marshal composition: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_products (order_id, product_id, title, price, currency, quantity, composition)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, product.ProductID, product.Title, product.Price.Amount,
			product.Price.Currency.String(), product.Quantity, composition,
		)
		if err != nil {
			return fmt.Errorf("insert order product: %w", err)
		}
	}

	for productID, quantity := range componentDemand(order) {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND stock >= ?`,
			quantity, productID, quantity,
		)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("product %s: %w", productID, port.ErrStockConflict)
		}
	}

	return tx.Commit()
}

// NextOrderNumber reserves the next sequential number through an
// atomic counter row. Two concurrent checkouts always observe
// distinct numbers, unlike counting existing orders.
func (m *MySQLAdapter) NextOrderNumber(ctx context.Context) (int64, error) {
	result, err := m.db.ExecContext(ctx,
		`UPDATE order_counter SET value = LAST_INSERT_ID(value + 1) WHERE id = 1`)
	if err != nil {
		return 0, fmt.Errorf("advance counter: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.db.ExecContext(ctx,
			`INSERT IGNORE INTO order_counter (id, value) VALUES (1, 0)`); err != nil {
			return 0, fmt.Errorf("seed counter: %w", err)
		}
		return m.NextOrderNumber(ctx)
	}

	number, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return number, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, client_name, client_email, client_phone,
			client_address, order_date, delivery_date, info, status, confirmation,
			total_price, currency, payment_method, created_at, updated_at
		FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	order.Products, err = m.orderProducts(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, order_number, user_id, client_name, client_email, client_phone,
			client_address, order_date, delivery_date, info, status, confirmation,
			total_price, currency, payment_method, created_at, updated_at
		FROM orders ORDER BY order_number DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		orders[i].Products, err = m.orderProducts(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (m *MySQLAdapter) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (m *MySQLAdapter) MarkConfirmationSent(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx,
		`UPDATE orders SET confirmation = ?, updated_at = NOW() WHERE id = ?`,
		string(domain.ConfirmationSent), id)
	if err != nil {
		return fmt.Errorf("mark confirmation: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, title, price, currency, category, stock, version, composition, image, created_at, updated_at
		FROM products WHERE id = ?`, id)

	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (m *MySQLAdapter) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		product, err := m.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if product != nil {
			products[product.ID] = *product
		}
	}
	return products, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, title, price, currency, category, stock, version, composition, image, created_at, updated_at
		FROM products ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (m *MySQLAdapter) orderProducts(ctx context.Context, orderID string) ([]domain.OrderProduct, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, title, price, currency, quantity, composition
		FROM order_products WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order products: %w", err)
	}
	defer rows.Close()

	var products []domain.OrderProduct
	for rows.Next() {
		var (
			product     domain.OrderProduct
			amount      decimal.Decimal
			code        string
			composition sql.NullString
		)
		if err := rows.Scan(&product.ProductID, &product.Title, &amount, &code,
			&product.Quantity, &composition); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}

		unit, err := currency.ParseISO(code)
		if err != nil {
			return nil, fmt.Errorf("currency[%s] is not valid: %w", code, err)
		}
		product.Price = domain.Money{Amount: amount, Currency: unit}

		product.Composition, err = unmarshalComposition(composition)
		if err != nil {
			return nil, fmt.Errorf("composition of %s: %w", product.ProductID, err)
		}

		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order products: %w", err)
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order                        domain.Order
		amount                       decimal.Decimal
		code                         string
		status, confirmation, method string
		deliveryDate                 sql.NullTime
		userID, info                 sql.NullString
	)
	err := row.Scan(&order.ID, &order.OrderNumber, &userID, &order.ClientName,
		&order.ClientEmail, &order.ClientPhone, &order.ClientAddress, &order.OrderDate,
		&deliveryDate, &info, &status, &confirmation, &amount, &code, &method,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}

	order.UserID = userID.String
	order.Info = info.String
	order.Status = domain.OrderStatus(status)
	order.Confirmation = domain.ConfirmationStatus(confirmation)
	order.TotalPrice = domain.Money{Amount: amount, Currency: unit}
	order.PaymentMethod = domain.PaymentMethod(method)
	if deliveryDate.Valid {
		date := deliveryDate.Time
		order.DeliveryDate = &date
	}
	return &order, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product     domain.Product
		amount      decimal.Decimal
		code        string
		composition sql.NullString
		image       sql.NullString
	)
	err := row.Scan(&product.ID, &product.Title, &amount, &code, &product.Category,
		&product.Stock, &product.Version, &composition, &image,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	product.Price = domain.Money{Amount: amount, Currency: unit}
	product.Image = image.String

	product.Composition, err = unmarshalComposition(composition)
	if err != nil {
		return nil, fmt.Errorf("composition of %s: %w", product.ID, err)
	}
	return &product, nil
}

func marshalComposition(refs []domain.ComponentRef) (sql.NullString, error) {
	if len(refs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(componentsToRecords(refs))
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalComposition(raw sql.NullString) ([]domain.ComponentRef, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var records []componentRecord
	if err := json.Unmarshal([]byte(raw.String), &records); err != nil {
		return nil, err
	}
	return componentsFromRecords(records), nil
}

// componentDemand flattens an order into simple-product stock demand.
func componentDemand(order domain.Order) map[string]int {
	demand := make(map[string]int)
	for _, p := range order.Products {
		if len(p.Composition) == 0 {
			demand[p.ProductID] += p.Quantity
			continue
		}
		for _, comp := range p.Composition {
			demand[comp.ProductID] += comp.Quantity * p.Quantity
		}
	}
	return demand
}
