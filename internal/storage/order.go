package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/order-manager/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

const orderColumns = "id, customer_name, order_date, description"

// OrderStorage описывает методы для работы с заказами и их строками.
// Методы с суффиксом Tx выполняются в транзакции, которой управляет сервис.
type OrderStorage interface {
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	// GetOrderByID возвращает заказ вместе со строками и товарами.
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// LockOrderByIDTx блокирует строку заказа до конца транзакции и возвращает заказ со строками.
	LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	UpdateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	InsertOrderProductsTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []*models.OrderProduct) error
	DeleteOrderProductsTx(ctx context.Context, tx *sql.Tx, orderID int64) error
	DeleteOrderTx(ctx context.Context, tx *sql.Tx, id int64) error
}

// queryer - общее подмножество *sql.DB и *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

// ListOrders возвращает заказы по фильтрам, каждый условный фильтр добавляет предикат через AND.
func (r *orderRepository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	var where whereBuilder
	where.contains("customer_name", filter.CustomerName)
	where.contains("description", filter.Description)
	if filter.StartDate != nil {
		where.add("order_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		where.add("order_date <= ?", *filter.EndDate)
	}

	query := "SELECT " + orderColumns + " FROM orders" + where.String() + " ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.CustomerName, &order.OrderDate, &order.Description); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadOrderProducts(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err := row.Scan(&order.ID, &order.CustomerName, &order.OrderDate, &order.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := loadOrderProducts(ctx, r.db, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
	if err := row.Scan(&order.ID, &order.CustomerName, &order.OrderDate, &order.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := loadOrderProducts(ctx, tx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrderTx вставляет заказ и его строки, заполняя ID заказа.
func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	err := tx.QueryRowContext(ctx,
		"INSERT INTO orders (customer_name, order_date, description) VALUES ($1, $2, $3) RETURNING id",
		order.CustomerName, order.OrderDate, order.Description,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return r.InsertOrderProductsTx(ctx, tx, order.ID, order.OrderProducts)
}

func (r *orderRepository) UpdateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET customer_name = $1, order_date = $2, description = $3 WHERE id = $4",
		order.CustomerName, order.OrderDate, order.Description, order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) InsertOrderProductsTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []*models.OrderProduct) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO order_products (order_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id")
	if err != nil {
		return fmt.Errorf("failed to prepare order product statement: %w", err)
	}
	defer stmt.Close()

	for _, line := range lines {
		if err := stmt.QueryRowContext(ctx, orderID, line.Product.ID, line.Quantity).Scan(&line.ID); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to create order product (product_id: %d): %w", line.Product.ID, err)
		}
		line.OrderID = orderID
	}
	return nil
}

func (r *orderRepository) DeleteOrderProductsTx(ctx context.Context, tx *sql.Tx, orderID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_products WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order products: %w", err)
	}
	return nil
}

func (r *orderRepository) DeleteOrderTx(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// loadOrderProducts одним запросом подгружает строки всех переданных заказов вместе с товарами
func loadOrderProducts(ctx context.Context, q queryer, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for _, order := range orders {
		order.OrderProducts = make([]*models.OrderProduct, 0)
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	query := `
		SELECT op.id, op.order_id, op.quantity, p.id, p.name, p.price, p.description
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY op.id`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := &models.OrderProduct{Product: &models.Product{}}
		if err := rows.Scan(&line.ID, &line.OrderID, &line.Quantity,
			&line.Product.ID, &line.Product.Name, &line.Product.Price, &line.Product.Description); err != nil {
			return fmt.Errorf("failed to scan order product: %w", err)
		}
		if order, ok := byID[line.OrderID]; ok {
			order.OrderProducts = append(order.OrderProducts, line)
		}
	}
	return rows.Err()
}
