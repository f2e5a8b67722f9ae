package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/order-manager/internal/domain/models"
	"github.com/linemk/order-manager/internal/storage"
)

// OrderLineInput - строка заказа в запросе: id товара и количество
type OrderLineInput struct {
	ProductID int64 `json:"id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0,lte=2147483647"`
}

// OrderInput - данные заказа из запроса. При обновлении nil-поля не меняются,
// а непустой Products полностью заменяет строки заказа.
type OrderInput struct {
	CustomerName *string          `json:"customerName"`
	OrderDate    *string          `json:"orderDate"`
	Description  *string          `json:"description"`
	Products     []OrderLineInput `json:"products"`
}

// OrderQuery - фильтры списка заказов в том виде, в каком они пришли в query string
type OrderQuery struct {
	CustomerName string
	Description  string
	StartDate    string
	EndDate      string
}

// OrderService определяет операции над заказами.
type OrderService interface {
	List(ctx context.Context, query OrderQuery) ([]*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	Create(ctx context.Context, in OrderInput) (*models.Order, error)
	Update(ctx context.Context, id int64, in OrderInput) (*models.Order, error)
	Delete(ctx context.Context, id int64) error
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
	validate    *validator.Validate
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage, productRepo storage.ProductStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		validate:    newValidator(),
	}
}

type orderFields struct {
	CustomerName string           `json:"customerName" validate:"notblank,min=2,max=255"`
	OrderDate    string           `json:"orderDate" validate:"notblank,datetime_any"`
	Description  string           `json:"description" validate:"max=255"`
	Products     []OrderLineInput `json:"products" validate:"required,min=1,dive"`
}

func (s *orderService) List(ctx context.Context, query OrderQuery) ([]*models.Order, error) {
	const op = "service.OrderService.List"
	logger := s.log.With(slog.String("op", op))

	filter, errs := buildOrderFilter(query)
	if len(errs) > 0 {
		logger.Info("invalid order filter", slog.Any("errors", errs))
		return nil, fmt.Errorf("%s: %w", op, errs)
	}

	orders, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		logger.Error("failed to list orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Debug("orders listed", slog.Int("count", len(orders)))
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	const op = "service.OrderService.Get"

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		s.log.Warn("failed to get order", slog.String("op", op), slog.Int64("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// Create проверяет данные заказа, находит все товары и сохраняет заказ со строками в одной транзакции.
// Если хотя бы один товар не найден, ничего не сохраняется.
func (s *orderService) Create(ctx context.Context, in OrderInput) (*models.Order, error) {
	const op = "service.OrderService.Create"
	logger := s.log.With(slog.String("op", op))

	fields := orderFields{Products: in.Products}
	if in.CustomerName != nil {
		fields.CustomerName = *in.CustomerName
	}
	if in.OrderDate != nil {
		fields.OrderDate = *in.OrderDate
	}
	if in.Description != nil {
		fields.Description = *in.Description
	}
	if errs := validateStruct(s.validate, fields); len(errs) > 0 {
		logger.Info("order validation failed", slog.Any("errors", errs))
		return nil, fmt.Errorf("%s: %w", op, errs)
	}
	orderDate, _, _ := parseDateTime(fields.OrderDate)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	lines, err := s.resolveLines(ctx, tx, fields.Products)
	if err != nil {
		rollback(logger, tx)
		logger.Warn("failed to resolve order products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order := &models.Order{
		CustomerName:  fields.CustomerName,
		OrderDate:     orderDate,
		Description:   fields.Description,
		OrderProducts: lines,
	}
	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created", slog.Int64("id", order.ID), slog.Int("lines", len(order.OrderProducts)))
	return order, nil
}

// Update блокирует заказ, накладывает переданные поля, перепроверяет заказ целиком
// и, если переданы строки, заменяет их.
func (s *orderService) Update(ctx context.Context, id int64, in OrderInput) (*models.Order, error) {
	const op = "service.OrderService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderByIDTx(ctx, tx, id)
	if err != nil {
		rollback(logger, tx)
		logger.Warn("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fields := orderFields{
		CustomerName: order.CustomerName,
		OrderDate:    order.OrderDate.Format(time.RFC3339Nano),
		Description:  order.Description,
		Products:     in.Products,
	}
	if in.CustomerName != nil {
		fields.CustomerName = *in.CustomerName
	}
	if in.OrderDate != nil {
		fields.OrderDate = *in.OrderDate
	}
	if in.Description != nil {
		fields.Description = *in.Description
	}
	if in.Products == nil {
		for _, line := range order.OrderProducts {
			fields.Products = append(fields.Products, OrderLineInput{ProductID: line.Product.ID, Quantity: line.Quantity})
		}
	}
	if errs := validateStruct(s.validate, fields); len(errs) > 0 {
		rollback(logger, tx)
		logger.Info("order validation failed", slog.Any("errors", errs))
		return nil, fmt.Errorf("%s: %w", op, errs)
	}

	order.CustomerName = fields.CustomerName
	order.OrderDate, _, _ = parseDateTime(fields.OrderDate)
	order.Description = fields.Description

	if in.Products != nil {
		lines, err := s.resolveLines(ctx, tx, in.Products)
		if err != nil {
			rollback(logger, tx)
			logger.Warn("failed to resolve order products", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.orderRepo.DeleteOrderProductsTx(ctx, tx, order.ID); err != nil {
			rollback(logger, tx)
			logger.Error("failed to delete order products", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.orderRepo.InsertOrderProductsTx(ctx, tx, order.ID, lines); err != nil {
			rollback(logger, tx)
			logger.Error("failed to insert order products", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		order.OrderProducts = lines
	}

	if err := s.orderRepo.UpdateOrderTx(ctx, tx, order); err != nil {
		rollback(logger, tx)
		logger.Error("failed to update order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order updated")
	return order, nil
}

// Delete удаляет строки заказа и сам заказ в одной транзакции
func (s *orderService) Delete(ctx context.Context, id int64) error {
	const op = "service.OrderService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.orderRepo.DeleteOrderProductsTx(ctx, tx, id); err != nil {
		rollback(logger, tx)
		logger.Error("failed to delete order products", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.orderRepo.DeleteOrderTx(ctx, tx, id); err != nil {
		rollback(logger, tx)
		logger.Warn("failed to delete order", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order deleted")
	return nil
}

// resolveLines находит товары строк заказа; первый ненайденный товар прерывает операцию
func (s *orderService) resolveLines(ctx context.Context, tx *sql.Tx, in []OrderLineInput) ([]*models.OrderProduct, error) {
	lines := make([]*models.OrderProduct, 0, len(in))
	for _, line := range in {
		product, err := s.productRepo.GetProductByIDTx(ctx, tx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, err)
		}
		lines = append(lines, &models.OrderProduct{Product: product, Quantity: line.Quantity})
	}
	return lines, nil
}

// buildOrderFilter разбирает границы дат; дата без времени в endDate включает весь день
func buildOrderFilter(query OrderQuery) (models.OrderFilter, models.ValidationErrors) {
	filter := models.OrderFilter{
		CustomerName: query.CustomerName,
		Description:  query.Description,
	}
	var errs models.ValidationErrors

	if query.StartDate != "" {
		start, _, err := parseDateTime(query.StartDate)
		if err != nil {
			errs = append(errs, models.FieldError{Field: "startDate", Message: "must be a valid date-time"})
		} else {
			filter.StartDate = &start
		}
	}
	if query.EndDate != "" {
		end, dateOnly, err := parseDateTime(query.EndDate)
		if err != nil {
			errs = append(errs, models.FieldError{Field: "endDate", Message: "must be a valid date-time"})
		} else {
			if dateOnly {
				// postgres хранит микросекунды
				end = end.Add(24*time.Hour - time.Microsecond)
			}
			filter.EndDate = &end
		}
	}
	return filter, errs
}

func rollback(logger *slog.Logger, tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}
