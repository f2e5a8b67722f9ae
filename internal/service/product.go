package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/order-manager/internal/domain/models"
	"github.com/linemk/order-manager/internal/storage"
	"github.com/shopspring/decimal"
)

// ProductInput - данные товара из запроса. Nil-поля при обновлении не меняются.
type ProductInput struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
}

// ProductService определяет операции над товарами.
type ProductService interface {
	List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	validate    *validator.Validate
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
		validate:    newValidator(),
	}
}

type productFields struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Description string `json:"description"`
}

// validateProduct проверяет сущность целиком; цена decimal проверяется отдельно по пределам колонки
func (s *productService) validateProduct(product *models.Product, priceSet bool) models.ValidationErrors {
	errs := validateStruct(s.validate, productFields{Name: product.Name, Description: product.Description})
	if !priceSet {
		errs = append(errs, models.FieldError{Field: "price", Message: "must not be blank"})
	} else if msg := priceMessage(product.Price); msg != "" {
		errs = append(errs, models.FieldError{Field: "price", Message: msg})
	}
	return errs
}

func (s *productService) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	const op = "service.ProductService.List"
	logger := s.log.With(slog.String("op", op))

	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		logger.Error("failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Debug("products listed", slog.Int("count", len(products)))
	return products, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.ProductService.Get"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		s.log.Warn("failed to get product", slog.String("op", op), slog.Int64("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

// Create валидирует данные и сохраняет новый товар
func (s *productService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Create"
	logger := s.log.With(slog.String("op", op))

	product := &models.Product{}
	applyProductInput(product, in)
	if errs := s.validateProduct(product, in.Price != nil); len(errs) > 0 {
		logger.Info("product validation failed", slog.Any("errors", errs))
		return nil, fmt.Errorf("%s: %w", op, errs)
	}

	product, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("id", product.ID))
	return product, nil
}

// Update накладывает переданные поля на существующий товар и перепроверяет его целиком
func (s *productService) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		logger.Warn("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	applyProductInput(product, in)
	if errs := s.validateProduct(product, true); len(errs) > 0 {
		logger.Info("product validation failed", slog.Any("errors", errs))
		return nil, fmt.Errorf("%s: %w", op, errs)
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product updated")
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	const op = "service.ProductService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		logger.Warn("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}

func applyProductInput(product *models.Product, in ProductInput) {
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
}
