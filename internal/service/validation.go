package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/linemk/order-manager/internal/domain/models"
	"github.com/shopspring/decimal"
)

// пределы колонок из migrations: products.price NUMERIC(10, 2), order_products.quantity INTEGER
const (
	priceScale  = 2
	maxQuantity = math.MaxInt32
)

var maxPrice = decimal.New(1, 8)

// priceMessage возвращает текст ошибки для цены или пустую строку, если цена допустима
func priceMessage(price decimal.Decimal) string {
	switch {
	case price.IsNegative():
		return "must be greater than or equal to 0"
	case price.GreaterThanOrEqual(maxPrice):
		return "must be less than " + maxPrice.String()
	case !price.Equal(price.Round(priceScale)):
		return fmt.Sprintf("must have at most %d decimal places", priceScale)
	}
	return ""
}

// допустимые форматы даты заказа, наивное время считается UTC
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// parseDateTime разбирает дату-время; dateOnly сообщает, что было передано только число
func parseDateTime(value string) (t time.Time, dateOnly bool, err error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err = time.Parse(layout, value); err == nil {
			return t.UTC(), false, nil
		}
	}
	if t, err = time.Parse(dateLayout, value); err == nil {
		return t.UTC(), true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date-time %q", value)
}

// newValidator настраивает validator: имена полей берутся из json-тегов,
// плюс правила notblank и datetime для строкового ввода
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("datetime_any", func(fl validator.FieldLevel) bool {
		_, _, err := parseDateTime(fl.Field().String())
		return err == nil
	})
	return v
}

// validateStruct прогоняет validator и переводит его ошибки в список полей
func validateStruct(v *validator.Validate, s any) models.ValidationErrors {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return models.ValidationErrors{{Field: "", Message: err.Error()}}
	}

	result := make(models.ValidationErrors, 0, len(vErrs))
	for _, fe := range vErrs {
		result = append(result, models.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return result
}

// fieldPath отрезает имя корневой структуры: "orderFields.products[0].id" -> "products[0].id"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "gt":
		return "must be a positive integer"
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime_any":
		return "must be a valid date-time"
	default:
		return fmt.Sprintf("failed on %q constraint", fe.Tag())
	}
}
