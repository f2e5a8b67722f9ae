package models

import "github.com/shopspring/decimal"

func init() {
	// цена отдаётся клиенту числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true
}

// Product представляет товар каталога
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// ProductFilter - необязательные фильтры списка товаров, пустое поле не ограничивает выборку
type ProductFilter struct {
	Name        string
	Description string
}
