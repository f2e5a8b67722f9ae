package models

import "time"

// Order представляет заказ клиента
type Order struct {
	ID            int64           `json:"id"`
	CustomerName  string          `json:"customerName"`
	OrderDate     time.Time       `json:"orderDate"`
	Description   string          `json:"description"`
	OrderProducts []*OrderProduct `json:"orderProducts"`
}

// OrderProduct - строка заказа: ссылка на товар и количество.
// Строки принадлежат заказу и живут только вместе с ним.
type OrderProduct struct {
	ID       int64    `json:"-"`
	OrderID  int64    `json:"-"`
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// OrderFilter - необязательные фильтры списка заказов.
// Границы дат включительные, nil означает открытую границу.
type OrderFilter struct {
	CustomerName string
	Description  string
	StartDate    *time.Time
	EndDate      *time.Time
}
