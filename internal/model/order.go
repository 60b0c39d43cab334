package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusReserved  OrderStatus = "reserved"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusReserved, OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// HoldsReservation reports whether items of an order in this status count
// towards reserved_stock.
func (s OrderStatus) HoldsReservation() bool {
	return s == OrderStatusReserved || s == OrderStatusPending
}

type Order struct {
	BaseModel
	ReferenceCode      string      `db:"reference_code" json:"reference_code"`
	CompanyID          string      `db:"company_id" json:"company_id"`
	TransportCompanyID *string     `db:"transport_company_id" json:"transport_company_id"`
	Status             OrderStatus `db:"status" json:"status"`
	CreatedBy          *string     `db:"created_by" json:"created_by"`
	Notes              *string     `db:"notes" json:"notes"`
	Items              []OrderItem `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	OrderID           string          `db:"order_id" json:"order_id"`
	ItemID            string          `db:"item_id" json:"item_id"`
	Quantity          int             `db:"quantity" json:"quantity"`
	DeliveredQuantity int             `db:"delivered_quantity" json:"delivered_quantity"`
	Price             decimal.Decimal `db:"price" json:"price"`
	DueDate           *time.Time      `db:"due_date" json:"due_date"`
}

// Outstanding is the part of the line still held in reserved_stock.
func (oi OrderItem) Outstanding() int {
	return oi.Quantity - oi.DeliveredQuantity
}
