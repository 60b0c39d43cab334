package dto

import (
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ItemID   string          `json:"item_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	DueDate  *time.Time      `json:"due_date"`
}

type CreateOrderInput struct {
	CompanyID          string
	TransportCompanyID string
	Notes              string
	CreatedBy          string
	Lines              []OrderLine
}

// UpdateOrderInput leaves a field untouched when it is nil. A non-nil Lines
// replaces the whole line set.
type UpdateOrderInput struct {
	ID                 string
	CompanyID          *string
	TransportCompanyID *string
	Notes              *string
	Status             *model.OrderStatus
	Lines              []OrderLine
	UserID             string
}

type RecordDeliveriesInput struct {
	OrderID string
	Lines   []DeliveryLine
	UserID  string
}
