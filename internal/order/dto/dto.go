package dto

import "github.com/fekuna/omnipos-erp-service/internal/model"

type OrderFilters struct {
	Status      string
	CompanyID   string
	CreatedBy   string
	SearchQuery string // reference code or notes
	Page        int
	PageSize    int
}

type CreateOrderResult struct {
	Order *model.Order `json:"order"`
	// Warnings lists lines that exceed available stock. They do not block the order.
	Warnings []string `json:"warnings,omitempty"`
}

type DeliveryLine struct {
	ItemID            string `json:"item_id"`
	DeliveredQuantity int    `json:"delivered_quantity"`
}

type DeliveryError struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

type DeliveryResult struct {
	Order    *model.Order    `json:"order"`
	Fallback bool            `json:"fallback"`
	Errors   []DeliveryError `json:"errors,omitempty"`
}
