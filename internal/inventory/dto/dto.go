package dto

import "time"

type LedgerFilters struct {
	ItemID          string
	TransactionType string
	StartDate       *time.Time
	EndDate         *time.Time
	Page            int
	PageSize        int
}

type LowStockFilters struct {
	Page     int
	PageSize int
}
