package model

import "time"

type LedgerTransaction string

const (
	LedgerStockIn    LedgerTransaction = "stock_in"
	LedgerAdjustment LedgerTransaction = "adjustment"
)

type StockLedgerEntry struct {
	ID              string            `db:"id" json:"id"`
	ItemID          string            `db:"item_id" json:"item_id"`
	TransactionType LedgerTransaction `db:"transaction_type" json:"transaction_type"`
	Quantity        int               `db:"quantity" json:"quantity"`
	BalanceAfter    int               `db:"balance_after" json:"balance_after"`
	ReferenceType   *string           `db:"reference_type" json:"reference_type"`
	ReferenceID     *string           `db:"reference_id" json:"reference_id"`
	Notes           string            `db:"notes" json:"notes"`
	CreatedBy       *string           `db:"created_by" json:"created_by"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}
