package dto

// StockChangeInput feeds AddStock (Quantity > 0) and AdjustStock (signed).
type StockChangeInput struct {
	ItemID        string
	Quantity      int
	Notes         string
	ReferenceID   string
	ReferenceType string // 'purchase', 'stock_opname', 'return'
	UserID        string
}

type SetStockInput struct {
	ItemID        string
	PhysicalStock int
	UserID        string
}
