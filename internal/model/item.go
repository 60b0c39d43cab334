package model

type Item struct {
	BaseModel
	SKU           string  `db:"sku" json:"sku"`
	Name          string  `db:"name" json:"name"`
	Unit          string  `db:"unit" json:"unit"`
	Description   *string `db:"description" json:"description"`
	PhysicalStock int     `db:"physical_stock" json:"physical_stock"`
	ReservedStock int     `db:"reserved_stock" json:"reserved_stock"`
	ReorderPoint  int     `db:"reorder_point" json:"reorder_point"`
}

// Available is physical minus reserved. It goes negative when orders oversell.
func (i Item) Available() int {
	return i.PhysicalStock - i.ReservedStock
}
