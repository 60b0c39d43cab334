package dto

type CreateItemInput struct {
	SKU           string
	Name          string
	Unit          string
	Description   string
	PhysicalStock int
	ReorderPoint  int
	UserID        string
}

type UpdateItemInput struct {
	ID           string
	SKU          string
	Name         string
	Unit         string
	Description  string
	ReorderPoint int
	UserID       string
}

// UpsertItemInput is one bulk import row. On an existing SKU, an empty Unit or
// Description and nil numbers keep the stored value. PhysicalStock only seeds new items.
type UpsertItemInput struct {
	SKU           string
	Name          string
	Unit          string
	Description   string
	PhysicalStock *int
	ReorderPoint  *int
	UserID        string
}
