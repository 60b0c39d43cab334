package dto

type ItemFilters struct {
	SearchQuery string // name or sku
	LowStock    bool   // available <= reorder_point
	SortBy      string // name, sku, available, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
