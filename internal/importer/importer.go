package importer

import (
	"context"
	"io"

	"github.com/fekuna/omnipos-erp-service/internal/importer/sheet"
)

type Entity string

const (
	EntityItems     Entity = "items"
	EntityCompanies Entity = "companies"
	EntityTransport Entity = "transport_companies"
	EntityOrders    Entity = "orders"
)

// Columns lists the required and optional columns per entity. Export writes
// required then optional, so an exported file imports back unchanged.
var Columns = map[Entity]struct{ Required, Optional []string }{
	EntityItems: {
		Required: []string{"sku", "name", "unit"},
		Optional: []string{"description", "physical_stock", "reorder_point"},
	},
	EntityCompanies: {
		Required: []string{"name"},
		Optional: []string{"contact_person", "phone", "email", "address"},
	},
	EntityTransport: {
		Required: []string{"name"},
		Optional: []string{"contact_person", "phone", "email", "address"},
	},
	EntityOrders: {
		Required: []string{"customer_name", "sku", "quantity"},
		Optional: []string{"order_ref", "transport_name", "price", "due_date", "notes"},
	},
}

func (e Entity) Valid() bool {
	_, ok := Columns[e]
	return ok
}

// Result summarizes one import. Failed counts rows, so a failed order group
// adds all of its rows.
type Result struct {
	Entity    Entity   `json:"entity"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings,omitempty"`
}

type UseCase interface {
	Import(ctx context.Context, entity Entity, filename string, r io.Reader, userID string) (*Result, error)
	Export(ctx context.Context, entity Entity, format sheet.Format, w io.Writer) error
}
