package usecase

import (
	"context"
	"io"
	"strconv"

	companydto "github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/importer"
	"github.com/fekuna/omnipos-erp-service/internal/importer/sheet"
	itemdto "github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	orderdto "github.com/fekuna/omnipos-erp-service/internal/order/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func headers(entity importer.Entity) []string {
	cols := importer.Columns[entity]
	return append(append([]string{}, cols.Required...), cols.Optional...)
}

// Export writes every row of entity with the import column set, so the file
// can be edited and imported back.
func (uc *importUseCase) Export(ctx context.Context, entity importer.Entity, format sheet.Format, w io.Writer) error {
	if !entity.Valid() {
		return apperror.Validation("import.unsupported_entity", "entity=%q", entity)
	}

	var records [][]string
	var err error
	switch entity {
	case importer.EntityItems:
		records, err = uc.itemRecords(ctx)
	case importer.EntityCompanies:
		records, err = companyRecords(ctx, uc.companies.ListCompanies)
	case importer.EntityTransport:
		records, err = companyRecords(ctx, uc.transport.ListCompanies)
	case importer.EntityOrders:
		records, err = uc.orderRecords(ctx)
	}
	if err != nil {
		return err
	}
	return sheet.Write(w, format, headers(entity), records)
}

func (uc *importUseCase) itemRecords(ctx context.Context) ([][]string, error) {
	items, _, err := uc.items.ListItems(ctx, &itemdto.ItemFilters{})
	if err != nil {
		return nil, err
	}
	records := make([][]string, 0, len(items))
	for _, it := range items {
		records = append(records, []string{
			it.SKU,
			it.Name,
			it.Unit,
			deref(it.Description),
			strconv.Itoa(it.PhysicalStock),
			strconv.Itoa(it.ReorderPoint),
		})
	}
	return records, nil
}

type listCompanies func(ctx context.Context, filters *companydto.CompanyFilters) ([]model.Company, int, error)

func companyRecords(ctx context.Context, list listCompanies) ([][]string, error) {
	companies, _, err := list(ctx, &companydto.CompanyFilters{})
	if err != nil {
		return nil, err
	}
	records := make([][]string, 0, len(companies))
	for _, c := range companies {
		records = append(records, []string{
			c.Name,
			deref(c.ContactPerson),
			deref(c.Phone),
			deref(c.Email),
			deref(c.Address),
		})
	}
	return records, nil
}

// orderRecords writes one row per order line, keyed by the order's reference
// code so the lines regroup on import.
func (uc *importUseCase) orderRecords(ctx context.Context) ([][]string, error) {
	orders, _, err := uc.orders.ListOrders(ctx, &orderdto.OrderFilters{})
	if err != nil {
		return nil, err
	}

	companyNames, err := nameIndex(ctx, uc.companies.ListCompanies)
	if err != nil {
		return nil, err
	}
	transportNames, err := nameIndex(ctx, uc.transport.ListCompanies)
	if err != nil {
		return nil, err
	}
	items, _, err := uc.items.ListItems(ctx, &itemdto.ItemFilters{})
	if err != nil {
		return nil, err
	}
	skus := make(map[string]string, len(items))
	for _, it := range items {
		skus[it.ID] = it.SKU
	}

	var records [][]string
	for _, o := range orders {
		transport := ""
		if o.TransportCompanyID != nil {
			transport = transportNames[*o.TransportCompanyID]
		}
		for _, l := range o.Items {
			due := ""
			if l.DueDate != nil {
				due = l.DueDate.Format("2006-01-02")
			}
			records = append(records, []string{
				companyNames[o.CompanyID],
				skus[l.ItemID],
				strconv.Itoa(l.Quantity),
				o.ReferenceCode,
				transport,
				l.Price.String(),
				due,
				deref(o.Notes),
			})
		}
	}
	return records, nil
}

func nameIndex(ctx context.Context, list listCompanies) (map[string]string, error) {
	companies, _, err := list(ctx, &companydto.CompanyFilters{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}
	return names, nil
}
