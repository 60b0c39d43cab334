package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/company"
	companydto "github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/importer"
	"github.com/fekuna/omnipos-erp-service/internal/importer/sheet"
	"github.com/fekuna/omnipos-erp-service/internal/item"
	itemdto "github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/order"
	orderdto "github.com/fekuna/omnipos-erp-service/internal/order/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type importUseCase struct {
	items     item.UseCase
	companies company.UseCase
	transport company.UseCase
	orders    order.UseCase
	logger    logger.ZapLogger
}

func NewImportUseCase(items item.UseCase, companies, transport company.UseCase, orders order.UseCase, log logger.ZapLogger) importer.UseCase {
	return &importUseCase{
		items:     items,
		companies: companies,
		transport: transport,
		orders:    orders,
		logger:    log,
	}
}

func (uc *importUseCase) Import(ctx context.Context, entity importer.Entity, filename string, r io.Reader, userID string) (*importer.Result, error) {
	if !entity.Valid() {
		return nil, apperror.Validation("import.unsupported_entity", "entity=%q", entity)
	}

	table, err := sheet.Read(filename, r)
	if errors.Is(err, sheet.ErrUnsupportedFormat) {
		return nil, apperror.Validation("import.unsupported_format", "%s", err.Error())
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "common.invalid_payload", err)
	}

	// Whole file is rejected before any write when a column is missing.
	if missing := table.Missing(importer.Columns[entity].Required); len(missing) > 0 {
		cols := strings.Join(missing, ", ")
		return nil, apperror.Validation("import.missing_columns", "%s", cols).
			WithData(map[string]interface{}{"Columns": cols})
	}
	if len(table.Rows) == 0 {
		return nil, apperror.Validation("import.empty_file", "%s", filename)
	}

	res := &importer.Result{Entity: entity, Total: len(table.Rows), Errors: []string{}}
	switch entity {
	case importer.EntityItems:
		uc.importItems(ctx, table.Rows, userID, res)
	case importer.EntityCompanies:
		uc.importCompanies(ctx, uc.companies, table.Rows, userID, res)
	case importer.EntityTransport:
		uc.importCompanies(ctx, uc.transport, table.Rows, userID, res)
	case importer.EntityOrders:
		uc.importOrders(ctx, table.Rows, userID, res)
	}

	uc.logger.Info("import finished",
		zap.String("entity", string(entity)),
		zap.String("file", filename),
		zap.Int("total", res.Total),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (uc *importUseCase) fail(res *importer.Result, line int, err error) {
	res.Failed++
	res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
}

func (uc *importUseCase) count(res *importer.Result, created bool) {
	res.Succeeded++
	if created {
		res.Created++
	} else {
		res.Updated++
	}
}

// optionalInt returns nil for a blank cell.
func optionalInt(row sheet.Row, col string) (*int, error) {
	v := row.Get(col)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a whole number", col, v)
	}
	return &n, nil
}

func (uc *importUseCase) importItems(ctx context.Context, rows []sheet.Row, userID string, res *importer.Result) {
	for _, row := range rows {
		physical, err := optionalInt(row, "physical_stock")
		if err != nil {
			uc.fail(res, row.Line, err)
			continue
		}
		reorder, err := optionalInt(row, "reorder_point")
		if err != nil {
			uc.fail(res, row.Line, err)
			continue
		}

		it, created, err := uc.items.UpsertBySKU(ctx, &itemdto.UpsertItemInput{
			SKU:           row.Get("sku"),
			Name:          row.Get("name"),
			Unit:          row.Get("unit"),
			Description:   row.Get("description"),
			PhysicalStock: physical,
			ReorderPoint:  reorder,
			UserID:        userID,
		})
		if err != nil {
			uc.fail(res, row.Line, err)
			continue
		}
		uc.count(res, created)

		// Stock of existing items only moves through the inventory ledger.
		if !created && physical != nil && *physical != it.PhysicalStock {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"row %d: physical_stock %d ignored for existing SKU %s (stored %d), use an inventory adjustment",
				row.Line, *physical, it.SKU, it.PhysicalStock))
		}
	}
}

func (uc *importUseCase) importCompanies(ctx context.Context, target company.UseCase, rows []sheet.Row, userID string, res *importer.Result) {
	for _, row := range rows {
		_, created, err := target.UpsertByName(ctx, &companydto.CompanyInput{
			Name:          row.Get("name"),
			ContactPerson: row.Get("contact_person"),
			Phone:         row.Get("phone"),
			Email:         row.Get("email"),
			Address:       row.Get("address"),
			UserID:        userID,
		})
		if err != nil {
			uc.fail(res, row.Line, err)
			continue
		}
		uc.count(res, created)
	}
}

type orderGroup struct {
	ref  string
	rows []sheet.Row
}

// groupOrders keeps first-seen order. Rows without order_ref become their own group.
func groupOrders(rows []sheet.Row) []*orderGroup {
	var groups []*orderGroup
	byRef := map[string]*orderGroup{}
	for _, row := range rows {
		ref := row.Get("order_ref")
		if ref == "" {
			groups = append(groups, &orderGroup{rows: []sheet.Row{row}})
			continue
		}
		g, ok := byRef[ref]
		if !ok {
			g = &orderGroup{ref: ref}
			byRef[ref] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups
}

func (g *orderGroup) label() string {
	first, last := g.rows[0].Line, g.rows[len(g.rows)-1].Line
	span := fmt.Sprintf("row %d", first)
	if len(g.rows) > 1 {
		span = fmt.Sprintf("rows %d-%d", first, last)
	}
	if g.ref == "" {
		return span
	}
	return fmt.Sprintf("order %s (%s)", g.ref, span)
}

// firstValue returns the first non-empty value of col across the group.
func (g *orderGroup) firstValue(col string) string {
	for _, r := range g.rows {
		if v := r.Get(col); v != "" {
			return v
		}
	}
	return ""
}

var dueDateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006", "2006/01/02"}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("due_date %q is not a date (use YYYY-MM-DD)", s)
}

func (uc *importUseCase) importOrders(ctx context.Context, rows []sheet.Row, userID string, res *importer.Result) {
	for _, g := range groupOrders(rows) {
		input, problems := uc.resolveGroup(ctx, g, userID)
		if len(problems) > 0 {
			res.Failed += len(g.rows)
			for _, p := range problems {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", g.label(), p))
			}
			continue
		}

		out, err := uc.orders.CreateOrder(ctx, input)
		if err != nil {
			res.Failed += len(g.rows)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", g.label(), err))
			continue
		}
		res.Succeeded += len(g.rows)
		res.Created++
		for _, w := range out.Warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", g.label(), w))
		}
	}
}

// resolveGroup maps names and SKUs to ids. Every unresolved reference is
// reported so one pass shows all fixes needed for the group.
func (uc *importUseCase) resolveGroup(ctx context.Context, g *orderGroup, userID string) (*orderdto.CreateOrderInput, []string) {
	var problems []string
	input := &orderdto.CreateOrderInput{
		Notes:     g.firstValue("notes"),
		CreatedBy: userID,
	}

	customer := g.firstValue("customer_name")
	if customer == "" {
		problems = append(problems, "customer_name is empty")
	} else if c, err := uc.companies.FindByName(ctx, customer); err != nil {
		problems = append(problems, err.Error())
	} else if c == nil {
		problems = append(problems, fmt.Sprintf("company %q not found", customer))
	} else {
		input.CompanyID = c.ID
	}

	if name := g.firstValue("transport_name"); name != "" {
		t, err := uc.transport.FindByName(ctx, name)
		switch {
		case err != nil:
			problems = append(problems, err.Error())
		case t == nil:
			problems = append(problems, fmt.Sprintf("transport company %q not found", name))
		default:
			input.TransportCompanyID = t.ID
		}
	}

	for _, row := range g.rows {
		sku := row.Get("sku")
		it, err := uc.items.GetItemBySKU(ctx, sku)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if it == nil {
			problems = append(problems, fmt.Sprintf("row %d: item with SKU %q not found", row.Line, sku))
			continue
		}

		qty, err := strconv.Atoi(row.Get("quantity"))
		if err != nil {
			problems = append(problems, fmt.Sprintf("row %d: quantity %q is not a whole number", row.Line, row.Get("quantity")))
			continue
		}

		price := decimal.Zero
		if v := row.Get("price"); v != "" {
			if price, err = decimal.NewFromString(v); err != nil {
				problems = append(problems, fmt.Sprintf("row %d: price %q is not a number", row.Line, v))
				continue
			}
		}

		due, err := parseDueDate(row.Get("due_date"))
		if err != nil {
			problems = append(problems, fmt.Sprintf("row %d: %v", row.Line, err))
			continue
		}

		input.Lines = append(input.Lines, orderdto.OrderLine{ItemID: it.ID, Quantity: qty, Price: price, DueDate: due})
	}
	return input, problems
}
