package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

// PGRepository serves either companies or transport_companies; both tables
// share a shape.
type PGRepository struct {
	DB   *sqlx.DB
	kind model.CompanyKind
}

func NewPGRepository(db *sqlx.DB, kind model.CompanyKind) *PGRepository {
	return &PGRepository{DB: db, kind: kind}
}

func (r *PGRepository) table() string { return r.kind.Table() }

func (r *PGRepository) Create(ctx context.Context, c *model.Company) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (id, name, contact_person, phone, email, address, created_at, updated_at)
        VALUES (:id, :name, :contact_person, :phone, :email, :address, :created_at, :updated_at)
    `, r.table())
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Company, error) {
	return r.findOne(ctx, fmt.Sprintf(`SELECT * FROM %s WHERE id = $1 LIMIT 1`, r.table()), id)
}

func (r *PGRepository) FindByName(ctx context.Context, name string) (*model.Company, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE lower(name) = lower($1) ORDER BY created_at LIMIT 1`, r.table())
	return r.findOne(ctx, query, strings.TrimSpace(name))
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Company, error) {
	var c model.Company
	if err := r.DB.GetContext(ctx, &c, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CompanyFilters) ([]model.Company, int, error) {
	var companies []model.Company
	var count int

	whereClause := ""
	args := map[string]interface{}{}
	if f.SearchQuery != "" {
		whereClause = " WHERE (name ILIKE :search OR contact_person ILIKE :search OR email ILIKE :search)"
		args["search"] = "%" + f.SearchQuery + "%"
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM "+r.table()+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := "SELECT * FROM " + r.table() + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &companies, args); err != nil {
		return nil, 0, err
	}
	return companies, count, nil
}

func (r *PGRepository) Update(ctx context.Context, c *model.Company) error {
	query := fmt.Sprintf(`
        UPDATE %s
        SET name = :name,
            contact_person = :contact_person,
            phone = :phone,
            email = :email,
            address = :address,
            updated_at = :updated_at
        WHERE id = :id
    `, r.table())
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table()), id)
	if postgres.IsForeignKeyViolation(err) {
		return apperror.Referenced(referencedMessage(r.kind), err)
	}
	return err
}

func referencedMessage(kind model.CompanyKind) string {
	if kind == model.CompanyKindTransport {
		return "transport.referenced"
	}
	return "company.referenced"
}
