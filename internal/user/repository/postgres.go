package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/user/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, u *model.UserProfile) error {
	query := `
        INSERT INTO user_profiles (id, email, full_name, password_hash, role, status, created_at, updated_at)
        VALUES (:id, :email, :full_name, :password_hash, :role, :status, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, u)
	if postgres.IsUniqueViolation(err) {
		return apperror.Conflict("user.email_exists", "email=%s", u.Email)
	}
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := r.DB.GetContext(ctx, &u, "SELECT * FROM user_profiles WHERE id = $1 LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := r.DB.GetContext(ctx, &u, "SELECT * FROM user_profiles WHERE lower(email) = lower($1) LIMIT 1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.UserFilters) ([]model.UserProfile, int, error) {
	var users []model.UserProfile
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Role != "" {
		conditions = append(conditions, "role = :role")
		args["role"] = f.Role
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Search != "" {
		conditions = append(conditions, "(email ILIKE :search OR full_name ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM user_profiles"+whereClause, args)
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

	query := "SELECT * FROM user_profiles" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &users, args)
	return users, count, err
}

func (r *PGRepository) Update(ctx context.Context, u *model.UserProfile) error {
	query := `
        UPDATE user_profiles
        SET full_name = :full_name, role = :role, status = :status, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, u)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	return postgres.RunInTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			"UPDATE orders SET created_by = NULL WHERE created_by = $1",
			"UPDATE stock_ledger SET created_by = NULL WHERE created_by = $1",
			"UPDATE audit_logs SET performed_by = NULL WHERE performed_by = $1",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("clearing user references: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM user_profiles WHERE id = $1", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperror.NotFound("user.not_found", "id=%s", id)
		}
		return nil
	})
}

func (r *PGRepository) ListOrdersByCreator(ctx context.Context, userID string, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.DB.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2", userID, limit)
	return orders, err
}
