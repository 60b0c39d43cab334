// Package refcode issues human-readable document numbers such as
// ORD-2026-000042. Sequences restart every year per prefix.
package refcode

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const PrefixOrder = "ORD"

var prefixPattern = regexp.MustCompile(`^[A-Z]{2,6}$`)

func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// Next bumps the (prefix, year) counter and returns the formatted code. q may
// be a transaction so the number is only consumed when it commits.
func Next(ctx context.Context, q sqlx.QueryerContext, prefix string, now time.Time) (string, error) {
	year := now.Year()
	var seq int
	err := sqlx.GetContext(ctx, q, &seq, `
        INSERT INTO reference_ids (prefix, year, last_seq)
        VALUES ($1, $2, 1)
        ON CONFLICT (prefix, year)
        DO UPDATE SET last_seq = reference_ids.last_seq + 1
        RETURNING last_seq
    `, prefix, year)
	if err != nil {
		return "", fmt.Errorf("generate reference code: %w", err)
	}
	return Format(prefix, year, seq), nil
}

type Generator struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewGenerator(db *sqlx.DB) *Generator {
	return &Generator{DB: db, now: time.Now}
}

func (g *Generator) Generate(ctx context.Context, prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if !prefixPattern.MatchString(prefix) {
		return "", apperror.Validation("refcode.invalid_prefix", "prefix=%q", prefix)
	}
	return Next(ctx, g.DB, prefix, g.now())
}
