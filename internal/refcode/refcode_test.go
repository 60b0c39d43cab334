package refcode

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "ORD-2026-000042", Format("ORD", 2026, 42))
	assert.Equal(t, "INV-2025-1234567", Format("INV", 2025, 1234567))
}

func TestGenerate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	g := NewGenerator(sqlx.NewDb(db, "pgx"))
	g.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	mock.ExpectQuery("INSERT INTO reference_ids").
		WithArgs("PO", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(7))

	code, err := g.Generate(context.Background(), " po ")
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-000007", code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateRejectsBadPrefix(t *testing.T) {
	g := &Generator{now: time.Now}
	_, err := g.Generate(context.Background(), "order-1")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
