package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func expectNullify(mock sqlmock.Sqlmock, id string) {
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET created_by = NULL WHERE created_by = $1")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stock_ledger SET created_by = NULL WHERE created_by = $1")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audit_logs SET performed_by = NULL WHERE performed_by = $1")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 5))
}

func TestDeleteNullifiesReferences(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectNullify(mock, "u1")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_profiles WHERE id = $1")).
		WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingUserRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	expectNullify(mock, "ghost")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_profiles WHERE id = $1")).
		WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "ghost")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNullifyFailureRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET created_by = NULL")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}
