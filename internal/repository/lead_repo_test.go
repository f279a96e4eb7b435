package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPricesOnce_FirstWrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	base := decimal.NewFromInt(20)
	final := decimal.NewFromInt(30)

	mock.ExpectExec("UPDATE leads").
		WithArgs(id, base, final).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewLeadRepo(mock)
	set, err := repo.SetPricesOnce(context.Background(), id, base, final)
	require.NoError(t, err)
	assert.True(t, set)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPricesOnce_AlreadyPriced(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	base := decimal.NewFromInt(20)
	final := decimal.NewFromInt(30)

	// final_price IS NULL guard fails: no rows affected.
	mock.ExpectExec("UPDATE leads").
		WithArgs(id, base, final).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewLeadRepo(mock)
	set, err := repo.SetPricesOnce(context.Background(), id, base, final)
	require.NoError(t, err)
	assert.False(t, set)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM leads").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	repo := NewLeadRepo(mock)
	err = repo.LockForUpdate(context.Background(), tx, id)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
