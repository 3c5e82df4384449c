package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/common"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

// newMockPostgresStores creates Stores backed by pgxmock for unit testing.
func newMockPostgresStores(t *testing.T) (*Stores, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresStores(mock, zaptest.NewLogger(t)), mock
}

var sysco = pricehistory.Key{Product: "Roma Tomatoes", Supplier: "Sysco", UnitType: "case"}

func TestPostgresStores_Migrate(t *testing.T) {
	s, mock := newMockPostgresStores(t)

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS price_history\s.+last_delta_percent\s+DOUBLE PRECISION`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS processed_documents`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPriceStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStores(t)

	mock.ExpectQuery(`SELECT .+ FROM "price_history" WHERE`).
		WithArgs("Roma Tomatoes", "Sysco", "case").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := s.Prices.Get(context.Background(), sysco)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPriceStore_Get(t *testing.T) {
	s, mock := newMockPostgresStores(t)

	rows := mock.NewRows(priceColumns).
		AddRow("Roma Tomatoes", "Sysco", "case", "$12.00", "l2", "$10.00", "l1", "2024-02-01", 2, 20.0, "increase")
	mock.ExpectQuery(`SELECT .+ FROM "price_history" WHERE`).
		WithArgs("Roma Tomatoes", "Sysco", "case").
		WillReturnRows(rows)

	st, ok, err := s.Prices.Get(context.Background(), sysco)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "$12.00", st.CurrentPrice)
	require.NotNil(t, st.PreviousPrice)
	assert.Equal(t, "$10.00", *st.PreviousPrice)
	assert.Equal(t, 2, st.ObservationCount)
	assert.Equal(t, pricehistory.Increase, st.LastClassification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPriceStore_Get_Error(t *testing.T) {
	s, mock := newMockPostgresStores(t)

	mock.ExpectQuery(`SELECT .+ FROM "price_history"`).
		WithArgs("Roma Tomatoes", "Sysco", "case").
		WillReturnError(errors.New("connection reset"))

	_, _, err := s.Prices.Get(context.Background(), sysco)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPriceStore_Put_Upsert(t *testing.T) {
	s, mock := newMockPostgresStores(t)
	prev := "$10.00"

	mock.ExpectExec(`INSERT INTO "price_history" .+ ON CONFLICT`).
		WithArgs("Roma Tomatoes", "Sysco", "case", "$12.00", "l2",
			sql.NullString{String: prev, Valid: true}, sql.NullString{},
			"2024-02-01", 2, 20.0, "increase").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Prices.Put(context.Background(), pricehistory.State{
		Key:                sysco,
		CurrentPrice:       "$12.00",
		CurrentLink:        "l2",
		PreviousPrice:      &prev,
		LastUpdated:        "2024-02-01",
		ObservationCount:   2,
		LastDeltaPercent:   20.0,
		LastClassification: pricehistory.Increase,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPriceStore_List(t *testing.T) {
	s, mock := newMockPostgresStores(t)

	rows := mock.NewRows(priceColumns).
		AddRow("Eggs", "Sysco", "case", "$30.00", "", nil, nil, "2024-01-01", 1, 0.0, "new_product").
		AddRow("Flour", "Sysco", "bag", "$18.00", "", nil, nil, "2024-01-01", 1, 0.0, "new_product")
	mock.ExpectQuery(`SELECT .+ FROM "price_history" ORDER BY`).WillReturnRows(rows)

	states, err := s.Prices.List(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "Eggs", states[0].Product)
	assert.Nil(t, states[0].PreviousPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore(t *testing.T) {
	s, mock := newMockPostgresStores(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "processed_documents" WHERE "id" = \$1`).
		WithArgs("abc").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "processed_documents" .+ ON CONFLICT`).
		WithArgs("abc", "/inbox/i.png", "invoice", "PROCESSED", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	seen, err := s.Documents.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, seen)

	err = s.Documents.MarkProcessed(ctx, ProcessedDocument{
		ID:          "abc",
		Path:        "/inbox/i.png",
		Kind:        constants.KindInvoice,
		Status:      constants.DocumentStatusProcessed,
		ProcessedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
