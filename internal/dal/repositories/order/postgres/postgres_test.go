package postgresrepo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderID = uuid.MustParse("4c1b7a5e-8a51-4f5e-9d0c-3b2a1f0e9d8c")

func orderRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(orderColumns).AddRow(
		orderID.String(), "ORD-12345678-ABCD",
		"Ada", "Lovelace", "ada@example.com", "",
		"1 Main St", "Toronto", "ON", "M5V 2T6", "CA", "",
		"card", "completed", "pi_123", int64(21337), "USD", "", now,
		int64(18700), int64(2437), int64(1500), int64(21337),
		"confirmed", "", "", now, now,
	)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, order_number") + ".*" + regexp.QuoteMeta("WHERE id = $1 FOR UPDATE")).
		WillReturnRows(orderRow(now))

	o, err := NewPostgresOrderRepository(db).GetByID(context.Background(), orderID, true)
	require.NoError(t, err)
	assert.Equal(t, "ORD-12345678-ABCD", o.Number)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, payment.MethodCard, o.Payment.Method)
	assert.Equal(t, "pi_123", o.Payment.Proof)
	require.NotNil(t, o.Payment.ConfirmedAt)
	assert.True(t, o.Totals.Total.Equal(decimal.RequireFromString("213.37")))
	assert.True(t, o.Totals.Tax.Equal(decimal.RequireFromString("24.37")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByNumberNotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE order_number = $1")).
		WithArgs("ORD-00000000-0000").
		WillReturnError(sql.ErrNoRows)

	_, err = NewPostgresOrderRepository(db).GetByNumber(context.Background(), "ORD-00000000-0000", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMapsUniqueViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"order number", numberConstraint, iorderrepo.ErrNumberTaken},
		{"payment proof", proofConstraint, apperr.ErrConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err = NewPostgresOrderRepository(db).Insert(context.Background(), order.Order{
				ID:      orderID,
				Number:  "ORD-12345678-ABCD",
				Status:  order.StatusPending,
				Payment: payment.Payment{Method: payment.MethodCard, Status: payment.StatusPending},
			})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteMissingOrder(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresOrderRepository(db).Delete(context.Background(), orderID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAppliesFilter(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE status IN ($1,$2) AND lower(customer_email) = $3")).
		WithArgs("pending", "confirmed", "ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewPostgresOrderRepository(db).Count(context.Background(), &order.QueryOrdersModel{
		Statuses: []order.Status{order.StatusPending, order.StatusConfirmed},
		Email:    "Ada@Example.com",
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM orders GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("shipped", 5))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(total_cents)")).
		WillReturnRows(sqlmock.NewRows([]string{"paid", "revenue", "pending"}).AddRow(5, int64(106685), 2))

	stats, err := NewPostgresOrderRepository(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalOrders)
	assert.Equal(t, 5, stats.ByStatus[order.StatusShipped])
	assert.Equal(t, 5, stats.PaidOrders)
	assert.Equal(t, 2, stats.PendingPayments)
	assert.Equal(t, "1066.85", stats.Revenue.StringFixed(2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(21337), ToCents(decimal.RequireFromString("213.37")))
	assert.Equal(t, int64(2437), ToCents(decimal.RequireFromString("24.3715")))
	assert.True(t, FromCents(21337).Equal(decimal.RequireFromString("213.37")))
}
