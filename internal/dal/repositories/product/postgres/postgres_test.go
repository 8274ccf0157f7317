package postgresrepo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(productColumns).
		AddRow("bpc-157", "BPC-157", "Body Protection Compound", "growth", int64(8999),
			"5mg", "99.9%", "5mg", []byte(`["Tissue Repair","Gut Health"]`), 100, true, "Best Seller", "", now, now).
		AddRow("tb-500", "TB-500", "Thymosin Beta-4", "growth", int64(9499),
			"5mg", "99.5%", "5mg", []byte(`[]`), 0, false, "", "", now, now)
}

func TestQueryAppliesFilter(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	available := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE category = $1 AND is_available = $2 ORDER BY name")).
		WithArgs("growth", true).
		WillReturnRows(productRows(time.Now().UTC()))

	products, err := NewPostgresProductRepository(db).Query(context.Background(), &product.QueryProductsModel{
		Category:  product.CategoryGrowth,
		Available: &available,
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("89.99")))
	assert.Equal(t, []string{"Tissue Repair", "Gut Health"}, products[0].Benefits)
	assert.Equal(t, "99.9%", products[0].Specs.Purity)
	assert.Equal(t, []string{}, products[1].Benefits)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err = NewPostgresProductRepository(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDs(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id IN ($1,$2,$3)")).
		WithArgs("bpc-157", "tb-500", "nope").
		WillReturnRows(productRows(time.Now().UTC()))

	found, err := NewPostgresProductRepository(db).GetByIDs(context.Background(), []string{"bpc-157", "tb-500", "nope"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.False(t, found["tb-500"].IsAvailable)
	_, ok := found["nope"]
	assert.False(t, ok)

	empty, err := NewPostgresProductRepository(db).GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStock(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresProductRepository(db)
	p := product.Product{ID: "bpc-157", UpdatedAt: time.Now().UTC()}
	p.SetStock(0)
	require.NoError(t, repo.UpdateStock(context.Background(), p))

	p.ID = "nope"
	assert.ErrorIs(t, repo.UpdateStock(context.Background(), p), apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToModelRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	dal := ProductDal{ID: "x", Category: "snacks"}
	_, err := dal.ToModel()
	assert.ErrorIs(t, err, product.ErrInvalidCategory)
}
