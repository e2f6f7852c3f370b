package articles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "edition_id", "barcode", "description", "category", "size", "price",
	"brand", "is_lot", "lot_quantity", "list_number", "depositor_name", "label_color"}

func TestUpsert(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	a := &models.Article{
		ID: "a1", EditionID: "ed-1", Barcode: "111", Description: "Jacket",
		Price: decimal.RequireFromString("12.50"), IsLot: true, LotQuantity: 2,
	}
	mock.ExpectExec(`(?s)INSERT INTO articles .* ON CONFLICT \(id\) DO UPDATE SET`).
		WithArgs("a1", "ed-1", "111", "Jacket", "", "", a.Price, "", true, 2, 0, "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO articles`).WillReturnError(errors.New("db down"))

	err := repo.Upsert(context.Background(), &models.Article{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestListAvailable(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows(columns).
		AddRow("a1", "ed-1", "111", "Jacket", "coats", "M", "12.50", "Acme", false, 0, 3, "Ann", "red").
		AddRow("a2", "ed-1", "222", "Boots", "shoes", "42", "8", "", true, 2, 3, "Ann", "red")
	mock.ExpectQuery(`(?s)FROM articles a\s+LEFT JOIN sales s ON s\.article_id = a\.id\s+WHERE a\.edition_id = \$1 AND s\.id IS NULL`).
		WithArgs("ed-1").
		WillReturnRows(rows)

	got, err := repo.ListAvailable(context.Background(), "ed-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jacket", got[0].Description)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got[0].Price))
	assert.True(t, got[1].IsLot)
	assert.Equal(t, 2, got[1].LotQuantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailable_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM articles a`).WillReturnError(errors.New("boom"))

	_, err := repo.ListAvailable(context.Background(), "ed-1")
	require.Error(t, err)
}

func TestGetByBarcode(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE a\.edition_id = \$1 AND a\.barcode = \$2`).
		WithArgs("ed-1", "111").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a1", "ed-1", "111", "Jacket", "", "", "12.50", "", false, 0, 0, "", ""))

	a, err := repo.GetByBarcode(context.Background(), "ed-1", "111")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE a\.edition_id = \$1 AND a\.id = \$2`).
		WithArgs("ed-1", "nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ed-1", "nope")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}
