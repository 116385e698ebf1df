package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestProductDeductStock_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET .*"quantity"=quantity - \$\d.* WHERE \(?id = \$\d+ AND quantity >= \$\d+\)?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.DeductStock(context.Background(), uuid.New(), 3)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDeductStock_Insufficient(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.DeductStock(context.Background(), uuid.New(), 30)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestProductUpdate_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), uuid.New(), map[string]interface{}{"is_active": false})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindAvailableByIDs(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	a, b := uuid.New(), uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "price", "quantity", "status", "is_active", "created_at", "updated_at"}).
		AddRow(a, "Ceramic Mug", "12.00", 10, models.ProductStatusAvailable, true, now, now)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE \(?id IN \(\$1,\$2\) AND is_active = \$3 AND status = \$4\)?`).
		WithArgs(a, b, true, string(models.ProductStatusAvailable)).
		WillReturnRows(rows)

	products, err := repo.FindAvailableByIDs(context.Background(), []uuid.UUID{a, b})
	assert.NoError(t, err)
	if assert.Len(t, products, 1) {
		assert.Equal(t, a, products[0].ID)
		assert.Equal(t, "12.00", products[0].Price.StringFixed(2))
		assert.Equal(t, 10, products[0].Quantity)
	}
}

func TestProductLockByIDs_UsesForUpdate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id IN \(\$1\) ORDER BY id FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(id, 4))

	products, err := repo.LockByIDs(context.Background(), []uuid.UUID{id})
	assert.NoError(t, err)
	if assert.Len(t, products, 1) {
		assert.Equal(t, 4, products[0].Quantity)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSupportedProductSort(t *testing.T) {
	assert.True(t, repository.IsSupportedProductSort("price_asc"))
	assert.True(t, repository.IsSupportedProductSort("created_at_desc"))
	assert.False(t, repository.IsSupportedProductSort("price"))
	assert.False(t, repository.IsSupportedProductSort(""))
}
