package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that services work with. Repositories
// obtained from the Store passed to a Transaction callback share that
// transaction.
type Store interface {
	Products() ProductRepository
	Variants() VariantRepository
	Images() ImageRepository
	Categories() CategoryRepository
	Orders() OrderRepository
	Admins() AdminRepository
	Dashboard() DashboardRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

var _ Store = (*GormStore)(nil)

// GormStore implements Store on a *gorm.DB (or a transaction handle).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new instance of GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Products() ProductRepository { return NewGormProductRepository(s.db) }
func (s *GormStore) Variants() VariantRepository { return NewGormVariantRepository(s.db) }
func (s *GormStore) Images() ImageRepository { return NewGormImageRepository(s.db) }
func (s *GormStore) Categories() CategoryRepository { return NewGormCategoryRepository(s.db) }
func (s *GormStore) Orders() OrderRepository { return NewGormOrderRepository(s.db) }
func (s *GormStore) Admins() AdminRepository { return NewGormAdminRepository(s.db) }
func (s *GormStore) Dashboard() DashboardRepository { return NewGormDashboardRepository(s.db) }

// Transaction runs fn inside a database transaction. Returning an error from
// fn rolls back every write made through tx.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
