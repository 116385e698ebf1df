package models

import "gorm.io/gorm"

// Migrate creates or updates every table owned by the API.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Admin{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&ProductImage{},
		&Order{},
		&OrderItem{},
	)
}
