package models

import "gorm.io/gorm"

// AutoMigrate creates or updates the relational schema, parents before children.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Post{},
		&Like{},
		&Follow{},
		&Comment{},
		&PasswordReset{},
	)
}
