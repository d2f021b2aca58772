package db

import (
	"twelfthman/internal/models"
)

func (d *DB) AutoMigrate() error {
	if d == nil || d.Gorm == nil {
		return nil
	}
	return d.Gorm.AutoMigrate(
		&models.User{},
		&models.Take{},
		&models.ClientSyncState{},
	)
}
