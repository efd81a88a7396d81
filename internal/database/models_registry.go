package database

import "loopup/internal/models"

// Models returns the authoritative set of schema-managed GORM models, in
// dependency order. AutoMigrate and the SQL migrations must stay in sync
// with this list.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Friendship{},
		&models.Rating{},
		&models.PendingRating{},
		&models.RatingEvent{},
	}
}
