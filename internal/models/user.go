// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered LoopUp user.
//
// Rating is a cached weighted average over the user's latest received
// ratings, maintained synchronously by the rating service. It is derived
// state, never written directly by handlers.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `json:"name"`
	Bio       string         `json:"bio"`
	Age       int            `json:"age"`
	Avatar    string         `json:"avatar"`
	Rating    float64        `gorm:"default:0" json:"rating"`
	Latitude  *float64       `json:"-"`
	Longitude *float64       `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// HasLocation reports whether the user has shared a location.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}
