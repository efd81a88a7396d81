// Package models contains data structures for the application's domain models.
package models

import "time"

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a friendship request awaiting a response.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	// FriendshipStatusDeclined indicates a declined friendship request.
	FriendshipStatusDeclined FriendshipStatus = "declined"
	// FriendshipStatusBlocked indicates a blocked relationship.
	FriendshipStatusBlocked FriendshipStatus = "blocked"
)

// Friendship represents a friendship relationship between two users.
// Direction is preserved to distinguish sent from received requests.
type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"requester_id"`
	RecipientID uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"recipient_id"`
	Status      FriendshipStatus `gorm:"type:varchar(20);default:'pending';index:idx_friendship_status" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Requester User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}
