// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"strings"
	"time"
)

// RatingRelation is the declared relationship between rater and rated user.
// It is a closed set resolved at the API boundary; free-text relation strings
// never reach the persistence layer.
type RatingRelation string

const (
	// RelationStranger is the default relationship. Stranger ratings take
	// effect immediately without the rated user's consent.
	RelationStranger RatingRelation = "stranger"
	// RelationAcquaintance requires the rated user to accept the rating.
	RelationAcquaintance RatingRelation = "acquaintance"
	// RelationFriend requires the rated user to accept the rating.
	RelationFriend RatingRelation = "friend"
)

// ParseRatingRelation resolves a client-supplied relation string into the
// closed relation set. The empty string is treated as "stranger".
func ParseRatingRelation(s string) (RatingRelation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RelationStranger):
		return RelationStranger, nil
	case string(RelationAcquaintance):
		return RelationAcquaintance, nil
	case string(RelationFriend):
		return RelationFriend, nil
	default:
		return "", fmt.Errorf("unknown relation %q", s)
	}
}

// RequiresConsent reports whether a rating with this relation must be
// accepted by the rated user before it takes effect.
func (r RatingRelation) RequiresConsent() bool {
	return r != RelationStranger
}

// Rating is the current authoritative rating for an ordered
// (rater, rated) pair. At most one row exists per pair; re-rating the same
// user updates the row in place. These rows feed the cached user average.
type Rating struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RaterID    uint           `gorm:"not null;uniqueIndex:idx_latest_rating_pair" json:"rater_id"`
	RatedID    uint           `gorm:"not null;uniqueIndex:idx_latest_rating_pair;index:idx_latest_rated" json:"rated_id"`
	Score      float64        `gorm:"not null" json:"score"`
	Comment    string         `gorm:"type:text" json:"comment"`
	Relation   RatingRelation `gorm:"type:varchar(20);not null;default:'stranger'" json:"relation"`
	KnownSince int            `gorm:"default:0" json:"known_since"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Rating) TableName() string {
	return "latest_ratings"
}

// EffectiveAt is the later of the rating's created and updated timestamps.
func (r *Rating) EffectiveAt() time.Time {
	if r.UpdatedAt.After(r.CreatedAt) {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

// PendingRating is a consent-path rating waiting for the rated user to
// accept or reject it. At most one row exists per ordered pair; re-submission
// updates the row in place. Accepted rows are promoted to latest + history
// and removed; rejected rows are simply removed.
type PendingRating struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RaterID    uint           `gorm:"not null;uniqueIndex:idx_pending_rating_pair" json:"rater_id"`
	RatedID    uint           `gorm:"not null;uniqueIndex:idx_pending_rating_pair;index:idx_pending_rated" json:"rated_id"`
	Score      float64        `gorm:"not null" json:"score"`
	Comment    string         `gorm:"type:text" json:"comment"`
	Relation   RatingRelation `gorm:"type:varchar(20);not null" json:"relation"`
	KnownSince int            `gorm:"default:0" json:"known_since"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PendingRating) TableName() string {
	return "pending_ratings"
}

// EffectiveAt is the later of the pending rating's created and updated timestamps.
func (p *PendingRating) EffectiveAt() time.Time {
	if p.UpdatedAt.After(p.CreatedAt) {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// AsRating converts the pending row into the shared rating shape, keeping
// its own timestamps. Used by read paths that merge pending and latest rows.
func (p *PendingRating) AsRating() *Rating {
	return &Rating{
		ID:         p.ID,
		RaterID:    p.RaterID,
		RatedID:    p.RatedID,
		Score:      p.Score,
		Comment:    p.Comment,
		Relation:   p.Relation,
		KnownSince: p.KnownSince,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// RatingEvent is one row of the append-only rating history. Every direct
// submission and every accepted pending rating appends exactly one event.
// Events are never updated or deleted.
type RatingEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RaterID    uint           `gorm:"not null;index:idx_history_rater" json:"rater_id"`
	RatedID    uint           `gorm:"not null;index:idx_history_rated" json:"rated_id"`
	Score      float64        `gorm:"not null" json:"score"`
	Comment    string         `gorm:"type:text" json:"comment"`
	Relation   RatingRelation `gorm:"type:varchar(20);not null" json:"relation"`
	KnownSince int            `gorm:"default:0" json:"known_since"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (RatingEvent) TableName() string {
	return "rating_history"
}

// ScoreBucket is one bucket of a score distribution: how many latest
// ratings carry a given score value.
type ScoreBucket struct {
	Score float64 `json:"score"`
	Count int64   `json:"count"`
}

// RecentlyRated is one entry of the "who did I rate recently" feed:
// the most recent rating (latest or still pending) per rated user, joined
// with that user's public profile.
type RecentlyRated struct {
	RatingID    uint      `json:"rating_id"`
	RatedUserID uint      `json:"rated_user_id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	CreatedAt   time.Time `json:"created_at"`
}
