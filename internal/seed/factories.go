// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"loopup/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashedPassword),
		Name:     gofakeit.Name(),
		Bio:      gofakeit.Sentence(10),
		Age:      gofakeit.Number(18, 65),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// randomRelation picks a relation with a realistic skew: most ratings come
// from strangers, some from acquaintances, fewer from friends.
func (f *Factory) randomRelation() models.RatingRelation {
	switch n := f.rand.Intn(10); {
	case n < 5:
		return models.RelationStranger
	case n < 8:
		return models.RelationAcquaintance
	default:
		return models.RelationFriend
	}
}

// CreateDirectRating persists a latest rating plus its history event for
// the pair, the same shape the workflow produces on the direct path.
func (f *Factory) CreateDirectRating(raterID, ratedID uint, overrides ...func(*models.Rating)) (*models.Rating, error) {
	createdAt := gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now())

	rating := &models.Rating{
		RaterID:    raterID,
		RatedID:    ratedID,
		Score:      float64(gofakeit.Number(1, 5)),
		Comment:    gofakeit.Sentence(8),
		Relation:   f.randomRelation(),
		KnownSince: gofakeit.Number(0, 36),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	for _, override := range overrides {
		override(rating)
	}

	if err := f.db.Create(rating).Error; err != nil {
		return nil, err
	}

	event := &models.RatingEvent{
		RaterID:    rating.RaterID,
		RatedID:    rating.RatedID,
		Score:      rating.Score,
		Comment:    rating.Comment,
		Relation:   rating.Relation,
		KnownSince: rating.KnownSince,
		CreatedAt:  rating.CreatedAt,
		UpdatedAt:  rating.UpdatedAt,
	}
	if err := f.db.Create(event).Error; err != nil {
		return nil, err
	}

	return rating, nil
}

// CreatePendingRating persists a consent-path rating still waiting for the
// rated user to act.
func (f *Factory) CreatePendingRating(raterID, ratedID uint, overrides ...func(*models.PendingRating)) (*models.PendingRating, error) {
	createdAt := gofakeit.DateRange(time.Now().AddDate(0, 0, -14), time.Now())

	relation := f.randomRelation()
	if relation == models.RelationStranger {
		relation = models.RelationAcquaintance
	}

	pending := &models.PendingRating{
		RaterID:    raterID,
		RatedID:    ratedID,
		Score:      float64(gofakeit.Number(1, 5)),
		Comment:    gofakeit.Sentence(8),
		Relation:   relation,
		KnownSince: gofakeit.Number(0, 36),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	for _, override := range overrides {
		override(pending)
	}

	if err := f.db.Create(pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

// CreateFriendship persists an accepted friendship between two users.
func (f *Factory) CreateFriendship(requesterID, recipientID uint, status models.FriendshipStatus) (*models.Friendship, error) {
	friendship := &models.Friendship{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      status,
	}
	if err := f.db.Create(friendship).Error; err != nil {
		return nil, err
	}
	return friendship, nil
}
