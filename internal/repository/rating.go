package repository

import (
	"context"
	"errors"

	"loopup/internal/models"

	"gorm.io/gorm"
)

// RatingRepository defines persistence operations for the three rating
// stores: pending ratings awaiting consent, the latest rating per pair,
// and the append-only history.
type RatingRepository interface {
	// Pending store.
	GetPendingByID(ctx context.Context, id uint) (*models.PendingRating, error)
	FindPendingByPair(ctx context.Context, raterID, ratedID uint) (*models.PendingRating, error)
	CreatePending(ctx context.Context, pending *models.PendingRating) error
	UpdatePending(ctx context.Context, pending *models.PendingRating) error
	// DeletePending removes the pending rating with the given id and reports
	// whether a row was actually deleted. Concurrent accept/reject calls race
	// on this delete; exactly one of them observes true.
	DeletePending(ctx context.Context, id uint) (bool, error)
	ListPendingByRated(ctx context.Context, ratedID uint) ([]models.PendingRating, error)
	ListPendingByRater(ctx context.Context, raterID uint) ([]models.PendingRating, error)
	CountPendingByRater(ctx context.Context, raterID uint) (int64, error)

	// Latest store.
	FindLatestByPair(ctx context.Context, raterID, ratedID uint) (*models.Rating, error)
	CreateLatest(ctx context.Context, rating *models.Rating) error
	UpdateLatest(ctx context.Context, rating *models.Rating) error
	ListLatestByRated(ctx context.Context, ratedID uint) ([]models.Rating, error)
	ListLatestByRater(ctx context.Context, raterID uint) ([]models.Rating, error)
	CountLatestByRater(ctx context.Context, raterID uint) (int64, error)
	ListRatedIDsByRater(ctx context.Context, raterID uint) ([]uint, error)
	CountLatestByRatedAndRaterIn(ctx context.Context, ratedID uint, raterIDs []uint) (int64, error)
	ScoreDistribution(ctx context.Context, raterID uint) ([]models.ScoreBucket, error)
	CountUniqueRaters(ctx context.Context, ratedID uint) (int64, error)

	// History store.
	CreateEvent(ctx context.Context, event *models.RatingEvent) error
	ListEventsByRated(ctx context.Context, ratedID uint, limit, offset int) ([]models.RatingEvent, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository returns a new RatingRepository implementation.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) GetPendingByID(ctx context.Context, id uint) (*models.PendingRating, error) {
	var pending models.PendingRating
	if err := r.db.WithContext(ctx).First(&pending, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Pending rating", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &pending, nil
}

func (r *ratingRepository) FindPendingByPair(ctx context.Context, raterID, ratedID uint) (*models.PendingRating, error) {
	var pending models.PendingRating
	if err := r.db.WithContext(ctx).
		Where("rater_id = ? AND rated_id = ?", raterID, ratedID).
		First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &pending, nil
}

func (r *ratingRepository) CreatePending(ctx context.Context, pending *models.PendingRating) error {
	if err := r.db.WithContext(ctx).Create(pending).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ratingRepository) UpdatePending(ctx context.Context, pending *models.PendingRating) error {
	if err := r.db.WithContext(ctx).Save(pending).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ratingRepository) DeletePending(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.PendingRating{}, id)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ratingRepository) ListPendingByRated(ctx context.Context, ratedID uint) ([]models.PendingRating, error) {
	var pendings []models.PendingRating
	if err := r.db.WithContext(ctx).
		Where("rated_id = ?", ratedID).
		Order("created_at DESC").
		Find(&pendings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pendings, nil
}

func (r *ratingRepository) ListPendingByRater(ctx context.Context, raterID uint) ([]models.PendingRating, error) {
	var pendings []models.PendingRating
	if err := r.db.WithContext(ctx).
		Where("rater_id = ?", raterID).
		Order("created_at DESC").
		Find(&pendings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pendings, nil
}

func (r *ratingRepository) CountPendingByRater(ctx context.Context, raterID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PendingRating{}).
		Where("rater_id = ?", raterID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *ratingRepository) FindLatestByPair(ctx context.Context, raterID, ratedID uint) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.WithContext(ctx).
		Where("rater_id = ? AND rated_id = ?", raterID, ratedID).
		First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &rating, nil
}

func (r *ratingRepository) CreateLatest(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateLatest rewrites the mutable fields of an existing latest rating.
// CreatedAt is deliberately left untouched so the row keeps the timestamp
// of the first rating for the pair.
func (r *ratingRepository) UpdateLatest(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("id = ?", rating.ID).
		Updates(map[string]interface{}{
			"score":       rating.Score,
			"comment":     rating.Comment,
			"relation":    rating.Relation,
			"known_since": rating.KnownSince,
			"updated_at":  rating.UpdatedAt,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ratingRepository) ListLatestByRated(ctx context.Context, ratedID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Where("rated_id = ?", ratedID).
		Order("updated_at DESC").
		Find(&ratings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ratings, nil
}

func (r *ratingRepository) ListLatestByRater(ctx context.Context, raterID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Where("rater_id = ?", raterID).
		Order("updated_at DESC").
		Find(&ratings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ratings, nil
}

func (r *ratingRepository) CountLatestByRater(ctx context.Context, raterID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("rater_id = ?", raterID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *ratingRepository) ListRatedIDsByRater(ctx context.Context, raterID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("rater_id = ?", raterID).
		Pluck("rated_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *ratingRepository) CountLatestByRatedAndRaterIn(ctx context.Context, ratedID uint, raterIDs []uint) (int64, error) {
	if len(raterIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("rated_id = ? AND rater_id IN ?", ratedID, raterIDs).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *ratingRepository) ScoreDistribution(ctx context.Context, raterID uint) ([]models.ScoreBucket, error) {
	var buckets []models.ScoreBucket
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("score, COUNT(*) as count").
		Where("rater_id = ?", raterID).
		Group("score").
		Order("score ASC").
		Scan(&buckets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return buckets, nil
}

func (r *ratingRepository) CountUniqueRaters(ctx context.Context, ratedID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("rated_id = ?", ratedID).
		Distinct("rater_id").
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *ratingRepository) CreateEvent(ctx context.Context, event *models.RatingEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ratingRepository) ListEventsByRated(ctx context.Context, ratedID uint, limit, offset int) ([]models.RatingEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.RatingEvent
	if err := r.db.WithContext(ctx).
		Where("rated_id = ?", ratedID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}
