package service

import (
	"context"
	"sort"

	"loopup/internal/models"
	"loopup/internal/repository"
)

// RatingQueryService exposes the read-side aggregations over the rating
// stores. None of these operations mutate rating state.
type RatingQueryService interface {
	RatingsForUser(ctx context.Context, userID uint) ([]models.Rating, error)
	PendingForUser(ctx context.Context, userID uint) ([]models.PendingRating, error)
	RecentlyRated(ctx context.Context, raterID uint, limit int) ([]models.RecentlyRated, error)
	CountRated(ctx context.Context, raterID uint) (int64, error)
	MutualRatingsCount(ctx context.Context, userID uint) (int64, error)
	ScoreDistribution(ctx context.Context, userID uint) ([]models.ScoreBucket, error)
	UniqueRatersCount(ctx context.Context, userID uint) (int64, error)
	MostRecentRating(ctx context.Context, raterID, ratedID uint) (*models.Rating, error)
	HistoryForUser(ctx context.Context, userID uint, limit, offset int) ([]models.RatingEvent, error)
}

type ratingQueryService struct {
	ratingRepo repository.RatingRepository
	userRepo   repository.UserRepository
}

// NewRatingQueryService creates a new rating read-side service.
func NewRatingQueryService(ratingRepo repository.RatingRepository, userRepo repository.UserRepository) RatingQueryService {
	return &ratingQueryService{
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
	}
}

func (s *ratingQueryService) RatingsForUser(ctx context.Context, userID uint) ([]models.Rating, error) {
	return s.ratingRepo.ListLatestByRated(ctx, userID)
}

func (s *ratingQueryService) PendingForUser(ctx context.Context, userID uint) ([]models.PendingRating, error) {
	return s.ratingRepo.ListPendingByRated(ctx, userID)
}

// RecentlyRated merges the rater's latest and still-pending ratings into a
// single feed: most recent first, one entry per rated user, enriched with
// that user's display name and avatar.
func (s *ratingQueryService) RecentlyRated(ctx context.Context, raterID uint, limit int) ([]models.RecentlyRated, error) {
	if limit <= 0 {
		limit = 10
	}

	latest, err := s.ratingRepo.ListLatestByRater(ctx, raterID)
	if err != nil {
		return nil, err
	}
	pending, err := s.ratingRepo.ListPendingByRater(ctx, raterID)
	if err != nil {
		return nil, err
	}

	merged := make([]*models.Rating, 0, len(latest)+len(pending))
	for i := range latest {
		merged = append(merged, &latest[i])
	}
	for i := range pending {
		merged = append(merged, pending[i].AsRating())
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	// Keep only the most recent entry per rated user.
	seen := make(map[uint]bool, len(merged))
	deduped := merged[:0]
	for _, r := range merged {
		if seen[r.RatedID] {
			continue
		}
		seen[r.RatedID] = true
		deduped = append(deduped, r)
		if len(deduped) == limit {
			break
		}
	}

	ids := make([]uint, 0, len(deduped))
	for _, r := range deduped {
		ids = append(ids, r.RatedID)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[uint]*models.User, len(users))
	for i := range users {
		usersByID[users[i].ID] = &users[i]
	}

	feed := make([]models.RecentlyRated, 0, len(deduped))
	for _, r := range deduped {
		u, ok := usersByID[r.RatedID]
		if !ok {
			// The rated account is gone; dropping the entry beats a blank row.
			continue
		}
		feed = append(feed, models.RecentlyRated{
			RatingID:    r.ID,
			RatedUserID: r.RatedID,
			Name:        u.Name,
			Avatar:      u.Avatar,
			CreatedAt:   r.CreatedAt,
		})
	}
	return feed, nil
}

// CountRated is how many ratings the user has given, counting a still
// pending submission the same as an applied one.
func (s *ratingQueryService) CountRated(ctx context.Context, raterID uint) (int64, error) {
	latest, err := s.ratingRepo.CountLatestByRater(ctx, raterID)
	if err != nil {
		return 0, err
	}
	pending, err := s.ratingRepo.CountPendingByRater(ctx, raterID)
	if err != nil {
		return 0, err
	}
	return latest + pending, nil
}

// MutualRatingsCount counts reciprocal rating relationships: ratings the
// user received from people the user has also rated.
func (s *ratingQueryService) MutualRatingsCount(ctx context.Context, userID uint) (int64, error) {
	ratedIDs, err := s.ratingRepo.ListRatedIDsByRater(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ratedIDs) == 0 {
		return 0, nil
	}
	return s.ratingRepo.CountLatestByRatedAndRaterIn(ctx, userID, ratedIDs)
}

// ScoreDistribution buckets the ratings the user has given by score value.
func (s *ratingQueryService) ScoreDistribution(ctx context.Context, userID uint) ([]models.ScoreBucket, error) {
	return s.ratingRepo.ScoreDistribution(ctx, userID)
}

func (s *ratingQueryService) UniqueRatersCount(ctx context.Context, userID uint) (int64, error) {
	return s.ratingRepo.CountUniqueRaters(ctx, userID)
}

// MostRecentRating returns the pair's most recent rating, whether it has
// been applied or is still pending, comparing by each record's effective
// timestamp. Returns nil when the rater has never rated the user.
func (s *ratingQueryService) MostRecentRating(ctx context.Context, raterID, ratedID uint) (*models.Rating, error) {
	pending, err := s.ratingRepo.FindPendingByPair(ctx, raterID, ratedID)
	if err != nil {
		return nil, err
	}
	latest, err := s.ratingRepo.FindLatestByPair(ctx, raterID, ratedID)
	if err != nil {
		return nil, err
	}

	switch {
	case pending == nil && latest == nil:
		return nil, nil
	case pending == nil:
		return latest, nil
	case latest == nil:
		return pending.AsRating(), nil
	case pending.EffectiveAt().After(latest.EffectiveAt()):
		return pending.AsRating(), nil
	default:
		return latest, nil
	}
}

func (s *ratingQueryService) HistoryForUser(ctx context.Context, userID uint, limit, offset int) ([]models.RatingEvent, error) {
	return s.ratingRepo.ListEventsByRated(ctx, userID, limit, offset)
}
