// Package service implements business logic for the application.
package service

import (
	"context"
	"log/slog"
	"time"

	"loopup/internal/middleware"
	"loopup/internal/models"
	"loopup/internal/repository"
)

// SubmitRatingInput carries one rating submission through the workflow.
type SubmitRatingInput struct {
	RaterID    uint
	RatedID    uint
	Score      float64
	Comment    string
	Relation   models.RatingRelation
	KnownSince int
}

// RatingService runs the rating workflow: classifying submissions as
// direct or consent-required, promoting accepted pending ratings, and
// keeping the rated user's cached average in sync with the latest store.
type RatingService interface {
	// Submit records a rating. Stranger ratings take effect immediately;
	// friend and acquaintance ratings are parked as pending until the
	// rated user accepts them. Returns whether consent is still required.
	Submit(ctx context.Context, input SubmitRatingInput) (bool, error)
	// Accept promotes the pending rating into history and latest, then
	// recomputes the rated user's cached average.
	Accept(ctx context.Context, pendingID uint) error
	// Reject discards the pending rating. Rejecting an already-resolved
	// rating is a no-op.
	Reject(ctx context.Context, pendingID uint) error
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	userRepo   repository.UserRepository
}

// NewRatingService creates a new rating workflow service.
func NewRatingService(ratingRepo repository.RatingRepository, userRepo repository.UserRepository) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
	}
}

func (s *ratingService) Submit(ctx context.Context, input SubmitRatingInput) (bool, error) {
	if input.RaterID == input.RatedID {
		return false, models.NewValidationError("You cannot rate yourself")
	}
	if input.Score < 1 || input.Score > 5 {
		return false, models.NewValidationError("Score must be between 1 and 5")
	}

	if _, err := s.userRepo.GetByID(ctx, input.RatedID); err != nil {
		return false, err
	}

	if input.Relation.RequiresConsent() {
		if err := s.submitPending(ctx, input); err != nil {
			middleware.RatingWorkflowOps.WithLabelValues("submit_pending", "error").Inc()
			return false, err
		}
		middleware.RatingWorkflowOps.WithLabelValues("submit_pending", "success").Inc()
		return true, nil
	}

	if err := s.submitDirect(ctx, input); err != nil {
		middleware.RatingWorkflowOps.WithLabelValues("submit_direct", "error").Inc()
		return false, err
	}
	middleware.RatingWorkflowOps.WithLabelValues("submit_direct", "success").Inc()
	return false, nil
}

// submitPending upserts the (rater, rated) pending row. Re-submitting a
// consent-path rating before the rated user acts replaces the earlier one.
func (s *ratingService) submitPending(ctx context.Context, input SubmitRatingInput) error {
	existing, err := s.ratingRepo.FindPendingByPair(ctx, input.RaterID, input.RatedID)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		existing.Score = input.Score
		existing.Comment = input.Comment
		existing.Relation = input.Relation
		existing.KnownSince = input.KnownSince
		existing.UpdatedAt = now
		return s.ratingRepo.UpdatePending(ctx, existing)
	}

	return s.ratingRepo.CreatePending(ctx, &models.PendingRating{
		RaterID:    input.RaterID,
		RatedID:    input.RatedID,
		Score:      input.Score,
		Comment:    input.Comment,
		Relation:   input.Relation,
		KnownSince: input.KnownSince,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// submitDirect applies a stranger rating immediately: one history event per
// submission, a latest upsert for the pair, then a synchronous recompute of
// the rated user's cached average.
func (s *ratingService) submitDirect(ctx context.Context, input SubmitRatingInput) error {
	now := time.Now()

	event := &models.RatingEvent{
		RaterID:    input.RaterID,
		RatedID:    input.RatedID,
		Score:      input.Score,
		Comment:    input.Comment,
		Relation:   input.Relation,
		KnownSince: input.KnownSince,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.ratingRepo.CreateEvent(ctx, event); err != nil {
		return err
	}

	if err := s.upsertLatest(ctx, input, now, now); err != nil {
		// History already recorded; the stores disagree until retried.
		middleware.Logger.WarnContext(ctx, "latest rating write failed after history insert",
			slog.Uint64("rater_id", uint64(input.RaterID)),
			slog.Uint64("rated_id", uint64(input.RatedID)),
			slog.String("error", err.Error()),
		)
		return err
	}

	return s.recomputeAverage(ctx, input.RatedID)
}

// upsertLatest updates the pair's latest rating in place, or inserts one if
// the pair has never been rated. An existing row keeps its CreatedAt.
func (s *ratingService) upsertLatest(ctx context.Context, input SubmitRatingInput, createdAt, updatedAt time.Time) error {
	existing, err := s.ratingRepo.FindLatestByPair(ctx, input.RaterID, input.RatedID)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Score = input.Score
		existing.Comment = input.Comment
		existing.Relation = input.Relation
		existing.KnownSince = input.KnownSince
		existing.UpdatedAt = updatedAt
		return s.ratingRepo.UpdateLatest(ctx, existing)
	}

	return s.ratingRepo.CreateLatest(ctx, &models.Rating{
		RaterID:    input.RaterID,
		RatedID:    input.RatedID,
		Score:      input.Score,
		Comment:    input.Comment,
		Relation:   input.Relation,
		KnownSince: input.KnownSince,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	})
}

func (s *ratingService) Accept(ctx context.Context, pendingID uint) error {
	pending, err := s.ratingRepo.GetPendingByID(ctx, pendingID)
	if err != nil {
		middleware.RatingWorkflowOps.WithLabelValues("accept", "not_found").Inc()
		return err
	}

	// Conditional delete before any downstream write. Two concurrent
	// accepts for the same id both read the row; only the one that wins
	// the delete promotes it, the loser sees not-found.
	deleted, err := s.ratingRepo.DeletePending(ctx, pendingID)
	if err != nil {
		middleware.RatingWorkflowOps.WithLabelValues("accept", "error").Inc()
		return err
	}
	if !deleted {
		middleware.RatingWorkflowOps.WithLabelValues("accept", "not_found").Inc()
		return models.NewNotFoundError("Pending rating", pendingID)
	}

	now := time.Now()

	event := &models.RatingEvent{
		RaterID:    pending.RaterID,
		RatedID:    pending.RatedID,
		Score:      pending.Score,
		Comment:    pending.Comment,
		Relation:   pending.Relation,
		KnownSince: pending.KnownSince,
		CreatedAt:  pending.CreatedAt,
		UpdatedAt:  now,
	}
	if err := s.ratingRepo.CreateEvent(ctx, event); err != nil {
		// Pending row is already gone; the submission is lost unless the
		// rater submits again.
		middleware.Logger.ErrorContext(ctx, "history insert failed after pending delete",
			slog.Uint64("pending_id", uint64(pendingID)),
			slog.Uint64("rater_id", uint64(pending.RaterID)),
			slog.Uint64("rated_id", uint64(pending.RatedID)),
			slog.String("error", err.Error()),
		)
		middleware.RatingWorkflowOps.WithLabelValues("accept", "error").Inc()
		return err
	}

	input := SubmitRatingInput{
		RaterID:    pending.RaterID,
		RatedID:    pending.RatedID,
		Score:      pending.Score,
		Comment:    pending.Comment,
		Relation:   pending.Relation,
		KnownSince: pending.KnownSince,
	}
	if err := s.upsertLatest(ctx, input, now, now); err != nil {
		middleware.Logger.WarnContext(ctx, "latest rating write failed after history insert",
			slog.Uint64("rater_id", uint64(pending.RaterID)),
			slog.Uint64("rated_id", uint64(pending.RatedID)),
			slog.String("error", err.Error()),
		)
		middleware.RatingWorkflowOps.WithLabelValues("accept", "error").Inc()
		return err
	}

	if err := s.recomputeAverage(ctx, pending.RatedID); err != nil {
		middleware.RatingWorkflowOps.WithLabelValues("accept", "error").Inc()
		return err
	}

	middleware.RatingWorkflowOps.WithLabelValues("accept", "success").Inc()
	return nil
}

func (s *ratingService) Reject(ctx context.Context, pendingID uint) error {
	deleted, err := s.ratingRepo.DeletePending(ctx, pendingID)
	if err != nil {
		middleware.RatingWorkflowOps.WithLabelValues("reject", "error").Inc()
		return err
	}
	if !deleted {
		// Already accepted, rejected, or never existed. Rejection is
		// idempotent so this is not an error.
		middleware.RatingWorkflowOps.WithLabelValues("reject", "noop").Inc()
		return nil
	}

	middleware.RatingWorkflowOps.WithLabelValues("reject", "success").Inc()
	return nil
}

// recomputeAverage rebuilds the rated user's cached weighted average from
// the latest store. Runs synchronously after every latest mutation so the
// cached value is never more than one operation stale.
func (s *ratingService) recomputeAverage(ctx context.Context, ratedID uint) error {
	ratings, err := s.ratingRepo.ListLatestByRated(ctx, ratedID)
	if err != nil {
		return err
	}

	average := WeightedAverage(ratings)
	if err := s.userRepo.UpdateRating(ctx, ratedID, average); err != nil {
		return err
	}

	middleware.CachedAverageRecomputes.Inc()
	middleware.Logger.DebugContext(ctx, "recomputed cached rating average",
		slog.Uint64("user_id", uint64(ratedID)),
		slog.Float64("average", average),
		slog.Int("rating_count", len(ratings)),
	)
	return nil
}
