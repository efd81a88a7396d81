package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"loopup/internal/models"
)

type ratingRepoStub struct {
	getPendingByIDFn               func(context.Context, uint) (*models.PendingRating, error)
	findPendingByPairFn            func(context.Context, uint, uint) (*models.PendingRating, error)
	createPendingFn                func(context.Context, *models.PendingRating) error
	updatePendingFn                func(context.Context, *models.PendingRating) error
	deletePendingFn                func(context.Context, uint) (bool, error)
	listPendingByRatedFn           func(context.Context, uint) ([]models.PendingRating, error)
	listPendingByRaterFn           func(context.Context, uint) ([]models.PendingRating, error)
	countPendingByRaterFn          func(context.Context, uint) (int64, error)
	findLatestByPairFn             func(context.Context, uint, uint) (*models.Rating, error)
	createLatestFn                 func(context.Context, *models.Rating) error
	updateLatestFn                 func(context.Context, *models.Rating) error
	listLatestByRatedFn            func(context.Context, uint) ([]models.Rating, error)
	listLatestByRaterFn            func(context.Context, uint) ([]models.Rating, error)
	countLatestByRaterFn           func(context.Context, uint) (int64, error)
	listRatedIDsByRaterFn          func(context.Context, uint) ([]uint, error)
	countLatestByRatedAndRaterInFn func(context.Context, uint, []uint) (int64, error)
	scoreDistributionFn            func(context.Context, uint) ([]models.ScoreBucket, error)
	countUniqueRatersFn            func(context.Context, uint) (int64, error)
	createEventFn                  func(context.Context, *models.RatingEvent) error
	listEventsByRatedFn            func(context.Context, uint, int, int) ([]models.RatingEvent, error)
}

func (s *ratingRepoStub) GetPendingByID(ctx context.Context, id uint) (*models.PendingRating, error) {
	return s.getPendingByIDFn(ctx, id)
}
func (s *ratingRepoStub) FindPendingByPair(ctx context.Context, raterID, ratedID uint) (*models.PendingRating, error) {
	return s.findPendingByPairFn(ctx, raterID, ratedID)
}
func (s *ratingRepoStub) CreatePending(ctx context.Context, pending *models.PendingRating) error {
	return s.createPendingFn(ctx, pending)
}
func (s *ratingRepoStub) UpdatePending(ctx context.Context, pending *models.PendingRating) error {
	return s.updatePendingFn(ctx, pending)
}
func (s *ratingRepoStub) DeletePending(ctx context.Context, id uint) (bool, error) {
	return s.deletePendingFn(ctx, id)
}
func (s *ratingRepoStub) ListPendingByRated(ctx context.Context, ratedID uint) ([]models.PendingRating, error) {
	return s.listPendingByRatedFn(ctx, ratedID)
}
func (s *ratingRepoStub) ListPendingByRater(ctx context.Context, raterID uint) ([]models.PendingRating, error) {
	return s.listPendingByRaterFn(ctx, raterID)
}
func (s *ratingRepoStub) CountPendingByRater(ctx context.Context, raterID uint) (int64, error) {
	return s.countPendingByRaterFn(ctx, raterID)
}
func (s *ratingRepoStub) FindLatestByPair(ctx context.Context, raterID, ratedID uint) (*models.Rating, error) {
	return s.findLatestByPairFn(ctx, raterID, ratedID)
}
func (s *ratingRepoStub) CreateLatest(ctx context.Context, rating *models.Rating) error {
	return s.createLatestFn(ctx, rating)
}
func (s *ratingRepoStub) UpdateLatest(ctx context.Context, rating *models.Rating) error {
	return s.updateLatestFn(ctx, rating)
}
func (s *ratingRepoStub) ListLatestByRated(ctx context.Context, ratedID uint) ([]models.Rating, error) {
	return s.listLatestByRatedFn(ctx, ratedID)
}
func (s *ratingRepoStub) ListLatestByRater(ctx context.Context, raterID uint) ([]models.Rating, error) {
	return s.listLatestByRaterFn(ctx, raterID)
}
func (s *ratingRepoStub) CountLatestByRater(ctx context.Context, raterID uint) (int64, error) {
	return s.countLatestByRaterFn(ctx, raterID)
}
func (s *ratingRepoStub) ListRatedIDsByRater(ctx context.Context, raterID uint) ([]uint, error) {
	return s.listRatedIDsByRaterFn(ctx, raterID)
}
func (s *ratingRepoStub) CountLatestByRatedAndRaterIn(ctx context.Context, ratedID uint, raterIDs []uint) (int64, error) {
	return s.countLatestByRatedAndRaterInFn(ctx, ratedID, raterIDs)
}
func (s *ratingRepoStub) ScoreDistribution(ctx context.Context, raterID uint) ([]models.ScoreBucket, error) {
	return s.scoreDistributionFn(ctx, raterID)
}
func (s *ratingRepoStub) CountUniqueRaters(ctx context.Context, ratedID uint) (int64, error) {
	return s.countUniqueRatersFn(ctx, ratedID)
}
func (s *ratingRepoStub) CreateEvent(ctx context.Context, event *models.RatingEvent) error {
	return s.createEventFn(ctx, event)
}
func (s *ratingRepoStub) ListEventsByRated(ctx context.Context, ratedID uint, limit, offset int) ([]models.RatingEvent, error) {
	return s.listEventsByRatedFn(ctx, ratedID, limit, offset)
}

func noopRatingRepo() *ratingRepoStub {
	return &ratingRepoStub{
		getPendingByIDFn: func(context.Context, uint) (*models.PendingRating, error) {
			return &models.PendingRating{}, nil
		},
		findPendingByPairFn: func(context.Context, uint, uint) (*models.PendingRating, error) { return nil, nil },
		createPendingFn:     func(context.Context, *models.PendingRating) error { return nil },
		updatePendingFn:     func(context.Context, *models.PendingRating) error { return nil },
		deletePendingFn:     func(context.Context, uint) (bool, error) { return true, nil },
		listPendingByRatedFn: func(context.Context, uint) ([]models.PendingRating, error) {
			return nil, nil
		},
		listPendingByRaterFn: func(context.Context, uint) ([]models.PendingRating, error) {
			return nil, nil
		},
		countPendingByRaterFn: func(context.Context, uint) (int64, error) { return 0, nil },
		findLatestByPairFn:    func(context.Context, uint, uint) (*models.Rating, error) { return nil, nil },
		createLatestFn:        func(context.Context, *models.Rating) error { return nil },
		updateLatestFn:        func(context.Context, *models.Rating) error { return nil },
		listLatestByRatedFn:   func(context.Context, uint) ([]models.Rating, error) { return nil, nil },
		listLatestByRaterFn:   func(context.Context, uint) ([]models.Rating, error) { return nil, nil },
		countLatestByRaterFn:  func(context.Context, uint) (int64, error) { return 0, nil },
		listRatedIDsByRaterFn: func(context.Context, uint) ([]uint, error) { return nil, nil },
		countLatestByRatedAndRaterInFn: func(context.Context, uint, []uint) (int64, error) {
			return 0, nil
		},
		scoreDistributionFn: func(context.Context, uint) ([]models.ScoreBucket, error) { return nil, nil },
		countUniqueRatersFn: func(context.Context, uint) (int64, error) { return 0, nil },
		createEventFn:       func(context.Context, *models.RatingEvent) error { return nil },
		listEventsByRatedFn: func(context.Context, uint, int, int) ([]models.RatingEvent, error) {
			return nil, nil
		},
	}
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got %#v", err)
	}
	return appErr.Code
}

func TestRatingServiceSubmitSelfRating(t *testing.T) {
	repo := noopRatingRepo()
	repo.createEventFn = func(context.Context, *models.RatingEvent) error {
		t.Fatal("self rating must not write history")
		return nil
	}
	repo.createPendingFn = func(context.Context, *models.PendingRating) error {
		t.Fatal("self rating must not write pending")
		return nil
	}

	svc := NewRatingService(repo, noopUserRepo())
	_, err := svc.Submit(context.Background(), SubmitRatingInput{
		RaterID: 7, RatedID: 7, Score: 4, Relation: models.RelationStranger,
	})
	if code := appErrCode(t, err); code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestRatingServiceSubmitScoreOutOfRange(t *testing.T) {
	svc := NewRatingService(noopRatingRepo(), noopUserRepo())

	for _, score := range []float64{0, -1, 5.5, 100} {
		_, err := svc.Submit(context.Background(), SubmitRatingInput{
			RaterID: 1, RatedID: 2, Score: score, Relation: models.RelationStranger,
		})
		if code := appErrCode(t, err); code != "VALIDATION_ERROR" {
			t.Fatalf("score %v: expected VALIDATION_ERROR, got %s", score, code)
		}
	}
}

func TestRatingServiceSubmitRatedUserMissing(t *testing.T) {
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}

	svc := NewRatingService(noopRatingRepo(), users)
	_, err := svc.Submit(context.Background(), SubmitRatingInput{
		RaterID: 1, RatedID: 99, Score: 4, Relation: models.RelationStranger,
	})
	if code := appErrCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestRatingServiceSubmitDirectFirstRating(t *testing.T) {
	repo := noopRatingRepo()

	var event *models.RatingEvent
	repo.createEventFn = func(_ context.Context, e *models.RatingEvent) error {
		event = e
		return nil
	}
	var latest *models.Rating
	repo.createLatestFn = func(_ context.Context, r *models.Rating) error {
		latest = r
		return nil
	}
	repo.createPendingFn = func(context.Context, *models.PendingRating) error {
		t.Fatal("direct path must not write pending")
		return nil
	}
	repo.listLatestByRatedFn = func(context.Context, uint) ([]models.Rating, error) {
		return []models.Rating{{Score: 4, Relation: models.RelationStranger}}, nil
	}

	users := noopUserRepo()
	var recomputed float64
	users.updateRatingFn = func(_ context.Context, id uint, rating float64) error {
		if id != 2 {
			t.Fatalf("recompute targeted user %d, want 2", id)
		}
		recomputed = rating
		return nil
	}

	svc := NewRatingService(repo, users)
	pending, err := svc.Submit(context.Background(), SubmitRatingInput{
		RaterID: 1, RatedID: 2, Score: 4, Comment: "solid", Relation: models.RelationStranger,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending {
		t.Fatal("stranger rating must not be pending")
	}
	if event == nil || event.Score != 4 || event.RaterID != 1 || event.RatedID != 2 {
		t.Fatalf("unexpected history event: %#v", event)
	}
	if latest == nil || latest.Score != 4 {
		t.Fatalf("unexpected latest rating: %#v", latest)
	}
	if recomputed != 4 {
		t.Fatalf("expected cached average 4, got %v", recomputed)
	}
}

func TestRatingServiceSubmitDirectReRatingUpdatesLatestInPlace(t *testing.T) {
	repo := noopRatingRepo()

	firstRatedAt := time.Now().Add(-48 * time.Hour)
	repo.findLatestByPairFn = func(context.Context, uint, uint) (*models.Rating, error) {
		return &models.Rating{
			ID: 11, RaterID: 1, RatedID: 2, Score: 2,
			Relation: models.RelationStranger, CreatedAt: firstRatedAt, UpdatedAt: firstRatedAt,
		}, nil
	}

	events := 0
	repo.createEventFn = func(context.Context, *models.RatingEvent) error {
		events++
		return nil
	}
	var updated *models.Rating
	repo.updateLatestFn = func(_ context.Context, r *models.Rating) error {
		updated = r
		return nil
	}
	repo.createLatestFn = func(context.Context, *models.Rating) error {
		t.Fatal("re-rating must update the existing latest row, not insert")
		return nil
	}

	svc := NewRatingService(repo, noopUserRepo())
	if _, err := svc.Submit(context.Background(), SubmitRatingInput{
		RaterID: 1, RatedID: 2, Score: 5, Relation: models.RelationStranger,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if events != 1 {
		t.Fatalf("every direct submission appends history, got %d events", events)
	}
	if updated == nil || updated.ID != 11 || updated.Score != 5 {
		t.Fatalf("unexpected latest update: %#v", updated)
	}
	if !updated.CreatedAt.Equal(firstRatedAt) {
		t.Fatal("latest row must keep its original CreatedAt")
	}
	if !updated.UpdatedAt.After(firstRatedAt) {
		t.Fatal("latest row must get a fresh UpdatedAt")
	}
}

func TestRatingServiceSubmitConsentPathCreatesPendingOnly(t *testing.T) {
	repo := noopRatingRepo()

	var created *models.PendingRating
	repo.createPendingFn = func(_ context.Context, p *models.PendingRating) error {
		created = p
		return nil
	}
	repo.createEventFn = func(context.Context, *models.RatingEvent) error {
		t.Fatal("consent path must not write history before accept")
		return nil
	}
	repo.createLatestFn = func(context.Context, *models.Rating) error {
		t.Fatal("consent path must not write latest before accept")
		return nil
	}

	users := noopUserRepo()
	users.updateRatingFn = func(context.Context, uint, float64) error {
		t.Fatal("consent path must not recompute before accept")
		return nil
	}

	svc := NewRatingService(repo, users)
	pending, err := svc.Submit(context.Background(), SubmitRatingInput{
		RaterID: 1, RatedID: 2, Score: 5, Relation: models.RelationFriend, KnownSince: 14,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pending {
		t.Fatal("friend rating must require consent")
	}
	if created == nil || created.Relation != models.RelationFriend || created.KnownSince != 14 {
		t.Fatalf("unexpected pending rating: %#v", created)
	}
}

func TestRatingServiceSubmitConsentReSubmissionUpdatesPending(t *testing.T) {
	repo := noopRatingRepo()

	existing := &models.PendingRating{
		ID: 21, RaterID: 1, RatedID: 2, Score: 2,
		Relation: models.RelationAcquaintance,
		CreatedAt: time.Now().Add(-time.Hour), UpdatedAt: time.Now().Add(-time.Hour),
	}
	repo.findPendingByPairFn = func(context.Context, uint, uint) (*models.PendingRating, error) {
		return existing, nil
	}
	var updated *models.PendingRating
	repo.updatePendingFn = func(_ context.Context, p *models.PendingRating) error {
		updated = p
		return nil
	}
	repo.createPendingFn = func(context.Context, *models.PendingRating) error {
		t.Fatal("re-submission must update the pending row, not insert")
		return nil
	}

	svc := NewRatingService(repo, noopUserRepo())
	if _, err := svc.Submit(context.Background(), SubmitRatingInput{
		RaterID: 1, RatedID: 2, Score: 4, Comment: "better", Relation: models.RelationFriend,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated == nil || updated.ID != 21 {
		t.Fatal("expected the existing pending row to be updated")
	}
	if updated.Score != 4 || updated.Relation != models.RelationFriend || updated.Comment != "better" {
		t.Fatalf("pending row not rewritten: %#v", updated)
	}
}

func TestRatingServiceAcceptPromotesPending(t *testing.T) {
	repo := noopRatingRepo()

	submittedAt := time.Now().Add(-2 * time.Hour)
	repo.getPendingByIDFn = func(context.Context, uint) (*models.PendingRating, error) {
		return &models.PendingRating{
			ID: 31, RaterID: 1, RatedID: 2, Score: 5, Comment: "great",
			Relation: models.RelationFriend, KnownSince: 20,
			CreatedAt: submittedAt, UpdatedAt: submittedAt,
		}, nil
	}

	deleted := false
	repo.deletePendingFn = func(_ context.Context, id uint) (bool, error) {
		if id != 31 {
			t.Fatalf("deleted pending %d, want 31", id)
		}
		deleted = true
		return true, nil
	}
	var event *models.RatingEvent
	repo.createEventFn = func(_ context.Context, e *models.RatingEvent) error {
		if !deleted {
			t.Fatal("pending must be deleted before downstream writes")
		}
		event = e
		return nil
	}
	var latest *models.Rating
	repo.createLatestFn = func(_ context.Context, r *models.Rating) error {
		latest = r
		return nil
	}
	repo.listLatestByRatedFn = func(context.Context, uint) ([]models.Rating, error) {
		return []models.Rating{{Score: 5, Relation: models.RelationFriend, KnownSince: 20}}, nil
	}

	users := noopUserRepo()
	recomputed := false
	users.updateRatingFn = func(_ context.Context, id uint, rating float64) error {
		recomputed = true
		if rating != 5 {
			t.Fatalf("expected cached average 5, got %v", rating)
		}
		return nil
	}

	svc := NewRatingService(repo, users)
	if err := svc.Accept(context.Background(), 31); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event == nil {
		t.Fatal("accept must append a history event")
	}
	if !event.CreatedAt.Equal(submittedAt) {
		t.Fatal("history event must keep the pending submission time")
	}
	if event.UpdatedAt.Equal(submittedAt) {
		t.Fatal("history event must carry a fresh UpdatedAt")
	}
	if latest == nil || latest.Score != 5 || latest.Relation != models.RelationFriend {
		t.Fatalf("unexpected latest rating: %#v", latest)
	}
	if !recomputed {
		t.Fatal("accept must recompute the cached average")
	}
}

func TestRatingServiceAcceptUnknownID(t *testing.T) {
	repo := noopRatingRepo()
	repo.getPendingByIDFn = func(_ context.Context, id uint) (*models.PendingRating, error) {
		return nil, models.NewNotFoundError("Pending rating", id)
	}

	svc := NewRatingService(repo, noopUserRepo())
	err := svc.Accept(context.Background(), 404)
	if code := appErrCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestRatingServiceAcceptLosesDeleteRace(t *testing.T) {
	repo := noopRatingRepo()
	repo.deletePendingFn = func(context.Context, uint) (bool, error) { return false, nil }
	repo.createEventFn = func(context.Context, *models.RatingEvent) error {
		t.Fatal("losing the delete race must skip downstream writes")
		return nil
	}
	repo.createLatestFn = func(context.Context, *models.Rating) error {
		t.Fatal("losing the delete race must skip downstream writes")
		return nil
	}

	svc := NewRatingService(repo, noopUserRepo())
	err := svc.Accept(context.Background(), 31)
	if code := appErrCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestRatingServiceRejectIsIdempotent(t *testing.T) {
	repo := noopRatingRepo()
	calls := 0
	repo.deletePendingFn = func(context.Context, uint) (bool, error) {
		calls++
		return calls == 1, nil
	}

	svc := NewRatingService(repo, noopUserRepo())
	if err := svc.Reject(context.Background(), 31); err != nil {
		t.Fatalf("first reject failed: %v", err)
	}
	if err := svc.Reject(context.Background(), 31); err != nil {
		t.Fatalf("second reject must be a no-op, got: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 delete attempts, got %d", calls)
	}
}
