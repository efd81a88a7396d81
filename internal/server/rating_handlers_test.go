package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"loopup/internal/models"
	"loopup/internal/repository"
	"loopup/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRatingService struct {
	submitFn func(context.Context, service.SubmitRatingInput) (bool, error)
	acceptFn func(context.Context, uint) error
	rejectFn func(context.Context, uint) error
}

func (s *stubRatingService) Submit(ctx context.Context, input service.SubmitRatingInput) (bool, error) {
	return s.submitFn(ctx, input)
}
func (s *stubRatingService) Accept(ctx context.Context, pendingID uint) error {
	return s.acceptFn(ctx, pendingID)
}
func (s *stubRatingService) Reject(ctx context.Context, pendingID uint) error {
	return s.rejectFn(ctx, pendingID)
}

// stubPendingLookup overrides only the lookup the handlers use for ownership
// checks; everything else panics if reached.
type stubPendingLookup struct {
	repository.RatingRepository
	getPendingByIDFn func(context.Context, uint) (*models.PendingRating, error)
}

func (s *stubPendingLookup) GetPendingByID(ctx context.Context, id uint) (*models.PendingRating, error) {
	return s.getPendingByIDFn(ctx, id)
}

// newRatingTestApp wires a fiber app with the caller authenticated as userID.
func newRatingTestApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Post("/ratings", s.SubmitRating)
	app.Post("/ratings/:pendingId/accept", s.AcceptRating)
	app.Post("/ratings/:pendingId/reject", s.RejectRating)
	app.Get("/ratings/pending/:userId", s.GetPendingRatings)
	return app
}

func TestSubmitRatingHandler(t *testing.T) {
	var captured service.SubmitRatingInput
	svc := &stubRatingService{
		submitFn: func(_ context.Context, input service.SubmitRatingInput) (bool, error) {
			captured = input
			return input.Relation.RequiresConsent(), nil
		},
	}
	s := &Server{ratingService: svc}
	app := newRatingTestApp(s, 1)

	t.Run("Direct submission", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"rated_user_id": 2,
			"score":         4,
			"comment":       "solid",
		})
		req := httptest.NewRequest(http.MethodPost, "/ratings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var payload map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.False(t, payload["pending"])

		assert.Equal(t, uint(1), captured.RaterID)
		assert.Equal(t, uint(2), captured.RatedID)
		assert.Equal(t, models.RelationStranger, captured.Relation, "empty relation defaults to stranger")
	})

	t.Run("Consent path reports pending", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"rated_user_id": 2,
			"score":         5,
			"relation":      "friend",
			"known_since":   14,
		})
		req := httptest.NewRequest(http.MethodPost, "/ratings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var payload map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.True(t, payload["pending"])
	})

	t.Run("Unknown relation", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"rated_user_id": 2,
			"score":         4,
			"relation":      "bestie",
		})
		req := httptest.NewRequest(http.MethodPost, "/ratings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing rated user", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"score": 4})
		req := httptest.NewRequest(http.MethodPost, "/ratings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAcceptRatingHandlerOwnership(t *testing.T) {
	accepted := false
	svc := &stubRatingService{
		acceptFn: func(context.Context, uint) error {
			accepted = true
			return nil
		},
	}
	repo := &stubPendingLookup{
		getPendingByIDFn: func(_ context.Context, id uint) (*models.PendingRating, error) {
			return &models.PendingRating{ID: id, RaterID: 5, RatedID: 2}, nil
		},
	}
	s := &Server{ratingService: svc, ratingRepo: repo}

	t.Run("Rated user accepts", func(t *testing.T) {
		app := newRatingTestApp(s, 2)
		req := httptest.NewRequest(http.MethodPost, "/ratings/9/accept", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, accepted)
	})

	t.Run("Someone else is refused", func(t *testing.T) {
		accepted = false
		app := newRatingTestApp(s, 3)
		req := httptest.NewRequest(http.MethodPost, "/ratings/9/accept", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.False(t, accepted, "workflow must not run for a refused accept")
	})

	t.Run("Unknown pending rating", func(t *testing.T) {
		missing := &Server{
			ratingService: svc,
			ratingRepo: &stubPendingLookup{
				getPendingByIDFn: func(_ context.Context, id uint) (*models.PendingRating, error) {
					return nil, models.NewNotFoundError("Pending rating", id)
				},
			},
		}
		app := newRatingTestApp(missing, 2)
		req := httptest.NewRequest(http.MethodPost, "/ratings/9/accept", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRejectRatingHandler(t *testing.T) {
	rejected := false
	svc := &stubRatingService{
		rejectFn: func(context.Context, uint) error {
			rejected = true
			return nil
		},
	}

	t.Run("Already resolved still succeeds", func(t *testing.T) {
		s := &Server{
			ratingService: svc,
			ratingRepo: &stubPendingLookup{
				getPendingByIDFn: func(_ context.Context, id uint) (*models.PendingRating, error) {
					return nil, models.NewNotFoundError("Pending rating", id)
				},
			},
		}
		app := newRatingTestApp(s, 2)
		req := httptest.NewRequest(http.MethodPost, "/ratings/9/reject", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, rejected)
	})

	t.Run("Someone else's pending rating is refused", func(t *testing.T) {
		rejected = false
		s := &Server{
			ratingService: svc,
			ratingRepo: &stubPendingLookup{
				getPendingByIDFn: func(_ context.Context, id uint) (*models.PendingRating, error) {
					return &models.PendingRating{ID: id, RaterID: 5, RatedID: 2}, nil
				},
			},
		}
		app := newRatingTestApp(s, 3)
		req := httptest.NewRequest(http.MethodPost, "/ratings/9/reject", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.False(t, rejected)
	})
}

func TestGetPendingRatingsHandlerScope(t *testing.T) {
	s := &Server{}
	app := newRatingTestApp(s, 2)

	req := httptest.NewRequest(http.MethodGet, "/ratings/pending/3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "users may only read their own pending queue")
}
