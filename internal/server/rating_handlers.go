package server

import (
	"loopup/internal/models"
	"loopup/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitRating handles POST /api/ratings
// @Summary Submit a rating
// @Description Rate another user. Stranger ratings apply immediately; friend and acquaintance ratings wait for the rated user's consent.
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body object{rated_user_id=int,score=number,comment=string,relation=string,known_since=int} true "Rating"
// @Success 201 {object} object{pending=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /ratings [post]
// @Security BearerAuth
func (s *Server) SubmitRating(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		RatedUserID uint    `json:"rated_user_id"`
		Score       float64 `json:"score"`
		Comment     string  `json:"comment"`
		Relation    string  `json:"relation"`
		KnownSince  int     `json:"known_since"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.RatedUserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("rated_user_id is required"))
	}
	if req.KnownSince < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("known_since cannot be negative"))
	}

	// Resolve the relation at the boundary so the workflow only ever sees
	// the closed relation set.
	relation, err := models.ParseRatingRelation(req.Relation)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	pending, err := s.ratingService.Submit(c.Context(), service.SubmitRatingInput{
		RaterID:    userID,
		RatedID:    req.RatedUserID,
		Score:      req.Score,
		Comment:    req.Comment,
		Relation:   relation,
		KnownSince: req.KnownSince,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"pending": pending,
	})
}

// AcceptRating handles POST /api/ratings/:pendingId/accept
// @Summary Accept a pending rating
// @Description Accept a rating submitted about you, applying it to your profile.
// @Tags ratings
// @Produce json
// @Param pendingId path int true "Pending rating ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /ratings/{pendingId}/accept [post]
// @Security BearerAuth
func (s *Server) AcceptRating(c *fiber.Ctx) error {
	userID := currentUserID(c)

	pendingID, err := s.parseID(c, "pendingId")
	if err != nil {
		return nil
	}

	pending, err := s.ratingRepo.GetPendingByID(c.Context(), pendingID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if pending.RatedID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only accept ratings about yourself"))
	}

	if err := s.ratingService.Accept(c.Context(), pendingID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Rating accepted",
	})
}

// RejectRating handles POST /api/ratings/:pendingId/reject
// @Summary Reject a pending rating
// @Description Discard a rating submitted about you. Rejecting an already resolved rating is a no-op.
// @Tags ratings
// @Produce json
// @Param pendingId path int true "Pending rating ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /ratings/{pendingId}/reject [post]
// @Security BearerAuth
func (s *Server) RejectRating(c *fiber.Ctx) error {
	userID := currentUserID(c)

	pendingID, err := s.parseID(c, "pendingId")
	if err != nil {
		return nil
	}

	// The pending row may already be gone; that is still a successful
	// rejection. Only an existing row belonging to someone else is refused.
	pending, err := s.ratingRepo.GetPendingByID(c.Context(), pendingID)
	if err != nil && !models.IsNotFound(err) {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if pending != nil && pending.RatedID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only reject ratings about yourself"))
	}

	if err := s.ratingService.Reject(c.Context(), pendingID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Rating rejected",
	})
}

// GetRatingsForUser handles GET /api/ratings/user/:userId
// @Summary Ratings received by a user
// @Tags ratings
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.Rating
// @Router /ratings/user/{userId} [get]
// @Security BearerAuth
func (s *Server) GetRatingsForUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ratings, err := s.ratingQueryService.RatingsForUser(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(ratings)
}

// GetRatingHistory handles GET /api/ratings/user/:userId/history
// @Summary Rating history for a user
// @Description Append-only log of every rating event about the user, newest first.
// @Tags ratings
// @Produce json
// @Param userId path int true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.RatingEvent
// @Router /ratings/user/{userId}/history [get]
// @Security BearerAuth
func (s *Server) GetRatingHistory(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	events, err := s.ratingQueryService.HistoryForUser(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(events)
}

// GetPendingRatings handles GET /api/ratings/pending/:userId
// @Summary Pending ratings awaiting a user's consent
// @Tags ratings
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.PendingRating
// @Failure 403 {object} models.ErrorResponse
// @Router /ratings/pending/{userId} [get]
// @Security BearerAuth
func (s *Server) GetPendingRatings(c *fiber.Ctx) error {
	currentID := currentUserID(c)

	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if userID != currentID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only view your own pending ratings"))
	}

	pending, err := s.ratingQueryService.PendingForUser(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(pending)
}

// GetRecentlyRated handles GET /api/ratings/recent-given
// @Summary Users recently rated by the caller
// @Description Most recent rating per rated user, applied or pending, with profile info attached.
// @Tags ratings
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {array} models.RecentlyRated
// @Router /ratings/recent-given [get]
// @Security BearerAuth
func (s *Server) GetRecentlyRated(c *fiber.Ctx) error {
	userID := currentUserID(c)

	limit := c.QueryInt("limit", 10)
	feed, err := s.ratingQueryService.RecentlyRated(c.Context(), userID, limit)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(feed)
}

// GetRatedCount handles GET /api/ratings/count
// @Summary How many ratings the caller has given
// @Tags ratings
// @Produce json
// @Success 200 {object} object{count=int}
// @Router /ratings/count [get]
// @Security BearerAuth
func (s *Server) GetRatedCount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	count, err := s.ratingQueryService.CountRated(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"count": count,
	})
}

// GetMutualRatingsCount handles GET /api/ratings/mutual
// @Summary Reciprocal rating count for the caller
// @Description Ratings the caller received from users the caller has also rated.
// @Tags ratings
// @Produce json
// @Success 200 {object} object{count=int}
// @Router /ratings/mutual [get]
// @Security BearerAuth
func (s *Server) GetMutualRatingsCount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	count, err := s.ratingQueryService.MutualRatingsCount(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"count": count,
	})
}

// GetScoreDistribution handles GET /api/ratings/distribution
// @Summary Score distribution of ratings given by the caller
// @Tags ratings
// @Produce json
// @Success 200 {array} models.ScoreBucket
// @Router /ratings/distribution [get]
// @Security BearerAuth
func (s *Server) GetScoreDistribution(c *fiber.Ctx) error {
	userID := currentUserID(c)

	buckets, err := s.ratingQueryService.ScoreDistribution(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(buckets)
}

// GetUniqueRatersCount handles GET /api/ratings/unique-raters-count
// @Summary Distinct users who rated the caller
// @Tags ratings
// @Produce json
// @Success 200 {object} object{count=int}
// @Router /ratings/unique-raters-count [get]
// @Security BearerAuth
func (s *Server) GetUniqueRatersCount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	count, err := s.ratingQueryService.UniqueRatersCount(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"count": count,
	})
}

// CheckRating handles GET /api/ratings/check/:ratedUserId
// @Summary The caller's most recent rating of a user
// @Description Whichever of the caller's pending or applied rating of the user is newer. 200 with null when the caller has never rated them.
// @Tags ratings
// @Produce json
// @Param ratedUserId path int true "Rated user ID"
// @Success 200 {object} models.Rating
// @Router /ratings/check/{ratedUserId} [get]
// @Security BearerAuth
func (s *Server) CheckRating(c *fiber.Ctx) error {
	userID := currentUserID(c)

	ratedUserID, err := s.parseID(c, "ratedUserId")
	if err != nil {
		return nil
	}

	rating, err := s.ratingQueryService.MostRecentRating(c.Context(), userID, ratedUserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"rating": rating,
	})
}
