package server

import (
	"loopup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests/:userId
// @Summary Send a friend request
// @Tags friends
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 201 {object} models.Friendship
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{userId} [post]
// @Security BearerAuth
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.SendFriendRequest(c.Context(), userID, targetUserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// GetPendingRequests handles GET /api/friends/requests
// @Summary Friend requests awaiting the caller
// @Tags friends
// @Produce json
// @Success 200 {array} models.Friendship
// @Router /friends/requests [get]
// @Security BearerAuth
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	userID := currentUserID(c)

	requests, err := s.friendService.GetPendingRequests(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
// @Summary Friend requests the caller has sent
// @Tags friends
// @Produce json
// @Success 200 {array} models.Friendship
// @Router /friends/requests/sent [get]
// @Security BearerAuth
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	userID := currentUserID(c)

	requests, err := s.friendService.GetSentRequests(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(requests)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
// @Summary Accept a friend request
// @Tags friends
// @Produce json
// @Param requestId path int true "Request ID"
// @Success 200 {object} models.Friendship
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{requestId}/accept [post]
// @Security BearerAuth
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.AcceptFriendRequest(c.Context(), userID, requestID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(friendship)
}

// DeclineFriendRequest handles POST /api/friends/requests/:requestId/decline
// @Summary Decline a friend request
// @Tags friends
// @Produce json
// @Param requestId path int true "Request ID"
// @Success 200 {object} models.Friendship
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{requestId}/decline [post]
// @Security BearerAuth
func (s *Server) DeclineFriendRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.DeclineFriendRequest(c.Context(), userID, requestID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(friendship)
}

// CancelFriendRequest handles DELETE /api/friends/requests/:requestId
// @Summary Cancel a sent friend request
// @Tags friends
// @Param requestId path int true "Request ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/requests/{requestId} [delete]
// @Security BearerAuth
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.CancelFriendRequest(c.Context(), userID, requestID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// BlockUser handles POST /api/friends/block/:userId
// @Summary Block a user
// @Tags friends
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} models.Friendship
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/block/{userId} [post]
// @Security BearerAuth
func (s *Server) BlockUser(c *fiber.Ctx) error {
	userID := currentUserID(c)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.BlockUser(c.Context(), userID, targetUserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(friendship)
}

// GetFriends handles GET /api/friends
// @Summary List the caller's friends
// @Tags friends
// @Produce json
// @Success 200 {array} models.User
// @Router /friends [get]
// @Security BearerAuth
func (s *Server) GetFriends(c *fiber.Ctx) error {
	userID := currentUserID(c)

	friends, err := s.friendService.GetFriends(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(friends)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
// @Summary Friendship status with another user
// @Tags friends
// @Produce json
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{status=string,request_id=int,friendship=models.Friendship}
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/status/{userId} [get]
// @Security BearerAuth
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	userID := currentUserID(c)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	status, requestID, friendship, err := s.friendService.GetFriendshipStatus(c.Context(), userID, targetUserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"status":     status,
		"request_id": requestID,
		"friendship": friendship,
	})
}

// RemoveFriend handles DELETE /api/friends/:userId
// @Summary Remove a friend
// @Tags friends
// @Param userId path int true "Friend user ID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{userId} [delete]
// @Security BearerAuth
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	userID := currentUserID(c)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.RemoveFriend(c.Context(), userID, targetUserID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.SendStatus(fiber.StatusOK)
}
