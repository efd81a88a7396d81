package server

import (
	"loopup/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UpdateLocation handles PUT /api/location
// @Summary Update the caller's location
// @Tags location
// @Accept json
// @Produce json
// @Param request body object{latitude=number,longitude=number} true "Coordinates"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /location [put]
// @Security BearerAuth
func (s *Server) UpdateLocation(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Latitude == nil || req.Longitude == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("latitude and longitude are required"))
	}

	if err := s.locationService.UpdateLocation(c.Context(), userID, *req.Latitude, *req.Longitude); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Location updated",
	})
}

// GetNearbyUsers handles GET /api/location/nearby
// @Summary Users near the caller
// @Description Updates the caller's location, then returns users within the radius.
// @Tags location
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param radius query number false "Radius in km (default 10)"
// @Param limit query int false "Maximum results"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /location/nearby [get]
// @Security BearerAuth
func (s *Server) GetNearbyUsers(c *fiber.Ctx) error {
	userID := currentUserID(c)

	lat := c.QueryFloat("latitude")
	lon := c.QueryFloat("longitude")
	if lat == 0 && lon == 0 && (c.Query("latitude") == "" || c.Query("longitude") == "") {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("latitude and longitude are required"))
	}

	radius := c.QueryFloat("radius", 10)
	limit := c.QueryInt("limit", 50)

	users, err := s.locationService.Nearby(c.Context(), userID, lat, lon, radius, limit)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(users)
}
