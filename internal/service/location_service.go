package service

import (
	"context"

	"loopup/internal/models"
	"loopup/internal/repository"
)

// LocationService handles user location sharing and proximity lookups.
type LocationService struct {
	userRepo repository.UserRepository
}

// NewLocationService returns a new LocationService.
func NewLocationService(userRepo repository.UserRepository) *LocationService {
	return &LocationService{userRepo: userRepo}
}

// UpdateLocation stores the user's current coordinates.
func (s *LocationService) UpdateLocation(ctx context.Context, userID uint, lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return models.NewValidationError("Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return models.NewValidationError("Longitude must be between -180 and 180")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	return s.userRepo.UpdateLocation(ctx, userID, lat, lon)
}

// Nearby updates the caller's location, then returns other users who have
// shared a location within radiusKm of it.
func (s *LocationService) Nearby(ctx context.Context, userID uint, lat, lon, radiusKm float64, limit int) ([]models.User, error) {
	if radiusKm <= 0 {
		radiusKm = 10
	}
	if radiusKm > 500 {
		return nil, models.NewValidationError("Radius must be at most 500 km")
	}

	if err := s.UpdateLocation(ctx, userID, lat, lon); err != nil {
		return nil, err
	}

	return s.userRepo.Nearby(ctx, lat, lon, radiusKm, userID, limit)
}
