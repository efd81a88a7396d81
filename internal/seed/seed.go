// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"

	"loopup/internal/models"
	"loopup/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumRatings  int
	ShouldClean bool
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d ratings...", opts.NumUsers, opts.NumRatings)

	// Clear existing data to avoid conflicts if requested
	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db)

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	friendships, err := createFriendships(f, users)
	if err != nil {
		return fmt.Errorf("failed to create friendships: %w", err)
	}
	log.Printf("✓ %d friendships created", friendships)

	applied, pending, err := createRatings(f, users, opts.NumRatings)
	if err != nil {
		return fmt.Errorf("failed to create ratings: %w", err)
	}
	log.Printf("✓ %d ratings applied, %d left pending", applied, pending)

	if err := recomputeAverages(db, users); err != nil {
		return fmt.Errorf("failed to recompute cached averages: %w", err)
	}
	log.Println("✓ cached rating averages recomputed")

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE rating_history, pending_ratings, latest_ratings, friendships, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(f *Factory, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)

	// Always include a known login for local development
	if count >= 1 {
		u, err := f.CreateUser(func(u *models.User) {
			u.Username = "test"
			u.Email = "test@example.com"
			u.Name = "Test User"
		})
		if err == nil {
			users = append(users, *u)
		}
	}

	for i := len(users); i < count; i++ {
		u, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, *u)

		if i%100 == 0 && i > 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

// createFriendships links each user to a couple of others so friendship
// views have data. Pairs are deduplicated by only linking forward.
func createFriendships(f *Factory, users []models.User) (int, error) {
	created := 0
	for i := range users {
		for j := i + 1; j < len(users) && j <= i+2; j++ {
			status := models.FriendshipStatusAccepted
			if f.rand.Intn(5) == 0 {
				status = models.FriendshipStatusPending
			}
			if _, err := f.CreateFriendship(users[i].ID, users[j].ID, status); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// createRatings scatters ratings over random ordered pairs. Stranger
// ratings go straight to the latest store; consent-path ratings are mostly
// applied with a minority left pending.
func createRatings(f *Factory, users []models.User, count int) (applied, pending int, err error) {
	if len(users) < 2 {
		return 0, 0, nil
	}

	seen := make(map[[2]uint]bool)
	for i := 0; i < count; i++ {
		rater := users[f.rand.Intn(len(users))]
		rated := users[f.rand.Intn(len(users))]
		if rater.ID == rated.ID {
			continue
		}
		pair := [2]uint{rater.ID, rated.ID}
		if seen[pair] {
			continue
		}
		seen[pair] = true

		if f.rand.Intn(5) == 0 {
			if _, err := f.CreatePendingRating(rater.ID, rated.ID); err != nil {
				return applied, pending, err
			}
			pending++
			continue
		}

		if _, err := f.CreateDirectRating(rater.ID, rated.ID); err != nil {
			return applied, pending, err
		}
		applied++

		if applied%100 == 0 {
			log.Printf("Created %d ratings...", applied)
		}
	}

	return applied, pending, nil
}

// recomputeAverages rebuilds every user's cached weighted average from the
// latest store, the same way the workflow does after each mutation.
func recomputeAverages(db *gorm.DB, users []models.User) error {
	for i := range users {
		var ratings []models.Rating
		if err := db.Where("rated_id = ?", users[i].ID).Find(&ratings).Error; err != nil {
			return err
		}
		average := service.WeightedAverage(ratings)
		if err := db.Model(&models.User{}).
			Where("id = ?", users[i].ID).
			Update("rating", average).Error; err != nil {
			return err
		}
	}
	return nil
}
