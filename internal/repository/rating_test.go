package repository

import (
	"context"
	"testing"
	"time"

	"loopup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRepository_PendingLifecycle(t *testing.T) {
	repo := NewRatingRepository(setupTestDB(t))
	ctx := context.Background()

	pending := &models.PendingRating{
		RaterID:  1,
		RatedID:  2,
		Score:    4,
		Relation: models.RelationFriend,
	}
	require.NoError(t, repo.CreatePending(ctx, pending))
	require.NotZero(t, pending.ID)

	t.Run("GetPendingByID", func(t *testing.T) {
		got, err := repo.GetPendingByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, pending.RaterID, got.RaterID)
		assert.Equal(t, models.RelationFriend, got.Relation)
	})

	t.Run("GetPendingByID unknown id", func(t *testing.T) {
		_, err := repo.GetPendingByID(ctx, 9999)
		require.Error(t, err)
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("FindPendingByPair", func(t *testing.T) {
		got, err := repo.FindPendingByPair(ctx, 1, 2)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pending.ID, got.ID)

		missing, err := repo.FindPendingByPair(ctx, 2, 1)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("DeletePending reports the winner", func(t *testing.T) {
		deleted, err := repo.DeletePending(ctx, pending.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeletePending(ctx, pending.ID)
		require.NoError(t, err)
		assert.False(t, deleted, "second delete of the same row must report false")
	})
}

func TestRatingRepository_ListPendingOrdering(t *testing.T) {
	repo := NewRatingRepository(setupTestDB(t))
	ctx := context.Background()

	now := time.Now()
	older := &models.PendingRating{
		RaterID: 1, RatedID: 2, Score: 3, Relation: models.RelationFriend,
		CreatedAt: now.Add(-2 * time.Hour),
	}
	newer := &models.PendingRating{
		RaterID: 3, RatedID: 2, Score: 5, Relation: models.RelationAcquaintance,
		CreatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, repo.CreatePending(ctx, older))
	require.NoError(t, repo.CreatePending(ctx, newer))

	pendings, err := repo.ListPendingByRated(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pendings, 2)
	assert.Equal(t, newer.ID, pendings[0].ID, "most recent first")

	byRater, err := repo.ListPendingByRater(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byRater, 1)
	assert.Equal(t, older.ID, byRater[0].ID)

	count, err := repo.CountPendingByRater(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRatingRepository_UpdateLatestKeepsCreatedAt(t *testing.T) {
	repo := NewRatingRepository(setupTestDB(t))
	ctx := context.Background()

	createdAt := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	rating := &models.Rating{
		RaterID: 1, RatedID: 2, Score: 2, Relation: models.RelationStranger,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	require.NoError(t, repo.CreateLatest(ctx, rating))

	rating.Score = 5
	rating.Comment = "changed my mind"
	rating.UpdatedAt = time.Now()
	require.NoError(t, repo.UpdateLatest(ctx, rating))

	got, err := repo.FindLatestByPair(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, float64(5), got.Score)
	assert.Equal(t, "changed my mind", got.Comment)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestRatingRepository_Aggregations(t *testing.T) {
	repo := NewRatingRepository(setupTestDB(t))
	ctx := context.Background()

	// User 1 rates users 2, 3, 4; users 2 and 3 rate user 1 back.
	seed := []models.Rating{
		{RaterID: 1, RatedID: 2, Score: 5, Relation: models.RelationStranger},
		{RaterID: 1, RatedID: 3, Score: 4, Relation: models.RelationStranger},
		{RaterID: 1, RatedID: 4, Score: 5, Relation: models.RelationStranger},
		{RaterID: 2, RatedID: 1, Score: 3, Relation: models.RelationStranger},
		{RaterID: 3, RatedID: 1, Score: 4, Relation: models.RelationStranger},
	}
	for i := range seed {
		require.NoError(t, repo.CreateLatest(ctx, &seed[i]))
	}

	t.Run("CountLatestByRater", func(t *testing.T) {
		count, err := repo.CountLatestByRater(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("ListRatedIDsByRater", func(t *testing.T) {
		ids, err := repo.ListRatedIDsByRater(ctx, 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{2, 3, 4}, ids)
	})

	t.Run("CountLatestByRatedAndRaterIn", func(t *testing.T) {
		count, err := repo.CountLatestByRatedAndRaterIn(ctx, 1, []uint{2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count, "users 2 and 3 rated user 1 back")

		count, err = repo.CountLatestByRatedAndRaterIn(ctx, 1, nil)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("ScoreDistribution", func(t *testing.T) {
		buckets, err := repo.ScoreDistribution(ctx, 1)
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Equal(t, float64(4), buckets[0].Score)
		assert.Equal(t, int64(1), buckets[0].Count)
		assert.Equal(t, float64(5), buckets[1].Score)
		assert.Equal(t, int64(2), buckets[1].Count)
	})

	t.Run("CountUniqueRaters", func(t *testing.T) {
		count, err := repo.CountUniqueRaters(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestRatingRepository_History(t *testing.T) {
	repo := NewRatingRepository(setupTestDB(t))
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 3; i++ {
		event := &models.RatingEvent{
			RaterID: 1, RatedID: 2, Score: float64(i + 3),
			Relation:  models.RelationStranger,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateEvent(ctx, event))
	}

	events, err := repo.ListEventsByRated(ctx, 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, float64(5), events[0].Score, "newest event first")

	page, err := repo.ListEventsByRated(ctx, 2, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, float64(3), page[0].Score)
}
