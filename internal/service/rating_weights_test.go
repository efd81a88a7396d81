package service

import (
	"testing"

	"loopup/internal/models"
)

func TestRatingWeight(t *testing.T) {
	tests := []struct {
		name       string
		relation   models.RatingRelation
		knownSince int
		want       float64
	}{
		{"friend", models.RelationFriend, 0, 1.0},
		{"acquaintance", models.RelationAcquaintance, 0, 0.6},
		{"stranger", models.RelationStranger, 0, 0.3},
		{"unrecognized defaults to stranger", models.RatingRelation("close friend"), 0, 0.3},
		{"friend long known", models.RelationFriend, 13, 1.1},
		{"acquaintance long known", models.RelationAcquaintance, 24, 0.7},
		{"stranger long known", models.RelationStranger, 36, 0.4},
		{"bonus requires more than a year", models.RelationFriend, 12, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ratingWeight(tt.relation, tt.knownSince)
			if got != tt.want {
				t.Fatalf("ratingWeight(%q, %d) = %v, want %v", tt.relation, tt.knownSince, got, tt.want)
			}
		})
	}
}

func TestWeightedAverageEmpty(t *testing.T) {
	if got := WeightedAverage(nil); got != 0 {
		t.Fatalf("expected 0 for empty set, got %v", got)
	}
}

func TestWeightedAverageMixedRelations(t *testing.T) {
	ratings := []models.Rating{
		{Score: 5, Relation: models.RelationFriend, KnownSince: 0},
		{Score: 1, Relation: models.RelationStranger, KnownSince: 0},
	}

	// (5*1.0 + 1*0.3) / (1.0 + 0.3) = 4.0769... -> 4.08
	if got := WeightedAverage(ratings); got != 4.08 {
		t.Fatalf("expected 4.08, got %v", got)
	}
}

func TestWeightedAverageSingleRating(t *testing.T) {
	ratings := []models.Rating{
		{Score: 3, Relation: models.RelationAcquaintance, KnownSince: 20},
	}

	// A single rating averages to its own score regardless of weight.
	if got := WeightedAverage(ratings); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestWeightedAverageRounding(t *testing.T) {
	ratings := []models.Rating{
		{Score: 5, Relation: models.RelationFriend},
		{Score: 4, Relation: models.RelationFriend},
		{Score: 2, Relation: models.RelationStranger},
	}

	// (5 + 4 + 0.6) / 2.3 = 4.17391... -> 4.17
	if got := WeightedAverage(ratings); got != 4.17 {
		t.Fatalf("expected 4.17, got %v", got)
	}
}
