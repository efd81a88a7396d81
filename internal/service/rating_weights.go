package service

import (
	"math"

	"loopup/internal/models"
)

// Relation weights for the cached user average. A friend's rating counts
// fully, an acquaintance's partially, a stranger's least. Knowing someone
// for over a year adds a small bonus, capped so no single rating can
// dominate beyond maxRatingWeight.
const (
	friendWeight       = 1.0
	acquaintanceWeight = 0.6
	strangerWeight     = 0.3
	longKnownBonus     = 0.1
	longKnownMonths    = 12
	maxRatingWeight    = 1.2
)

// ratingWeight returns the weight a single latest rating contributes to
// the rated user's average.
func ratingWeight(relation models.RatingRelation, knownSinceMonths int) float64 {
	var w float64
	switch relation {
	case models.RelationFriend:
		w = friendWeight
	case models.RelationAcquaintance:
		w = acquaintanceWeight
	default:
		w = strangerWeight
	}

	if knownSinceMonths > longKnownMonths {
		w += longKnownBonus
	}
	if w > maxRatingWeight {
		w = maxRatingWeight
	}
	return w
}

// WeightedAverage computes the cached average over a user's latest received
// ratings: sum(score * weight) / sum(weight), rounded to two decimals.
// A user with no ratings averages to 0.
func WeightedAverage(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}

	var weightedSum, totalWeight float64
	for i := range ratings {
		w := ratingWeight(ratings[i].Relation, ratings[i].KnownSince)
		weightedSum += ratings[i].Score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}

	return math.Round(weightedSum/totalWeight*100) / 100
}
