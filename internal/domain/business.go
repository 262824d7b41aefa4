package domain

import (
	"math"
	"time"
)

// Business is a reviewable place. ReviewIDs references the reviews that
// belong to it; Reviews is only filled when the references are resolved.
type Business struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	ReviewIDs     []string  `json:"review_ids"`
	Reviews       []Review  `json:"reviews,omitempty"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
}

// Review is a consumer's rating of a single business.
type Review struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// AverageRating returns the mean rating of reviews rounded half away from
// zero to two decimals, or 0 for an empty set.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*100) / 100
}

// HasReview reports whether id is among the business's review references.
func (b *Business) HasReview(id string) bool {
	for _, rid := range b.ReviewIDs {
		if rid == id {
			return true
		}
	}
	return false
}

// AddReviewID appends a review reference.
func (b *Business) AddReviewID(id string) {
	b.ReviewIDs = append(b.ReviewIDs, id)
}

// RemoveReviewID drops every reference to id and reports whether one existed.
func (b *Business) RemoveReviewID(id string) bool {
	kept := b.ReviewIDs[:0]
	removed := false
	for _, rid := range b.ReviewIDs {
		if rid == id {
			removed = true
			continue
		}
		kept = append(kept, rid)
	}
	b.ReviewIDs = kept
	return removed
}

// Recompute sets AverageRating from the given resolved reviews and keeps them
// as the business's Reviews. References that no longer resolve contribute
// nothing.
func (b *Business) Recompute(resolved []Review) {
	b.Reviews = resolved
	b.AverageRating = AverageRating(resolved)
}
