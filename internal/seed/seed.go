// Package seed inserts the sample catalog into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/snapreviews/snapreviews/internal/domain"
	"github.com/snapreviews/snapreviews/internal/repository"
)

type businessDef struct {
	title       string
	location    string
	description string
	rating      float64
}

var cafes = []businessDef{
	{
		title:       "Snap Cafe",
		location:    "Santa Monica, CA",
		description: "A trendy cafe specializing in quick bites and colorful drinks. Perfect spot for creative professionals and tech enthusiasts to gather and share ideas.",
		rating:      4.5,
	},
	{
		title:       "Urth Caffe",
		location:    "Santa Monica, CA",
		description: "Popular cafe known for organic coffee, fine teas, and health-conscious food options. Great outdoor patio with a relaxed atmosphere.",
		rating:      4.2,
	},
	{
		title:       "Blue Bottle Coffee",
		location:    "Venice, CA",
		description: "Craft coffee shop offering specialty single-origin beans and expertly prepared espresso drinks in a minimalist setting.",
		rating:      4.3,
	},
	{
		title:       "Dogtown Coffee",
		location:    "Santa Monica, CA",
		description: "Surf-inspired coffee shop with locally roasted beans and hearty breakfast burritos. Captures the local beach culture.",
		rating:      4.1,
	},
	{
		title:       "Demitasse",
		location:    "Santa Monica, CA",
		description: "Artisanal coffee shop with handcrafted drinks and house-made syrups. Known for their unique lavender hot chocolate.",
		rating:      4.0,
	},
}

var restaurants = []businessDef{
	{
		title:       "Forma Restaurant & Cheese Bar",
		location:    "Santa Monica, CA",
		description: "Italian restaurant famous for pasta prepared in cheese wheels. Extensive wine list and elegant atmosphere.",
		rating:      4.6,
	},
	{
		title:       "Cassia",
		location:    "Santa Monica, CA",
		description: "Southeast Asian brasserie with French influences. Beautiful indoor and outdoor spaces with wood-fired dishes.",
		rating:      4.7,
	},
	{
		title:       "Elephante",
		location:    "Santa Monica, CA",
		description: "Rooftop restaurant with Mediterranean cuisine and stunning ocean views. Popular for sunset cocktails and Italian-inspired dishes.",
		rating:      4.4,
	},
	{
		title:       "Sweetgreen",
		location:    "Santa Monica, CA",
		description: "Health-focused fast casual chain offering seasonal salads and grain bowls made with locally sourced ingredients.",
		rating:      4.1,
	},
	{
		title:       "Bay Cities Italian Deli",
		location:    "Santa Monica, CA",
		description: "Iconic Italian deli famous for the Godmother sandwich. Offers imported specialty foods and homemade dishes.",
		rating:      4.8,
	},
}

// Catalog returns the sample businesses, cafés first. The preset ratings
// stand until the first review is added or removed, which recomputes them
// from actual reviews.
func Catalog(now time.Time) []domain.Business {
	defs := make([]businessDef, 0, len(cafes)+len(restaurants))
	defs = append(defs, cafes...)
	defs = append(defs, restaurants...)

	out := make([]domain.Business, 0, len(defs))
	for i, d := range defs {
		out = append(out, domain.Business{
			ID:            uuid.New().String(),
			Title:         d.title,
			Location:      d.location,
			Description:   d.description,
			ReviewIDs:     []string{},
			AverageRating: d.rating,
			// Later entries are newer so insertion order survives the
			// newest-first listing.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return out
}

// Run inserts the catalog when businesses holds no records and returns how
// many were added. A non-empty store is left untouched.
func Run(ctx context.Context, businesses repository.BusinessRepository, logger *slog.Logger) (int, error) {
	count, err := businesses.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count businesses: %w", err)
	}
	if count > 0 {
		logger.DebugContext(ctx, "store not empty, skipping seed", slog.Int("businesses", count))
		return 0, nil
	}

	logger.InfoContext(ctx, "no businesses found, adding sample businesses")

	catalog := Catalog(time.Now().UTC())
	for i := range catalog {
		if err := businesses.Create(ctx, &catalog[i]); err != nil {
			return i, fmt.Errorf("seed business %q: %w", catalog[i].Title, err)
		}
	}

	logger.InfoContext(ctx, "sample businesses added", slog.Int("count", len(catalog)))
	return len(catalog), nil
}
