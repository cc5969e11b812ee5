package listing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/appser/appser-store/pkg/models"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	apps    map[string]*models.App
	reviews map[string][]models.Review
	seeds   map[string]models.RatingStats
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		apps:    make(map[string]*models.App),
		reviews: make(map[string][]models.Review),
		seeds:   make(map[string]models.RatingStats),
	}
}

func cloneApp(a *models.App) *models.App {
	c := *a
	if a.Screenshots != nil {
		c.Screenshots = append([]string(nil), a.Screenshots...)
	}
	if a.RealDownloads != nil {
		v := *a.RealDownloads
		c.RealDownloads = &v
	}
	if a.LastUpdated != nil {
		t := *a.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

func (r *MemoryRepository) GetApp(ctx context.Context, id string) (*models.App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneApp(app), nil
}

func (r *MemoryRepository) ListApps(ctx context.Context, filter ListFilter) ([]*models.App, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	r.mu.RLock()
	all := make([]*models.App, 0, len(r.apps))
	for _, app := range r.apps {
		if filter.Category != "" && app.Category != filter.Category {
			continue
		}
		all = append(all, cloneApp(app))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		di, dj := all[i].DisplayDownloads(), all[j].DisplayDownloads()
		if di != dj {
			return di > dj
		}
		return all[i].Name < all[j].Name
	})

	if filter.Offset >= len(all) {
		return []*models.App{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (r *MemoryRepository) UpsertApp(ctx context.Context, app *models.App) error {
	if app == nil || app.ID == "" || app.Name == "" {
		return ErrInvalidApp
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := cloneApp(app)
	next.RealDownloads = nil
	if existing, ok := r.apps[app.ID]; ok {
		next.RealDownloads = existing.RealDownloads
		next.Likes = existing.Likes
		next.Rating = existing.Rating
	} else {
		r.seeds[app.ID] = next.Rating
	}
	r.apps[app.ID] = next
	return nil
}

func (r *MemoryRepository) IncrementDownloads(ctx context.Context, id string) (models.Counters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[id]
	if !ok {
		return models.Counters{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := app.DisplayDownloads() + 1
	app.RealDownloads = &next
	return app.Counters(), nil
}

func (r *MemoryRepository) IncrementLikes(ctx context.Context, id string) (models.Counters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[id]
	if !ok {
		return models.Counters{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	app.Likes++
	return app.Counters(), nil
}

func (r *MemoryRepository) AddReview(ctx context.Context, review *models.Review) (models.RatingStats, error) {
	if review.Stars < models.MinStars || review.Stars > models.MaxStars {
		return models.RatingStats{}, ErrInvalidStars
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[review.AppID]
	if !ok {
		return models.RatingStats{}, fmt.Errorf("%w: %s", ErrNotFound, review.AppID)
	}
	app.Rating = ApplyRating(app.Rating, review.Stars)
	r.reviews[review.AppID] = append(r.reviews[review.AppID], *review)
	return app.Rating, nil
}

func (r *MemoryRepository) ListReviews(ctx context.Context, appID string, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = ReviewPageSize
	}

	r.mu.RLock()
	stored := r.reviews[appID]
	out := make([]models.Review, 0, len(stored))
	// Stored in insertion order; newest first means walking backwards.
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) RecomputeRatings(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for id, reviews := range r.reviews {
		app, ok := r.apps[id]
		if !ok || len(reviews) == 0 {
			continue
		}
		stats := r.seeds[id]
		for _, rv := range reviews {
			stats = ApplyRating(stats, rv.Stars)
		}
		app.Rating = stats
		updated++
	}
	return updated, nil
}
