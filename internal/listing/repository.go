package listing

import (
	"context"

	"github.com/appser/appser-store/pkg/models"
)

type ListFilter struct {
	Category string
	Limit    int
	Offset   int
}

// Repository is the document store behind the storefront.
type Repository interface {
	GetApp(ctx context.Context, id string) (*models.App, error)

	ListApps(ctx context.Context, filter ListFilter) ([]*models.App, error)

	UpsertApp(ctx context.Context, app *models.App) error

	// IncrementDownloads and IncrementLikes add one atomically and return the
	// counters after the write.
	IncrementDownloads(ctx context.Context, id string) (models.Counters, error)

	IncrementLikes(ctx context.Context, id string) (models.Counters, error)

	// AddReview stores the review and folds it into the listing aggregate in
	// one transaction, computing from the stored aggregate.
	AddReview(ctx context.Context, review *models.Review) (models.RatingStats, error)

	ListReviews(ctx context.Context, appID string, limit int) ([]models.Review, error)

	// RecomputeRatings rebuilds every reviewed listing aggregate from its seed
	// rating plus its reviews and returns the number of listings updated.
	RecomputeRatings(ctx context.Context) (int, error)
}
