package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/appser/appser-store/internal/events"
	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyRepository counts writes reaching the store.
type spyRepository struct {
	listing.Repository
	mu           sync.Mutex
	likeWrites   int
	reviewWrites int
	failReviews  error
}

func (s *spyRepository) IncrementLikes(ctx context.Context, id string) (models.Counters, error) {
	s.mu.Lock()
	s.likeWrites++
	s.mu.Unlock()
	return s.Repository.IncrementLikes(ctx, id)
}

func (s *spyRepository) AddReview(ctx context.Context, r *models.Review) (models.RatingStats, error) {
	s.mu.Lock()
	s.reviewWrites++
	fail := s.failReviews
	s.mu.Unlock()
	if fail != nil {
		return models.RatingStats{}, fail
	}
	return s.Repository.AddReview(ctx, r)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func seededService(t *testing.T) (*listing.Service, *spyRepository, *recorder) {
	t.Helper()
	logger.Init(logger.INFO, false, nil)

	mem := listing.NewMemoryRepository()
	require.NoError(t, mem.UpsertApp(context.Background(), &models.App{
		ID:        "telegram",
		Name:      "Telegram",
		Category:  "Social",
		APKURL:    "https://files.example.com/telegram.apk",
		Downloads: 1500,
		Likes:     7,
		Rating: models.RatingStats{
			Average:      4.0,
			TotalCount:   9,
			Distribution: models.Histogram{0, 0, 1, 7, 1},
		},
	}))
	require.NoError(t, mem.UpsertApp(context.Background(), &models.App{ID: "nofile", Name: "No File"}))

	spy := &spyRepository{Repository: mem}
	rec := &recorder{}
	return listing.NewService(spy, rec), spy, rec
}

func TestLoadNotFound(t *testing.T) {
	svc, _, _ := seededService(t)

	_, err := svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, listing.ErrNotFound)
}

func TestSubmitReviewUpdatesAggregate(t *testing.T) {
	svc, _, rec := seededService(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })

	var book votes.Book
	resp, err := svc.SubmitReview(context.Background(), "telegram", models.SubmitReviewRequest{Stars: 5, Comment: "Great app"}, &book)
	require.NoError(t, err)

	assert.InDelta(t, 4.1, resp.Rating.Average, 1e-9)
	assert.Equal(t, int64(10), resp.Rating.TotalCount)
	assert.Equal(t, int64(2), resp.Rating.Distribution.Count(5))
	assert.Equal(t, models.AnonymousAuthor, resp.Review.Author)
	assert.Equal(t, fixed, resp.Review.CreatedAt)
	assert.True(t, book.Rated("telegram"))

	require.Len(t, rec.events, 1)
	assert.Equal(t, events.TypeReview, rec.events[0].Type)
	assert.Equal(t, int64(10), rec.events[0].Counters.Rating.TotalCount)
	assert.Equal(t, int64(1500), rec.events[0].Counters.Downloads)
}

func TestInvalidReviewNeverWrites(t *testing.T) {
	svc, spy, rec := seededService(t)

	_, err := svc.SubmitReview(context.Background(), "telegram", models.SubmitReviewRequest{Stars: 0, Comment: "Great app"}, nil)
	assert.ErrorIs(t, err, listing.ErrInvalidStars)

	_, err = svc.SubmitReview(context.Background(), "telegram", models.SubmitReviewRequest{Stars: 4, Comment: "Meh!"}, nil)
	assert.ErrorIs(t, err, listing.ErrCommentTooShort)

	assert.Zero(t, spy.reviewWrites)
	assert.Empty(t, rec.events)
}

func TestSubmitReviewStoreFailure(t *testing.T) {
	svc, spy, rec := seededService(t)
	spy.failReviews = errors.New("disk full")

	var book votes.Book
	_, err := svc.SubmitReview(context.Background(), "telegram", models.SubmitReviewRequest{Stars: 3, Comment: "Okay app"}, &book)

	assert.Error(t, err)
	assert.False(t, listing.IsValidation(err))
	assert.False(t, book.Rated("telegram"))
	assert.Empty(t, rec.events)
}

func TestLikeTwiceWithSameBookCountsOnce(t *testing.T) {
	svc, spy, _ := seededService(t)
	book := votes.Book{}

	first, err := svc.Like(context.Background(), "telegram", &book)
	require.NoError(t, err)
	assert.False(t, first.AlreadyLiked)
	assert.Equal(t, int64(8), first.Counters.Likes)

	second, err := svc.Like(context.Background(), "telegram", &book)
	require.NoError(t, err)
	assert.True(t, second.AlreadyLiked)
	assert.Equal(t, int64(8), second.Counters.Likes)

	assert.Equal(t, 1, spy.likeWrites)
}

func TestLikeFromAnotherBookCountsAgain(t *testing.T) {
	svc, _, _ := seededService(t)

	_, err := svc.Like(context.Background(), "telegram", &votes.Book{})
	require.NoError(t, err)
	res, err := svc.Like(context.Background(), "telegram", &votes.Book{})
	require.NoError(t, err)

	assert.Equal(t, int64(9), res.Counters.Likes)
}

func TestDownloadCountsAndReturnsFile(t *testing.T) {
	svc, _, rec := seededService(t)

	res, err := svc.Download(context.Background(), "telegram")
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com/telegram.apk", res.URL)
	assert.Equal(t, int64(1501), res.Counters.Downloads)
	require.Len(t, rec.events, 1)
	assert.Equal(t, events.TypeDownload, rec.events[0].Type)
}

func TestDownloadWithoutFileCountsNothing(t *testing.T) {
	svc, _, rec := seededService(t)

	_, err := svc.Download(context.Background(), "nofile")
	assert.ErrorIs(t, err, listing.ErrNoDownloadFile)

	app, err := svc.Load(context.Background(), "nofile")
	require.NoError(t, err)
	assert.Nil(t, app.RealDownloads)
	assert.Empty(t, rec.events)
}

func TestReviewsNewestFirst(t *testing.T) {
	svc, _, _ := seededService(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, comment := range []string{"first one", "second one", "third one"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.SetClock(func() time.Time { return at })
		_, err := svc.SubmitReview(context.Background(), "telegram", models.SubmitReviewRequest{Stars: 4, Comment: comment}, nil)
		require.NoError(t, err)
	}

	reviews, err := svc.Reviews(context.Background(), "telegram")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, "third one", reviews[0].Comment)
	assert.Equal(t, "first one", reviews[2].Comment)
}

func TestReviewsCappedAtPageSize(t *testing.T) {
	svc, _, _ := seededService(t)
	for i := 0; i < listing.ReviewPageSize+5; i++ {
		_, err := svc.SubmitReview(context.Background(), "telegram", models.SubmitReviewRequest{Stars: 5, Comment: "Great app"}, nil)
		require.NoError(t, err)
	}

	reviews, err := svc.Reviews(context.Background(), "telegram")
	require.NoError(t, err)
	assert.Len(t, reviews, listing.ReviewPageSize)
}

func TestRecomputeRatingsKeepsSeededVotes(t *testing.T) {
	svc, _, _ := seededService(t)
	ctx := context.Background()

	var book votes.Book
	_, err := svc.SubmitReview(ctx, "telegram", models.SubmitReviewRequest{Stars: 5, Comment: "Great app"}, &book)
	require.NoError(t, err)

	n, err := svc.RecomputeRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	app, err := svc.Load(ctx, "telegram")
	require.NoError(t, err)
	assert.Equal(t, int64(10), app.Rating.TotalCount)
	assert.InDelta(t, 4.1, app.Rating.Average, 1e-9)
	assert.Equal(t, models.Histogram{0, 0, 1, 7, 2}, app.Rating.Distribution)
}
