package listing

import (
	"context"
	"errors"
	"time"

	"github.com/appser/appser-store/internal/events"
	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/metrics"
	"github.com/appser/appser-store/pkg/models"
	"github.com/google/uuid"
)

// Service holds the storefront actions on a single listing.
type Service struct {
	repo      Repository
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       logger.GetLogger().WithContext("component", "listing_service"),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for review timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Load(ctx context.Context, id string) (*models.App, error) {
	app, err := s.repo.GetApp(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info("app_not_found", "app_id", id)
		} else {
			s.log.Error("app_load_failed", "app_id", id, "error", err.Error())
		}
		return nil, err
	}
	return app, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*models.App, error) {
	apps, err := s.repo.ListApps(ctx, filter)
	if err != nil {
		s.log.Error("app_list_failed", "error", err.Error())
		return nil, err
	}
	return apps, nil
}

func (s *Service) Upsert(ctx context.Context, app *models.App) error {
	if err := s.repo.UpsertApp(ctx, app); err != nil {
		s.log.Error("app_upsert_failed", "app_id", app.ID, "error", err.Error())
		return err
	}
	s.log.Info("app_upserted", "app_id", app.ID)
	return nil
}

type DownloadResult struct {
	URL      string
	Counters models.Counters
}

// Download counts one download and returns the file to open. A listing
// without a file is rejected before anything is counted.
func (s *Service) Download(ctx context.Context, id string) (*DownloadResult, error) {
	app, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.APKURL == "" {
		return nil, ErrNoDownloadFile
	}

	counters, err := s.repo.IncrementDownloads(ctx, id)
	if err != nil {
		s.log.Error("download_count_failed", "app_id", id, "error", err.Error())
		return nil, err
	}
	metrics.IncrementDownloads()
	s.publish(ctx, events.Event{Type: events.TypeDownload, AppID: id, Counters: counters})

	return &DownloadResult{URL: app.APKURL, Counters: counters}, nil
}

// FileURL returns the file to open without counting a download. Used while
// the visitor is inside the download cooldown.
func (s *Service) FileURL(ctx context.Context, id string) (string, error) {
	app, err := s.Load(ctx, id)
	if err != nil {
		return "", err
	}
	if app.APKURL == "" {
		return "", ErrNoDownloadFile
	}
	return app.APKURL, nil
}

type LikeResult struct {
	Counters     models.Counters
	AlreadyLiked bool
}

// Like increments the like counter unless book already records a like for
// this listing. On success the like is recorded in book.
func (s *Service) Like(ctx context.Context, id string, book *votes.Book) (*LikeResult, error) {
	if book != nil && book.Liked(id) {
		app, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		metrics.IncrementLikesSkipped()
		return &LikeResult{Counters: app.Counters(), AlreadyLiked: true}, nil
	}

	counters, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("like_failed", "app_id", id, "error", err.Error())
		}
		return nil, err
	}
	if book != nil {
		book.MarkLiked(id)
	}
	metrics.IncrementLikes()
	s.publish(ctx, events.Event{Type: events.TypeLike, AppID: id, Counters: counters})

	return &LikeResult{Counters: counters}, nil
}

// SubmitReview validates locally first; nothing is written for an invalid
// review.
func (s *Service) SubmitReview(ctx context.Context, id string, req models.SubmitReviewRequest, book *votes.Book) (*models.SubmitReviewResponse, error) {
	comment, err := ValidateReview(req.Stars, req.Comment)
	if err != nil {
		metrics.IncrementReviewsRejected()
		return nil, err
	}

	review := models.Review{
		ID:        uuid.New().String(),
		AppID:     id,
		Stars:     req.Stars,
		Comment:   comment,
		Author:    models.AnonymousAuthor,
		CreatedAt: s.now().UTC(),
	}

	stats, err := s.repo.AddReview(ctx, &review)
	if err != nil {
		s.log.Error("review_submit_failed", "app_id", id, "error", err.Error())
		return nil, err
	}
	if book != nil {
		book.MarkRated(id)
	}
	metrics.IncrementReviews()
	s.log.Info("review_submitted", "app_id", id, "stars", review.Stars, "rating_count", stats.TotalCount)

	ev := events.Event{Type: events.TypeReview, AppID: id, Review: &review}
	if app, err := s.repo.GetApp(ctx, id); err == nil {
		ev.Counters = app.Counters()
	} else {
		ev.Counters = models.Counters{AppID: id, Rating: stats}
	}
	s.publish(ctx, ev)

	return &models.SubmitReviewResponse{Review: review, Rating: stats}, nil
}

// Reviews returns the most recent reviews of a listing, newest first.
func (s *Service) Reviews(ctx context.Context, id string) ([]models.Review, error) {
	reviews, err := s.repo.ListReviews(ctx, id, ReviewPageSize)
	if err != nil {
		s.log.Error("review_load_failed", "app_id", id, "error", err.Error())
		return nil, err
	}
	return reviews, nil
}

func (s *Service) RecomputeRatings(ctx context.Context) (int, error) {
	n, err := s.repo.RecomputeRatings(ctx)
	if err != nil {
		s.log.Error("rating_recompute_failed", "error", err.Error())
		return 0, err
	}
	s.log.Info("ratings_recomputed", "apps", n)
	return n, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("event_publish_failed", "app_id", ev.AppID, "type", string(ev.Type), "error", err.Error())
	}
}
