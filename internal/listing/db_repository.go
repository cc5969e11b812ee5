package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appser/appser-store/pkg/models"
	"github.com/jmoiron/sqlx"
)

const appColumns = `
	id, name, category, description, icon_url, screenshots,
	apk_url, playstore_url, uptodown_url, mega_url, mediafire_url,
	size, internet, language, version, license, operating_system, requirements,
	last_updated, age_rating, ads, privacy_url, package_name,
	downloads, real_downloads, likes,
	rating_avg, rating_count, stars_1, stars_2, stars_3, stars_4, stars_5`

const counterColumns = `
	id, downloads, real_downloads, likes,
	rating_avg, rating_count, stars_1, stars_2, stars_3, stars_4, stars_5`

type ratingRow struct {
	RatingAvg   float64 `db:"rating_avg"`
	RatingCount int64   `db:"rating_count"`
	Stars1      int64   `db:"stars_1"`
	Stars2      int64   `db:"stars_2"`
	Stars3      int64   `db:"stars_3"`
	Stars4      int64   `db:"stars_4"`
	Stars5      int64   `db:"stars_5"`
}

func (r ratingRow) stats() models.RatingStats {
	return models.RatingStats{
		Average:      r.RatingAvg,
		TotalCount:   r.RatingCount,
		Distribution: models.Histogram{r.Stars1, r.Stars2, r.Stars3, r.Stars4, r.Stars5},
	}
}

func newRatingRow(s models.RatingStats) ratingRow {
	h := s.Distribution
	return ratingRow{
		RatingAvg:   s.Average,
		RatingCount: s.TotalCount,
		Stars1:      h[0],
		Stars2:      h[1],
		Stars3:      h[2],
		Stars4:      h[3],
		Stars5:      h[4],
	}
}

type counterRow struct {
	ID            string `db:"id"`
	Downloads     int64  `db:"downloads"`
	RealDownloads *int64 `db:"real_downloads"`
	Likes         int64  `db:"likes"`
	ratingRow
}

func (r counterRow) counters() models.Counters {
	app := models.App{ID: r.ID, Downloads: r.Downloads, RealDownloads: r.RealDownloads, Likes: r.Likes, Rating: r.stats()}
	return app.Counters()
}

type appRow struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	Category        string     `db:"category"`
	Description     string     `db:"description"`
	IconURL         string     `db:"icon_url"`
	Screenshots     string     `db:"screenshots"`
	APKURL          string     `db:"apk_url"`
	PlayStoreURL    string     `db:"playstore_url"`
	UptodownURL     string     `db:"uptodown_url"`
	MegaURL         string     `db:"mega_url"`
	MediafireURL    string     `db:"mediafire_url"`
	Size            string     `db:"size"`
	Internet        string     `db:"internet"`
	Language        string     `db:"language"`
	Version         string     `db:"version"`
	License         string     `db:"license"`
	OperatingSystem string     `db:"operating_system"`
	Requirements    string     `db:"requirements"`
	LastUpdated     *time.Time `db:"last_updated"`
	AgeRating       string     `db:"age_rating"`
	Ads             string     `db:"ads"`
	PrivacyURL      string     `db:"privacy_url"`
	PackageName     string     `db:"package_name"`
	Downloads       int64      `db:"downloads"`
	RealDownloads   *int64     `db:"real_downloads"`
	Likes           int64      `db:"likes"`
	ratingRow
}

func (r *appRow) toModel() *models.App {
	app := &models.App{
		ID:              r.ID,
		Name:            r.Name,
		Category:        r.Category,
		Description:     r.Description,
		IconURL:         r.IconURL,
		APKURL:          r.APKURL,
		PlayStoreURL:    r.PlayStoreURL,
		UptodownURL:     r.UptodownURL,
		MegaURL:         r.MegaURL,
		MediafireURL:    r.MediafireURL,
		Size:            r.Size,
		Internet:        r.Internet,
		Language:        r.Language,
		Version:         r.Version,
		License:         r.License,
		OperatingSystem: r.OperatingSystem,
		Requirements:    r.Requirements,
		LastUpdated:     r.LastUpdated,
		AgeRating:       r.AgeRating,
		Ads:             r.Ads,
		PrivacyURL:      r.PrivacyURL,
		PackageName:     r.PackageName,
		Downloads:       r.Downloads,
		RealDownloads:   r.RealDownloads,
		Likes:           r.Likes,
		Rating:          r.stats(),
	}
	if r.Screenshots != "" {
		if err := json.Unmarshal([]byte(r.Screenshots), &app.Screenshots); err != nil {
			app.Screenshots = nil
		}
	}
	return app
}

func newAppRow(a *models.App) (*appRow, error) {
	shots := a.Screenshots
	if shots == nil {
		shots = []string{}
	}
	shotsJSON, err := json.Marshal(shots)
	if err != nil {
		return nil, fmt.Errorf("serialize screenshots: %w", err)
	}
	return &appRow{
		ID:              a.ID,
		Name:            a.Name,
		Category:        a.Category,
		Description:     a.Description,
		IconURL:         a.IconURL,
		Screenshots:     string(shotsJSON),
		APKURL:          a.APKURL,
		PlayStoreURL:    a.PlayStoreURL,
		UptodownURL:     a.UptodownURL,
		MegaURL:         a.MegaURL,
		MediafireURL:    a.MediafireURL,
		Size:            a.Size,
		Internet:        a.Internet,
		Language:        a.Language,
		Version:         a.Version,
		License:         a.License,
		OperatingSystem: a.OperatingSystem,
		Requirements:    a.Requirements,
		LastUpdated:     a.LastUpdated,
		AgeRating:       a.AgeRating,
		Ads:             a.Ads,
		PrivacyURL:      a.PrivacyURL,
		PackageName:     a.PackageName,
		Downloads:       a.Downloads,
		Likes:           a.Likes,
		ratingRow:       newRatingRow(a.Rating),
	}, nil
}

type reviewRow struct {
	ID        string `db:"id"`
	AppID     string `db:"app_id"`
	Stars     int    `db:"stars"`
	Comment   string `db:"comment"`
	Author    string `db:"author"`
	CreatedAt int64  `db:"created_at"`
}

func (r reviewRow) toModel() models.Review {
	return models.Review{
		ID:        r.ID,
		AppID:     r.AppID,
		Stars:     r.Stars,
		Comment:   r.Comment,
		Author:    r.Author,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
	}
}

// DBRepository stores listings in the SQL database opened by pkg/database.
type DBRepository struct {
	db *sqlx.DB
}

func NewDBRepository(db *sql.DB) *DBRepository {
	return &DBRepository{db: sqlx.NewDb(db, "sqlite3")}
}

func (r *DBRepository) GetApp(ctx context.Context, id string) (*models.App, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var row appRow
	err := r.db.GetContext(ctx, &row, `SELECT `+appColumns+` FROM apps WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query app: %w", err)
	}
	return row.toModel(), nil
}

func (r *DBRepository) ListApps(ctx context.Context, filter ListFilter) ([]*models.App, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	query := `SELECT ` + appColumns + ` FROM apps WHERE 1=1`
	args := []interface{}{}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY COALESCE(real_downloads, downloads) DESC, name ASC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	var rows []appRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	apps := make([]*models.App, 0, len(rows))
	for i := range rows {
		apps = append(apps, rows[i].toModel())
	}
	return apps, nil
}

// UpsertApp inserts a listing or refreshes its descriptive fields. Live
// counters and rating aggregates of an existing listing are left alone. The
// rating a listing is inserted with is kept as its seed baseline.
func (r *DBRepository) UpsertApp(ctx context.Context, app *models.App) error {
	if app == nil || app.ID == "" || app.Name == "" {
		return ErrInvalidApp
	}
	row, err := newAppRow(app)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO apps (
			id, name, category, description, icon_url, screenshots,
			apk_url, playstore_url, uptodown_url, mega_url, mediafire_url,
			size, internet, language, version, license, operating_system, requirements,
			last_updated, age_rating, ads, privacy_url, package_name,
			downloads, likes, rating_avg, rating_count,
			stars_1, stars_2, stars_3, stars_4, stars_5,
			seed_avg, seed_count,
			seed_stars_1, seed_stars_2, seed_stars_3, seed_stars_4, seed_stars_5
		) VALUES (
			:id, :name, :category, :description, :icon_url, :screenshots,
			:apk_url, :playstore_url, :uptodown_url, :mega_url, :mediafire_url,
			:size, :internet, :language, :version, :license, :operating_system, :requirements,
			:last_updated, :age_rating, :ads, :privacy_url, :package_name,
			:downloads, :likes, :rating_avg, :rating_count,
			:stars_1, :stars_2, :stars_3, :stars_4, :stars_5,
			:rating_avg, :rating_count,
			:stars_1, :stars_2, :stars_3, :stars_4, :stars_5
		)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			description = excluded.description,
			icon_url = excluded.icon_url,
			screenshots = excluded.screenshots,
			apk_url = excluded.apk_url,
			playstore_url = excluded.playstore_url,
			uptodown_url = excluded.uptodown_url,
			mega_url = excluded.mega_url,
			mediafire_url = excluded.mediafire_url,
			size = excluded.size,
			internet = excluded.internet,
			language = excluded.language,
			version = excluded.version,
			license = excluded.license,
			operating_system = excluded.operating_system,
			requirements = excluded.requirements,
			last_updated = excluded.last_updated,
			age_rating = excluded.age_rating,
			ads = excluded.ads,
			privacy_url = excluded.privacy_url,
			package_name = excluded.package_name,
			downloads = excluded.downloads`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert app: %w", err)
	}
	return nil
}

func (r *DBRepository) IncrementDownloads(ctx context.Context, id string) (models.Counters, error) {
	// The live counter starts from the seeded figure so the display never drops.
	return r.increment(ctx, id, `UPDATE apps SET real_downloads = COALESCE(real_downloads, downloads) + 1 WHERE id = ?`)
}

func (r *DBRepository) IncrementLikes(ctx context.Context, id string) (models.Counters, error) {
	return r.increment(ctx, id, `UPDATE apps SET likes = likes + 1 WHERE id = ?`)
}

func (r *DBRepository) increment(ctx context.Context, id, stmt string) (models.Counters, error) {
	var out models.Counters
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, stmt, id)
		if err != nil {
			return fmt.Errorf("increment counter: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		var row counterRow
		if err := tx.GetContext(ctx, &row, `SELECT `+counterColumns+` FROM apps WHERE id = ?`, id); err != nil {
			return fmt.Errorf("read counters: %w", err)
		}
		out = row.counters()
		return nil
	})
	return out, err
}

func (r *DBRepository) AddReview(ctx context.Context, review *models.Review) (models.RatingStats, error) {
	if review.Stars < models.MinStars || review.Stars > models.MaxStars {
		return models.RatingStats{}, ErrInvalidStars
	}
	bucket := fmt.Sprintf("stars_%d", review.Stars)

	var stats models.RatingStats
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		// Right-hand sides see the pre-update row, so the aggregate is derived
		// from what is stored, never from a copy held by the caller.
		res, err := tx.ExecContext(ctx, `
			UPDATE apps SET
				rating_avg = (rating_avg * rating_count + ?) / (rating_count + 1),
				rating_count = rating_count + 1,
				`+bucket+` = `+bucket+` + 1
			WHERE id = ?`, review.Stars, review.AppID)
		if err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, review.AppID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO reviews (id, app_id, stars, comment, author, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			review.ID, review.AppID, review.Stars, review.Comment, review.Author, review.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		var row ratingRow
		if err := tx.GetContext(ctx, &row,
			`SELECT rating_avg, rating_count, stars_1, stars_2, stars_3, stars_4, stars_5 FROM apps WHERE id = ?`,
			review.AppID); err != nil {
			return fmt.Errorf("read rating: %w", err)
		}
		stats = row.stats()
		return nil
	})
	return stats, err
}

func (r *DBRepository) ListReviews(ctx context.Context, appID string, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = ReviewPageSize
	}
	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, app_id, stars, comment, author, created_at
		FROM reviews
		WHERE app_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, appID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	reviews := make([]models.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toModel())
	}
	return reviews, nil
}

// RecomputeRatings rebuilds the aggregate of every reviewed listing as its
// seed baseline plus the review log. Listings without any review keep their
// stored aggregate.
func (r *DBRepository) RecomputeRatings(ctx context.Context) (int, error) {
	const reviewCount = `(SELECT COUNT(*) FROM reviews WHERE reviews.app_id = apps.id)`
	const reviewSum = `(SELECT COALESCE(SUM(stars), 0) FROM reviews WHERE reviews.app_id = apps.id)`
	bucket := func(n int) string {
		return fmt.Sprintf(`stars_%d = seed_stars_%d + (SELECT COUNT(*) FROM reviews WHERE reviews.app_id = apps.id AND stars = %d)`, n, n, n)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE apps SET
			`+bucket(1)+`,
			`+bucket(2)+`,
			`+bucket(3)+`,
			`+bucket(4)+`,
			`+bucket(5)+`,
			rating_count = seed_count + `+reviewCount+`,
			rating_avg = (seed_avg * seed_count + `+reviewSum+`) / (seed_count + `+reviewCount+`)
		WHERE EXISTS (SELECT 1 FROM reviews WHERE reviews.app_id = apps.id)`)
	if err != nil {
		return 0, fmt.Errorf("recompute ratings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recompute ratings: %w", err)
	}
	return int(n), nil
}

func (r *DBRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
