// Package render turns listings into page view models and HTML.
package render

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/models"
)

const (
	Placeholder = "—"
	SiteName    = "Appser Store"

	MetaDescriptionLength   = 150
	OGDescriptionLength     = 200
	ShareTextLength         = 100
	DefaultImage            = "https://appsem.rap-infinite.online/logo.webp"
	defaultPrivacyLinkLabel = "View policy"
)

// User-facing messages.
const (
	MsgNotFound      = "App not found"
	MsgLoadError     = "Connection error"
	MsgNoReviews     = "No reviews yet. Be the first to comment."
	MsgReviewsError  = "Error loading reviews."
	MsgReviewPosted  = "Your review was published!"
	MsgReviewFailed  = "Error sending the review. Please try again."
	MsgNoFile        = "No file available."
	MsgActionFailed  = "Something went wrong. Please try again."
	MsgNotAvailable  = "Not available"
	labelOffline     = "Works without Internet"
	labelOnline      = "Requires Internet"
	labelLike        = "Like"
	labelAlreadyLike = "Already liked"
)

type Options struct {
	Locale       string
	DefaultImage string
	PublicURL    string
}

// Renderer builds view models with a fixed locale and site settings.
type Renderer struct {
	opts Options
	fmt  *Formatter
}

func New(opts Options) *Renderer {
	if opts.DefaultImage == "" {
		opts.DefaultImage = DefaultImage
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &Renderer{opts: opts, fmt: NewFormatter(opts.Locale)}
}

func (r *Renderer) Formatter() *Formatter { return r.fmt }

// DetailURL is the canonical address of a listing page.
func (r *Renderer) DetailURL(id string) string {
	return r.opts.PublicURL + "/app?id=" + url.QueryEscape(id)
}

type PageMeta struct {
	Title         string
	Description   string
	OGTitle       string
	OGDescription string
	OGImage       string
	OGURL         string
}

type StoreLink struct {
	Name  string
	Class string
	URL   string
}

type InfoItem struct {
	Icon  string
	Title string
	Value string
	Link  string
}

type ReviewItem struct {
	Stars   string
	Comment string
	Date    string
}

type DetailView struct {
	Meta PageMeta

	ID            string
	Name          string
	Category      string
	IconURL       string
	Size          string
	InternetLabel string
	Description   string
	Screenshots   []string

	HasFile    bool
	StoreLinks []StoreLink

	DownloadsText string
	LikesText     string
	Liked         bool
	LikeLabel     string
	Rated         bool

	RatingText  string
	RatingCount int64
	Stars       StarRating
	Bars        []Bar
	ReviewTotal int64

	Info []InfoItem

	Reviews      []ReviewItem
	ReviewsError bool

	Alert       string
	Flash       string
	FormStars   int
	FormComment string
}

// Detail builds the page model of one listing. Reviews, alerts and the flash
// message are filled in by the caller.
func (r *Renderer) Detail(app *models.App, book votes.Book) *DetailView {
	downloads := r.fmt.Int(app.DisplayDownloads())
	likes := r.fmt.Int(app.Likes)
	liked := book.Liked(app.ID)

	v := &DetailView{
		Meta:          r.Meta(app, r.DetailURL(app.ID)),
		ID:            app.ID,
		Name:          app.Name,
		Category:      app.Category,
		IconURL:       orDefault(app.IconURL, r.opts.DefaultImage),
		Size:          orPlaceholder(app.Size),
		InternetLabel: InternetLabel(app.Internet),
		Description:   app.Description,
		Screenshots:   app.Screenshots,
		HasFile:       app.APKURL != "",
		StoreLinks:    StoreLinks(app),
		DownloadsText: downloads,
		LikesText:     likes,
		Liked:         liked,
		Rated:         book.Rated(app.ID),
		RatingText:    Rating(app.Rating.Average),
		RatingCount:   app.Rating.TotalCount,
		Stars:         Stars(app.Rating.Average),
		Bars:          Bars(app.Rating.Distribution, app.Rating.TotalCount),
		ReviewTotal:   ReviewTotal(app.Rating.Distribution, app.Rating.TotalCount),
	}
	if liked {
		v.LikeLabel = fmt.Sprintf("❤️ %s (%s)", labelAlreadyLike, likes)
	} else {
		v.LikeLabel = fmt.Sprintf("❤️ %s (%s)", labelLike, likes)
	}

	updated := Placeholder
	if app.LastUpdated != nil {
		updated = Date(*app.LastUpdated)
	}
	privacy := InfoItem{Icon: "🔗", Title: "Privacy policy", Value: MsgNotAvailable}
	if app.PrivacyURL != "" {
		privacy.Value = defaultPrivacyLinkLabel
		privacy.Link = app.PrivacyURL
	}

	v.Info = []InfoItem{
		{Icon: "🌐", Title: "Language", Value: orPlaceholder(app.Language)},
		{Icon: "🔢", Title: "Version", Value: orPlaceholder(app.Version)},
		{Icon: "🏷️", Title: "License", Value: orPlaceholder(app.License)},
		{Icon: "📱", Title: "Operating system", Value: orPlaceholder(app.OperatingSystem)},
		{Icon: "⚙️", Title: "System requirements", Value: orPlaceholder(app.Requirements)},
		{Icon: "📅", Title: "Updated", Value: updated},
		{Icon: "🔞", Title: "Recommended age", Value: orPlaceholder(app.AgeRating)},
		{Icon: "📢", Title: "Ads", Value: AdsLabel(app.Ads)},
		privacy,
		{Icon: "📦", Title: "APK size", Value: orPlaceholder(app.Size)},
		{Icon: "🆔", Title: "Package name", Value: orPlaceholder(app.PackageName)},
		{Icon: "⬇️", Title: "Downloads", Value: downloads},
	}
	return v
}

// WithReviews attaches the review list, or marks it failed when err is set.
func (v *DetailView) WithReviews(reviews []models.Review, err error) *DetailView {
	if err != nil {
		v.ReviewsError = true
		v.Reviews = nil
		return v
	}
	v.Reviews = make([]ReviewItem, 0, len(reviews))
	for _, rv := range reviews {
		v.Reviews = append(v.Reviews, ReviewLine(rv))
	}
	return v
}

func (r *Renderer) Meta(app *models.App, pageURL string) PageMeta {
	title := fmt.Sprintf("%s — %s", app.Name, SiteName)
	return PageMeta{
		Title:         title,
		Description:   fmt.Sprintf("Download %s for Android from %s. %s", app.Name, SiteName, truncate(app.Description, MetaDescriptionLength)),
		OGTitle:       title,
		OGDescription: truncate(app.Description, OGDescriptionLength),
		OGImage:       orDefault(app.IconURL, r.opts.DefaultImage),
		OGURL:         pageURL,
	}
}

// SiteMeta describes pages that are not about one listing.
func (r *Renderer) SiteMeta(title string) PageMeta {
	if title == "" {
		title = SiteName
	} else {
		title = fmt.Sprintf("%s — %s", title, SiteName)
	}
	return PageMeta{
		Title:   title,
		OGTitle: title,
		OGImage: r.opts.DefaultImage,
		OGURL:   r.opts.PublicURL + "/",
	}
}

type ShareData struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

func Share(app *models.App, pageURL string) ShareData {
	return ShareData{
		Title: app.Name,
		Text:  truncate(app.Description, ShareTextLength),
		URL:   pageURL,
	}
}

func ReviewLine(r models.Review) ReviewItem {
	stars := r.Stars
	if stars < 0 {
		stars = 0
	}
	if stars > models.MaxStars {
		stars = models.MaxStars
	}
	return ReviewItem{
		Stars:   strings.Repeat(GlyphFull, stars) + strings.Repeat(GlyphEmpty, models.MaxStars-stars),
		Comment: r.Comment,
		Date:    Date(r.CreatedAt),
	}
}

// StoreLinks lists the alternative stores that have a URL set.
func StoreLinks(app *models.App) []StoreLink {
	candidates := []StoreLink{
		{Name: "Play Store", Class: "playstore-btn", URL: app.PlayStoreURL},
		{Name: "Uptodown", Class: "uptodown-btn", URL: app.UptodownURL},
		{Name: "Mega", Class: "mega-btn", URL: app.MegaURL},
		{Name: "Mediafire", Class: "mediafire-btn", URL: app.MediafireURL},
	}
	links := make([]StoreLink, 0, len(candidates))
	for _, l := range candidates {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	return links
}

func InternetLabel(internet string) string {
	if internet == models.InternetOffline {
		return labelOffline
	}
	return labelOnline
}

func AdsLabel(ads string) string {
	switch ads {
	case models.AdsYes:
		return "Yes"
	case models.AdsNo:
		return "No"
	default:
		return Placeholder
	}
}

type IndexItem struct {
	ID            string
	Name          string
	Category      string
	IconURL       string
	DownloadsText string
	RatingText    string
	Stars         StarRating
}

type IndexView struct {
	Meta     PageMeta
	Category string
	Apps     []IndexItem
}

func (r *Renderer) Index(apps []*models.App, category string) *IndexView {
	v := &IndexView{Meta: r.SiteMeta(category), Category: category, Apps: make([]IndexItem, 0, len(apps))}
	for _, app := range apps {
		v.Apps = append(v.Apps, IndexItem{
			ID:            app.ID,
			Name:          app.Name,
			Category:      app.Category,
			IconURL:       orDefault(app.IconURL, r.opts.DefaultImage),
			DownloadsText: r.fmt.Int(app.DisplayDownloads()),
			RatingText:    Rating(app.Rating.Average),
			Stars:         Stars(app.Rating.Average),
		})
	}
	return v
}

type ErrorView struct {
	Meta    PageMeta
	Message string
}

func (r *Renderer) Error(message string) *ErrorView {
	return &ErrorView{Meta: r.SiteMeta(message), Message: message}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
