// Package storefront serves the listing pages and the JSON API over gin.
package storefront

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/middleware"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/votes"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	flashCookie   = "appser_flash"
	flashReview   = "review"
	voteCookieAge = 365 * 24 * 60 * 60
)

var flashMessages = map[string]string{
	flashReview: render.MsgReviewPosted,
}

type Handler struct {
	svc      *listing.Service
	render   *render.Renderer
	cooldown *middleware.Cooldown
	log      *logger.Logger
}

func NewHandler(svc *listing.Service, renderer *render.Renderer, cooldown *middleware.Cooldown) *Handler {
	if cooldown == nil {
		cooldown = middleware.NewCooldown(time.Second)
	}
	return &Handler{
		svc:      svc,
		render:   renderer,
		cooldown: cooldown,
		log:      logger.GetLogger().WithContext("component", "storefront"),
	}
}

func detailPath(id string) string {
	return "/app?id=" + url.QueryEscape(id)
}

// loadMessage maps a load failure to the message shown to visitors.
func loadMessage(err error) (int, string) {
	if errors.Is(err, listing.ErrNotFound) {
		return http.StatusNotFound, render.MsgNotFound
	}
	return http.StatusInternalServerError, render.MsgLoadError
}

// alertFor maps a validation error to the alert shown above the form.
func alertFor(err error) string {
	switch {
	case errors.Is(err, listing.ErrInvalidStars):
		return "Select a rating."
	case errors.Is(err, listing.ErrCommentTooShort):
		return "Write a longer comment (minimum 5 characters)."
	case errors.Is(err, listing.ErrCommentTooLong):
		return "Your comment is too long (maximum 280 characters)."
	default:
		return render.MsgReviewFailed
	}
}

func readBook(c *gin.Context) votes.Book {
	value, err := c.Cookie(votes.CookieName)
	if err != nil {
		return votes.Book{}
	}
	return votes.DecodeCookie(value)
}

func writeBook(c *gin.Context, book votes.Book) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(votes.CookieName, votes.EncodeCookie(book), voteCookieAge, "/", "", false, true)
}

func setFlash(c *gin.Context, key string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, key, 60, "/", "", false, true)
}

// takeFlash returns the pending flash message once.
func takeFlash(c *gin.Context) string {
	key, err := c.Cookie(flashCookie)
	if err != nil || key == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	return flashMessages[key]
}
