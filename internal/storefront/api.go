package storefront

import (
	"errors"
	"net/http"

	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/internal/middleware"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/pkg/models"
	"github.com/gin-gonic/gin"
)

type DownloadResponse struct {
	URL      string          `json:"url"`
	Counted  bool            `json:"counted"`
	Counters models.Counters `json:"counters"`
}

type LikeResponse struct {
	Likes        int64 `json:"likes"`
	AlreadyLiked bool  `json:"already_liked"`
}

func (h *Handler) apiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, listing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": render.MsgNotFound})
	case errors.Is(err, listing.ErrNoDownloadFile):
		c.JSON(http.StatusConflict, gin.H{"error": render.MsgNoFile})
	case errors.Is(err, listing.ErrInvalidApp), listing.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": render.MsgLoadError})
	}
}

// ListApps handles GET /api/apps.
func (h *Handler) ListApps(c *gin.Context) {
	var req models.ListAppsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	apps, err := h.svc.List(c.Request.Context(), listing.ListFilter{
		Category: req.Category,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apps":  apps,
		"count": len(apps),
	})
}

// GetApp handles GET /api/apps/:id.
func (h *Handler) GetApp(c *gin.Context) {
	app, err := h.svc.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ShareApp handles GET /api/apps/:id/share: the payload for a native share
// sheet or the clipboard.
func (h *Handler) ShareApp(c *gin.Context) {
	app, err := h.svc.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, render.Share(app, h.render.DetailURL(app.ID)))
}

// DownloadApp handles POST /api/apps/:id/download.
func (h *Handler) DownloadApp(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if !h.cooldown.Allow(middleware.DownloadKey(c.ClientIP(), id)) {
		fileURL, err := h.svc.FileURL(ctx, id)
		if err != nil {
			h.apiError(c, err)
			return
		}
		app, err := h.svc.Load(ctx, id)
		if err != nil {
			h.apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, DownloadResponse{URL: fileURL, Counters: app.Counters()})
		return
	}

	res, err := h.svc.Download(ctx, id)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadResponse{URL: res.URL, Counted: true, Counters: res.Counters})
}

// LikeApp handles POST /api/apps/:id/like. The vote cookie is honoured the
// same way as on the page.
func (h *Handler) LikeApp(c *gin.Context) {
	id := c.Param("id")
	book := readBook(c)
	res, err := h.svc.Like(c.Request.Context(), id, &book)
	if err != nil {
		h.apiError(c, err)
		return
	}
	if !res.AlreadyLiked {
		writeBook(c, book)
	}
	c.JSON(http.StatusOK, LikeResponse{Likes: res.Counters.Likes, AlreadyLiked: res.AlreadyLiked})
}

// ListReviews handles GET /api/apps/:id/reviews.
func (h *Handler) ListReviews(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if _, err := h.svc.Load(ctx, id); err != nil {
		h.apiError(c, err)
		return
	}
	reviews, err := h.svc.Reviews(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": render.MsgReviewsError})
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	c.JSON(http.StatusOK, models.ReviewList{Reviews: reviews, Count: len(reviews)})
}

// SubmitReview handles POST /api/apps/:id/reviews.
func (h *Handler) SubmitReview(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	book := readBook(c)
	resp, err := h.svc.SubmitReview(c.Request.Context(), id, req, &book)
	if err != nil {
		h.apiError(c, err)
		return
	}
	writeBook(c, book)
	c.JSON(http.StatusCreated, resp)
}

// UpsertApp handles PUT /api/apps/:id. Live counters and the rating
// aggregate of an existing listing are kept.
func (h *Handler) UpsertApp(c *gin.Context) {
	var app models.App
	if err := c.ShouldBindJSON(&app); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	if app.ID != "" && app.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app id does not match the path"})
		return
	}
	app.ID = id
	if err := h.svc.Upsert(c.Request.Context(), &app); err != nil {
		h.apiError(c, err)
		return
	}
	saved, err := h.svc.Load(c.Request.Context(), id)
	if err != nil {
		h.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
