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

// Index lists the store, optionally narrowed to one category.
func (h *Handler) Index(c *gin.Context) {
	var req models.ListAppsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.errorPage(c, http.StatusBadRequest, render.MsgActionFailed)
		return
	}
	apps, err := h.svc.List(c.Request.Context(), listing.ListFilter{
		Category: req.Category,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		h.errorPage(c, http.StatusInternalServerError, render.MsgLoadError)
		return
	}
	c.HTML(http.StatusOK, render.PageIndex, h.render.Index(apps, req.Category))
}

// Detail serves GET /app?id=.
func (h *Handler) Detail(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	view, ok := h.detailView(c, id)
	if !ok {
		return
	}
	view.Flash = takeFlash(c)
	c.HTML(http.StatusOK, render.PageDetail, view)
}

// detailView loads the listing and its reviews. On a load failure the error
// page has already been written.
func (h *Handler) detailView(c *gin.Context, id string) (*render.DetailView, bool) {
	ctx := c.Request.Context()
	app, err := h.svc.Load(ctx, id)
	if err != nil {
		code, msg := loadMessage(err)
		h.errorPage(c, code, msg)
		return nil, false
	}
	view := h.render.Detail(app, readBook(c))
	view.WithReviews(h.svc.Reviews(ctx, id))
	return view, true
}

// Download counts a download and sends the visitor to the file. Within the
// cooldown the file is served again without counting.
func (h *Handler) Download(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	ctx := c.Request.Context()

	var fileURL string
	var err error
	if h.cooldown.Allow(middleware.DownloadKey(c.ClientIP(), id)) {
		var res *listing.DownloadResult
		if res, err = h.svc.Download(ctx, id); err == nil {
			fileURL = res.URL
		}
	} else {
		h.log.Debug("download_cooldown", "app_id", id, "client_ip", c.ClientIP())
		fileURL, err = h.svc.FileURL(ctx, id)
	}

	switch {
	case err == nil:
		c.Redirect(http.StatusFound, fileURL)
	case errors.Is(err, listing.ErrNoDownloadFile):
		h.detailWithAlert(c, id, http.StatusOK, render.MsgNoFile, nil)
	case errors.Is(err, listing.ErrNotFound):
		h.errorPage(c, http.StatusNotFound, render.MsgNotFound)
	default:
		h.detailWithAlert(c, id, http.StatusInternalServerError, render.MsgActionFailed, nil)
	}
}

// Like records a like unless the vote cookie already holds one.
func (h *Handler) Like(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	book := readBook(c)
	res, err := h.svc.Like(c.Request.Context(), id, &book)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			h.errorPage(c, http.StatusNotFound, render.MsgNotFound)
			return
		}
		h.detailWithAlert(c, id, http.StatusInternalServerError, render.MsgActionFailed, nil)
		return
	}
	if !res.AlreadyLiked {
		writeBook(c, book)
	}
	c.Redirect(http.StatusSeeOther, detailPath(id))
}

// Review handles the review form. A rejected review re-renders the page with
// the visitor's input and nothing is written.
func (h *Handler) Review(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	var req models.SubmitReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		h.detailWithAlert(c, id, http.StatusBadRequest, alertFor(listing.ErrInvalidStars), &req)
		return
	}

	book := readBook(c)
	if _, err := h.svc.SubmitReview(c.Request.Context(), id, req, &book); err != nil {
		switch {
		case listing.IsValidation(err):
			h.detailWithAlert(c, id, http.StatusUnprocessableEntity, alertFor(err), &req)
		case errors.Is(err, listing.ErrNotFound):
			h.errorPage(c, http.StatusNotFound, render.MsgNotFound)
		default:
			h.detailWithAlert(c, id, http.StatusInternalServerError, render.MsgReviewFailed, &req)
		}
		return
	}

	writeBook(c, book)
	setFlash(c, flashReview)
	c.Redirect(http.StatusSeeOther, detailPath(id))
}

func (h *Handler) detailWithAlert(c *gin.Context, id string, code int, alert string, form *models.SubmitReviewRequest) {
	view, ok := h.detailView(c, id)
	if !ok {
		return
	}
	view.Alert = alert
	if form != nil {
		view.FormStars = form.Stars
		view.FormComment = form.Comment
	}
	c.HTML(code, render.PageDetail, view)
}

func (h *Handler) errorPage(c *gin.Context, code int, msg string) {
	c.HTML(code, render.PageError, h.render.Error(msg))
}
