package http

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"fanclub/pkg/apperr"
	"fanclub/pkg/middleware"
	"fanclub/pkg/respond"
	"fanclub/services/creator/internal/entity"
	"fanclub/services/creator/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PostingHandler struct {
	postingUseCase usecase.PostingUseCase
	pageSize       PageSizer
}

func NewPostingHandler(postingUseCase usecase.PostingUseCase, pageSize PageSizer) *PostingHandler {
	return &PostingHandler{postingUseCase: postingUseCase, pageSize: pageSize}
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// ListPostings godoc
// @Summary      List postings
// @Description  Cursor-paginated postings, newest first. Locked postings carry display hints only.
// @Tags         postings
// @Produce      json
// @Param        cursor      query  string  false  "Opaque cursor from the previous page"
// @Param        limit       query  int     false  "Page size"
// @Param        filter      query  string  false  "all, membership or purchase"
// @Param        creator_id  query  string  false  "Only postings of this creator"
// @Success      200  {object}  respond.Envelope{data=feed.Page[entitlement.View]}
// @Failure      400  {object}  respond.Envelope
// @Router       /postings [get]
func (h *PostingHandler) ListPostings(c *gin.Context) {
	after, limit, err := pageParams(c, h.pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}

	page, err := h.postingUseCase.ListPostings(c.Request.Context(), middleware.UserID(c), c.Query("creator_id"), c.Query("filter"), after, limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, page)
}

// GetPosting godoc
// @Summary      Get posting
// @Tags         postings
// @Produce      json
// @Param        id   path  string  true  "Posting ID"
// @Success      200  {object}  respond.Envelope{data=entitlement.View}
// @Failure      404  {object}  respond.Envelope
// @Router       /postings/{id} [get]
func (h *PostingHandler) GetPosting(c *gin.Context) {
	view, err := h.postingUseCase.GetPosting(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, view)
}

// CreatePosting godoc
// @Summary      Create posting
// @Description  Publish a posting. min_level gates it behind a membership level, price allows a one-off purchase.
// @Tags         postings
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title      formData  string  true   "Title"
// @Param        text       formData  string  false  "Body text"
// @Param        min_level  formData  int     false  "Minimum membership level"
// @Param        price      formData  int     false  "One-off purchase price"
// @Param        images     formData  file    false  "Images (up to 10)"
// @Success      201  {object}  respond.Envelope{data=entitlement.View}
// @Failure      400  {object}  respond.Envelope
// @Failure      403  {object}  respond.Envelope
// @Router       /postings [post]
func (h *PostingHandler) CreatePosting(c *gin.Context) {
	minLevel, err := optionalInt(c, "min_level")
	if err != nil {
		respond.Error(c, err)
		return
	}
	price, err := optionalInt(c, "price")
	if err != nil {
		respond.Error(c, err)
		return
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form.File != nil {
		headers = form.File["images"]
	}

	images := make([]entity.MediaFile, 0, len(headers))
	for _, fh := range headers {
		if !imageExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
			respond.Error(c, apperr.Validation("invalid image format %q", fh.Filename))
			return
		}
		src, err := fh.Open()
		if err != nil {
			respond.Error(c, apperr.Validation("failed to read %s", fh.Filename))
			return
		}
		defer src.Close()
		images = append(images, entity.MediaFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        src,
		})
	}

	view, err := h.postingUseCase.CreatePosting(c.Request.Context(), middleware.UserID(c), entity.NewPosting{
		Title:    c.PostForm("title"),
		Text:     c.PostForm("text"),
		MinLevel: minLevel,
		Price:    price,
		Images:   images,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, view)
}

// DeletePosting godoc
// @Summary      Delete posting
// @Tags         postings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Posting ID"
// @Success      200  {object}  respond.Envelope
// @Failure      403  {object}  respond.Envelope
// @Failure      404  {object}  respond.Envelope
// @Router       /postings/{id} [delete]
func (h *PostingHandler) DeletePosting(c *gin.Context) {
	if err := h.postingUseCase.DeletePosting(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Message(c, "Posting deleted")
}

// Like godoc
// @Summary      Like posting
// @Tags         postings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Posting ID"
// @Success      200  {object}  respond.Envelope{data=entity.LikeState}
// @Failure      403  {object}  respond.Envelope
// @Router       /postings/{id}/like [post]
func (h *PostingHandler) Like(c *gin.Context) {
	state, err := h.postingUseCase.Like(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, state)
}

// Unlike godoc
// @Summary      Remove like
// @Tags         postings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Posting ID"
// @Success      200  {object}  respond.Envelope{data=entity.LikeState}
// @Router       /postings/{id}/like [delete]
func (h *PostingHandler) Unlike(c *gin.Context) {
	state, err := h.postingUseCase.Unlike(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, state)
}

// RecordView godoc
// @Summary      Record a view
// @Tags         postings
// @Produce      json
// @Param        id   path  string  true  "Posting ID"
// @Success      200  {object}  respond.Envelope
// @Router       /postings/{id}/view [post]
func (h *PostingHandler) RecordView(c *gin.Context) {
	viewerKey := middleware.UserID(c)
	if viewerKey == "" {
		viewerKey = "ip:" + c.ClientIP()
	}
	if err := h.postingUseCase.RecordView(c.Request.Context(), viewerKey, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Message(c, "View recorded")
}

// Purchase godoc
// @Summary      Purchase posting
// @Description  Buy a purchasable posting; the response contains the unlocked posting.
// @Tags         postings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Posting ID"
// @Success      200  {object}  respond.Envelope{data=entitlement.View}
// @Failure      400  {object}  respond.Envelope
// @Failure      409  {object}  respond.Envelope
// @Router       /postings/{id}/purchase [post]
func (h *PostingHandler) Purchase(c *gin.Context) {
	view, err := h.postingUseCase.Purchase(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, view)
}
