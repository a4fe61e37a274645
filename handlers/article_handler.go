package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gopkg.in/go-playground/validator.v9"

	"pressroom-cms/helper"
	"pressroom-cms/models"
	"pressroom-cms/services"
)

type ArticleHandler struct {
	lifecycle services.LifecycleService
	helper    *helper.HTTPHelper
}

func NewArticleHandler(lifecycle services.LifecycleService, h *helper.HTTPHelper) *ArticleHandler {
	return &ArticleHandler{lifecycle: lifecycle, helper: h}
}

func (h *ArticleHandler) CreateDraft(c *gin.Context) {
	var req models.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.lifecycle.CreateDraft(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, draft)
}

func (h *ArticleHandler) GetDrafts(c *gin.Context) {
	var params models.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	normalize(&params)

	drafts, total, err := h.lifecycle.ListDrafts(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drafts": drafts,
		"paging": h.helper.GeneratePaging(c, params.Limit, params.Page, total),
	})
}

func (h *ArticleHandler) GetDraft(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.lifecycle.GetDraft(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *ArticleHandler) SaveDraft(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	var req models.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.helper.Validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			h.helper.SendValidationError(c, verrs)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.lifecycle.SaveDraft(c.Request.Context(), id, req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *ArticleHandler) Publish(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.helper.Validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			h.helper.SendValidationError(c, verrs)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.DraftID = &id

	record, err := h.lifecycle.Publish(c.Request.Context(), req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *ArticleHandler) Unpublish(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.lifecycle.Unpublish(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *ArticleHandler) DeleteDraft(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	linked, err := h.lifecycle.DeleteDraft(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	result := models.DeleteDraftResult{}
	if linked != nil {
		// The published article stays live; hand the client its address.
		result.RedirectURL = "/" + linked.URL
	}
	c.JSON(http.StatusOK, result)
}

func (h *ArticleHandler) DeleteEverywhere(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.DeleteBoth(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *ArticleHandler) DeleteCustomThumbnail(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.DeleteCustomThumbnail(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *ArticleHandler) GetPublishedList(c *gin.Context) {
	var params models.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	normalize(&params)

	records, total, err := h.lifecycle.ListPublished(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": records,
		"paging":   h.helper.GeneratePaging(c, params.Limit, params.Page, total),
	})
}

func (h *ArticleHandler) GetPublished(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	record, err := h.lifecycle.GetPublished(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *ArticleHandler) idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *ArticleHandler) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDraftNotFound), errors.Is(err, services.ErrPublishedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrMalformedAssetURL), errors.Is(err, services.ErrForeignBucket):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func normalize(params *models.ListParams) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}
}
