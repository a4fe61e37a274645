package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pressroom-cms/services"
	"pressroom-cms/storage"
)

// UploadHandler streams new assets into a draft's own directory. Uploads only
// ever target the draft bucket; the publish migration moves them onward.
type UploadHandler struct {
	lifecycle   services.LifecycleService
	gateway     storage.Gateway
	rewriter    *services.AssetRewriter
	draftBucket string
}

func NewUploadHandler(lifecycle services.LifecycleService, gateway storage.Gateway, rewriter *services.AssetRewriter, draftBucket string) *UploadHandler {
	return &UploadHandler{
		lifecycle:   lifecycle,
		gateway:     gateway,
		rewriter:    rewriter,
		draftBucket: draftBucket,
	}
}

func (h *UploadHandler) UploadAsset(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	draft, err := h.lifecycle.GetDraft(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := uuid.NewString() + ext
	key := draft.Directory() + "/" + name

	contentType := header.Header.Get("Content-Type")
	if err := h.gateway.Put(c.Request.Context(), h.draftBucket, key, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"file": gin.H{
			"name": name,
			"url":  h.rewriter.PublicURL(h.draftBucket, draft.Directory(), name),
		},
	})
}
