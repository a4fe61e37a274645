package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pressroom-cms/models"
	"pressroom-cms/services"
)

type AuthorHandler struct {
	authorService services.AuthorService
}

func NewAuthorHandler(authorService services.AuthorService) *AuthorHandler {
	return &AuthorHandler{authorService: authorService}
}

func (h *AuthorHandler) CreateAuthor(c *gin.Context) {
	var req models.CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author, err := h.authorService.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, author)
}

func (h *AuthorHandler) GetAuthors(c *gin.Context) {
	authors, err := h.authorService.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

func (h *AuthorHandler) GetAuthor(c *gin.Context) {
	id, ok := authorID(c)
	if !ok {
		return
	}

	author, err := h.authorService.Get(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, author)
}

func (h *AuthorHandler) UpdateAuthor(c *gin.Context) {
	id, ok := authorID(c)
	if !ok {
		return
	}

	var req models.UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author, err := h.authorService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, author)
}

func (h *AuthorHandler) DeleteAuthor(c *gin.Context) {
	id, ok := authorID(c)
	if !ok {
		return
	}

	if err := h.authorService.Delete(c.Request.Context(), id); err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AuthorHandler) sendError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrAuthorNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func authorID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
