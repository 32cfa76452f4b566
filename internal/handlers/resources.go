package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/models"
	"coaching-site-backend/internal/resource"
)

// ResourceHandler serves one collection resource. Every content type shares
// these handlers; the lifecycle's descriptor decides fields and files.
type ResourceHandler struct {
	lifecycle *resource.Lifecycle
	maxBytes  int64
	logger    *slog.Logger
}

func NewResourceHandler(lifecycle *resource.Lifecycle, maxBytes int64, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{
		lifecycle: lifecycle,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// List godoc
// @Summary     List resources
// @Description Returns one page of a resource collection in its defined order. count is the number of items on this page.
// @Tags        resources
// @Produce     json
// @Param       resource path  string true  "Resource path" Enums(banners, courses, testimonials, students, announcements, timetables, blogs, documents)
// @Param       page     query int    false "Page number, 1-based"
// @Param       pageSize query int    false "Page size, max 100"
// @Success     200 {object} models.ListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/{resource} [get]
func (h *ResourceHandler) List(c *gin.Context) {
	page := resource.ParsePage(c.Query("page"), c.Query("pageSize"))

	filters := map[string]string{}
	for _, name := range h.lifecycle.Descriptor().FilterNames() {
		if value := c.Query(name); value != "" {
			filters[name] = value
		}
	}

	records, err := h.lifecycle.List(c.Request.Context(), filters, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Items:    records,
		Count:    len(records),
		Page:     page.Number,
		PageSize: page.Size,
	})
}

// Get godoc
// @Summary     Get a resource
// @Tags        resources
// @Produce     json
// @Param       resource path string true "Resource path"
// @Param       id       path int    true "Resource ID"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/{resource}/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Create godoc
// @Summary     Create a resource
// @Description Accepts multipart/form-data (with the resource's file field), application/x-www-form-urlencoded or JSON. The file is stored before the row is written.
// @Tags        resources
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       resource path     string true  "Resource path"
// @Param       file     formData file   false "Attached file; the field name depends on the resource"
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/{resource} [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	in, err := readInput(c, h.lifecycle.Descriptor(), h.maxBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.lifecycle.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Update godoc
// @Summary     Update a resource
// @Description Changes only the supplied fields. A new file replaces the old one, which is removed after the row is updated.
// @Tags        resources
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       resource path string true "Resource path"
// @Param       id       path int    true "Resource ID"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/{resource}/{id} [put]
func (h *ResourceHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	in, err := readInput(c, h.lifecycle.Descriptor(), h.maxBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.lifecycle.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete godoc
// @Summary     Delete a resource
// @Description Deletes the row and then its file. A file that is already gone does not fail the request.
// @Tags        resources
// @Produce     json
// @Security    BearerAuth
// @Param       resource path string true "Resource path"
// @Param       id       path int    true "Resource ID"
// @Success     200 {object} models.MessageResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/{resource}/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.lifecycle.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("%s %d deleted", h.lifecycle.Descriptor().Name, id),
	})
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation("invalid id %q", c.Param("id"))
	}
	return id, nil
}
