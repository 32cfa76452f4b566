package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"coaching-site-backend/internal/models"
	"coaching-site-backend/internal/resource"
)

type SingletonHandler struct {
	singleton *resource.Singleton
	maxBytes  int64
	logger    *slog.Logger
}

func NewSingletonHandler(singleton *resource.Singleton, maxBytes int64, logger *slog.Logger) *SingletonHandler {
	return &SingletonHandler{
		singleton: singleton,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Get godoc
// @Summary     Get a singleton setting
// @Tags        settings
// @Produce     json
// @Param       setting path string true "Setting path" Enums(current-banner, pricing, site-title, contact)
// @Success     200 {object} map[string]interface{}
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/{setting} [get]
func (h *SingletonHandler) Get(c *gin.Context) {
	rec, err := h.singleton.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Replace godoc
// @Summary     Replace a singleton setting
// @Description Sets the whole setting. Omitted optional fields are cleared; when no file is sent the current one is kept.
// @Tags        settings
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       setting path string true "Setting path"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/{setting} [put]
func (h *SingletonHandler) Replace(c *gin.Context) {
	in, err := readInput(c, h.singleton.Descriptor(), h.maxBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.singleton.Replace(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Clear godoc
// @Summary     Clear a singleton setting
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Param       setting path string true "Setting path"
// @Success     200 {object} models.MessageResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/{setting} [delete]
func (h *SingletonHandler) Clear(c *gin.Context) {
	if err := h.singleton.Clear(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("%s cleared", h.singleton.Descriptor().Name),
	})
}
