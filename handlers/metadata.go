package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"petrel/clients"
	metadataRepo "petrel/database/repository/metadata"
	"petrel/middleware"
	"petrel/models"
	metadata "petrel/services/metadata"
	"petrel/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetadataHandler exposes the metadata service over HTTP.
type MetadataHandler struct {
	Service metadata.MetadataService
}

func NewMetadataHandler(service metadata.MetadataService) *MetadataHandler {
	return &MetadataHandler{Service: service}
}

// StatusHandler handles GET /status. A ?status=NNN parameter forces that
// response code, which exists so deployment tooling can probe error handling.
func (h *MetadataHandler) StatusHandler(c *gin.Context) {
	if forced := c.Query("status"); forced != "" {
		code, err := strconv.Atoi(forced)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status override"})
			return
		}
		c.Status(code)
		return
	}

	status := h.Service.Status(c.Request.Context())
	code := http.StatusOK
	if !status.Running {
		code = http.StatusInternalServerError
	}
	c.JSON(code, gin.H{"up": status.Up, "down": status.Down})
}

// CollectionsHandler handles GET /collections.
func (h *MetadataHandler) CollectionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Collections())
}

// ListUsersHandler handles GET /users/:userid/users.
func (h *MetadataHandler) ListUsersHandler(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	query, err := metadata.ParseUsersQuery(c.Request.URL.Query())
	if err != nil {
		utils.GetLogger().Warn("invalid users query", zap.Error(err))
		respondError(c, err)
		return
	}

	views, err := h.Service.ListUsers(c.Request.Context(), session, c.Param("userid"), query)
	if err != nil {
		utils.GetLogger().Error("failed to list users",
			zap.String("targetUserId", c.Param("userid")), zap.Error(err))
		respondError(c, err)
		return
	}
	if views == nil {
		views = []*models.RelatedUserView{}
	}
	c.JSON(http.StatusOK, views)
}

// GetCollectionHandler handles GET /:userid/:collection.
func (h *MetadataHandler) GetCollectionHandler(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	value, err := h.Service.GetCollection(c.Request.Context(), session, c.Param("userid"), c.Param("collection"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

// UpdateCollectionHandler handles POST/PUT /:userid/:collection.
func (h *MetadataHandler) UpdateCollectionHandler(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Must have a body", err.Error())
		return
	}

	value, err := h.Service.UpdateCollection(c.Request.Context(), c.Param("userid"), c.Param("collection"), fields)
	if err != nil {
		utils.GetLogger().Error("failed to update collection",
			zap.String("userId", c.Param("userid")),
			zap.String("collection", c.Param("collection")), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}

// DeleteCollectionHandler handles DELETE /:userid/:collection.
func (h *MetadataHandler) DeleteCollectionHandler(c *gin.Context) {
	respondError(c, h.Service.DeleteCollection(c.Request.Context(), c.Param("userid"), c.Param("collection")))
}

// GetPrivatePairHandler handles GET /:userid/private/:name.
func (h *MetadataHandler) GetPrivatePairHandler(c *gin.Context) {
	pair, err := h.Service.GetPrivatePair(c.Request.Context(), c.Param("userid"), c.Param("name"))
	if err != nil {
		utils.GetLogger().Error("failed to get private pair",
			zap.String("userId", c.Param("userid")),
			zap.String("name", c.Param("name")), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// DeletePrivatePairHandler handles DELETE /:userid/private/:name.
func (h *MetadataHandler) DeletePrivatePairHandler(c *gin.Context) {
	respondError(c, h.Service.DeletePrivatePair(c.Request.Context(), c.Param("userid"), c.Param("name")))
}

// respondError maps the service error taxonomy onto HTTP. Upstream failures
// surface the collaborator's status code verbatim.
func respondError(c *gin.Context, err error) {
	var validationErr *metadata.ValidationError
	var statusErr *clients.StatusError

	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: validationErr.Reason})
	case errors.Is(err, metadataRepo.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, metadataRepo.ErrConflict):
		c.JSON(http.StatusConflict, utils.ErrorResponse{Message: "already exists"})
	case errors.Is(err, metadataRepo.ErrUnauthorized):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, metadata.ErrNotImplemented):
		c.Status(http.StatusNotImplemented)
	case errors.As(err, &statusErr):
		c.Status(statusErr.Code)
	default:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{Message: "Internal Server Error"})
	}
}
