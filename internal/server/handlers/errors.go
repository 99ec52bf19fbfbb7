package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
	"github.com/mamadbah2/logidash/internal/service/forms"
	"github.com/mamadbah2/logidash/internal/service/records"
)

// respondError maps service errors onto HTTP statuses. message is the fixed
// operator-facing text of the failed operation.
func respondError(c *gin.Context, logger *zap.Logger, err error, message string) {
	var fields forms.FieldErrors
	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
	case errors.Is(err, models.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": message, "detail": err.Error()})
	case errors.Is(err, records.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": message, "detail": err.Error()})
	case errors.Is(err, forms.ErrSubmitting):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": message})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func badBody(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
