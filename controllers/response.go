package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/otd-mx/ordenes-api/services"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps store errors onto HTTP responses
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		persistErr    *services.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		respondValidationError(c, validationErr)
	case errors.As(err, &notFoundErr):
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", notFoundErr.Error())
	case errors.As(err, &conflictErr):
		respondError(c, http.StatusConflict, "ORDER_EXISTS", conflictErr.Error())
	case errors.As(err, &persistErr):
		zap.L().Error("order log write failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "STORAGE_WRITE_ERROR",
			"Failed to save the order log; reload before retrying")
	default:
		zap.L().Error("order log read failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to read the order log")
	}
}

func respondValidationError(c *gin.Context, ve *services.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": ve.Error(),
			"fields":  ve.Fields,
		},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INVALID_REQUEST",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}
