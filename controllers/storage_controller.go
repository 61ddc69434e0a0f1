package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/otd-mx/ordenes-api/services"
	"go.uber.org/zap"
)

// StorageStatus handles GET /api/v1/storage/status - reports whether the workbook can be read
func StorageStatus(c *gin.Context) {
	store := services.GetOrderStore()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_NOT_CONFIGURED",
				"message": "Workbook storage is not configured",
			},
		})
		return
	}

	set, err := store.Load(c.Request.Context())
	if err != nil {
		zap.L().Warn("storage status check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": err.Error(),
			},
			"data": gin.H{
				"location": store.Storage().Describe(),
				"sheet":    store.Sheet(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":   "connected",
			"location": store.Storage().Describe(),
			"sheet":    store.Sheet(),
			"orders":   len(set),
		},
	})
}

// DownloadWorkbook handles GET /api/v1/workbook - serves the persisted workbook as-is.
// S3 storages redirect to a presigned URL instead of proxying the bytes
// once the object is known to exist.
func DownloadWorkbook(c *gin.Context) {
	storage := services.GetOrderStore().Storage()

	if presigner, ok := storage.(services.PresignedURLProvider); ok {
		exists, err := presigner.WorkbookExists(c.Request.Context())
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if !exists {
			respondError(c, http.StatusNotFound, "WORKBOOK_NOT_FOUND", "No orders have been saved yet")
			return
		}

		url, err := presigner.GetPresignedURL(c.Request.Context())
		if err == nil {
			c.Redirect(http.StatusTemporaryRedirect, url)
			return
		}
		zap.L().Warn("presigned URL unavailable, streaming workbook", zap.Error(err))
	}

	data, err := storage.ReadWorkbook(c.Request.Context())
	if errors.Is(err, services.ErrWorkbookNotFound) {
		respondError(c, http.StatusNotFound, "WORKBOOK_NOT_FOUND", "No orders have been saved yet")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := "ordenes.xlsx"
	if local, ok := storage.(*services.LocalWorkbookStorage); ok {
		filename = filepath.Base(local.Path())
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
