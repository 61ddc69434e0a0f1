package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/otd-mx/ordenes-api/middleware"
	"github.com/otd-mx/ordenes-api/models"
	"github.com/otd-mx/ordenes-api/services"
	"github.com/otd-mx/ordenes-api/utils"
	"go.uber.org/zap"
)

// ListOrders handles GET /api/v1/orders - lists the log, narrowed by the
// optional status, priority and requested_by query parameters
func ListOrders(c *gin.Context) {
	set, err := services.GetOrderStore().Load(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filter := filterFromQuery(c)
	orders := services.FilterOrders(set, filter)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"meta": gin.H{
			"count": len(orders),
			"total": len(set),
		},
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	orderID := c.Param("id")

	set, err := services.GetOrderStore().Load(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	order, ok := set.Find(orderID)
	if !ok {
		respondServiceError(c, &services.NotFoundError{OrderID: orderID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrderFilters handles GET /api/v1/orders/filters - values offered by the filter controls
func GetOrderFilters(c *gin.Context) {
	set, err := services.GetOrderStore().Load(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.FilterOptionsFor(set),
	})
}

// GetNextOrderID handles GET /api/v1/orders/next-id
func GetNextOrderID(c *gin.Context) {
	orderID, err := services.GetOrderStore().NextOrderID(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"order_id": orderID},
	})
}

// OrderFormDefaults is what a client needs to render the creation form
type OrderFormDefaults struct {
	OrderID      string              `json:"order_id"`
	DateRequired models.Date         `json:"date_required"`
	DateDesired  models.Date         `json:"date_desired"`
	RequestedBy  string              `json:"requested_by"`
	Departments  []models.Department `json:"departments"`
	Priorities   []models.Priority   `json:"priorities"`
	WorkTypes    []models.WorkType   `json:"work_types"`
	Placeholder  string              `json:"placeholder"`
}

// GetOrderForm handles GET /api/v1/orders/form - creation form pre-filled with the next order number.
// "Requerido por" is pre-filled from Auth0 when the caller sends a token.
func GetOrderForm(c *gin.Context) {
	orderID, err := services.GetOrderStore().NextOrderID(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	today := utils.Today()
	defaults := OrderFormDefaults{
		OrderID:      orderID,
		DateRequired: today,
		DateDesired:  today,
		Departments:  models.Departments,
		Priorities:   models.Priorities,
		WorkTypes:    models.WorkTypes,
		Placeholder:  models.UnselectedLabel,
	}

	if auth0 := services.GetAuth0Service(); auth0 != nil {
		if token := middleware.BearerToken(c); token != "" {
			info, err := auth0.GetUserInfo(c.Request.Context(), token)
			if err != nil {
				zap.L().Warn("could not pre-fill requester", zap.Error(err))
			} else {
				defaults.RequestedBy = info.DisplayName()
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    defaults,
	})
}

// CreateOrder handles POST /api/v1/orders - validates the form and appends the order to the log
func CreateOrder(c *gin.Context) {
	var form services.OrderForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}

	draft, ve := services.ParseOrderForm(form)
	if ve != nil {
		respondValidationError(c, ve)
		return
	}

	order, err := services.GetOrderStore().Insert(c.Request.Context(), draft)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("Order '%s' saved", order.OrderID),
		"data":    order,
	})
}

// UpdateOrder handles PATCH /api/v1/orders/:id - edits status, completion date and notes
func UpdateOrder(c *gin.Context) {
	orderID := c.Param("id")

	var form services.OrderChangesForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}

	changes, ve := services.ParseOrderChanges(form)
	if ve != nil {
		respondValidationError(c, ve)
		return
	}

	order, err := services.GetOrderStore().Update(c.Request.Context(), orderID, changes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Order '%s' updated", order.OrderID),
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/orders/:id - removes the order permanently
func DeleteOrder(c *gin.Context) {
	orderID := c.Param("id")

	if err := services.GetOrderStore().Delete(c.Request.Context(), orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Order '%s' deleted", orderID),
		"data":    gin.H{"order_id": orderID},
	})
}

// ExportOrders handles GET /api/v1/orders/export - downloads the filtered log as xlsx, csv or pdf
func ExportOrders(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	if format != "xlsx" && format != "csv" && format != "pdf" {
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx, csv or pdf")
		return
	}

	store := services.GetOrderStore()
	set, err := store.Load(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	orders := services.FilterOrders(set, filterFromQuery(c))

	filename := "ordenes-" + utils.Today().String() + "." + format
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := services.ExportCSV(&buf, orders); err != nil {
			zap.L().Error("csv export failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export orders")
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	case "pdf":
		var buf bytes.Buffer
		if err := services.ExportPDF(&buf, orders, services.DefaultTitle); err != nil {
			zap.L().Error("pdf export failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export orders")
			return
		}
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
		return
	}

	data, err := services.ExportXLSX(orders, store.Sheet())
	if err != nil {
		zap.L().Error("xlsx export failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export orders")
		return
	}
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// filterFromQuery reads repeated parameters (?status=a&status=b). Values are
// matched exactly, so a comma is part of the value.
func filterFromQuery(c *gin.Context) services.OrderFilter {
	return services.OrderFilter{
		Statuses:    queryValues(c, "status"),
		Priorities:  queryValues(c, "priority"),
		RequestedBy: queryValues(c, "requested_by"),
	}
}

func queryValues(c *gin.Context, key string) []string {
	var values []string
	for _, v := range c.QueryArray(key) {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
