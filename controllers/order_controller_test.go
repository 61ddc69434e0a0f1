package controllers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/otd-mx/ordenes-api/config"
	"github.com/otd-mx/ordenes-api/middleware"
	"github.com/otd-mx/ordenes-api/models"
	"github.com/otd-mx/ordenes-api/services"
	"github.com/otd-mx/ordenes-api/tests/testutil"
	"github.com/otd-mx/ordenes-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func fixToday(t *testing.T, year int, month time.Month, day int) {
	t.Helper()
	previous := utils.Now
	utils.Now = func() time.Time { return time.Date(year, month, day, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { utils.Now = previous })
}

func performRequest(router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func TestCreateOrder(t *testing.T) {
	fixToday(t, 2024, time.May, 6)

	validBody := func() map[string]interface{} {
		return map[string]interface{}{
			"requested_by": "Ana López",
			"department":   "Producción",
			"priority":     "Media",
			"work_type":    "Impresión 3D",
			"description":  "Soporte de sensor",
		}
	}

	tests := []struct {
		name           string
		seed           []models.Order
		requestBody    interface{}
		expectedStatus int
		expectedError  string
		expectedWrites int
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:           "first order of an empty log",
			requestBody:    validBody(),
			expectedStatus: http.StatusCreated,
			expectedWrites: 1,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				assert.Equal(t, "Order 'OTD-MX-0001' saved", response["message"])
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "OTD-MX-0001", data["order_id"])
				assert.Equal(t, "Pendiente", data["status"])
				assert.Equal(t, "2024-05-06", data["date_required"])
				assert.Equal(t, "2024-05-06", data["date_desired"])
				assert.Nil(t, data["date_completed"])
			},
		},
		{
			name:           "id follows the highest existing one",
			seed:           []models.Order{testutil.SampleOrder("OTD-MX-0003"), testutil.SampleOrder("OTD-MX-0010")},
			requestBody:    validBody(),
			expectedStatus: http.StatusCreated,
			expectedWrites: 1,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "OTD-MX-0011", data["order_id"])
			},
		},
		{
			name: "explicit id already taken",
			seed: []models.Order{testutil.SampleOrder("OTD-MX-0001")},
			requestBody: func() map[string]interface{} {
				b := validBody()
				b["order_id"] = "OTD-MX-0001"
				return b
			}(),
			expectedStatus: http.StatusConflict,
			expectedError:  "ORDER_EXISTS",
		},
		{
			name: "every missing field is reported",
			requestBody: map[string]interface{}{
				"department": "--- Selecciona ---",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t,
					"missing required fields: Requerido por, Departamento, Prioridad, Tipo de trabajo, Descripción de trabajo",
					errorData["message"])
				assert.Len(t, errorData["fields"], 5)
			},
		},
		{
			name: "unknown priority label",
			requestBody: func() map[string]interface{} {
				b := validBody()
				b["priority"] = "Urgente"
				return b
			}(),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "description over the size cap",
			requestBody: func() map[string]interface{} {
				b := validBody()
				b["description"] = strings.Repeat("x", 2001)
				return b
			}(),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_REQUEST",
		},
		{
			name:           "malformed JSON",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, storage := testutil.NewMockStore(t, tt.seed...)

			router := setupTestRouter()
			router.POST("/orders", CreateOrder)

			w, response := performRequest(router, http.MethodPost, "/orders", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedWrites, storage.Writes())

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestCreateOrder_StorageFailure(t *testing.T) {
	_, storage := testutil.NewMockStore(t)
	storage.WriteErr = errors.New("disk full")

	router := setupTestRouter()
	router.POST("/orders", CreateOrder)

	w, response := performRequest(router, http.MethodPost, "/orders", map[string]interface{}{
		"requested_by": "Ana López",
		"department":   "NPI",
		"priority":     "Baja",
		"work_type":    "Dibujo",
		"description":  "Plano de gabinete",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "STORAGE_WRITE_ERROR", response["error"].(map[string]interface{})["code"])
}

func TestCreateOrder_RequiresWriteScope(t *testing.T) {
	tests := []struct {
		name           string
		scopes         []string
		expectedStatus int
	}{
		{name: "write scope", scopes: []string{"read:orders", middleware.ScopeWriteOrders}, expectedStatus: http.StatusCreated},
		{name: "read only", scopes: []string{"read:orders"}, expectedStatus: http.StatusForbidden},
		{name: "no scopes", scopes: nil, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, storage := testutil.NewMockStore(t)

			router := setupTestRouter()
			router.POST("/orders",
				func(c *gin.Context) {
					testutil.SetMockAuthContext(c, "auth0|designer", "https://tenant.auth0.com/", tt.scopes)
				},
				middleware.RequireScope(middleware.ScopeWriteOrders),
				CreateOrder,
			)

			w, _ := performRequest(router, http.MethodPost, "/orders", map[string]interface{}{
				"requested_by": "Ana López",
				"department":   "Seguridad",
				"priority":     "Alta",
				"work_type":    "PLC",
				"description":  "Interlock de puerta",
			})

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, 1, storage.Writes())
			} else {
				assert.Equal(t, 0, storage.Writes())
			}
		})
	}
}

func TestListOrders(t *testing.T) {
	high := testutil.SampleOrder("OTD-MX-0001")
	low := testutil.SampleOrder("OTD-MX-0002")
	low.Priority = models.PriorityLow
	lowDone := testutil.SampleOrder("OTD-MX-0003")
	lowDone.Priority = models.PriorityLow
	lowDone.Status = models.StatusCompleted

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
	}{
		{name: "no filter", query: "", expectedIDs: []string{"OTD-MX-0001", "OTD-MX-0002", "OTD-MX-0003"}},
		{name: "single priority", query: "?priority=Baja", expectedIDs: []string{"OTD-MX-0002", "OTD-MX-0003"}},
		{name: "repeated parameter", query: "?priority=Alta&priority=Baja", expectedIDs: []string{"OTD-MX-0001", "OTD-MX-0002", "OTD-MX-0003"}},
		{name: "comma is not a separator", query: "?status=Pendiente,Completado", expectedIDs: []string{}},
		{name: "empty value is ignored", query: "?status=", expectedIDs: []string{"OTD-MX-0001", "OTD-MX-0002", "OTD-MX-0003"}},
		{name: "fields combine with AND", query: "?priority=Baja&status=Completado", expectedIDs: []string{"OTD-MX-0003"}},
		{name: "no match", query: "?requested_by=Nadie", expectedIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.NewMockStore(t, high, low, lowDone)

			router := setupTestRouter()
			router.GET("/orders", ListOrders)

			w, response := performRequest(router, http.MethodGet, "/orders"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			ids := []string{}
			for _, item := range response["data"].([]interface{}) {
				ids = append(ids, item.(map[string]interface{})["order_id"].(string))
			}
			assert.Equal(t, tt.expectedIDs, ids)

			meta := response["meta"].(map[string]interface{})
			assert.Equal(t, float64(len(tt.expectedIDs)), meta["count"])
			assert.Equal(t, float64(3), meta["total"])
		})
	}
}

func TestListOrders_RequesterWithComma(t *testing.T) {
	ana := testutil.SampleOrder("OTD-MX-0001")
	ana.RequestedBy = "López, Ana"
	luis := testutil.SampleOrder("OTD-MX-0002")
	luis.RequestedBy = "Pérez, Luis"
	testutil.NewMockStore(t, ana, luis)

	router := setupTestRouter()
	router.GET("/orders", ListOrders)
	router.GET("/orders/filters", GetOrderFilters)

	_, response := performRequest(router, http.MethodGet, "/orders/filters", nil)
	options := response["data"].(map[string]interface{})
	require.Equal(t, []interface{}{"López, Ana", "Pérez, Luis"}, options["requested_by"])

	tests := []struct {
		name        string
		query       url.Values
		expectedIDs []string
	}{
		{name: "one name", query: url.Values{"requested_by": {"López, Ana"}}, expectedIDs: []string{"OTD-MX-0001"}},
		{name: "both names", query: url.Values{"requested_by": {"López, Ana", "Pérez, Luis"}}, expectedIDs: []string{"OTD-MX-0001", "OTD-MX-0002"}},
		{name: "part of a name", query: url.Values{"requested_by": {"López"}}, expectedIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := performRequest(router, http.MethodGet, "/orders?"+tt.query.Encode(), nil)
			require.Equal(t, http.StatusOK, w.Code)

			ids := []string{}
			for _, item := range response["data"].([]interface{}) {
				ids = append(ids, item.(map[string]interface{})["order_id"].(string))
			}
			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, float64(len(tt.expectedIDs)), response["meta"].(map[string]interface{})["count"])
		})
	}
}

func TestGetOrder(t *testing.T) {
	testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-0007"))

	router := setupTestRouter()
	router.GET("/orders/:id", GetOrder)

	w, response := performRequest(router, http.MethodGet, "/orders/OTD-MX-0007", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "OTD-MX-0007", data["order_id"])
	assert.Equal(t, "Ingeniería", data["department"])
	assert.Equal(t, "2024-03-01", data["date_required"])

	w, response = performRequest(router, http.MethodGet, "/orders/OTD-MX-0008", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", response["error"].(map[string]interface{})["code"])
}

func TestGetNextOrderID(t *testing.T) {
	testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-9999"), testutil.SampleOrder("legacy-12"))

	router := setupTestRouter()
	router.GET("/orders/next-id", GetNextOrderID)

	w, response := performRequest(router, http.MethodGet, "/orders/next-id", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OTD-MX-10000", response["data"].(map[string]interface{})["order_id"])
}

func TestGetOrderFilters(t *testing.T) {
	first := testutil.SampleOrder("OTD-MX-0001")
	second := testutil.SampleOrder("OTD-MX-0002")
	second.RequestedBy = "Luis Pérez"
	second.Priority = models.PriorityMedium
	testutil.NewMockStore(t, first, second)

	router := setupTestRouter()
	router.GET("/orders/filters", GetOrderFilters)

	w, response := performRequest(router, http.MethodGet, "/orders/filters", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Pendiente"}, data["status"])
	assert.Equal(t, []interface{}{"Alta", "Media"}, data["priority"])
	assert.Equal(t, []interface{}{"Ana López", "Luis Pérez"}, data["requested_by"])
}

func TestGetOrderForm(t *testing.T) {
	fixToday(t, 2024, time.June, 3)

	t.Run("defaults without Auth0", func(t *testing.T) {
		testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-0004"))
		services.SetAuth0Service(nil)

		router := setupTestRouter()
		router.GET("/orders/form", GetOrderForm)

		w, response := performRequest(router, http.MethodGet, "/orders/form", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "OTD-MX-0005", data["order_id"])
		assert.Equal(t, "2024-06-03", data["date_required"])
		assert.Equal(t, "2024-06-03", data["date_desired"])
		assert.Equal(t, "", data["requested_by"])
		assert.Equal(t, "--- Selecciona ---", data["placeholder"])
		assert.Len(t, data["departments"], 6)
		assert.Len(t, data["priorities"], 3)
		assert.Len(t, data["work_types"], 7)
	})

	t.Run("requester pre-filled from userinfo", func(t *testing.T) {
		testutil.NewMockStore(t)

		userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/userinfo", r.URL.Path)
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sub":"auth0|1","email":"ana@example.com","name":"Ana López"}`))
		}))
		defer userinfo.Close()

		services.SetAuth0Service(services.NewAuth0Service(&config.Config{Auth0Domain: userinfo.URL}))
		t.Cleanup(func() { services.SetAuth0Service(nil) })

		router := setupTestRouter()
		router.GET("/orders/form", GetOrderForm)

		req, _ := http.NewRequest(http.MethodGet, "/orders/form", nil)
		req.Header.Set("Authorization", "Bearer token-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "OTD-MX-0001", data["order_id"])
		assert.Equal(t, "Ana López", data["requested_by"])
	})
}

func TestUpdateOrder(t *testing.T) {
	tests := []struct {
		name           string
		orderID        string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		expectedWrites int
		checkResponse  func(t *testing.T, data map[string]interface{})
	}{
		{
			name:           "complete an order",
			orderID:        "OTD-MX-0001",
			requestBody:    map[string]interface{}{"status": "Completado", "date_completed": "2024-04-02"},
			expectedStatus: http.StatusOK,
			expectedWrites: 1,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "Completado", data["status"])
				assert.Equal(t, "2024-04-02", data["date_completed"])
				assert.Equal(t, "Fixtura de ensamble", data["description"])
			},
		},
		{
			name:           "notes only",
			orderID:        "OTD-MX-0001",
			requestBody:    map[string]interface{}{"notes": "Esperando material"},
			expectedStatus: http.StatusOK,
			expectedWrites: 1,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, "Pendiente", data["status"])
				assert.Equal(t, "Esperando material", data["notes"])
			},
		},
		{
			name:           "unknown status label",
			orderID:        "OTD-MX-0001",
			requestBody:    map[string]interface{}{"status": "Cancelado"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "notes over the size cap",
			orderID:        "OTD-MX-0001",
			requestBody:    map[string]interface{}{"notes": strings.Repeat("n", 2001)},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_REQUEST",
		},
		{
			name:           "nothing to change",
			orderID:        "OTD-MX-0001",
			requestBody:    map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "missing order",
			orderID:        "OTD-MX-0099",
			requestBody:    map[string]interface{}{"status": "En Progreso"},
			expectedStatus: http.StatusNotFound,
			expectedError:  "ORDER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, storage := testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-0001"))

			router := setupTestRouter()
			router.PATCH("/orders/:id", UpdateOrder)

			w, response := performRequest(router, http.MethodPatch, "/orders/"+tt.orderID, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedWrites, storage.Writes())
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, response["error"].(map[string]interface{})["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response["data"].(map[string]interface{}))
			}
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	store, storage := testutil.NewMockStore(t,
		testutil.SampleOrder("OTD-MX-0001"),
		testutil.SampleOrder("OTD-MX-0002"),
	)

	router := setupTestRouter()
	router.DELETE("/orders/:id", DeleteOrder)

	w, response := performRequest(router, http.MethodDelete, "/orders/OTD-MX-0001", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order 'OTD-MX-0001' deleted", response["message"])
	assert.Equal(t, 1, storage.Writes())

	set, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"OTD-MX-0002"}, set.IDs())

	w, _ = performRequest(router, http.MethodDelete, "/orders/OTD-MX-0001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, storage.Writes())
}

func TestExportOrders(t *testing.T) {
	fixToday(t, 2024, time.July, 1)

	done := testutil.SampleOrder("OTD-MX-0002")
	done.Status = models.StatusCompleted
	done.DateCompleted = models.NewDate(2024, 3, 20).Ptr()

	t.Run("csv", func(t *testing.T) {
		testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-0001"), done)

		router := setupTestRouter()
		router.GET("/orders/export", ExportOrders)

		req, _ := http.NewRequest(http.MethodGet, "/orders/export?format=csv&status=Completado", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=ordenes-2024-07-01.csv", w.Header().Get("Content-Disposition"))

		records, err := csv.NewReader(w.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, services.Columns, records[0])
		assert.Equal(t, "OTD-MX-0002", records[1][0])
		assert.Equal(t, "2024-03-20", records[1][10])
	})

	t.Run("xlsx", func(t *testing.T) {
		testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-0001"), done)

		router := setupTestRouter()
		router.GET("/orders/export", ExportOrders)

		req, _ := http.NewRequest(http.MethodGet, "/orders/export", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(services.DefaultSheetName)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, services.DefaultTitle, rows[0][0])
		assert.Equal(t, services.ColumnOrderID, rows[1][0])
		assert.Equal(t, "OTD-MX-0001", rows[2][0])
		assert.Equal(t, "OTD-MX-0002", rows[3][0])
	})

	t.Run("pdf", func(t *testing.T) {
		testutil.NewMockStore(t, testutil.SampleOrder("OTD-MX-0001"), done)

		router := setupTestRouter()
		router.GET("/orders/export", ExportOrders)

		req, _ := http.NewRequest(http.MethodGet, "/orders/export?format=pdf", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=ordenes-2024-07-01.pdf", w.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("unknown format", func(t *testing.T) {
		testutil.NewMockStore(t)

		router := setupTestRouter()
		router.GET("/orders/export", ExportOrders)

		w, response := performRequest(router, http.MethodGet, "/orders/export?format=docx", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FORMAT", response["error"].(map[string]interface{})["code"])
	})
}
