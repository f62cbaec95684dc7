package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/provider"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type handlerTestEnv struct {
	handler  *Handler
	engine   *gin.Engine
	offer    *models.Offer
	category *models.Category
	vendor   *models.Vendor
}

type testEnvelope struct {
	Status  bool            `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.MigrateWith(db))
	previous := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = previous
		_ = sqlDB.Close()
	})

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "handler-test-secret", ExpireHours: 1},
		Settlement: config.SettlementConfig{
			PartialPaymentCommissionRate: "12",
			VatRate:                      "20",
			BankAccount:                  "PLATFORM-RIB",
			TransferProcessingDay:        "monday",
		},
	}
	h := New(provider.NewContainer(cfg))

	vendor := &models.Vendor{CompanyName: "riad", Email: "riad@example.com", Status: constants.VendorStatusActive, BankAccount: "RIB-RIAD"}
	require.NoError(t, h.VendorRepo.Create(vendor))
	category := &models.Category{Slug: "stay", Name: "Stay"}
	require.NoError(t, h.CategoryRepo.Create(category))
	offer := &models.Offer{VendorID: vendor.ID, CategoryID: category.ID, Title: "nuit", Price: models.MustMoney("400.00"), IsActive: true}
	require.NoError(t, h.OfferRepo.Create(offer))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_id", uint(1))
		c.Next()
	})
	r.GET("/settlements", h.ListSettlements)
	r.GET("/settlements/:id", h.GetSettlement)
	r.POST("/settlements/mark-processed", h.MarkSettlementsProcessed)
	r.POST("/settlements/mark-complete", h.MarkSettlementsComplete)
	r.POST("/settlements/:id/revert", h.RevertSettlement)
	r.PATCH("/settlements/:id", h.UpdateSettlement)
	r.PATCH("/settlements/:id/dates", h.UpdateSettlementDates)
	r.GET("/banking-report", h.GetBankingReport)
	r.GET("/banking-report/export", h.ExportBankingReport)
	r.POST("/commission-rates", h.CreateCommissionRate)
	r.GET("/commission-rates/resolve", h.ResolveCommissionRate)
	r.PUT("/vendors/:id/custom-commission-rate", h.UpdateVendorCustomRate)
	r.POST("/bookings/:kind/:id/confirm-payment", h.ConfirmBookingPayment)
	r.POST("/bookings/:kind/:id/cancel", h.CancelBooking)

	return &handlerTestEnv{handler: h, engine: r, offer: offer, category: category, vendor: vendor}
}

func (env *handlerTestEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	var resp testEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

// paidSettlement 创建默认费率、下单并确认支付
func (env *handlerTestEnv) paidSettlement(t *testing.T) *models.SettlementRecord {
	t.Helper()
	w, _ := env.do(t, http.MethodPost, "/commission-rates", gin.H{"category_id": env.category.ID, "commission_rate": "15"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order, err := env.handler.BookingService.CreateOrder(t.Context(), service.CreateBookingInput{
		OfferID:  env.offer.ID,
		Day:      "2026-03-18",
		Quantity: 1,
	})
	require.NoError(t, err)
	w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/bookings/order/%d/confirm-payment", order.ID), gin.H{"paid_at": "2026-03-18"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result service.ConfirmPaymentResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.True(t, result.Created)
	return result.Settlement
}

func TestCreateCommissionRateValidation(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/commission-rates", gin.H{"category_id": env.category.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, string(resp.Errors), "commission_rate")

	w, _ = env.do(t, http.MethodPost, "/commission-rates", gin.H{"category_id": env.category.ID, "commission_rate": "140"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestResolveCommissionRateEndpoint(t *testing.T) {
	env := setupHandlerTestEnv(t)

	path := fmt.Sprintf("/commission-rates/resolve?vendor_id=%d&category_id=%d", env.vendor.ID, env.category.ID)
	w, _ := env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "full payment without rate is reported")

	w, _ = env.do(t, http.MethodGet, path+"&payment_type=partial", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), constants.RateSourceGlobalFallback)

	w, _ = env.do(t, http.MethodGet, "/commission-rates/resolve?vendor_id=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVendorCustomRateCanBeCleared(t *testing.T) {
	env := setupHandlerTestEnv(t)
	path := fmt.Sprintf("/vendors/%d/custom-commission-rate", env.vendor.ID)

	w, resp := env.do(t, http.MethodPut, path, gin.H{"custom_commission_rate": "7.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(resp.Data), `"custom_commission_rate":"7.5"`)

	w, resp = env.do(t, http.MethodPut, path, gin.H{"custom_commission_rate": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(resp.Data), `"custom_commission_rate":null`)
}

func TestSettlementWorkflowEndpoints(t *testing.T) {
	env := setupHandlerTestEnv(t)
	record := env.paidSettlement(t)
	assert.Equal(t, constants.SettlementStatusPending, record.TransferStatus)
	assert.Equal(t, "2026-03-16", record.WeekStart)

	w, resp := env.do(t, http.MethodPost, "/settlements/mark-processed", gin.H{"ids": []uint{record.ID, 777}, "transfer_date": "2026-03-23"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1 settlement(s) processed", resp.Message)
	var bulk service.BulkTransitionResult
	require.NoError(t, json.Unmarshal(resp.Data, &bulk))
	assert.Equal(t, []uint{777}, bulk.SkippedIDs)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/settlements/%d/revert", record.ID), gin.H{"note": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/settlements/%d/revert", record.ID), gin.H{"note": "wrong RIB"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = env.do(t, http.MethodPost, "/settlements/mark-complete", gin.H{"ids": []uint{record.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodPatch, fmt.Sprintf("/settlements/%d", record.ID), gin.H{"transfer_status": "complete"})
	assert.Equal(t, http.StatusConflict, w.Code, "pending -> complete is not a legal transition")

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/settlements/%d", record.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		TransferStatus string               `json:"transfer_status"`
		Logs           []models.SettlementLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, constants.SettlementStatusPending, detail.TransferStatus)
	assert.Len(t, detail.Logs, 3)
}

func TestUpdateSettlementDatesEndpoint(t *testing.T) {
	env := setupHandlerTestEnv(t)
	record := env.paidSettlement(t)

	w, _ := env.do(t, http.MethodPatch, fmt.Sprintf("/settlements/%d/dates", record.ID), gin.H{"payment_date": "not-a-date"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, resp := env.do(t, http.MethodPatch, fmt.Sprintf("/settlements/%d/dates", record.ID), gin.H{"payment_date": "2026-04-02T09:30:00Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(resp.Data), `"week_start":"2026-03-30"`)
}

func TestListSettlementsPagination(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.paidSettlement(t)

	w, _ := env.do(t, http.MethodGet, "/settlements?transfer_status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/settlements?per_page=10&transfer_status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []models.SettlementRecord `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			PerPage int   `json:"per_page"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.EqualValues(t, 1, resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.PerPage)
}

func TestExportBankingReportEndpoint(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.paidSettlement(t)

	w, _ := env.do(t, http.MethodGet, "/banking-report/export?week_start=2026-03-16&format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.Contains(w.Body.String(), "RIB-RIAD"))

	w, _ = env.do(t, http.MethodGet, "/banking-report/export?week_start=2026-03-16&format=pdf", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	env := setupHandlerTestEnv(t)
	order, err := env.handler.BookingService.CreateOrder(t.Context(), service.CreateBookingInput{
		OfferID:  env.offer.ID,
		Day:      "2026-03-18",
		Quantity: 1,
	})
	require.NoError(t, err)

	w, _ := env.do(t, http.MethodPost, fmt.Sprintf("/bookings/ticket/%d/cancel", order.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/bookings/order/%d/cancel", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/bookings/order/%d/confirm-payment", order.ID), gin.H{})
	assert.Equal(t, http.StatusConflict, w.Code)
}
