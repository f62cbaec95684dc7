package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/blane-next/internal/authz"
	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/payment/cmi"
	"github.com/blane-next/internal/provider"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testStoreKey = "router-test-store-key"

type routerTestEnv struct {
	engine    *gin.Engine
	container *provider.Container
	db        *gorm.DB
}

type envelope struct {
	Status  bool            `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouterTestEnv(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	previous := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = previous
		_ = sqlDB.Close()
	})

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{SecretKey: "router-test-secret", ExpireHours: 1},
		Settlement: config.SettlementConfig{
			PartialPaymentCommissionRate: "12",
			VatRate:                      "20",
			BankAccount:                  "PLATFORM-RIB",
			TransferProcessingDay:        "monday",
		},
		CMI: config.CMIConfig{StoreKey: testStoreKey},
	}
	container := provider.NewContainer(cfg)
	engine, err := SetupRouter(cfg, container)
	if err != nil {
		t.Fatalf("setup router failed: %v", err)
	}
	return &routerTestEnv{engine: engine, container: container, db: db}
}

func (env *routerTestEnv) createAdmin(t *testing.T, username string, isSuper bool, roles ...string) *models.Admin {
	t.Helper()
	hash, err := service.HashPassword("password-123")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{Username: username, PasswordHash: hash, IsSuper: isSuper}
	if err := env.container.AdminRepo.Create(admin); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if len(roles) > 0 {
		if err := env.container.AuthzService.SetAdminRoles(admin.ID, roles); err != nil {
			t.Fatalf("set roles failed: %v", err)
		}
	}
	return admin
}

func (env *routerTestEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	var resp envelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (env *routerTestEnv) login(t *testing.T, username string) string {
	t.Helper()
	w, resp := env.do(t, http.MethodPost, "/api/v1/admin/login", "", gin.H{"username": username, "password": "password-123"})
	if w.Code != http.StatusOK || !resp.Status {
		t.Fatalf("login %s failed: %d %s", username, w.Code, w.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("token missing in login response: %s", w.Body.String())
	}
	return data.Token
}

func (env *routerTestEnv) seedCatalog(t *testing.T) *models.Offer {
	t.Helper()
	vendor := &models.Vendor{CompanyName: "hammam", Email: "hammam@example.com", Status: constants.VendorStatusActive, BankAccount: "RIB-HAMMAM"}
	if err := env.container.VendorRepo.Create(vendor); err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	category := &models.Category{Slug: "spa", Name: "Spa"}
	if err := env.container.CategoryRepo.Create(category); err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	offer := &models.Offer{
		VendorID:   vendor.ID,
		CategoryID: category.ID,
		Title:      "hammam traditionnel",
		Price:      models.MustMoney("250.00"),
		IsActive:   true,
	}
	if err := env.container.OfferRepo.Create(offer); err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	if _, err := env.container.CommissionService.CreateRate(1, service.CreateCommissionRateInput{
		CategoryID:     category.ID,
		CommissionRate: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("create rate failed: %v", err)
	}
	return offer
}

func TestHealthEndpoint(t *testing.T) {
	env := setupRouterTestEnv(t)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := setupRouterTestEnv(t)
	w, resp := env.do(t, http.MethodGet, "/api/v1/admin/settlements", "", nil)
	if w.Code != http.StatusUnauthorized || resp.Code != 401 {
		t.Fatalf("want 401 got %d %s", w.Code, w.Body.String())
	}
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	env := setupRouterTestEnv(t)
	env.createAdmin(t, "root", true)
	w, resp := env.do(t, http.MethodPost, "/api/v1/admin/login", "", gin.H{"username": "root", "password": "nope"})
	if w.Code != http.StatusUnauthorized || resp.Status {
		t.Fatalf("want 401 got %d %s", w.Code, w.Body.String())
	}
}

func TestAdminRBACByBuiltinRole(t *testing.T) {
	env := setupRouterTestEnv(t)
	env.createAdmin(t, "root", true)
	auditor := env.createAdmin(t, "auditor", false, authz.RoleReadonlyAuditor)
	env.createAdmin(t, "operator", false, authz.RoleSettlementOperator)

	auditorToken := env.login(t, "auditor")
	operatorToken := env.login(t, "operator")
	rootToken := env.login(t, "root")

	if w, _ := env.do(t, http.MethodGet, "/api/v1/admin/settlements", auditorToken, nil); w.Code != http.StatusOK {
		t.Fatalf("auditor list settlements want 200 got %d %s", w.Code, w.Body.String())
	}
	if w, _ := env.do(t, http.MethodPost, "/api/v1/admin/settlements/mark-processed", auditorToken, gin.H{"ids": []uint{1}}); w.Code != http.StatusForbidden {
		t.Fatalf("auditor mark-processed want 403 got %d", w.Code)
	}
	// 不存在的记录被跳过，但权限校验已通过
	w, resp := env.do(t, http.MethodPost, "/api/v1/admin/settlements/mark-processed", operatorToken, gin.H{"ids": []uint{42}})
	if w.Code != http.StatusOK || !resp.Status {
		t.Fatalf("operator mark-processed want 200 got %d %s", w.Code, w.Body.String())
	}
	if w, _ := env.do(t, http.MethodPut, "/api/v1/admin/commission-settings", operatorToken, gin.H{"vat_rate": "20"}); w.Code != http.StatusForbidden {
		t.Fatalf("operator update settings want 403 got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/admins/%d/roles", auditor.ID), operatorToken, gin.H{"roles": []string{authz.RoleFinance}}); w.Code != http.StatusForbidden {
		t.Fatalf("operator set roles want 403 got %d", w.Code)
	}

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/admins/%d/roles", auditor.ID), rootToken, gin.H{"roles": []string{authz.RoleFinance}})
	if w.Code != http.StatusOK {
		t.Fatalf("super set roles want 200 got %d %s", w.Code, w.Body.String())
	}
	w, _ = env.do(t, http.MethodPut, "/api/v1/admin/commission-settings", auditorToken, gin.H{"vat_rate": "20"})
	if w.Code != http.StatusOK {
		t.Fatalf("finance update settings want 200 got %d %s", w.Code, w.Body.String())
	}

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/admins/%d/roles", auditor.ID), rootToken, gin.H{"roles": []string{"janitor"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown role want 422 got %d %s", w.Code, w.Body.String())
	}
}

func TestPasswordChangeRevokesToken(t *testing.T) {
	env := setupRouterTestEnv(t)
	env.createAdmin(t, "root", true)
	token := env.login(t, "root")

	w, _ := env.do(t, http.MethodPut, "/api/v1/admin/password", token, gin.H{"old_password": "password-123", "new_password": "password-456"})
	if w.Code != http.StatusOK {
		t.Fatalf("change password want 200 got %d %s", w.Code, w.Body.String())
	}
	w, _ = env.do(t, http.MethodGet, "/api/v1/admin/profile", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old token want 401 got %d", w.Code)
	}
}

func signedCallbackForm(params map[string]string) url.Values {
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("HASH", cmi.ComputeHash(testStoreKey, params))
	return form
}

func postCallback(env *routerTestEnv, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/cmi/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func TestCMICallbackConfirmsOrder(t *testing.T) {
	env := setupRouterTestEnv(t)
	offer := env.seedCatalog(t)

	w, resp := env.do(t, http.MethodPost, "/api/v1/public/orders", "", gin.H{
		"offer_id":      offer.ID,
		"date":          "2026-03-20",
		"quantity":      2,
		"customer_name": "Salma",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order want 201 got %d %s", w.Code, w.Body.String())
	}
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("decode order failed: %v", err)
	}

	tampered := signedCallbackForm(map[string]string{
		"oid": order.Reference, "amount": "500.00", "ProcReturnCode": "00", "Response": "Approved",
	})
	tampered.Set("amount", "1.00")
	if w := postCallback(env, tampered); w.Body.String() != constants.CMICallbackFail {
		t.Fatalf("tampered callback want FAILURE got %q", w.Body.String())
	}

	mismatch := signedCallbackForm(map[string]string{
		"oid": order.Reference, "amount": "499.00", "ProcReturnCode": "00", "Response": "Approved",
	})
	if w := postCallback(env, mismatch); w.Body.String() != constants.CMICallbackFail {
		t.Fatalf("amount mismatch want FAILURE got %q", w.Body.String())
	}

	approved := signedCallbackForm(map[string]string{
		"oid": order.Reference, "amount": "500,00", "ProcReturnCode": "00", "Response": "Approved", "TransId": "T-1",
	})
	if w := postCallback(env, approved); w.Code != http.StatusOK || w.Body.String() != constants.CMICallbackSuccess {
		t.Fatalf("approved callback want ACTION=POSTAUTH got %d %q", w.Code, w.Body.String())
	}
	// 重复回调幂等
	if w := postCallback(env, approved); w.Body.String() != constants.CMICallbackSuccess {
		t.Fatalf("replayed callback want ACTION=POSTAUTH got %q", w.Body.String())
	}

	var count int64
	if err := env.db.Model(&models.SettlementRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count settlements failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("settlement count want 1 got %d", count)
	}
}

func TestPublicAvailability(t *testing.T) {
	env := setupRouterTestEnv(t)
	offer := env.seedCatalog(t)

	w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/public/offers/%d/availability?date=2026-03-20&quantity=3", offer.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("availability want 200 got %d %s", w.Code, w.Body.String())
	}
	var decision struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.Unmarshal(resp.Data, &decision); err != nil {
		t.Fatalf("decode decision failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("unlimited offer should allow booking")
	}

	if w, _ := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/public/offers/%d/availability?date=2026-03-20&quantity=-2", offer.ID), "", nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative quantity want 422 got %d", w.Code)
	}
}

func TestPermissionCatalogListsAdminRoutes(t *testing.T) {
	env := setupRouterTestEnv(t)
	items := buildAdminPermissionCatalog(env.engine)
	found := false
	for _, item := range items {
		if item.Permission == "POST:/admin/settlements/mark-processed" {
			found = item.Module == "settlements"
		}
		if item.Object == "/admin/login" {
			t.Fatalf("login route should not be in catalog")
		}
	}
	if !found {
		t.Fatalf("mark-processed permission missing from catalog")
	}
}
