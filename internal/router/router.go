package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blane-next/internal/authz"
	"github.com/blane-next/internal/cache"
	"github.com/blane-next/internal/config"
	adminhandlers "github.com/blane-next/internal/http/handlers/admin"
	publichandlers "github.com/blane-next/internal/http/handlers/public"
	handlershared "github.com/blane-next/internal/http/handlers/shared"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) (*gin.Engine, error) {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bn"
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	callbackLimiter, err := CallbackRateLimitMiddleware(cfg.Security.CallbackRateLimit)
	if err != nil {
		return nil, err
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 前台公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/offers/:id/availability", publicHandler.GetOfferAvailability)
			public.POST("/orders", publicHandler.CreateOrder)
			public.POST("/reservations", publicHandler.CreateReservation)
		}

		// 支付网关回调（签名校验，无需登录）
		payments := apiV1.Group("/payments")
		{
			payments.POST("/cmi/callback", callbackLimiter, publicHandler.CMICallback)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(cache.Client(), adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/profile", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.ChangeAdminPassword)
				// 仅超级管理员（内置角色均无该策略）
				authorized.PUT("/admins/:id/roles", adminHandler.SetAdminRoles)
				authorized.GET("/permissions/catalog", func(ctx *gin.Context) {
					handlershared.Success(ctx, buildAdminPermissionCatalog(r))
				})

				// 佣金费率
				authorized.GET("/commission-rates", adminHandler.ListCommissionRates)
				authorized.POST("/commission-rates", adminHandler.CreateCommissionRate)
				authorized.GET("/commission-rates/resolve", adminHandler.ResolveCommissionRate)
				authorized.GET("/commission-rates/:id", adminHandler.GetCommissionRate)
				authorized.PUT("/commission-rates/:id", adminHandler.UpdateCommissionRate)
				authorized.POST("/commission-rates/:id/deactivate", adminHandler.DeactivateCommissionRate)
				authorized.GET("/commission-settings", adminHandler.GetCommissionSettings)
				authorized.PUT("/commission-settings", adminHandler.UpdateCommissionSettings)
				authorized.GET("/vendors/:id/effective-rates", adminHandler.GetVendorEffectiveRates)
				authorized.PUT("/vendors/:id/custom-commission-rate", adminHandler.UpdateVendorCustomRate)

				// 结算
				authorized.GET("/settlements", adminHandler.ListSettlements)
				authorized.GET("/settlements/dashboard", adminHandler.GetSettlementDashboard)
				authorized.POST("/settlements/mark-processed", adminHandler.MarkSettlementsProcessed)
				authorized.POST("/settlements/mark-complete", adminHandler.MarkSettlementsComplete)
				authorized.GET("/settlements/:id", adminHandler.GetSettlement)
				authorized.GET("/settlements/:id/logs", adminHandler.GetSettlementLogs)
				authorized.POST("/settlements/:id/revert", adminHandler.RevertSettlement)
				authorized.PATCH("/settlements/:id", adminHandler.UpdateSettlement)
				authorized.PATCH("/settlements/:id/dates", adminHandler.UpdateSettlementDates)

				// 银行转账报表
				authorized.GET("/banking-report", adminHandler.GetBankingReport)
				authorized.GET("/banking-report/export", adminHandler.ExportBankingReport)

				// 预订支付确认与取消
				authorized.POST("/bookings/:kind/:id/confirm-payment", adminHandler.ConfirmBookingPayment)
				authorized.POST("/bookings/:kind/:id/cancel", adminHandler.CancelBooking)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(ctx *gin.Context) {
		status := "ok"
		if models.DB != nil {
			if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
				status = "degraded"
			}
		}
		ctx.JSON(200, gin.H{"status": status, "redis": cache.Enabled()})
	})

	return r, nil
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 由已注册的后台路由生成权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") || item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// /admin/commission-rates/:id -> commission-rates
func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) >= 2 && segments[0] == "admin" {
		return segments[1]
	}
	return segments[0]
}
