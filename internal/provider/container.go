package provider

import (
	"github.com/blane-next/internal/authz"
	"github.com/blane-next/internal/cache"
	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/queue"
	"github.com/blane-next/internal/repository"
	"github.com/blane-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo              repository.AdminRepository
	VendorRepo             repository.VendorRepository
	CategoryRepo           repository.CategoryRepository
	OfferRepo              repository.OfferRepository
	BookingRepo            repository.BookingRepository
	SettlementRepo         repository.SettlementRepository
	CommissionRateRepo     repository.CommissionRateRepository
	CommissionSettingsRepo repository.CommissionSettingsRepository

	// Services
	AuthzService              *authz.Service
	AuthService               *service.AuthService
	EmailService              *service.EmailService
	CommissionSettingsService *service.CommissionSettingsService
	CommissionService         *service.CommissionService
	AdmissionService          *service.AdmissionService
	SettlementService         *service.SettlementService
	BookingService            *service.BookingService
	BankingReportService      *service.BankingReportService
	NotificationService       *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.VendorRepo = repository.NewVendorRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.BookingRepo = repository.NewBookingRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
	c.CommissionRateRepo = repository.NewCommissionRateRepository(db)
	c.CommissionSettingsRepo = repository.NewCommissionSettingsRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config.JWT, c.AdminRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CommissionSettingsService = service.NewCommissionSettingsService(c.CommissionSettingsRepo, c.Config.Settlement)
	c.CommissionService = service.NewCommissionService(c.CommissionRateRepo, c.VendorRepo, c.CategoryRepo, c.CommissionSettingsService)
	c.AdmissionService = service.NewAdmissionService(c.OfferRepo, c.BookingRepo)
	c.SettlementService = service.NewSettlementService(c.SettlementRepo, c.QueueClient)
	c.BookingService = service.NewBookingService(service.BookingServiceDeps{
		OfferRepo:      c.OfferRepo,
		BookingRepo:    c.BookingRepo,
		SettlementRepo: c.SettlementRepo,
		VendorRepo:     c.VendorRepo,
		Admission:      c.AdmissionService,
		Resolver:       c.CommissionService,
		Settings:       c.CommissionSettingsService,
		Settlements:    c.SettlementService,
	})
	c.BankingReportService = service.NewBankingReportService(c.SettlementRepo, c.VendorRepo, c.CommissionSettingsService, c.Config.Report)
	c.NotificationService = service.NewNotificationService(
		c.SettlementRepo,
		c.VendorRepo,
		c.CommissionSettingsService,
		c.BankingReportService,
		c.EmailService,
		c.QueueClient,
	)
}
