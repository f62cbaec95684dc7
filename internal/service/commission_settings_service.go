package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/blane-next/internal/cache"
	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	defaultPartialCommissionRate = decimal.NewFromInt(10)
	defaultVatRate               = decimal.NewFromInt(20)
)

// CommissionSettingsService 佣金全局配置服务
// 配置为单行，进程内与 Redis 各缓存一份，更新后统一失效并重新加载。
type CommissionSettingsService struct {
	repo     repository.CommissionSettingsRepository
	defaults config.SettlementConfig
	ttl      time.Duration

	mu       sync.RWMutex
	current  *models.CommissionSettings
	loadedAt time.Time
	now      func() time.Time
}

// NewCommissionSettingsService 创建佣金配置服务
func NewCommissionSettingsService(repo repository.CommissionSettingsRepository, defaults config.SettlementConfig) *CommissionSettingsService {
	ttl := time.Duration(defaults.SettingsCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CommissionSettingsService{repo: repo, defaults: defaults, ttl: ttl, now: time.Now}
}

// CommissionSettingsInput 佣金配置更新输入（空字段不修改）
type CommissionSettingsInput struct {
	PartialPaymentCommissionRate *decimal.Decimal
	VatRate                      *decimal.Decimal
	SettlementBankName           *string
	SettlementBankAccount        *string
	TransferProcessingDay        *string
	FinanceEmail                 *string
}

// Get 获取佣金配置（进程缓存 -> Redis -> 数据库，必要时按默认值创建）
// 进程缓存与 Redis 使用同一 ttl，其他进程的修改最迟一个 ttl 后可见。
func (s *CommissionSettingsService) Get(ctx context.Context) (*models.CommissionSettings, error) {
	s.mu.RLock()
	current := s.current
	fresh := current != nil && s.now().Sub(s.loadedAt) < s.ttl
	s.mu.RUnlock()
	if fresh {
		copied := *current
		return &copied, nil
	}
	return s.Reload(ctx)
}

// Reload 丢弃进程缓存并重新加载
func (s *CommissionSettingsService) Reload(ctx context.Context) (*models.CommissionSettings, error) {
	if cached, hit, err := cache.GetCommissionSettings(ctx); err != nil {
		logger.Warnw("commission_settings_cache_get_failed", "error", err)
	} else if hit {
		s.store(cached)
		copied := *cached
		return &copied, nil
	}

	settings, err := s.repo.GetOrCreate(s.defaultSettings())
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("commission settings unavailable")
	}
	if err := cache.SetCommissionSettings(ctx, settings, s.ttl); err != nil {
		logger.Warnw("commission_settings_cache_set_failed", "error", err)
	}
	s.store(settings)
	copied := *settings
	return &copied, nil
}

// Invalidate 失效进程缓存与 Redis 缓存
func (s *CommissionSettingsService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := cache.DelCommissionSettings(ctx); err != nil {
		logger.Warnw("commission_settings_cache_del_failed", "error", err)
	}
}

// Update 更新佣金配置
func (s *CommissionSettingsService) Update(ctx context.Context, adminID uint, input CommissionSettingsInput) (*models.CommissionSettings, error) {
	settings, err := s.repo.GetOrCreate(s.defaultSettings())
	if err != nil {
		return nil, err
	}

	if input.PartialPaymentCommissionRate != nil {
		if err := validatePercent(*input.PartialPaymentCommissionRate); err != nil {
			return nil, err
		}
		settings.PartialPaymentCommissionRate = input.PartialPaymentCommissionRate.Round(2)
	}
	if input.VatRate != nil {
		if err := validatePercent(*input.VatRate); err != nil {
			return nil, err
		}
		settings.VatRate = input.VatRate.Round(2)
	}
	if input.SettlementBankName != nil {
		settings.SettlementBankName = strings.TrimSpace(*input.SettlementBankName)
	}
	if input.SettlementBankAccount != nil {
		settings.SettlementBankAccount = strings.TrimSpace(*input.SettlementBankAccount)
	}
	if input.TransferProcessingDay != nil {
		if _, err := ParseTransferDay(*input.TransferProcessingDay); err != nil {
			return nil, err
		}
		settings.TransferProcessingDay = strings.ToLower(strings.TrimSpace(*input.TransferProcessingDay))
	}
	if input.FinanceEmail != nil {
		email := strings.TrimSpace(*input.FinanceEmail)
		if email != "" && !isValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		settings.FinanceEmail = email
	}
	if adminID != 0 {
		settings.UpdatedBy = &adminID
	}

	if err := s.repo.Save(settings); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return s.Reload(ctx)
}

func (s *CommissionSettingsService) store(settings *models.CommissionSettings) {
	copied := *settings
	s.mu.Lock()
	s.current = &copied
	s.loadedAt = s.now()
	s.mu.Unlock()
}

func (s *CommissionSettingsService) defaultSettings() models.CommissionSettings {
	day := strings.ToLower(strings.TrimSpace(s.defaults.TransferProcessingDay))
	if _, err := ParseTransferDay(day); err != nil {
		day = "monday"
	}
	return models.CommissionSettings{
		PartialPaymentCommissionRate: parsePercentOr(s.defaults.PartialPaymentCommissionRate, defaultPartialCommissionRate),
		VatRate:                      parsePercentOr(s.defaults.VatRate, defaultVatRate),
		SettlementBankName:           strings.TrimSpace(s.defaults.BankName),
		SettlementBankAccount:        strings.TrimSpace(s.defaults.BankAccount),
		TransferProcessingDay:        day,
		FinanceEmail:                 strings.TrimSpace(s.defaults.FinanceEmail),
	}
}

func parsePercentOr(raw string, fallback decimal.Decimal) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || validatePercent(value) != nil {
		return fallback
	}
	return value.Round(2)
}

func validatePercent(value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: %s", ErrCommissionRateInvalid, value.String())
	}
	return nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
