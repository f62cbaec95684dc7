package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingService 订单/预约服务（创建时准入，确认支付时生成结算记录）
type BookingService struct {
	offerRepo      repository.OfferRepository
	bookingRepo    repository.BookingRepository
	settlementRepo repository.SettlementRepository
	vendorRepo     repository.VendorRepository
	admission      *AdmissionService
	resolver       RateResolver
	settings       *CommissionSettingsService
	settlements    *SettlementService
	now            func() time.Time
}

// BookingServiceDeps 预订服务依赖
type BookingServiceDeps struct {
	OfferRepo      repository.OfferRepository
	BookingRepo    repository.BookingRepository
	SettlementRepo repository.SettlementRepository
	VendorRepo     repository.VendorRepository
	Admission      *AdmissionService
	Resolver       RateResolver
	Settings       *CommissionSettingsService
	Settlements    *SettlementService
}

// NewBookingService 创建预订服务
func NewBookingService(deps BookingServiceDeps) *BookingService {
	return &BookingService{
		offerRepo:      deps.OfferRepo,
		bookingRepo:    deps.BookingRepo,
		settlementRepo: deps.SettlementRepo,
		vendorRepo:     deps.VendorRepo,
		admission:      deps.Admission,
		resolver:       deps.Resolver,
		settings:       deps.Settings,
		settlements:    deps.Settlements,
		now:            time.Now,
	}
}

// CreateBookingInput 创建订单/预约输入
type CreateBookingInput struct {
	OfferID         uint
	Day             string
	Quantity        int
	PaymentType     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	TimeSlot        string
	NumberOfPersons int
}

// ConfirmPaymentInput 确认支付输入
type ConfirmPaymentInput struct {
	Kind        string
	ID          uint
	PaymentType string
	PaidAmount  *models.Money
	PaidAt      *time.Time
	AdminID     uint
}

// ConfirmPaymentResult 确认支付结果
type ConfirmPaymentResult struct {
	Kind       string                   `json:"kind"`
	BookingID  uint                     `json:"booking_id"`
	Reference  string                   `json:"reference"`
	Settlement *models.SettlementRecord `json:"settlement"`
	Created    bool                     `json:"created"`
}

// Availability 查询某优惠某日剩余容量
func (s *BookingService) Availability(offerID uint, day string, quantity int) (*AdmissionDecision, error) {
	if quantity == 0 {
		quantity = 1
	}
	return s.admission.CanAdmit(offerID, day, quantity)
}

// CreateOrder 创建订单
func (s *BookingService) CreateOrder(ctx context.Context, input CreateBookingInput) (*models.Order, error) {
	offer, fields, err := s.prepareBooking(input, constants.OrderReferencePrefix)
	if err != nil {
		return nil, err
	}
	order := &models.Order{BookingFields: *fields}
	err = s.bookingRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.bookingRepo.WithTx(tx)
		if _, err := s.admission.admitInTx(repoTx, offer, fields.BookingDay, fields.Quantity); err != nil {
			return err
		}
		return repoTx.CreateOrder(order)
	})
	if err != nil {
		logger.FromContext(ctx).Infow("booking_create_rejected", "kind", constants.BookingKindOrder, "offer_id", input.OfferID, "day", input.Day, "error", err)
		return nil, err
	}
	logger.FromContext(ctx).Infow("booking_created", "kind", constants.BookingKindOrder, "id", order.ID, "reference", order.Reference)
	return order, nil
}

// CreateReservation 创建预约
func (s *BookingService) CreateReservation(ctx context.Context, input CreateBookingInput) (*models.Reservation, error) {
	offer, fields, err := s.prepareBooking(input, constants.ReservationReferencePrefix)
	if err != nil {
		return nil, err
	}
	persons := input.NumberOfPersons
	if persons <= 0 {
		persons = 1
	}
	reservation := &models.Reservation{
		BookingFields:   *fields,
		TimeSlot:        strings.TrimSpace(input.TimeSlot),
		NumberOfPersons: persons,
	}
	err = s.bookingRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.bookingRepo.WithTx(tx)
		if _, err := s.admission.admitInTx(repoTx, offer, fields.BookingDay, fields.Quantity); err != nil {
			return err
		}
		return repoTx.CreateReservation(reservation)
	})
	if err != nil {
		logger.FromContext(ctx).Infow("booking_create_rejected", "kind", constants.BookingKindReservation, "offer_id", input.OfferID, "day", input.Day, "error", err)
		return nil, err
	}
	logger.FromContext(ctx).Infow("booking_created", "kind", constants.BookingKindReservation, "id", reservation.ID, "reference", reservation.Reference)
	return reservation, nil
}

func (s *BookingService) prepareBooking(input CreateBookingInput, prefix string) (*models.Offer, *models.BookingFields, error) {
	if input.Quantity < 1 {
		return nil, nil, ErrQuantityInvalid
	}
	day, err := ParseDay(input.Day)
	if err != nil {
		return nil, nil, err
	}
	paymentType, err := NormalizePaymentType(input.PaymentType)
	if err != nil {
		return nil, nil, err
	}
	offer, err := s.offerRepo.GetByID(input.OfferID)
	if err != nil {
		return nil, nil, err
	}
	if offer == nil {
		return nil, nil, ErrOfferNotFound
	}
	if !offer.IsActive {
		return nil, nil, ErrOfferInactive
	}
	if offer.MaxQuantityPerBooking != nil && *offer.MaxQuantityPerBooking > 0 && input.Quantity > *offer.MaxQuantityPerBooking {
		return nil, nil, ErrMaxQuantityExceeded
	}
	if paymentType == constants.PaymentTypePartial && !offer.AllowsPartialPayment {
		return nil, nil, ErrPartialPaymentNotAllowed
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" && !isValidEmail(email) {
		return nil, nil, ErrInvalidEmail
	}

	total := models.NewMoneyFromDecimal(offer.Price.Decimal.Mul(decimal.NewFromInt(int64(input.Quantity))))
	amountDue := total
	if paymentType == constants.PaymentTypePartial && offer.PartialPaymentPercent.IsPositive() {
		amountDue = total.Percent(offer.PartialPaymentPercent)
	}
	return offer, &models.BookingFields{
		Reference:      newBookingReference(prefix, s.now()),
		OfferID:        offer.ID,
		VendorID:       offer.VendorID,
		CategoryID:     offer.CategoryID,
		BookingDay:     day.Format(models.BookingDayLayout),
		Quantity:       input.Quantity,
		UnitPrice:      offer.Price,
		TotalAmountTTC: total,
		PaymentType:    paymentType,
		AmountDue:      amountDue,
		PaidAmount:     models.ZeroMoney(),
		Status:         constants.BookingStatusPending,
		CustomerName:   strings.TrimSpace(input.CustomerName),
		CustomerEmail:  strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:  strings.TrimSpace(input.CustomerPhone),
	}, nil
}

// amountDueFor 后台改写支付类型时重新校验优惠是否允许部分支付，并换算应付金额
func (s *BookingService) amountDueFor(fields *models.BookingFields, paymentType string) (models.Money, error) {
	if paymentType == fields.PaymentType {
		return fields.AmountDue, nil
	}
	if paymentType == constants.PaymentTypeFull {
		return fields.TotalAmountTTC, nil
	}
	offer, err := s.offerRepo.GetByID(fields.OfferID)
	if err != nil {
		return models.Money{}, err
	}
	if offer == nil {
		return models.Money{}, ErrOfferNotFound
	}
	if !offer.AllowsPartialPayment {
		return models.Money{}, ErrPartialPaymentNotAllowed
	}
	if offer.PartialPaymentPercent.IsPositive() {
		return fields.TotalAmountTTC.Percent(offer.PartialPaymentPercent), nil
	}
	return fields.TotalAmountTTC, nil
}

// CancelBooking 取消未支付的订单/预约并归还每日容量
func (s *BookingService) CancelBooking(ctx context.Context, kind string, id uint) error {
	kind, err := normalizeBookingKind(kind)
	if err != nil {
		return err
	}
	err = s.bookingRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.bookingRepo.WithTx(tx)
		fields, err := lockBooking(repoTx, kind, id)
		if err != nil {
			return err
		}
		switch fields.Status {
		case constants.BookingStatusCancelled:
			return nil
		case constants.BookingStatusPaid:
			return ErrBookingStatusInvalid
		}
		now := s.now()
		if err := updateBooking(repoTx, kind, id, map[string]interface{}{
			"status":       constants.BookingStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return err
		}
		return s.admission.releaseInTx(repoTx, fields.OfferID, fields.BookingDay, fields.Quantity)
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("booking_cancelled", "kind", kind, "id", id)
	return nil
}

// ConfirmPayment 确认支付并生成结算记录，重复确认返回已存在的记录
func (s *BookingService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	kind, err := normalizeBookingKind(input.Kind)
	if err != nil {
		return nil, err
	}
	fields, err := s.loadBooking(kind, input.ID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.existingSettlement(s.settlementRepo, kind, input.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return &ConfirmPaymentResult{Kind: kind, BookingID: input.ID, Reference: fields.Reference, Settlement: existing}, nil
	}
	if fields.Status == constants.BookingStatusCancelled {
		return nil, ErrBookingStatusInvalid
	}

	paymentType := fields.PaymentType
	if strings.TrimSpace(input.PaymentType) != "" {
		if paymentType, err = NormalizePaymentType(input.PaymentType); err != nil {
			return nil, err
		}
	}
	amountDue, err := s.amountDueFor(fields, paymentType)
	if err != nil {
		return nil, err
	}
	paidAmount := amountDue
	if input.PaidAmount != nil {
		paidAmount = *input.PaidAmount
		if paidAmount.IsNegative() || paidAmount.GreaterThan(fields.TotalAmountTTC.Decimal) {
			return nil, fmt.Errorf("%w: paid %s total %s", ErrPaymentAmountMismatch, paidAmount.String(), fields.TotalAmountTTC.String())
		}
	}

	// 费率、全局配置与商家快照均在事务外读取，事务内只使用事务连接
	resolution, err := s.resolver.Resolve(ctx, fields.VendorID, fields.CategoryID, paymentType)
	if err != nil {
		logger.FromContext(ctx).Warnw("settlement_rate_resolve_failed", "kind", kind, "id", input.ID, "error", err)
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	vendor, err := s.vendorRepo.GetByID(fields.VendorID)
	if err != nil {
		return nil, err
	}

	paidAt := s.now()
	if input.PaidAt != nil && !input.PaidAt.IsZero() {
		paidAt = *input.PaidAt
	}
	result := &ConfirmPaymentResult{Kind: kind, BookingID: input.ID, Reference: fields.Reference}
	err = s.bookingRepo.Transaction(func(tx *gorm.DB) error {
		bookingTx := s.bookingRepo.WithTx(tx)
		settlementTx := s.settlementRepo.WithTx(tx)
		locked, err := lockBooking(bookingTx, kind, input.ID)
		if err != nil {
			return err
		}
		if existing, err := s.existingSettlement(settlementTx, kind, input.ID); err != nil {
			return err
		} else if existing != nil {
			result.Settlement = existing
			return nil
		}
		if locked.Status == constants.BookingStatusCancelled {
			return ErrBookingStatusInvalid
		}
		record, err := s.settlements.createForBookingInTx(settlementTx, SettlementDraft{
			Kind:         kind,
			BookingID:    input.ID,
			Booking:      *locked,
			PaymentType:  paymentType,
			PaymentDate:  paidAt,
			Resolution:   *resolution,
			VatRate:      settings.VatRate,
			Vendor:       vendor,
			DebitAccount: settings.SettlementBankAccount,
			AdminID:      adminIDPtr(input.AdminID),
		})
		if err != nil {
			return err
		}
		if err := updateBooking(bookingTx, kind, input.ID, map[string]interface{}{
			"status":       constants.BookingStatusPaid,
			"payment_type": paymentType,
			"paid_amount":  paidAmount,
			"paid_at":      paidAt,
		}); err != nil {
			return err
		}
		result.Settlement = record
		result.Created = true
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Errorw("booking_confirm_payment_failed", "kind", kind, "id", input.ID, "error", err)
		return nil, err
	}
	if result.Created {
		logger.FromContext(ctx).Infow("settlement_created",
			"kind", kind,
			"booking_id", input.ID,
			"settlement_id", result.Settlement.ID,
			"rate", result.Settlement.CommissionRateApplied.String(),
			"rate_source", result.Settlement.RateSource,
		)
	}
	return result, nil
}

// ConfirmPaymentByReference 按预订编号确认支付（支付网关回调使用），校验实付金额
func (s *BookingService) ConfirmPaymentByReference(ctx context.Context, reference string, paidAmount models.Money, paidAt time.Time) (*ConfirmPaymentResult, error) {
	kind, id, fields, err := s.findByReference(reference)
	if err != nil {
		return nil, err
	}
	if !paidAmount.Decimal.Equal(fields.AmountDue.Decimal) {
		return nil, fmt.Errorf("%w: expected %s got %s", ErrPaymentAmountMismatch, fields.AmountDue.String(), paidAmount.String())
	}
	return s.ConfirmPayment(ctx, ConfirmPaymentInput{
		Kind:       kind,
		ID:         id,
		PaidAmount: &paidAmount,
		PaidAt:     &paidAt,
	})
}

func (s *BookingService) findByReference(reference string) (string, uint, *models.BookingFields, error) {
	reference = strings.TrimSpace(reference)
	switch {
	case strings.HasPrefix(reference, constants.ReservationReferencePrefix+"-"):
		reservation, err := s.bookingRepo.GetReservationByReference(reference)
		if err != nil {
			return "", 0, nil, err
		}
		if reservation == nil {
			return "", 0, nil, ErrBookingNotFound
		}
		return constants.BookingKindReservation, reservation.ID, &reservation.BookingFields, nil
	case strings.HasPrefix(reference, constants.OrderReferencePrefix+"-"):
		order, err := s.bookingRepo.GetOrderByReference(reference)
		if err != nil {
			return "", 0, nil, err
		}
		if order == nil {
			return "", 0, nil, ErrBookingNotFound
		}
		return constants.BookingKindOrder, order.ID, &order.BookingFields, nil
	default:
		return "", 0, nil, ErrBookingNotFound
	}
}

func (s *BookingService) loadBooking(kind string, id uint) (*models.BookingFields, error) {
	if kind == constants.BookingKindReservation {
		reservation, err := s.bookingRepo.GetReservationByID(id)
		if err != nil {
			return nil, err
		}
		if reservation == nil {
			return nil, ErrBookingNotFound
		}
		return &reservation.BookingFields, nil
	}
	order, err := s.bookingRepo.GetOrderByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrBookingNotFound
	}
	return &order.BookingFields, nil
}

func (s *BookingService) existingSettlement(repo repository.SettlementRepository, kind string, id uint) (*models.SettlementRecord, error) {
	if kind == constants.BookingKindReservation {
		return repo.GetByReservationID(id)
	}
	return repo.GetByOrderID(id)
}

func lockBooking(repoTx repository.BookingRepository, kind string, id uint) (*models.BookingFields, error) {
	if kind == constants.BookingKindReservation {
		reservation, err := repoTx.GetReservationForUpdate(id)
		if err != nil {
			return nil, err
		}
		if reservation == nil {
			return nil, ErrBookingNotFound
		}
		return &reservation.BookingFields, nil
	}
	order, err := repoTx.GetOrderForUpdate(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrBookingNotFound
	}
	return &order.BookingFields, nil
}

func updateBooking(repoTx repository.BookingRepository, kind string, id uint, updates map[string]interface{}) error {
	if kind == constants.BookingKindReservation {
		return repoTx.UpdateReservationFields(id, updates)
	}
	return repoTx.UpdateOrderFields(id, updates)
}

func normalizeBookingKind(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case constants.BookingKindOrder, "orders":
		return constants.BookingKindOrder, nil
	case constants.BookingKindReservation, "reservations":
		return constants.BookingKindReservation, nil
	default:
		return "", ErrBookingKindInvalid
	}
}

// newBookingReference 生成预订编号：前缀-日期-随机串
func newBookingReference(prefix string, now time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), token)
}
