package service

import (
	"fmt"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"
)

// AdmissionDecision 容量检查结果
type AdmissionDecision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// AdmissionService 每日容量准入服务
type AdmissionService struct {
	offerRepo   repository.OfferRepository
	bookingRepo repository.BookingRepository
}

// NewAdmissionService 创建准入服务
func NewAdmissionService(offerRepo repository.OfferRepository, bookingRepo repository.BookingRepository) *AdmissionService {
	return &AdmissionService{offerRepo: offerRepo, bookingRepo: bookingRepo}
}

// decideAdmission 根据容量配置与已占用数量判定是否准入
// capacity 为空不限制；为 0 永不准入。
func decideAdmission(capacity *int, committed int64, requested int) AdmissionDecision {
	if capacity == nil {
		return AdmissionDecision{Allowed: true, Remaining: constants.AdmissionUnlimitedRemaining, Unlimited: true}
	}
	remaining := int64(*capacity) - committed
	if remaining < 0 {
		remaining = 0
	}
	return AdmissionDecision{
		Allowed:   *capacity > 0 && int64(requested) <= remaining,
		Remaining: int(remaining),
	}
}

// CanAdmit 只读检查某优惠某日是否可再预订 requested 份
func (s *AdmissionService) CanAdmit(offerID uint, day string, requested int) (*AdmissionDecision, error) {
	if requested < 1 {
		return nil, ErrQuantityInvalid
	}
	if _, err := ParseDay(day); err != nil {
		return nil, err
	}
	offer, err := s.offerRepo.GetByID(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if offer.DailyCapacity == nil {
		decision := decideAdmission(nil, 0, requested)
		return &decision, nil
	}
	committed, err := s.bookingRepo.SumActiveQuantity(offerID, day)
	if err != nil {
		return nil, err
	}
	decision := decideAdmission(offer.DailyCapacity, committed, requested)
	return &decision, nil
}

// admitInTx 在预订事务内加锁检查容量，通过后占用数量
// 行锁串行化同一优惠同一天的并发写入，剩余量以未取消预订的 SUM 为准。
func (s *AdmissionService) admitInTx(repoTx repository.BookingRepository, offer *models.Offer, day string, requested int) (AdmissionDecision, error) {
	if offer.DailyCapacity == nil {
		return decideAdmission(nil, 0, requested), nil
	}
	if _, err := repoTx.LockDailyUsage(offer.ID, day); err != nil {
		return AdmissionDecision{}, err
	}
	committed, err := repoTx.SumActiveQuantity(offer.ID, day)
	if err != nil {
		return AdmissionDecision{}, err
	}
	decision := decideAdmission(offer.DailyCapacity, committed, requested)
	if !decision.Allowed {
		return decision, &AdmissionDeniedError{
			OfferID:   offer.ID,
			Day:       day,
			Requested: requested,
			Remaining: decision.Remaining,
		}
	}
	if err := repoTx.AdjustDailyUsage(offer.ID, day, requested); err != nil {
		return decision, fmt.Errorf("reserve daily usage: %w", err)
	}
	decision.Remaining -= requested
	return decision, nil
}

// releaseInTx 取消预订时归还占用数量
func (s *AdmissionService) releaseInTx(repoTx repository.BookingRepository, offerID uint, day string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return repoTx.AdjustDailyUsage(offerID, day, -quantity)
}
