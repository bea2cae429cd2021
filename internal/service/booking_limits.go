package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

// BookingLimitsService 预约额度查询
// 与校验引擎共用同一份 config.BookingConfig，规则数值不允许出现第二份定义
type BookingLimitsService struct {
	bookingRepo      *repository.BookingRepository
	subscriptionRepo *repository.SubscriptionRepository
	userRepo         *repository.UserRepository
	cfg              *config.Config
}

func NewBookingLimitsService(
	bookingRepo *repository.BookingRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *BookingLimitsService {
	return &BookingLimitsService{
		bookingRepo:      bookingRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		cfg:              cfg,
	}
}

// GetLimits 查询用户当前的预约额度状况，不依赖具体课程
// 月度统计用的是当前自然月；校验引擎用的是目标课程所在月，两者口径不同是有意为之
func (s *BookingLimitsService) GetLimits(userID int64) (*dto.BookingLimitsInfo, error) {
	now := time.Now()

	info := &dto.BookingLimitsInfo{}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		info.PointsBalance = user.Points
	}

	sub, err := s.subscriptionRepo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return info, nil
	}

	info.HasSubscription = true
	info.Status = sub.Status

	activeCount, err := s.bookingRepo.CountActiveByUserID(userID, now)
	if err != nil {
		return nil, err
	}
	info.ActiveBookings = activeCount

	switch sub.Status {
	case model.SubscriptionStatusTrialing:
		info.IsTrial = true
		info.TrialLimit = s.cfg.Booking.TrialLifetimeLimit

		lifetime, err := s.bookingRepo.CountLifetimeByUserID(userID)
		if err != nil {
			return nil, err
		}
		info.TrialUsed = lifetime
		info.CanBookMore = lifetime < info.TrialLimit

	case model.SubscriptionStatusActive:
		if sub.IsPremiumTier() {
			info.PlanTier = TierPremium
			info.ActiveLimit = s.cfg.Booking.PremiumActiveLimit
			info.CanBookMore = activeCount < info.ActiveLimit
		} else {
			info.PlanTier = TierStandard
			info.ActiveLimit = s.cfg.Booking.StandardActiveLimit
			info.MonthlyLimit = s.cfg.Booking.StandardMonthlyLimit

			monthly, err := s.bookingRepo.CountMonthlyStandardByUserID(
				userID, now.Year(), now.Month())
			if err != nil {
				return nil, err
			}
			info.MonthlyUsed = monthly
			info.MonthlyRemain = info.MonthlyLimit - monthly
			if info.MonthlyRemain < 0 {
				info.MonthlyRemain = 0
			}
			info.CanBookMore = activeCount < info.ActiveLimit && monthly < info.MonthlyLimit
		}

	default:
		// 理论上不可达，GetActiveByUserID 只返回 active/trialing
		info.CanBookMore = false
	}

	return info, nil
}
