package service

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

// 套餐档位
const (
	TierPremium  = "premium"
	TierStandard = "standard"
)

// 校验失败原因文案
// 全部原因一次性返回，前端能告诉用户所有不满足的条件
const (
	ReasonSessionNotFound      = "课程不存在"
	ReasonSubscriptionRequired = "需要订阅会员后才能预约"
	ReasonSubscriptionInvalid  = "订阅状态异常，无法预约"
	ReasonTrialLimitReached    = "体验会员预约次数已用完"
	ReasonPlanAccessDenied     = "当前套餐无法预约该类型课程"
	ReasonActiveLimitReached   = "同时生效的预约数已达上限"
	ReasonMonthlyLimitReached  = "当月标准课预约次数已用完"
	ReasonAlreadyBooked        = "已预约过该课程"
	ReasonInsufficientNotice   = "距开课时间不足，无法预约"
	ReasonSessionPast          = "课程已结束"
	ReasonSessionInactive      = "课程已下架"
	ReasonSessionFull          = "课程名额已满"
	ReasonInsufficientPoints   = "积分不足"
)

// BookingValidationService 预约校验引擎
// 只读，不修改任何状态；业务规则不通过不返回 error，
// 原因全部累积在结果里，只有基础设施故障才作为 error 上抛
type BookingValidationService struct {
	sessionRepo      *repository.SessionRepository
	bookingRepo      *repository.BookingRepository
	subscriptionRepo *repository.SubscriptionRepository
	userRepo         *repository.UserRepository
	cfg              *config.Config
}

func NewBookingValidationService(
	sessionRepo *repository.SessionRepository,
	bookingRepo *repository.BookingRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *BookingValidationService {
	return &BookingValidationService{
		sessionRepo:      sessionRepo,
		bookingRepo:      bookingRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		cfg:              cfg,
	}
}

// bookingFacts 校验所需的四份独立事实，互不依赖，可并发读取
type bookingFacts struct {
	session        *model.Session
	sessionErr     error
	subscription   *model.Subscription
	subErr         error
	activeBookings []*model.Booking
	activeErr      error
	user           *model.User
	userErr        error
}

func (s *BookingValidationService) gatherFacts(userID, sessionID int64, now time.Time) *bookingFacts {
	facts := &bookingFacts{}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		facts.session, facts.sessionErr = s.sessionRepo.GetByID(sessionID)
	}()
	go func() {
		defer wg.Done()
		facts.subscription, facts.subErr = s.subscriptionRepo.GetActiveByUserID(userID)
	}()
	go func() {
		defer wg.Done()
		facts.activeBookings, facts.activeErr = s.bookingRepo.ListActiveByUserID(userID, now)
	}()
	go func() {
		defer wg.Done()
		facts.user, facts.userErr = s.userRepo.GetByID(userID)
	}()

	wg.Wait()
	return facts
}

// Validate 校验用户能否预约指定课程
// 所有检查全部执行，不在第一个失败处短路；CanBook 为 true 当且仅当没有任何失败原因
func (s *BookingValidationService) Validate(userID, sessionID int64) (*dto.BookingValidationResult, error) {
	now := time.Now()
	facts := s.gatherFacts(userID, sessionID, now)

	if facts.sessionErr != nil {
		if errors.Is(facts.sessionErr, gorm.ErrRecordNotFound) {
			// 课程不存在是唯一的硬失败，明细保持零值
			return &dto.BookingValidationResult{
				CanBook: false,
				Reasons: []string{ReasonSessionNotFound},
			}, nil
		}
		return nil, facts.sessionErr
	}
	if facts.subErr != nil {
		return nil, facts.subErr
	}
	if facts.activeErr != nil {
		return nil, facts.activeErr
	}
	// 用户不存在按零积分处理，积分检查自然会失败
	if facts.userErr != nil && !errors.Is(facts.userErr, gorm.ErrRecordNotFound) {
		return nil, facts.userErr
	}

	session := facts.session
	sub := facts.subscription

	points := 0
	if facts.user != nil {
		points = facts.user.Points
	}

	hoursUntil := session.ScheduledAt.Sub(now).Hours()
	isPast := session.EndTime().Before(now)

	isAlreadyBooked := false
	for _, b := range facts.activeBookings {
		if b.SessionID == sessionID {
			isAlreadyBooked = true
			break
		}
	}

	details := dto.BookingValidationDetails{
		SessionExists:       true,
		SessionType:         session.Type,
		IsSessionActive:     session.IsActive,
		IsPast:              isPast,
		HoursUntilSession:   hoursUntil,
		MeetsMinimumNotice:  hoursUntil >= float64(s.cfg.Booking.MinimumNoticeHours),
		MinimumNoticeHours:  s.cfg.Booking.MinimumNoticeHours,
		SpotsAvailable:      session.SpotsAvailable(),
		IsAlreadyBooked:     isAlreadyBooked,
		ActiveBookingsCount: len(facts.activeBookings),
		PointsRequired:      session.PointsRequired,
		PointsBalance:       points,
		HasEnoughPoints:     session.PointsRequired <= 0 || points >= session.PointsRequired,
	}

	var reasons []string

	if sub == nil {
		// 无可用订阅时跳过套餐相关检查，相关明细保持零值
		reasons = append(reasons, ReasonSubscriptionRequired)
	} else {
		details.HasActiveSub = true
		details.SubscriptionStatus = sub.Status

		switch sub.Status {
		case model.SubscriptionStatusTrialing:
			// 体验会员：不看套餐档位限制，终身预约次数受限，课程类型不受限
			details.IsTrial = true
			details.CanAccessSessionType = true
			details.TrialBookingLimit = s.cfg.Booking.TrialLifetimeLimit

			lifetime, err := s.bookingRepo.CountLifetimeByUserID(userID)
			if err != nil {
				return nil, err
			}
			details.TrialBookingsCount = lifetime
			if lifetime >= s.cfg.Booking.TrialLifetimeLimit {
				reasons = append(reasons, ReasonTrialLimitReached)
			}

		case model.SubscriptionStatusActive:
			if sub.IsPremiumTier() {
				details.PlanTier = TierPremium
				details.CanAccessSessionType = true
				details.ActiveBookingLimit = s.cfg.Booking.PremiumActiveLimit
			} else {
				details.PlanTier = TierStandard
				details.CanAccessSessionType = session.Type == model.SessionTypeStandard
				details.ActiveBookingLimit = s.cfg.Booking.StandardActiveLimit
				details.MonthlyBookingLimit = s.cfg.Booking.StandardMonthlyLimit
			}

			if !details.CanAccessSessionType {
				reasons = append(reasons, ReasonPlanAccessDenied)
			}
			if details.ActiveBookingsCount >= details.ActiveBookingLimit {
				reasons = append(reasons, ReasonActiveLimitReached)
			}

			// 月度上限只约束标准档位，按目标课程所在的自然月统计
			// （提前预约下个月的课占用的是下个月的额度）
			if details.PlanTier == TierStandard {
				monthly, err := s.bookingRepo.CountMonthlyStandardByUserID(
					userID, session.ScheduledAt.Year(), session.ScheduledAt.Month())
				if err != nil {
					return nil, err
				}
				details.MonthlyBookingsCount = monthly
				if monthly >= details.MonthlyBookingLimit {
					reasons = append(reasons, ReasonMonthlyLimitReached)
				}
			}

		default:
			// GetActiveByUserID 只会返回 active/trialing，此分支理论上不可达，防御性保留
			reasons = append(reasons, ReasonSubscriptionInvalid)
		}
	}

	// 与订阅无关的检查，无论订阅分支结果如何都要执行
	if details.IsAlreadyBooked {
		reasons = append(reasons, ReasonAlreadyBooked)
	}
	if !details.MeetsMinimumNotice && !details.IsPast {
		reasons = append(reasons, ReasonInsufficientNotice)
	}
	if details.IsPast {
		reasons = append(reasons, ReasonSessionPast)
	}
	if !session.IsActive {
		reasons = append(reasons, ReasonSessionInactive)
	}
	if details.SpotsAvailable <= 0 {
		reasons = append(reasons, ReasonSessionFull)
	}
	if !details.HasEnoughPoints {
		reasons = append(reasons, ReasonInsufficientPoints)
	}

	return &dto.BookingValidationResult{
		CanBook: len(reasons) == 0,
		Reasons: reasons,
		Details: details,
	}, nil
}
