package service

import (
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
)

// 预约失败错误码，对外机器可读
const (
	BookingCodeSessionNotFound    = "SESSION_NOT_FOUND"
	BookingCodeNoSubscription     = "NO_SUBSCRIPTION"
	BookingCodePlanAccessDenied   = "PLAN_ACCESS_DENIED"
	BookingCodeActiveBookingLimit = "ACTIVE_BOOKING_LIMIT"
	BookingCodeMonthlyLimit       = "MONTHLY_LIMIT_EXCEEDED"
	BookingCodeInsufficientNotice = "INSUFFICIENT_NOTICE"
	BookingCodeSessionFull        = "SESSION_FULL"
	BookingCodeAlreadyBooked      = "ALREADY_BOOKED"
	BookingCodeInsufficientPoints = "INSUFFICIENT_POINTS"
	BookingCodeSessionInactive    = "SESSION_INACTIVE"
	BookingCodeSessionPast        = "SESSION_PAST"
	BookingCodeValidationFailed   = "VALIDATION_FAILED"
)

// BookingError 预约被拒绝时返回的业务错误
// Code 只有一个（按优先级取第一个命中的），Reasons 保留全部失败原因供展示
type BookingError struct {
	Code    string
	Message string
	Reasons []string
}

func (e *BookingError) Error() string {
	return e.Message
}

func NewBookingError(code, message string) *BookingError {
	return &BookingError{
		Code:    code,
		Message: message,
		Reasons: []string{message},
	}
}

// bookingErrorRules 错误码推导规则，按优先级排列
// 优先级本身是一份数据而不是隐式的 if 链，顺序可以直接被测试断言
var bookingErrorRules = []struct {
	code    string
	message string
	match   func(d *dto.BookingValidationDetails) bool
}{
	{BookingCodeSessionNotFound, ReasonSessionNotFound,
		func(d *dto.BookingValidationDetails) bool { return !d.SessionExists }},
	{BookingCodeNoSubscription, ReasonSubscriptionRequired,
		func(d *dto.BookingValidationDetails) bool { return !d.HasActiveSub }},
	{BookingCodeAlreadyBooked, ReasonAlreadyBooked,
		func(d *dto.BookingValidationDetails) bool { return d.IsAlreadyBooked }},
	// 课程已结束时提前量必然不足，只报 SESSION_PAST，所以这里排除 IsPast
	{BookingCodeInsufficientNotice, ReasonInsufficientNotice,
		func(d *dto.BookingValidationDetails) bool { return !d.MeetsMinimumNotice && !d.IsPast }},
	{BookingCodeSessionPast, ReasonSessionPast,
		func(d *dto.BookingValidationDetails) bool { return d.IsPast }},
	{BookingCodeSessionInactive, ReasonSessionInactive,
		func(d *dto.BookingValidationDetails) bool { return !d.IsSessionActive }},
	// PlanTier 只在 active 分支赋值，体验会员和防御分支不会命中
	{BookingCodePlanAccessDenied, ReasonPlanAccessDenied,
		func(d *dto.BookingValidationDetails) bool {
			return d.PlanTier == TierStandard && !d.CanAccessSessionType
		}},
	{BookingCodeActiveBookingLimit, ReasonActiveLimitReached,
		func(d *dto.BookingValidationDetails) bool {
			return d.ActiveBookingLimit > 0 && d.ActiveBookingsCount >= d.ActiveBookingLimit
		}},
	{BookingCodeMonthlyLimit, ReasonMonthlyLimitReached,
		func(d *dto.BookingValidationDetails) bool {
			return d.MonthlyBookingLimit > 0 && d.MonthlyBookingsCount >= d.MonthlyBookingLimit
		}},
	{BookingCodeSessionFull, ReasonSessionFull,
		func(d *dto.BookingValidationDetails) bool { return d.SpotsAvailable <= 0 }},
	{BookingCodeInsufficientPoints, ReasonInsufficientPoints,
		func(d *dto.BookingValidationDetails) bool { return !d.HasEnoughPoints }},
	// 体验会员终身次数用完走这条，而不是档位限制
	{BookingCodeActiveBookingLimit, ReasonTrialLimitReached,
		func(d *dto.BookingValidationDetails) bool {
			return d.IsTrial && d.TrialBookingLimit > 0 && d.TrialBookingsCount >= d.TrialBookingLimit
		}},
}

// DeriveBookingError 从校验结果推导唯一的拒绝错误码
// Reasons 可能列出多个问题，但对外只返回优先级最高的一个 Code
func DeriveBookingError(result *dto.BookingValidationResult) *BookingError {
	for _, rule := range bookingErrorRules {
		if rule.match(&result.Details) {
			return &BookingError{
				Code:    rule.code,
				Message: rule.message,
				Reasons: result.Reasons,
			}
		}
	}
	return &BookingError{
		Code:    BookingCodeValidationFailed,
		Message: "预约校验未通过",
		Reasons: result.Reasons,
	}
}
