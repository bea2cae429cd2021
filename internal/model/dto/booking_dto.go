package dto

// CreateBookingRequest 创建预约请求
type CreateBookingRequest struct {
	SessionID int64 `json:"session_id" binding:"required,min=1"`
}

// BookingValidationDetails 预约校验明细
// 固定结构，字段缺省即为零值，前端据此渲染不可预约的具体原因
type BookingValidationDetails struct {
	SessionExists        bool    `json:"session_exists"`
	SessionType          string  `json:"session_type,omitempty"`
	IsSessionActive      bool    `json:"is_session_active"`
	IsPast               bool    `json:"is_past"`
	HoursUntilSession    float64 `json:"hours_until_session"`
	MeetsMinimumNotice   bool    `json:"meets_minimum_notice"`
	MinimumNoticeHours   int     `json:"minimum_notice_hours"`
	SpotsAvailable       int     `json:"spots_available"`
	IsAlreadyBooked      bool    `json:"is_already_booked"`
	HasActiveSub         bool    `json:"has_active_subscription"`
	SubscriptionStatus   string  `json:"subscription_status,omitempty"`
	PlanTier             string  `json:"plan_tier,omitempty"` // premium / standard
	IsTrial              bool    `json:"is_trial"`
	CanAccessSessionType bool    `json:"can_access_session_type"`
	ActiveBookingsCount  int     `json:"active_bookings_count"`
	ActiveBookingLimit   int     `json:"active_booking_limit"`
	MonthlyBookingsCount int     `json:"monthly_bookings_count"`
	MonthlyBookingLimit  int     `json:"monthly_booking_limit"`
	TrialBookingsCount   int     `json:"trial_bookings_count"`
	TrialBookingLimit    int     `json:"trial_booking_limit"`
	PointsRequired       int     `json:"points_required"`
	PointsBalance        int     `json:"points_balance"`
	HasEnoughPoints      bool    `json:"has_enough_points"`
}

// BookingValidationResult 预约校验结果
// 业务规则不通过不算错误，全部原因累积在 Reasons 中一次性返回
type BookingValidationResult struct {
	CanBook bool                     `json:"can_book"`
	Reasons []string                 `json:"reasons"`
	Details BookingValidationDetails `json:"details"`
}

// BookingLimitsInfo 用户当前预约额度，供前端展示"本月已约 2/4"之类的信息
type BookingLimitsInfo struct {
	HasSubscription  bool   `json:"has_subscription"`
	Status           string `json:"status,omitempty"`
	PlanTier         string `json:"plan_tier,omitempty"`
	IsTrial          bool   `json:"is_trial"`
	ActiveBookings   int    `json:"active_bookings"`
	ActiveLimit      int    `json:"active_limit"`
	MonthlyUsed      int    `json:"monthly_used"`
	MonthlyLimit     int    `json:"monthly_limit"`
	MonthlyRemain    int    `json:"monthly_remain"`
	TrialUsed        int    `json:"trial_used"`
	TrialLimit       int    `json:"trial_limit"`
	CanBookMore      bool   `json:"can_book_more"`
	PointsBalance    int    `json:"points_balance"`
}

// BookingListItem 预约列表项
type BookingListItem struct {
	ID           int64  `json:"id"`
	SessionID    int64  `json:"session_id"`
	SessionTitle string `json:"session_title"`
	SessionType  string `json:"session_type"`
	ScheduledAt  string `json:"scheduled_at"`
	Duration     int    `json:"duration"`
	Status       string `json:"status"`
	PointsSpent  int    `json:"points_spent,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// BookingDetail 预约详情
type BookingDetail struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	SessionID   int64  `json:"session_id"`
	Status      string `json:"status"`
	PointsSpent int    `json:"points_spent,omitempty"`
	CreatedAt   string `json:"created_at"`
}
