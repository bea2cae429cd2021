package model

import (
	"time"
)

// 订阅套餐
const (
	PlanMonthly  = "monthly"
	PlanYearly   = "yearly"
	PlanOneTime  = "one-time"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// 订阅状态（与支付回调保持一致）
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusUnpaid   = "unpaid"
	SubscriptionStatusCanceled = "canceled"
)

type Subscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	UserID               int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	Plan                 string     `gorm:"size:20;not null" json:"plan"`               // monthly, yearly, one-time, standard, premium
	Status               string     `gorm:"size:20;default:active;index" json:"status"` // active, trialing, past_due, unpaid, canceled
	StripeCustomerID     string     `gorm:"size:100" json:"-"`
	StripeSubscriptionID string     `gorm:"size:100" json:"-"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsPremiumTier 是否属于高级档位（premium / monthly / yearly）
// 其余套餐一律按标准档位处理
func (s *Subscription) IsPremiumTier() bool {
	switch s.Plan {
	case PlanPremium, PlanMonthly, PlanYearly:
		return true
	default:
		return false
	}
}

// HasAccess 订阅是否处于可预约状态
func (s *Subscription) HasAccess() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}
