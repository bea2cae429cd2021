package dto

// UserProfile 用户资料
type UserProfile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Bio           string `json:"bio,omitempty"`
	NativeLang    string `json:"native_lang,omitempty"`
	TargetLang    string `json:"target_lang,omitempty"`
	Points        int    `json:"points"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Bio        *string `json:"bio,omitempty" binding:"omitempty,max=500"`
	NativeLang *string `json:"native_lang,omitempty" binding:"omitempty,max=20"`
	TargetLang *string `json:"target_lang,omitempty" binding:"omitempty,max=20"`
}

// SubscriptionInfo 订阅信息
type SubscriptionInfo struct {
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	PlanTier         string `json:"plan_tier"`
	CurrentPeriodEnd string `json:"current_period_end,omitempty"`
}
