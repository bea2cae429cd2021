package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

type UserService struct {
	userRepo         *repository.UserRepository
	subscriptionRepo *repository.SubscriptionRepository
	activityRepo     *repository.ActivityRepository
}

func NewUserService(
	userRepo *repository.UserRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	activityRepo *repository.ActivityRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
		activityRepo:     activityRepo,
	}
}

// GetProfile 查询用户资料
func (s *UserService) GetProfile(userID int64) (*dto.UserProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	profile := &dto.UserProfile{
		ID:            user.ID,
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		Bio:           user.Bio,
		NativeLang:    user.NativeLang,
		TargetLang:    user.TargetLang,
		Points:        user.Points,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
	if user.Email != nil {
		profile.Email = *user.Email
	}

	return profile, nil
}

// UpdateProfile 更新用户资料，只更新提交的字段
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) error {
	fields := map[string]interface{}{}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.NativeLang != nil {
		fields["native_lang"] = *req.NativeLang
	}
	if req.TargetLang != nil {
		fields["target_lang"] = *req.TargetLang
	}
	if len(fields) == 0 {
		return nil
	}

	return s.userRepo.UpdateFields(userID, fields)
}

// GetSubscription 查询用户订阅信息
// 没有订阅时返回 nil, nil
func (s *UserService) GetSubscription(userID int64) (*dto.SubscriptionInfo, error) {
	sub, err := s.subscriptionRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	tier := TierStandard
	if sub.IsPremiumTier() {
		tier = TierPremium
	}

	info := &dto.SubscriptionInfo{
		Plan:     sub.Plan,
		Status:   sub.Status,
		PlanTier: tier,
	}
	if sub.CurrentPeriodEnd != nil {
		info.CurrentPeriodEnd = sub.CurrentPeriodEnd.Format(time.RFC3339)
	}

	return info, nil
}

// ListActivities 查询用户动态
func (s *UserService) ListActivities(userID int64, limit int) ([]*model.Activity, error) {
	return s.activityRepo.ListByUserID(userID, limit)
}
