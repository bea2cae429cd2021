package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) GetByUserID(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUserID 查询用户可用的订阅（active 或 trialing）
// 没有可用订阅时返回 nil, nil，由调用方决定语义
func (r *SubscriptionRepository) GetActiveByUserID(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ? AND status IN ?",
		userID,
		[]string{model.SubscriptionStatusActive, model.SubscriptionStatusTrialing}).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *SubscriptionRepository) UpdateStatus(userID int64, status string) error {
	return r.db.Model(&model.Subscription{}).
		Where("user_id = ?", userID).
		Update("status", status).Error
}

// Cancel 取消订阅并记录周期截止时间
func (r *SubscriptionRepository) Cancel(userID int64, periodEnd time.Time) error {
	return r.db.Model(&model.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":             model.SubscriptionStatusCanceled,
			"current_period_end": periodEnd,
		}).Error
}
