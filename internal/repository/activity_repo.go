package repository

import (
	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(activity *model.Activity) error {
	return r.db.Create(activity).Error
}

func (r *ActivityRepository) ListByUserID(userID int64, limit int) ([]*model.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var activities []*model.Activity
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}
