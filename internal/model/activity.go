package model

import (
	"time"
)

// 动态类型
const (
	ActivityTypeSessionBooked    = "session_booked"
	ActivityTypeSessionCancelled = "session_cancelled"
	ActivityTypeSessionCompleted = "session_completed"
)

// Activity 用户动态，预约成功等事件的旁路记录
type Activity struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	Content   string    `gorm:"size:500" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string {
	return "activities"
}
