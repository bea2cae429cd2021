package model

import (
	"time"
)

// 预约状态
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

type Booking struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	SessionID   int64      `gorm:"not null;index" json:"session_id"`
	Status      string     `gorm:"size:20;default:confirmed;index" json:"status"` // confirmed, cancelled, completed
	PointsSpent int        `gorm:"default:0" json:"points_spent"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}
