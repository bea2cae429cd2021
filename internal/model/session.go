package model

import (
	"time"
)

// 课程类型
const (
	SessionTypeStandard = "standard"
	SessionTypePremium  = "premium"
	SessionTypeSpeaking = "speaking"
	SessionTypeEvent    = "event"
)

type Session struct {
	ID                  int64     `gorm:"primaryKey" json:"id"`
	Title               string    `gorm:"size:200;not null" json:"title"`
	Description         string    `gorm:"type:text" json:"description"`
	Type                string    `gorm:"size:20;not null;index" json:"type"` // standard, premium, speaking, event
	HostName            string    `gorm:"size:100" json:"host_name"`
	MeetingURL          string    `gorm:"size:500" json:"meeting_url,omitempty"`
	ScheduledAt         time.Time `gorm:"not null;index" json:"scheduled_at"`
	Duration            int       `gorm:"not null" json:"duration"` // 分钟
	MaxParticipants     int       `gorm:"not null" json:"max_participants"`
	CurrentParticipants int       `gorm:"default:0" json:"current_participants"`
	PointsRequired      int       `gorm:"default:0" json:"points_required"`
	IsActive            bool      `gorm:"default:true;index" json:"is_active"`
	IsRecurring         bool      `gorm:"default:false" json:"is_recurring"`
	RecurringParentID   *int64    `gorm:"index" json:"recurring_parent_id,omitempty"`
	RecurringWeeks      int       `gorm:"default:0" json:"recurring_weeks,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// EndTime 课程结束时间
func (s *Session) EndTime() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.Duration) * time.Minute)
}

// SpotsAvailable 剩余名额
func (s *Session) SpotsAvailable() int {
	return s.MaxParticipants - s.CurrentParticipants
}
