package dto

// CreateSessionRequest 创建课程请求（管理端）
type CreateSessionRequest struct {
	Title           string `json:"title" binding:"required,max=200"`
	Description     string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Type            string `json:"type" binding:"required,oneof=standard premium speaking event"`
	HostName        string `json:"host_name,omitempty" binding:"omitempty,max=100"`
	MeetingURL      string `json:"meeting_url,omitempty" binding:"omitempty,url"`
	ScheduledAt     string `json:"scheduled_at" binding:"required"` // RFC3339
	Duration        int    `json:"duration" binding:"required,min=15,max=480"`
	MaxParticipants int    `json:"max_participants" binding:"required,min=1,max=1000"`
	PointsRequired  int    `json:"points_required,omitempty" binding:"omitempty,min=0"`
	IsRecurring     bool   `json:"is_recurring,omitempty"`
	RecurringWeeks  int    `json:"recurring_weeks,omitempty" binding:"omitempty,min=1,max=52"`
}

// SessionListItem 课程列表项
type SessionListItem struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Type            string `json:"type"`
	HostName        string `json:"host_name,omitempty"`
	ScheduledAt     string `json:"scheduled_at"`
	Duration        int    `json:"duration"`
	MaxParticipants int    `json:"max_participants"`
	SpotsAvailable  int    `json:"spots_available"`
	PointsRequired  int    `json:"points_required,omitempty"`
	IsRecurring     bool   `json:"is_recurring,omitempty"`
}

// SessionDetail 课程详情
type SessionDetail struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Type                string `json:"type"`
	HostName            string `json:"host_name,omitempty"`
	MeetingURL          string `json:"meeting_url,omitempty"`
	ScheduledAt         string `json:"scheduled_at"`
	Duration            int    `json:"duration"`
	MaxParticipants     int    `json:"max_participants"`
	CurrentParticipants int    `json:"current_participants"`
	SpotsAvailable      int    `json:"spots_available"`
	PointsRequired      int    `json:"points_required,omitempty"`
	IsActive            bool   `json:"is_active"`
	IsRecurring         bool   `json:"is_recurring,omitempty"`
	RecurringParentID   int64  `json:"recurring_parent_id,omitempty"`
	CreatedAt           string `json:"created_at"`
}
