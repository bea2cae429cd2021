package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	return atomic.AddInt64(&fixtureSeq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	email := fmt.Sprintf("test_%d@example.com", seq)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:      fmt.Sprintf("testuser_%d", seq),
		Email:         &email,
		PasswordHash:  &passwordHash,
		NativeLang:    "zh",
		TargetLang:    "en",
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithPoints 设置积分余额
func WithPoints(points int) func(*model.User) {
	return func(u *model.User) {
		u.Points = points
	}
}

// TestSession 创建测试课程
func TestSession(t *testing.T, db *gorm.DB, opts ...func(*model.Session)) *model.Session {
	t.Helper()

	session := &model.Session{
		Title:           fmt.Sprintf("Test Session %d", nextSeq()),
		Type:            model.SessionTypeStandard,
		HostName:        "Test Host",
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		Duration:        60,
		MaxParticipants: 10,
		IsActive:        true,
	}

	for _, opt := range opts {
		opt(session)
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return session
}

// WithType 设置课程类型
func WithType(sessionType string) func(*model.Session) {
	return func(s *model.Session) {
		s.Type = sessionType
	}
}

// WithScheduledAt 设置开课时间
func WithScheduledAt(at time.Time) func(*model.Session) {
	return func(s *model.Session) {
		s.ScheduledAt = at
	}
}

// WithDuration 设置课程时长（分钟）
func WithDuration(minutes int) func(*model.Session) {
	return func(s *model.Session) {
		s.Duration = minutes
	}
}

// WithCapacity 设置容量和已报名人数
func WithCapacity(max, current int) func(*model.Session) {
	return func(s *model.Session) {
		s.MaxParticipants = max
		s.CurrentParticipants = current
	}
}

// WithPointsRequired 设置所需积分
func WithPointsRequired(points int) func(*model.Session) {
	return func(s *model.Session) {
		s.PointsRequired = points
	}
}

// WithInactive 设置为已下架
func WithInactive() func(*model.Session) {
	return func(s *model.Session) {
		s.IsActive = false
	}
}

// TestBooking 创建测试预约
func TestBooking(t *testing.T, db *gorm.DB, userID, sessionID int64, opts ...func(*model.Booking)) *model.Booking {
	t.Helper()

	booking := &model.Booking{
		UserID:    userID,
		SessionID: sessionID,
		Status:    model.BookingStatusConfirmed,
	}

	for _, opt := range opts {
		opt(booking)
	}

	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("Failed to create test booking: %v", err)
	}

	return booking
}

// WithBookingStatus 设置预约状态
func WithBookingStatus(status string) func(*model.Booking) {
	return func(b *model.Booking) {
		b.Status = status
		if status == model.BookingStatusCancelled {
			now := time.Now()
			b.CancelledAt = &now
		}
	}
}

// WithPointsSpent 设置消耗的积分
func WithPointsSpent(points int) func(*model.Booking) {
	return func(b *model.Booking) {
		b.PointsSpent = points
	}
}

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, plan, status string) *model.Subscription {
	t.Helper()

	periodEnd := time.Now().AddDate(0, 1, 0)
	sub := &model.Subscription{
		UserID:           userID,
		Plan:             plan,
		Status:           status,
		CurrentPeriodEnd: &periodEnd,
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}
