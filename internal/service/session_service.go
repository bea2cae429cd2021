package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

var (
	ErrSessionNotFound    = errors.New("课程不存在")
	ErrInvalidScheduledAt = errors.New("课程时间格式错误")
	ErrScheduledInPast    = errors.New("课程时间不能早于当前时间")
)

type SessionService struct {
	db          *gorm.DB
	sessionRepo *repository.SessionRepository
}

func NewSessionService(db *gorm.DB, sessionRepo *repository.SessionRepository) *SessionService {
	return &SessionService{
		db:          db,
		sessionRepo: sessionRepo,
	}
}

// CreateSession 创建课程
// 周期课程一次性展开为每周一节的多个实例，后续实例挂在首节之下
func (s *SessionService) CreateSession(req *dto.CreateSessionRequest) (*model.Session, error) {
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, ErrInvalidScheduledAt
	}
	if scheduledAt.Before(time.Now()) {
		return nil, ErrScheduledInPast
	}

	session := &model.Session{
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		HostName:        req.HostName,
		MeetingURL:      req.MeetingURL,
		ScheduledAt:     scheduledAt,
		Duration:        req.Duration,
		MaxParticipants: req.MaxParticipants,
		PointsRequired:  req.PointsRequired,
		IsActive:        true,
		IsRecurring:     req.IsRecurring,
		RecurringWeeks:  req.RecurringWeeks,
	}

	if !req.IsRecurring || req.RecurringWeeks <= 1 {
		if err := s.sessionRepo.Create(session); err != nil {
			return nil, err
		}
		return session, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txSessions := repository.NewSessionRepository(tx)

		if err := txSessions.Create(session); err != nil {
			return err
		}

		for week := 1; week < req.RecurringWeeks; week++ {
			parentID := session.ID
			instance := &model.Session{
				Title:             req.Title,
				Description:       req.Description,
				Type:              req.Type,
				HostName:          req.HostName,
				MeetingURL:        req.MeetingURL,
				ScheduledAt:       scheduledAt.AddDate(0, 0, 7*week),
				Duration:          req.Duration,
				MaxParticipants:   req.MaxParticipants,
				PointsRequired:    req.PointsRequired,
				IsActive:          true,
				IsRecurring:       true,
				RecurringParentID: &parentID,
			}
			if err := txSessions.Create(instance); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// ListUpcoming 未开始课程列表
func (s *SessionService) ListUpcoming(sessionType string, page, pageSize int) ([]*dto.SessionListItem, int64, error) {
	sessions, total, err := s.sessionRepo.ListUpcoming(time.Now(), sessionType, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.SessionListItem, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, &dto.SessionListItem{
			ID:              sess.ID,
			Title:           sess.Title,
			Type:            sess.Type,
			HostName:        sess.HostName,
			ScheduledAt:     sess.ScheduledAt.Format(time.RFC3339),
			Duration:        sess.Duration,
			MaxParticipants: sess.MaxParticipants,
			SpotsAvailable:  sess.SpotsAvailable(),
			PointsRequired:  sess.PointsRequired,
			IsRecurring:     sess.IsRecurring,
		})
	}

	return items, total, nil
}

// GetSession 课程详情
func (s *SessionService) GetSession(id int64) (*dto.SessionDetail, error) {
	sess, err := s.sessionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	detail := &dto.SessionDetail{
		ID:                  sess.ID,
		Title:               sess.Title,
		Description:         sess.Description,
		Type:                sess.Type,
		HostName:            sess.HostName,
		MeetingURL:          sess.MeetingURL,
		ScheduledAt:         sess.ScheduledAt.Format(time.RFC3339),
		Duration:            sess.Duration,
		MaxParticipants:     sess.MaxParticipants,
		CurrentParticipants: sess.CurrentParticipants,
		SpotsAvailable:      sess.SpotsAvailable(),
		PointsRequired:      sess.PointsRequired,
		IsActive:            sess.IsActive,
		IsRecurring:         sess.IsRecurring,
		CreatedAt:           sess.CreatedAt.Format(time.RFC3339),
	}
	if sess.RecurringParentID != nil {
		detail.RecurringParentID = *sess.RecurringParentID
	}

	return detail, nil
}

// ListSeries 查询周期课程的全部实例
func (s *SessionService) ListSeries(parentID int64) ([]*model.Session, error) {
	return s.sessionRepo.ListByRecurringParent(parentID)
}

// DeactivateSession 下架课程，已有预约保持不变
func (s *SessionService) DeactivateSession(id int64) error {
	sess, err := s.sessionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	sess.IsActive = false
	return s.sessionRepo.Update(sess)
}
