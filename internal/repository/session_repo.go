package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	return r.db.Create(session).Error
}

func (r *SessionRepository) GetByID(id int64) (*model.Session, error) {
	var session model.Session
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListUpcoming 查询未开始的课程，可按类型过滤
func (r *SessionRepository) ListUpcoming(after time.Time, sessionType string, page, pageSize int) ([]*model.Session, int64, error) {
	query := r.db.Model(&model.Session{}).
		Where("is_active = ? AND scheduled_at > ?", true, after)

	if sessionType != "" {
		query = query.Where("type = ?", sessionType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []*model.Session
	err := query.Order("scheduled_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// ListByRecurringParent 查询同一系列的全部课程实例
func (r *SessionRepository) ListByRecurringParent(parentID int64) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.Where("recurring_parent_id = ? OR id = ?", parentID, parentID).
		Order("scheduled_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) Update(session *model.Session) error {
	return r.db.Save(session).Error
}

func (r *SessionRepository) Delete(id int64) error {
	return r.db.Delete(&model.Session{}, id).Error
}

// IncrementParticipants 报名人数 +1
// 名额校验写进 UPDATE 条件，满员时 RowsAffected 为 0，
// 这是容量约束的权威判定，校验引擎里的名额检查只是预览
func (r *SessionRepository) IncrementParticipants(id int64) (bool, error) {
	result := r.db.Model(&model.Session{}).
		Where("id = ? AND is_active = ? AND current_participants < max_participants", id, true).
		Update("current_participants", gorm.Expr("current_participants + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementParticipants 报名人数 -1，不会减到负数
func (r *SessionRepository) DecrementParticipants(id int64) (bool, error) {
	result := r.db.Model(&model.Session{}).
		Where("id = ? AND current_participants > 0", id).
		Update("current_participants", gorm.Expr("current_participants - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListStartedActive 查询已开始且仍标记为激活的课程，供后台清扫判断是否已结束
func (r *SessionRepository) ListStartedActive(now time.Time) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.Where("is_active = ? AND scheduled_at < ?", true, now).
		Find(&sessions).Error
	return sessions, err
}

// DeactivateByIDs 批量下架课程
func (r *SessionRepository) DeactivateByIDs(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Session{}).
		Where("id IN ?", ids).
		Update("is_active", false).Error
}
