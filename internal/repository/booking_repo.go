package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(booking *model.Booking) error {
	return r.db.Create(booking).Error
}

func (r *BookingRepository) GetByID(id int64) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByUserID 查询用户全部预约历史（含已取消、已完成）
func (r *BookingRepository) ListByUserID(userID int64, page, pageSize int) ([]*model.Booking, int64, error) {
	query := r.db.Model(&model.Booking{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []*model.Booking
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListActiveByUserID 查询用户当前生效的预约：confirmed 且课程尚未结束
// 结束时间依赖每行的 duration，跨 MySQL/SQLite 没有统一的 SQL 写法，
// 这里先取出 confirmed 预约再按课程结束时间过滤
func (r *BookingRepository) ListActiveByUserID(userID int64, now time.Time) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := r.db.Where("user_id = ? AND status = ?", userID, model.BookingStatusConfirmed).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	sessionIDs := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		sessionIDs = append(sessionIDs, b.SessionID)
	}

	var sessions []*model.Session
	if err := r.db.Where("id IN ?", sessionIDs).Find(&sessions).Error; err != nil {
		return nil, err
	}

	endTimes := make(map[int64]time.Time, len(sessions))
	for _, s := range sessions {
		endTimes[s.ID] = s.EndTime()
	}

	active := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if end, ok := endTimes[b.SessionID]; ok && end.After(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

func (r *BookingRepository) ListBySessionID(sessionID int64) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&bookings).Error
	return bookings, err
}

// CountActiveByUserID 当前生效预约数，用于同时预约上限检查
func (r *BookingRepository) CountActiveByUserID(userID int64, now time.Time) (int, error) {
	active, err := r.ListActiveByUserID(userID, now)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

// CountLifetimeByUserID 终身预约数，体验会员上限检查用
// 已取消的预约不计入：取消掉唯一一次体验预约后可以重新预约
func (r *BookingRepository) CountLifetimeByUserID(userID int64) (int, error) {
	var count int64
	err := r.db.Model(&model.Booking{}).
		Where("user_id = ? AND status <> ?", userID, model.BookingStatusCancelled).
		Count(&count).Error
	return int(count), err
}

// CountMonthlyStandardByUserID 统计用户在指定自然月内预约的标准课数量
// 月份窗口由调用方决定：校验引擎传目标课程所在月，额度查询传当前月
func (r *BookingRepository) CountMonthlyStandardByUserID(userID int64, year int, month time.Month) (int, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	var count int64
	err := r.db.Table("bookings").
		Joins("JOIN sessions ON sessions.id = bookings.session_id").
		Where("bookings.user_id = ? AND bookings.status <> ?", userID, model.BookingStatusCancelled).
		Where("sessions.type = ?", model.SessionTypeStandard).
		Where("sessions.scheduled_at >= ? AND sessions.scheduled_at < ?", start, end).
		Count(&count).Error
	return int(count), err
}

// HasConfirmed 是否已存在该用户对该课程的 confirmed 预约
// 作为防重复预约的权威判定时，必须在事务内、且在拿到课程行锁之后调用：
// REPEATABLE READ 下事务的读视图由第一条普通 SELECT 建立，
// 先读后锁会看不到并发事务已提交的预约
func (r *BookingRepository) HasConfirmed(userID, sessionID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Booking{}).
		Where("user_id = ? AND session_id = ? AND status = ?",
			userID, sessionID, model.BookingStatusConfirmed).
		Count(&count).Error
	return count > 0, err
}

func (r *BookingRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.Booking{}).Where("id = ?", id).
		Update("status", status).Error
}

// maxSessionDuration 课程时长上限，与 CreateSessionRequest 的 duration 校验一致
const maxSessionDuration = 480 * time.Minute

// MarkCompletedBefore 把已结束课程的 confirmed 预约批量置为 completed
// 返回更新条数
func (r *BookingRepository) MarkCompletedBefore(now time.Time) (int64, error) {
	// 开课早于时长上限窗口的课程必然已结束，用子查询批量更新，不加载到内存
	cutoff := now.Add(-maxSessionDuration)

	result := r.db.Model(&model.Booking{}).
		Where("status = ?", model.BookingStatusConfirmed).
		Where("session_id IN (?)",
			r.db.Model(&model.Session{}).Select("id").Where("scheduled_at < ?", cutoff)).
		Update("status", model.BookingStatusCompleted)
	if result.Error != nil {
		return 0, result.Error
	}
	updated := result.RowsAffected

	// 只有窗口内开课的课程需要逐行按时长判断，扫描量有固定上界
	var sessions []*model.Session
	err := r.db.Where("scheduled_at >= ? AND scheduled_at < ?", cutoff, now).
		Find(&sessions).Error
	if err != nil {
		return updated, err
	}

	endedIDs := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		if s.EndTime().Before(now) {
			endedIDs = append(endedIDs, s.ID)
		}
	}
	if len(endedIDs) == 0 {
		return updated, nil
	}

	result = r.db.Model(&model.Booking{}).
		Where("status = ? AND session_id IN ?", model.BookingStatusConfirmed, endedIDs).
		Update("status", model.BookingStatusCompleted)
	if result.Error != nil {
		return updated, result.Error
	}
	return updated + result.RowsAffected, nil
}
