package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/pkg/pubsub"
	"github.com/wlzhg/lingua_go_server/internal/pkg/queue"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

var (
	ErrBookingNotFound       = errors.New("预约不存在")
	ErrBookingPermission     = errors.New("无权操作该预约")
	ErrBookingNotCancellable = errors.New("该预约无法取消")
)

// BookingService 预约受理
// 校验引擎只做预览，事务内的条件更新才是名额、重复、积分三项约束的权威判定
type BookingService struct {
	db           *gorm.DB
	validation   *BookingValidationService
	bookingRepo  *repository.BookingRepository
	sessionRepo  *repository.SessionRepository
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
	publisher    *pubsub.Publisher
	notifyQueue  *queue.Queue
	cfg          *config.Config
}

func NewBookingService(
	db *gorm.DB,
	validation *BookingValidationService,
	bookingRepo *repository.BookingRepository,
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	activityRepo *repository.ActivityRepository,
	publisher *pubsub.Publisher,
	notifyQueue *queue.Queue,
	cfg *config.Config,
) *BookingService {
	return &BookingService{
		db:           db,
		validation:   validation,
		bookingRepo:  bookingRepo,
		sessionRepo:  sessionRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		notifyQueue:  notifyQueue,
		cfg:          cfg,
	}
}

// CreateBooking 创建预约
// 先走校验引擎，通过后在事务内落地：重复检查、名额递增、写入预约、扣积分，
// 任何一步失败整个事务回滚，名额和积分不会被部分占用
func (s *BookingService) CreateBooking(userID, sessionID int64) (*model.Booking, error) {
	result, err := s.validation.Validate(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !result.CanBook {
		return nil, DeriveBookingError(result)
	}

	var booking *model.Booking
	var session *model.Session

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txSessions := repository.NewSessionRepository(tx)
		txBookings := repository.NewBookingRepository(tx)
		txUsers := repository.NewUserRepository(tx)

		// 名额递增必须是事务的第一条语句：条件 UPDATE 对课程行加排他锁，
		// 同一课程的并发受理在这里串行化。它之前不能出现普通 SELECT，
		// 否则 REPEATABLE READ 的读视图会定格在别的事务提交之前，
		// 后面的重复检查就看不到并发写入的预约
		ok, err := txSessions.IncrementParticipants(sessionID)
		if err != nil {
			return err
		}
		if !ok {
			// 递增失败再区分原因：课程不存在、已下架或满员
			sess, err := txSessions.GetByID(sessionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewBookingError(BookingCodeSessionNotFound, ReasonSessionNotFound)
				}
				return err
			}
			if !sess.IsActive {
				return NewBookingError(BookingCodeSessionInactive, ReasonSessionInactive)
			}
			return NewBookingError(BookingCodeSessionFull, ReasonSessionFull)
		}

		// 行锁之后的第一条 SELECT 才建立读视图，能看到已提交的并发预约；
		// 命中重复时整个事务回滚，刚占用的名额一并退还
		booked, err := txBookings.HasConfirmed(userID, sessionID)
		if err != nil {
			return err
		}
		if booked {
			return NewBookingError(BookingCodeAlreadyBooked, ReasonAlreadyBooked)
		}

		session, err = txSessions.GetByID(sessionID)
		if err != nil {
			return err
		}

		booking = &model.Booking{
			UserID:      userID,
			SessionID:   sessionID,
			Status:      model.BookingStatusConfirmed,
			PointsSpent: session.PointsRequired,
		}
		if err := txBookings.Create(booking); err != nil {
			return err
		}

		if session.PointsRequired > 0 {
			ok, err := txUsers.DeductPoints(userID, session.PointsRequired)
			if err != nil {
				return err
			}
			if !ok {
				return NewBookingError(BookingCodeInsufficientPoints, ReasonInsufficientPoints)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.afterBookingCreated(userID, booking, session)

	return booking, nil
}

// CancelBooking 取消预约
// 只能取消自己的 confirmed 预约；释放名额并退还积分
func (s *BookingService) CancelBooking(userID, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if booking.UserID != userID {
		return ErrBookingPermission
	}
	if booking.Status != model.BookingStatusConfirmed {
		return ErrBookingNotCancellable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ?", bookingID, model.BookingStatusConfirmed).
			Updates(map[string]interface{}{
				"status":       model.BookingStatusCancelled,
				"cancelled_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookingNotCancellable
		}

		txSessions := repository.NewSessionRepository(tx)
		if _, err := txSessions.DecrementParticipants(booking.SessionID); err != nil {
			return err
		}

		if booking.PointsSpent > 0 {
			txUsers := repository.NewUserRepository(tx)
			if err := txUsers.AddPoints(userID, booking.PointsSpent); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	go s.afterBookingCancelled(userID, booking)

	return nil
}

// ListBookings 用户预约列表，带课程信息
func (s *BookingService) ListBookings(userID int64, page, pageSize int) ([]*dto.BookingListItem, int64, error) {
	bookings, total, err := s.bookingRepo.ListByUserID(userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.BookingListItem, 0, len(bookings))
	for _, b := range bookings {
		item := &dto.BookingListItem{
			ID:          b.ID,
			SessionID:   b.SessionID,
			Status:      b.Status,
			PointsSpent: b.PointsSpent,
			CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		}
		if session, err := s.sessionRepo.GetByID(b.SessionID); err == nil {
			item.SessionTitle = session.Title
			item.SessionType = session.Type
			item.ScheduledAt = session.ScheduledAt.Format(time.RFC3339)
			item.Duration = session.Duration
		}
		items = append(items, item)
	}

	return items, total, nil
}

// GetBooking 查询预约详情，只能看自己的
func (s *BookingService) GetBooking(userID, bookingID int64) (*dto.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrBookingPermission
	}

	return &dto.BookingDetail{
		ID:          booking.ID,
		UserID:      booking.UserID,
		SessionID:   booking.SessionID,
		Status:      booking.Status,
		PointsSpent: booking.PointsSpent,
		CreatedAt:   booking.CreatedAt.Format(time.RFC3339),
	}, nil
}

// afterBookingCreated 预约成功后的旁路动作：活动记录、名额广播、通知入队
// 全部尽力而为，失败只记日志，不影响已提交的预约
func (s *BookingService) afterBookingCreated(userID int64, booking *model.Booking, session *model.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.activityRepo != nil {
		activity := &model.Activity{
			UserID:  userID,
			Type:    model.ActivityTypeSessionBooked,
			Content: session.Title,
		}
		if err := s.activityRepo.Create(activity); err != nil {
			log.Printf("记录预约活动失败: %v", err)
		}
	}

	if s.publisher != nil {
		fresh, err := s.sessionRepo.GetByID(session.ID)
		if err != nil {
			fresh = session
		}
		msg := &pubsub.BookingEventMessage{
			Type:                pubsub.EventBookingConfirmed,
			UserID:              userID,
			SessionID:           session.ID,
			BookingID:           booking.ID,
			CurrentParticipants: fresh.CurrentParticipants,
			MaxParticipants:     fresh.MaxParticipants,
			SpotsAvailable:      fresh.SpotsAvailable(),
		}
		if err := s.publisher.PublishBookingEvent(ctx, msg); err != nil {
			log.Printf("发布预约事件失败: %v", err)
		}
	}

	if s.notifyQueue != nil {
		notify := &queue.NotificationMessage{
			Type:         queue.NotifyBookingConfirmed,
			UserID:       userID,
			BookingID:    booking.ID,
			SessionID:    session.ID,
			SessionTitle: session.Title,
			ScheduledAt:  session.ScheduledAt.Format(time.RFC3339),
		}
		if user, err := s.userRepo.GetByID(userID); err == nil && user.Email != nil {
			notify.Email = *user.Email
		}
		if err := s.notifyQueue.Push(ctx, notify); err != nil {
			log.Printf("预约通知入队失败: %v", err)
		}
	}
}

// afterBookingCancelled 取消预约后的旁路动作
func (s *BookingService) afterBookingCancelled(userID int64, booking *model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := s.sessionRepo.GetByID(booking.SessionID)
	if err != nil {
		log.Printf("查询课程失败: %v", err)
		return
	}

	if s.activityRepo != nil {
		activity := &model.Activity{
			UserID:  userID,
			Type:    model.ActivityTypeSessionCancelled,
			Content: session.Title,
		}
		if err := s.activityRepo.Create(activity); err != nil {
			log.Printf("记录取消活动失败: %v", err)
		}
	}

	if s.publisher != nil {
		msg := &pubsub.BookingEventMessage{
			Type:                pubsub.EventBookingCancelled,
			UserID:              userID,
			SessionID:           session.ID,
			BookingID:           booking.ID,
			CurrentParticipants: session.CurrentParticipants,
			MaxParticipants:     session.MaxParticipants,
			SpotsAvailable:      session.SpotsAvailable(),
		}
		if err := s.publisher.PublishBookingEvent(ctx, msg); err != nil {
			log.Printf("发布取消事件失败: %v", err)
		}
	}

	if s.notifyQueue != nil {
		notify := &queue.NotificationMessage{
			Type:         queue.NotifyBookingCancelled,
			UserID:       userID,
			BookingID:    booking.ID,
			SessionID:    session.ID,
			SessionTitle: session.Title,
			ScheduledAt:  session.ScheduledAt.Format(time.RFC3339),
		}
		if user, err := s.userRepo.GetByID(userID); err == nil && user.Email != nil {
			notify.Email = *user.Email
		}
		if err := s.notifyQueue.Push(ctx, notify); err != nil {
			log.Printf("取消通知入队失败: %v", err)
		}
	}
}
