package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/repository"
	"github.com/wlzhg/lingua_go_server/internal/testutil"
)

func setupBookingService(t *testing.T) (*BookingService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := bookingTestConfig()
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	userRepo := repository.NewUserRepository(db)

	validation := NewBookingValidationService(
		sessionRepo, bookingRepo, subscriptionRepo, userRepo, cfg)

	// 旁路依赖留空，测试只关心事务语义
	svc := NewBookingService(
		db, validation, bookingRepo, sessionRepo, userRepo, nil, nil, nil, cfg)
	return svc, db
}

func TestCreateBooking_Success(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db, testutil.WithPoints(100))
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db,
		testutil.WithCapacity(5, 0),
		testutil.WithPointsRequired(30))

	booking, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, booking)

	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 30, booking.PointsSpent)

	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Equal(t, 1, freshSession.CurrentParticipants)

	var freshUser model.User
	require.NoError(t, db.First(&freshUser, user.ID).Error)
	assert.Equal(t, 70, freshUser.Points)
}

func TestCreateBooking_DeniedNoSubscription(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db)

	_, err := svc.CreateBooking(user.ID, session.ID)
	require.Error(t, err)

	var bookingErr *BookingError
	require.True(t, errors.As(err, &bookingErr))
	assert.Equal(t, BookingCodeNoSubscription, bookingErr.Code)
	assert.Contains(t, bookingErr.Reasons, ReasonSubscriptionRequired)

	// 被拒绝的预约不留任何痕迹
	var count int64
	db.Model(&model.Booking{}).Count(&count)
	assert.Zero(t, count)

	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Zero(t, freshSession.CurrentParticipants)
}

func TestCreateBooking_DeniedDoesNotChargePoints(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db, testutil.WithPoints(10))
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db, testutil.WithPointsRequired(50))

	_, err := svc.CreateBooking(user.ID, session.ID)
	require.Error(t, err)

	var bookingErr *BookingError
	require.True(t, errors.As(err, &bookingErr))
	assert.Equal(t, BookingCodeInsufficientPoints, bookingErr.Code)

	var freshUser model.User
	require.NoError(t, db.First(&freshUser, user.ID).Error)
	assert.Equal(t, 10, freshUser.Points)
}

func TestCreateBooking_Duplicate(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db)

	_, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)

	_, err = svc.CreateBooking(user.ID, session.ID)
	require.Error(t, err)

	var bookingErr *BookingError
	require.True(t, errors.As(err, &bookingErr))
	assert.Equal(t, BookingCodeAlreadyBooked, bookingErr.Code)

	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Equal(t, 1, freshSession.CurrentParticipants)
}

func TestCreateBooking_RebookAfterCancel(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db)

	booking, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)
	require.NoError(t, svc.CancelBooking(user.ID, booking.ID))

	rebooked, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)
	assert.NotEqual(t, booking.ID, rebooked.ID)

	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Equal(t, 1, freshSession.CurrentParticipants)
}

func TestCreateBooking_ConcurrentCapacity(t *testing.T) {
	svc, db := setupBookingService(t)

	session := testutil.TestSession(t, db, testutil.WithCapacity(3, 0))

	const attempts = 10
	userIDs := make([]int64, attempts)
	for i := 0; i < attempts; i++ {
		user := testutil.TestUser(t, db)
		testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
		userIDs[i] = user.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.CreateBooking(userIDs[idx], session.ID)
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		var bookingErr *BookingError
		require.True(t, errors.As(err, &bookingErr), "unexpected error: %v", err)
		assert.Equal(t, BookingCodeSessionFull, bookingErr.Code)
	}

	// 成功数恰好等于名额数，报名人数不超卖
	assert.Equal(t, 3, success)

	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Equal(t, 3, freshSession.CurrentParticipants)

	var confirmed int64
	db.Model(&model.Booking{}).
		Where("session_id = ? AND status = ?", session.ID, model.BookingStatusConfirmed).
		Count(&confirmed)
	assert.Equal(t, int64(3), confirmed)
}

// 单连接 SQLite 下事务天然串行，这个测试覆盖的是行为结果；
// 并发交错下的防重依赖事务内语句顺序，由下面的顺序断言测试把关
func TestCreateBooking_ConcurrentDuplicate(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db, testutil.WithCapacity(10, 0))

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.CreateBooking(user.ID, session.ID)
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
		}
	}
	assert.Equal(t, 1, success)

	var confirmed int64
	db.Model(&model.Booking{}).
		Where("user_id = ? AND session_id = ? AND status = ?",
			user.ID, session.ID, model.BookingStatusConfirmed).
		Count(&confirmed)
	assert.Equal(t, int64(1), confirmed)
}

// sqlRecorder 按执行顺序记录 SQL，用于断言事务内的语句顺序
type sqlRecorder struct {
	mu    sync.Mutex
	stmts []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmts = append(r.stmts, sql)
	r.mu.Unlock()
}

// 受理事务里名额递增必须先于重复检查：条件 UPDATE 先对课程行加锁，
// MySQL REPEATABLE READ 的读视图由事务内第一条普通 SELECT 建立，
// 先查后锁会看不到并发事务已提交的预约。SQLite 上复现不了这个交错，
// 这里直接断言语句顺序
func TestCreateBooking_SeatLockPrecedesDuplicateCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	recorder := &sqlRecorder{}
	recorded := db.Session(&gorm.Session{Logger: recorder})

	cfg := bookingTestConfig()
	sessionRepo := repository.NewSessionRepository(recorded)
	bookingRepo := repository.NewBookingRepository(recorded)
	subscriptionRepo := repository.NewSubscriptionRepository(recorded)
	userRepo := repository.NewUserRepository(recorded)
	validation := NewBookingValidationService(
		sessionRepo, bookingRepo, subscriptionRepo, userRepo, cfg)
	svc := NewBookingService(
		recorded, validation, bookingRepo, sessionRepo, userRepo, nil, nil, nil, cfg)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db)

	_, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)

	recorder.mu.Lock()
	stmts := append([]string(nil), recorder.stmts...)
	recorder.mu.Unlock()

	incrementIdx := -1
	for i, stmt := range stmts {
		if strings.Contains(stmt, "current_participants < max_participants") {
			incrementIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, incrementIdx, 0, "未记录到名额递增语句")

	insertIdx := -1
	for i, stmt := range stmts {
		if strings.Contains(stmt, "INSERT INTO") && strings.Contains(stmt, "bookings") {
			insertIdx = i
			break
		}
	}
	require.Greater(t, insertIdx, incrementIdx, "预约写入必须在名额递增之后")

	// 递增和写入之间必须出现一次 confirmed 预约的重复检查
	dupIdx := -1
	for i := incrementIdx + 1; i < insertIdx; i++ {
		if strings.Contains(stmts[i], "count") &&
			strings.Contains(stmts[i], "bookings") &&
			strings.Contains(stmts[i], "session_id") {
			dupIdx = i
			break
		}
	}
	require.Greater(t, dupIdx, incrementIdx, "重复检查必须发生在名额递增（行锁）之后")
}

func TestCancelBooking_Success(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db, testutil.WithPoints(100))
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db, testutil.WithPointsRequired(30))

	booking, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)

	require.NoError(t, svc.CancelBooking(user.ID, booking.ID))

	var freshBooking model.Booking
	require.NoError(t, db.First(&freshBooking, booking.ID).Error)
	assert.Equal(t, model.BookingStatusCancelled, freshBooking.Status)
	assert.NotNil(t, freshBooking.CancelledAt)

	// 名额释放，积分退回
	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Zero(t, freshSession.CurrentParticipants)

	var freshUser model.User
	require.NoError(t, db.First(&freshUser, user.ID).Error)
	assert.Equal(t, 100, freshUser.Points)
}

func TestCancelBooking_NotFound(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	err := svc.CancelBooking(user.ID, 99999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_NotOwner(t *testing.T) {
	svc, db := setupBookingService(t)

	owner := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, owner.ID, model.PlanPremium, model.SubscriptionStatusActive)
	other := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db)

	booking, err := svc.CreateBooking(owner.ID, session.ID)
	require.NoError(t, err)

	err = svc.CancelBooking(other.ID, booking.ID)
	assert.ErrorIs(t, err, ErrBookingPermission)
}

func TestCancelBooking_Twice(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db)

	booking, err := svc.CreateBooking(user.ID, session.ID)
	require.NoError(t, err)

	require.NoError(t, svc.CancelBooking(user.ID, booking.ID))
	err = svc.CancelBooking(user.ID, booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotCancellable)

	// 重复取消不会把人数减成负数
	var freshSession model.Session
	require.NoError(t, db.First(&freshSession, session.ID).Error)
	assert.Zero(t, freshSession.CurrentParticipants)
}

func TestListBookings(t *testing.T) {
	svc, db := setupBookingService(t)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)

	s1 := testutil.TestSession(t, db)
	s2 := testutil.TestSession(t, db,
		testutil.WithScheduledAt(time.Now().Add(72*time.Hour)))

	_, err := svc.CreateBooking(user.ID, s1.ID)
	require.NoError(t, err)
	_, err = svc.CreateBooking(user.ID, s2.ID)
	require.NoError(t, err)

	items, total, err := svc.ListBookings(user.ID, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.NotEmpty(t, items[0].SessionTitle)
	assert.NotEmpty(t, items[0].ScheduledAt)
}

func TestGetBooking_Permission(t *testing.T) {
	svc, db := setupBookingService(t)

	owner := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, owner.ID, model.PlanPremium, model.SubscriptionStatusActive)
	other := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db)

	booking, err := svc.CreateBooking(owner.ID, session.ID)
	require.NoError(t, err)

	detail, err := svc.GetBooking(owner.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, detail.ID)

	_, err = svc.GetBooking(other.ID, booking.ID)
	assert.ErrorIs(t, err, ErrBookingPermission)
}
