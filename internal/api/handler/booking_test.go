package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/api/middleware"
	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/pkg/response"
	"github.com/wlzhg/lingua_go_server/internal/repository"
	"github.com/wlzhg/lingua_go_server/internal/service"
	"github.com/wlzhg/lingua_go_server/internal/testutil"
)

func setupBookingHandler(t *testing.T) (*BookingHandler, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		Booking: config.BookingConfig{
			StandardMonthlyLimit: 4,
			StandardActiveLimit:  4,
			PremiumActiveLimit:   2,
			TrialLifetimeLimit:   1,
			MinimumNoticeHours:   24,
		},
	}

	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	userRepo := repository.NewUserRepository(db)

	validationService := service.NewBookingValidationService(
		sessionRepo, bookingRepo, subscriptionRepo, userRepo, cfg)
	limitsService := service.NewBookingLimitsService(
		bookingRepo, subscriptionRepo, userRepo, cfg)
	// 旁路依赖（活动流、推送、通知队列）留空，handler 测试只关注同步路径
	bookingService := service.NewBookingService(
		db, validationService, bookingRepo, sessionRepo, userRepo,
		nil, nil, nil, cfg)

	handler := NewBookingHandler(bookingService, validationService, limitsService)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handler, db, cleanup
}

// bookingRouter 用固定用户身份挂载预约路由
func bookingRouter(handler *BookingHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})

	router.POST("/bookings", handler.Create)
	router.GET("/bookings", handler.List)
	router.GET("/bookings/validate", handler.Validate)
	router.GET("/bookings/limits", handler.GetLimits)
	router.GET("/bookings/:id", handler.Get)
	router.DELETE("/bookings/:id", handler.Cancel)
	return router
}

func TestBookingHandler_Create_Success(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanStandard, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db)

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "POST", "/bookings", dto.CreateBookingRequest{
		SessionID: session.ID,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, "预约成功", resp.Message)
}

func TestBookingHandler_Create_Denied(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	// 无订阅用户直接被拒
	user := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db)

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "POST", "/bookings", dto.CreateBookingRequest{
		SessionID: session.ID,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeBookingDenied, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NO_SUBSCRIPTION", data["error_code"])

	reasons, ok := data["reasons"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, reasons)
}

func TestBookingHandler_Create_SessionFull(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanStandard, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db, testutil.WithCapacity(5, 5))

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "POST", "/bookings", dto.CreateBookingRequest{
		SessionID: session.ID,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeBookingDenied, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SESSION_FULL", data["error_code"])
}

func TestBookingHandler_Create_InvalidBody(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	router := bookingRouter(handler, user.ID)

	req := httptest.NewRequest("POST", "/bookings", bytes.NewBufferString("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestBookingHandler_Validate(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)
	session := testutil.TestSession(t, db)

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "GET",
		fmt.Sprintf("/bookings/validate?session_id=%d", session.ID), nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["can_book"])

	// 只读校验不产生预约
	var count int64
	db.Model(&model.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBookingHandler_Validate_MissingSessionID(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	router := bookingRouter(handler, user.ID)

	w := performRequest(router, "GET", "/bookings/validate", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestBookingHandler_GetLimits(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db, testutil.WithPoints(120))
	testutil.TestSubscription(t, db, user.ID, model.PlanStandard, model.SubscriptionStatusActive)

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "GET", "/bookings/limits", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), data["active_limit"])
	assert.Equal(t, float64(120), data["points_balance"])
	assert.Equal(t, true, data["can_book_more"])
}

func TestBookingHandler_List(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db)
	testutil.TestBooking(t, db, user.ID, session.ID)

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "GET", "/bookings?page=1&page_size=10", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total"])
}

func TestBookingHandler_Cancel(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db, testutil.WithCapacity(10, 1))
	booking := testutil.TestBooking(t, db, user.ID, session.ID)

	router := bookingRouter(handler, user.ID)
	w := performRequest(router, "DELETE", fmt.Sprintf("/bookings/%d", booking.ID), nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, "预约已取消", resp.Message)

	fresh := &model.Booking{}
	require.NoError(t, db.First(fresh, booking.ID).Error)
	assert.Equal(t, model.BookingStatusCancelled, fresh.Status)
}

func TestBookingHandler_Cancel_NotOwner(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	session := testutil.TestSession(t, db, testutil.WithCapacity(10, 1))
	booking := testutil.TestBooking(t, db, owner.ID, session.ID)

	router := bookingRouter(handler, other.ID)
	w := performRequest(router, "DELETE", fmt.Sprintf("/bookings/%d", booking.ID), nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestBookingHandler_Get_NotFound(t *testing.T) {
	handler, db, cleanup := setupBookingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	router := bookingRouter(handler, user.ID)

	w := performRequest(router, "GET", "/bookings/99999", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}
