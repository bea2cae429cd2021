package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wlzhg/lingua_go_server/internal/api/middleware"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/pkg/response"
	"github.com/wlzhg/lingua_go_server/internal/service"
)

type BookingHandler struct {
	bookingService    *service.BookingService
	validationService *service.BookingValidationService
	limitsService     *service.BookingLimitsService
}

func NewBookingHandler(
	bookingService *service.BookingService,
	validationService *service.BookingValidationService,
	limitsService *service.BookingLimitsService,
) *BookingHandler {
	return &BookingHandler{
		bookingService:    bookingService,
		validationService: validationService,
		limitsService:     limitsService,
	}
}

// Create 创建预约
// POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(userID, req.SessionID)
	if err != nil {
		var bookingErr *service.BookingError
		if errors.As(err, &bookingErr) {
			response.BookingDenied(c, bookingErr.Message, bookingErr.Code, bookingErr.Reasons)
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "预约成功", booking)
}

// Validate 预约前校验，只读不落地
// GET /api/v1/bookings/validate?session_id=123
func (h *BookingHandler) Validate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	sessionID, err := strconv.ParseInt(c.Query("session_id"), 10, 64)
	if err != nil || sessionID < 1 {
		response.ParamError(c, "")
		return
	}

	result, err := h.validationService.Validate(userID, sessionID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}

// GetLimits 查询当前预约额度
// GET /api/v1/bookings/limits
func (h *BookingHandler) GetLimits(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.limitsService.GetLimits(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// List 预约列表
// GET /api/v1/bookings?page=1&page_size=20
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.bookingService.ListBookings(userID, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 预约详情
// GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "")
		return
	}

	detail, err := h.bookingService.GetBooking(userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrBookingPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, detail)
}

// Cancel 取消预约
// DELETE /api/v1/bookings/:id
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "")
		return
	}

	if err := h.bookingService.CancelBooking(userID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrBookingPermission):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrBookingNotCancellable):
			response.DuplicateError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "预约已取消", nil)
}
