package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/pkg/response"
	"github.com/wlzhg/lingua_go_server/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// List 未开始课程列表
// GET /api/v1/sessions?type=standard&page=1&page_size=20
func (h *SessionHandler) List(c *gin.Context) {
	sessionType := c.Query("type")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.sessionService.ListUpcoming(sessionType, page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 课程详情
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "")
		return
	}

	detail, err := h.sessionService.GetSession(id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, detail)
}

// Create 创建课程（管理端）
// POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	session, err := h.sessionService.CreateSession(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidScheduledAt),
			errors.Is(err, service.ErrScheduledInPast):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "课程创建成功", session)
}

// ListSeries 周期课程的全部实例
// GET /api/v1/sessions/:id/series
func (h *SessionHandler) ListSeries(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "")
		return
	}

	sessions, err := h.sessionService.ListSeries(id)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, sessions)
}

// Deactivate 下架课程（管理端）
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "")
		return
	}

	if err := h.sessionService.DeactivateSession(id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "课程已下架", nil)
}
