package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/api/handler"
	"github.com/wlzhg/lingua_go_server/internal/api/middleware"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	sessionHandler   *handler.SessionHandler
	bookingHandler   *handler.BookingHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	sessionHandler *handler.SessionHandler,
	bookingHandler *handler.BookingHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		sessionHandler:   sessionHandler,
		bookingHandler:   bookingHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 公开接口 - 课程浏览（可选认证）
		sessions := api.Group("/sessions")
		sessions.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			sessions.GET("", r.sessionHandler.List)
			sessions.GET("/:id", r.sessionHandler.Get)
			sessions.GET("/:id/series", r.sessionHandler.ListSeries)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.GET("/subscription", r.userHandler.GetSubscription)
				user.GET("/activities", r.userHandler.ListActivities)
			}

			// 预约
			bookings := authenticated.Group("/bookings")
			{
				bookings.POST("", r.bookingHandler.Create)
				bookings.GET("", r.bookingHandler.List)
				bookings.GET("/validate", r.bookingHandler.Validate)
				bookings.GET("/limits", r.bookingHandler.GetLimits)
				bookings.GET("/:id", r.bookingHandler.Get)
				bookings.DELETE("/:id", r.bookingHandler.Cancel)
			}

			// 课程管理
			authenticated.POST("/sessions", r.sessionHandler.Create)
			authenticated.DELETE("/sessions/:id", r.sessionHandler.Deactivate)
		}
	}

	return engine
}
