package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/api"
	"github.com/wlzhg/lingua_go_server/internal/api/handler"
	"github.com/wlzhg/lingua_go_server/internal/database"
	"github.com/wlzhg/lingua_go_server/internal/pkg/cron"
	"github.com/wlzhg/lingua_go_server/internal/pkg/pubsub"
	"github.com/wlzhg/lingua_go_server/internal/pkg/queue"
	"github.com/wlzhg/lingua_go_server/internal/pkg/ws"
	"github.com/wlzhg/lingua_go_server/internal/repository"
	"github.com/wlzhg/lingua_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 Queue 和 Pub/Sub
	notifyQueue := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	publisher := pubsub.NewPublisher(rdb)
	subscriber := pubsub.NewSubscriber(rdb)

	// 初始化 WebSocket Hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// 预约事件转发：Redis 订阅 -> WebSocket 广播
	go func() {
		for {
			err := subscriber.Subscribe(context.Background(), func(msg *pubsub.BookingEventMessage) {
				if err := wsHub.Broadcast(&ws.Message{Type: msg.Type, Data: msg}); err != nil {
					log.Printf("Failed to broadcast booking event: %v", err)
				}
			})
			if err != nil {
				log.Printf("Booking event subscription lost: %v, retrying...", err)
				time.Sleep(3 * time.Second)
			}
		}
	}()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo, subscriptionRepo, activityRepo)
	sessionService := service.NewSessionService(db, sessionRepo)
	validationService := service.NewBookingValidationService(
		sessionRepo, bookingRepo, subscriptionRepo, userRepo, cfg)
	limitsService := service.NewBookingLimitsService(
		bookingRepo, subscriptionRepo, userRepo, cfg)
	bookingService := service.NewBookingService(
		db, validationService, bookingRepo, sessionRepo, userRepo, activityRepo,
		publisher, notifyQueue, cfg)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	bookingHandler := handler.NewBookingHandler(bookingService, validationService, limitsService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 启动定时清扫
	cronService := cron.NewService(bookingRepo, sessionRepo, time.Hour)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		sessionHandler,
		bookingHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
