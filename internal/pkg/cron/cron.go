package cron

import (
	"log"
	"time"

	"github.com/wlzhg/lingua_go_server/internal/repository"
)

// Service 定时清扫：已结束课程下架，对应 confirmed 预约置为 completed
type Service struct {
	bookingRepo *repository.BookingRepository
	sessionRepo *repository.SessionRepository
	interval    time.Duration
	stopChan    chan struct{}
}

func NewService(
	bookingRepo *repository.BookingRepository,
	sessionRepo *repository.SessionRepository,
	interval time.Duration,
) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runSweep()
	log.Println("Cron service started (session sweep)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

func (s *Service) runSweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.Sweep(time.Now()); err != nil {
				log.Printf("Sweep failed: %v", err)
			}
		}
	}
}

// Sweep 执行一次清扫
// 先结算预约再下架课程，顺序反过来会漏掉刚结束课程的预约
func (s *Service) Sweep(now time.Time) error {
	completed, err := s.bookingRepo.MarkCompletedBefore(now)
	if err != nil {
		return err
	}

	sessions, err := s.sessionRepo.ListStartedActive(now)
	if err != nil {
		return err
	}

	endedIDs := make([]int64, 0, len(sessions))
	for _, sess := range sessions {
		if sess.EndTime().Before(now) {
			endedIDs = append(endedIDs, sess.ID)
		}
	}
	if len(endedIDs) > 0 {
		if err := s.sessionRepo.DeactivateByIDs(endedIDs); err != nil {
			return err
		}
	}

	if completed > 0 || len(endedIDs) > 0 {
		log.Printf("Sweep summary: bookings_completed=%d, sessions_deactivated=%d", completed, len(endedIDs))
	}
	return nil
}

// RunNow 立即执行一次清扫（手动触发用）
func (s *Service) RunNow() error {
	log.Println("Manual sweep triggered...")
	return s.Sweep(time.Now())
}
