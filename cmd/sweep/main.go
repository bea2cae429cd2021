package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/database"
	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

var (
	dryRun             = flag.Bool("dry-run", true, "Dry run mode, don't actually update rows")
	completeBookings   = flag.Bool("complete-bookings", true, "Mark bookings of ended sessions as completed")
	deactivateSessions = flag.Bool("deactivate-sessions", true, "Deactivate ended sessions")
)

// 手动触发的一次性清扫，与服务内置的定时清扫逻辑一致
func main() {
	flag.Parse()

	log.Println("Starting sweep task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	now := time.Now()
	completedCount := int64(0)
	deactivatedCount := 0

	// 1. 结算已结束课程的预约
	if *completeBookings {
		log.Println("Marking bookings of ended sessions as completed...")
		if *dryRun {
			count, err := countCompletableBookings(bookingRepo, sessionRepo, now)
			if err != nil {
				log.Fatalf("Failed to count completable bookings: %v", err)
			}
			completedCount = count
		} else {
			completedCount, err = bookingRepo.MarkCompletedBefore(now)
			if err != nil {
				log.Fatalf("Failed to mark bookings completed: %v", err)
			}
		}
		log.Printf("Bookings to complete: %d", completedCount)
	}

	// 2. 下架已结束的课程
	if *deactivateSessions {
		log.Println("Deactivating ended sessions...")
		sessions, err := sessionRepo.ListStartedActive(now)
		if err != nil {
			log.Fatalf("Failed to list started sessions: %v", err)
		}

		endedIDs := make([]int64, 0, len(sessions))
		for _, sess := range sessions {
			if sess.EndTime().Before(now) {
				log.Printf("  - session %d %q (ended %s ago)",
					sess.ID, sess.Title, now.Sub(sess.EndTime()).Round(time.Minute))
				endedIDs = append(endedIDs, sess.ID)
			}
		}

		if !*dryRun && len(endedIDs) > 0 {
			if err := sessionRepo.DeactivateByIDs(endedIDs); err != nil {
				log.Fatalf("Failed to deactivate sessions: %v", err)
			}
		}
		deactivatedCount = len(endedIDs)
		log.Printf("Sessions to deactivate: %d", deactivatedCount)
	}

	// 输出统计
	log.Println(strings.Repeat("=", 60))
	log.Println("Sweep Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Bookings completed: %d", completedCount)
	log.Printf("Sessions deactivated: %d", deactivatedCount)
	if *dryRun {
		log.Println("DRY RUN MODE - No rows were actually updated")
		log.Println("Run with -dry-run=false to apply changes")
	} else {
		log.Println("Sweep completed!")
	}
	log.Println(strings.Repeat("=", 60))
}

// countCompletableBookings 统计待结算的预约数，dry-run 展示用
func countCompletableBookings(bookingRepo *repository.BookingRepository, sessionRepo *repository.SessionRepository, now time.Time) (int64, error) {
	sessions, err := sessionRepo.ListStartedActive(now)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, sess := range sessions {
		if !sess.EndTime().Before(now) {
			continue
		}
		bookings, err := bookingRepo.ListBySessionID(sess.ID)
		if err != nil {
			return 0, err
		}
		for _, b := range bookings {
			if b.Status == model.BookingStatusConfirmed {
				total++
			}
		}
	}
	return total, nil
}
