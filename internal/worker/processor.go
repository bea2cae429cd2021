package worker

import (
	"context"
	"log"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/pkg/email"
	"github.com/wlzhg/lingua_go_server/internal/pkg/queue"
	"github.com/wlzhg/lingua_go_server/internal/repository"
)

// Processor 通知任务处理器，消费通知队列并发送邮件
type Processor struct {
	userRepo     *repository.UserRepository
	emailService *email.Service
	cfg          *config.Config
}

// NewProcessor 创建任务处理器
func NewProcessor(
	userRepo *repository.UserRepository,
	emailService *email.Service,
	cfg *config.Config,
) *Processor {
	return &Processor{
		userRepo:     userRepo,
		emailService: emailService,
		cfg:          cfg,
	}
}

// Process 处理通知任务
// 邮件发送失败只记日志，不重新入队，通知丢失可以接受
func (p *Processor) Process(ctx context.Context, msg *queue.NotificationMessage) error {
	to := msg.Email
	if to == "" {
		user, err := p.userRepo.GetByID(msg.UserID)
		if err != nil {
			log.Printf("Notification %s: failed to get user %d: %v", msg.Type, msg.UserID, err)
			return nil
		}
		if user.Email == nil || *user.Email == "" {
			log.Printf("Notification %s: user %d has no email, skipped", msg.Type, msg.UserID)
			return nil
		}
		to = *user.Email
	}

	var err error
	switch msg.Type {
	case queue.NotifyBookingConfirmed:
		err = p.emailService.SendBookingConfirmed(to, msg.SessionTitle, msg.ScheduledAt)
	case queue.NotifyBookingCancelled:
		err = p.emailService.SendBookingCancelled(to, msg.SessionTitle, msg.ScheduledAt)
	case queue.NotifySessionReminder:
		err = p.emailService.SendSessionReminder(to, msg.SessionTitle, msg.ScheduledAt)
	default:
		log.Printf("Notification: unknown type %s, skipped", msg.Type)
		return nil
	}

	if err != nil {
		log.Printf("Notification %s: failed to send to %s: %v", msg.Type, to, err)
		return nil
	}

	log.Printf("Notification %s sent to %s (booking %d)", msg.Type, to, msg.BookingID)
	return nil
}
