package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/wlzhg/lingua_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendBookingConfirmed 发送预约成功邮件
func (s *Service) SendBookingConfirmed(to, sessionTitle, scheduledAt string) error {
	subject := "预约成功 - Lingua 语言学习平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">预约成功</h2>
        <p>您好，</p>
        <p>您已成功预约以下课程：</p>
        <div style="background-color: #f3f4f6; padding: 15px; margin: 20px 0;">
            <p style="font-size: 18px; font-weight: bold; margin: 0;">%s</p>
            <p style="margin: 5px 0 0;">开课时间：%s</p>
        </div>
        <p>请提前 10 分钟进入教室，祝学习愉快！</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, sessionTitle, scheduledAt)

	return s.sendHTML(to, subject, body)
}

// SendBookingCancelled 发送预约取消邮件
func (s *Service) SendBookingCancelled(to, sessionTitle, scheduledAt string) error {
	subject := "预约已取消 - Lingua 语言学习平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">预约已取消</h2>
        <p>您好，</p>
        <p>您已取消以下课程的预约：</p>
        <div style="background-color: #f3f4f6; padding: 15px; margin: 20px 0;">
            <p style="font-size: 18px; font-weight: bold; margin: 0;">%s</p>
            <p style="margin: 5px 0 0;">开课时间：%s</p>
        </div>
        <p>消耗的积分已退回账户。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, sessionTitle, scheduledAt)

	return s.sendHTML(to, subject, body)
}

// SendSessionReminder 发送开课提醒邮件
func (s *Service) SendSessionReminder(to, sessionTitle, scheduledAt string) error {
	subject := "开课提醒 - Lingua 语言学习平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">开课提醒</h2>
        <p>您好，</p>
        <p>您预约的课程即将开始：</p>
        <div style="background-color: #f3f4f6; padding: 15px; margin: 20px 0;">
            <p style="font-size: 18px; font-weight: bold; margin: 0;">%s</p>
            <p style="margin: 5px 0 0;">开课时间：%s</p>
        </div>
        <p>请准时参加。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, sessionTitle, scheduledAt)

	return s.sendHTML(to, subject, body)
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
