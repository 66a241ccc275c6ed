package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/config"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendPaymentReminder sends a payment reminder email
func (s *Sender) SendPaymentReminder(to, name string, dueDate time.Time, amount float64, currency string, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Payment Notification"
	} else {
		e.Subject = "Payment Due Today"
	}

	// Format email body
	body := fmt.Sprintf(
		"Dear %s,\n\n", name,
	)
	if isOverdue {
		body += fmt.Sprintf(
			"Your payment of %.2f %s was due on %s and is now overdue.\n"+
				"Please make the payment and upload proof of payment as soon as possible.\n",
			amount, currency, dueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your payment of %.2f %s is due today, %s.\n"+
				"Once paid, please upload proof of payment so it can be marked completed.\n",
			amount, currency, dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nPayments Team"
	e.Text = []byte(body)

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
