package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/repository"
	"github.com/Dan9191/payments-tracker/internal/utils"
)

// Notifier delivers payment reminders to payees
type Notifier interface {
	SendPaymentReminder(to, name string, dueDate time.Time, amount float64, currency string, isOverdue bool) error
}

// SendReminders notifies payees whose payment is due today or became overdue
// yesterday. Delivery failures are logged and skipped.
func (s *Service) SendReminders(ctx context.Context, today models.Date) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	yesterday := today.AddDays(-1)
	batches := []struct {
		filter  repository.PaymentFilter
		overdue bool
	}{
		{repository.PaymentFilter{Status: models.StatusDueNow, DueOn: &today}, false},
		{repository.PaymentFilter{Status: models.StatusOverdue, DueOn: &yesterday}, true},
	}

	sent := 0
	for _, b := range batches {
		payments, err := s.payments.FindPayments(ctx, b.filter, 0, 0)
		if err != nil {
			return sent, storeErr("find payments to remind", err)
		}
		for _, p := range payments {
			amount := utils.ComputeTotalDue(p.DueAmount, p.DiscountPercent, p.TaxPercent)
			name := p.FirstName + " " + p.LastName
			if err := s.notifier.SendPaymentReminder(p.Email, name, p.DueDate.Time, amount, p.Currency, b.overdue); err != nil {
				s.log.WithFields(logrus.Fields{"payment_id": p.ID, "email": p.Email}).
					Errorf("Failed to send reminder: %v", err)
				continue
			}
			sent++
		}
	}
	return sent, nil
}
