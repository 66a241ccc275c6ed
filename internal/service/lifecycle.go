package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/repository"
)

// DeriveStatus projects a stored status onto a date. Completed never changes;
// otherwise a payment due today is due_now and one due earlier is overdue.
func DeriveStatus(stored models.Status, due, today models.Date) models.Status {
	if stored == models.StatusCompleted {
		return stored
	}
	switch {
	case due.Equal(today):
		return models.StatusDueNow
	case due.Before(today):
		return models.StatusOverdue
	}
	return stored
}

// SweepResult counts the payments each sweep rule changed
type SweepResult struct {
	DueNow  int64
	Overdue int64
}

// SweepStatuses persists DeriveStatus for the whole collection with two bulk updates
func (s *Service) SweepStatuses(ctx context.Context, today models.Date) (SweepResult, error) {
	var res SweepResult
	var err error

	res.DueNow, err = s.payments.UpdateStatus(ctx,
		repository.PaymentFilter{ExcludeStatus: models.StatusCompleted, DueOn: &today},
		models.StatusDueNow)
	if err != nil {
		return res, storeErr("mark payments due now", err)
	}
	res.Overdue, err = s.payments.UpdateStatus(ctx,
		repository.PaymentFilter{ExcludeStatus: models.StatusCompleted, DueBefore: &today},
		models.StatusOverdue)
	if err != nil {
		return res, storeErr("mark payments overdue", err)
	}

	if res.DueNow > 0 || res.Overdue > 0 {
		s.log.WithFields(logrus.Fields{
			"date":    today.String(),
			"due_now": res.DueNow,
			"overdue": res.Overdue,
		}).Info("Payment statuses swept")
	}
	return res, nil
}
