package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/ingest"
	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/repository"
	"github.com/Dan9191/payments-tracker/internal/utils"
)

// Service handles business logic
type Service struct {
	payments  repository.PaymentStore
	evidence  repository.EvidenceStore
	validator *Validator
	notifier  Notifier
	log       *logrus.Logger
	now       func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the wall clock used to decide what "today" is
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier enables payment reminders
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService initializes a new service
func NewService(payments repository.PaymentStore, evidence repository.EvidenceStore, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		payments:  payments,
		evidence:  evidence,
		validator: NewValidator(),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current UTC calendar date
func (s *Service) Today() models.Date {
	return models.NewDate(s.now().UTC())
}

// CreatePayment validates and stores a single payment
func (s *Service) CreatePayment(ctx context.Context, p *models.Payment) (string, error) {
	p.ID = ""
	p.TotalDue = nil
	p.EvidenceFile = nil
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if err := s.validator.Payment(p); err != nil {
		return "", err
	}
	p.Status = DeriveStatus(p.Status, p.DueDate, s.Today())

	id, err := s.payments.InsertPayment(ctx, p)
	if err != nil {
		return "", storeErr("create payment", err)
	}
	s.log.WithFields(logrus.Fields{"payment_id": id, "status": p.Status}).Info("Payment created")
	return id, nil
}

// ImportPayments normalizes, validates and stores a batch of raw rows.
// The first invalid row rejects the whole batch.
func (s *Service) ImportPayments(ctx context.Context, rows []ingest.Row) (int, error) {
	payments, err := ingest.Normalize(rows)
	if err != nil {
		return 0, err
	}
	if len(payments) == 0 {
		return 0, nil
	}

	today := s.Today()
	for i := range payments {
		if err := s.validator.Payment(&payments[i]); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Row = rows[i].Position(i + 1)
			}
			return 0, err
		}
		payments[i].Status = DeriveStatus(payments[i].Status, payments[i].DueDate, today)
	}

	ids, err := s.payments.InsertPayments(ctx, payments)
	if err != nil {
		return 0, storeErr("insert payments", err)
	}
	s.log.WithField("count", len(ids)).Info("Payments imported")
	return len(ids), nil
}

// ListPayments sweeps statuses, then returns one filtered page with total_due filled in
func (s *Service) ListPayments(ctx context.Context, q models.ListQuery) (*models.PaymentPage, error) {
	if q.Page < 1 {
		return nil, &ValidationError{Field: "page", Reason: "must be greater than or equal to 1"}
	}
	if q.Limit < 1 {
		return nil, &ValidationError{Field: "limit", Reason: "must be greater than or equal to 1"}
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be one of: pending due_now overdue completed"}
	}

	if _, err := s.SweepStatuses(ctx, s.Today()); err != nil {
		return nil, err
	}

	filter := repository.PaymentFilter{Status: q.Status, Search: strings.TrimSpace(q.Search)}
	total, err := s.payments.CountPayments(ctx, filter)
	if err != nil {
		return nil, storeErr("count payments", err)
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return &models.PaymentPage{Total: total, Data: []models.Payment{}}, nil
	}
	items, err := s.payments.FindPayments(ctx, filter, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, storeErr("list payments", err)
	}
	for i := range items {
		withTotalDue(&items[i])
		items[i].EvidenceFile = nil
	}
	return &models.PaymentPage{Total: total, Data: items}, nil
}

// GetPayment returns one payment with its status projected onto today
func (s *Service) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		return nil, storeErr("find payment", err)
	}
	p.Status = DeriveStatus(p.Status, p.DueDate, s.Today())
	withTotalDue(p)
	return p, nil
}

// UpdatePayment applies a partial update. Completed requires an evidence
// reference on the stored record or in the same update.
func (s *Service) UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) error {
	if patch.Empty() {
		return &ValidationError{Field: "body", Reason: "has no fields to update"}
	}
	if err := s.validator.Patch(&patch); err != nil {
		return err
	}

	existing, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		return storeErr("find payment", err)
	}
	merged := *existing
	patch.Apply(&merged)
	if err := requireEvidence(&merged); err != nil {
		return err
	}

	derived := DeriveStatus(merged.Status, merged.DueDate, s.Today())
	if patch.Status != nil || derived != existing.Status {
		patch.Status = &derived
	}

	if err := s.payments.UpdatePayment(ctx, id, patch); err != nil {
		return storeErr("update payment", err)
	}
	s.log.WithFields(logrus.Fields{"payment_id": id, "status": derived}).Info("Payment updated")
	return nil
}

// DeletePayment removes a payment; its evidence stays in the store
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	if err := s.payments.DeletePayment(ctx, id); err != nil {
		return storeErr("delete payment", err)
	}
	s.log.WithField("payment_id", id).Info("Payment deleted")
	return nil
}

func withTotalDue(p *models.Payment) {
	total := utils.ComputeTotalDue(p.DueAmount, p.DiscountPercent, p.TaxPercent)
	p.TotalDue = &total
}
