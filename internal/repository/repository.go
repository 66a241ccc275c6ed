package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dan9191/payments-tracker/internal/models"
)

// ErrNotFound is returned when no document matches an identifier
var ErrNotFound = errors.New("not found")

// PaymentStore persists payment records. A limit <= 0 means no limit.
type PaymentStore interface {
	InsertPayments(ctx context.Context, payments []models.Payment) ([]string, error)
	InsertPayment(ctx context.Context, payment *models.Payment) (string, error)
	FindPayments(ctx context.Context, filter PaymentFilter, skip, limit int) ([]models.Payment, error)
	CountPayments(ctx context.Context, filter PaymentFilter) (int64, error)
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) error
	UpdateStatus(ctx context.Context, filter PaymentFilter, status models.Status) (int64, error)
	DeletePayment(ctx context.Context, id string) error
}

// EvidenceStore persists evidence artifacts
type EvidenceStore interface {
	SaveEvidence(ctx context.Context, evidence *models.Evidence) (string, error)
	GetEvidence(ctx context.Context, id string) (*models.Evidence, error)
}

// Store is a backend holding both payments and evidence
type Store interface {
	PaymentStore
	EvidenceStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// PaymentFilter selects payments. Zero fields do not constrain.
type PaymentFilter struct {
	Status        models.Status
	ExcludeStatus models.Status
	// Search matches first name, last name or email, case-insensitively
	Search    string
	DueOn     *models.Date
	DueBefore *models.Date
}

// Matches evaluates the filter against a single payment
func (f PaymentFilter) Matches(p models.Payment) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.ExcludeStatus != "" && p.Status == f.ExcludeStatus {
		return false
	}
	if f.DueOn != nil && !p.DueDate.Equal(*f.DueOn) {
		return false
	}
	if f.DueBefore != nil && !p.DueDate.Before(*f.DueBefore) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.FirstName), term) &&
			!strings.Contains(strings.ToLower(p.LastName), term) &&
			!strings.Contains(strings.ToLower(p.Email), term) {
			return false
		}
	}
	return true
}

type fieldValue struct {
	name  string
	value any
}

// patchFields lists the columns a patch sets; column names match the JSON names
func patchFields(patch models.PaymentPatch) []fieldValue {
	var fields []fieldValue
	addString := func(name string, v *string) {
		if v != nil {
			fields = append(fields, fieldValue{name, *v})
		}
	}
	addFloat := func(name string, v *float64) {
		if v != nil {
			fields = append(fields, fieldValue{name, *v})
		}
	}

	addString("payee_first_name", patch.FirstName)
	addString("payee_last_name", patch.LastName)
	if patch.Status != nil {
		fields = append(fields, fieldValue{"payee_payment_status", string(*patch.Status)})
	}
	if patch.AddedDate != nil {
		fields = append(fields, fieldValue{"payee_added_date_utc", patch.AddedDate.UTC()})
	}
	if patch.DueDate != nil {
		fields = append(fields, fieldValue{"payee_due_date", *patch.DueDate})
	}
	addString("payee_address_line_1", patch.AddressLine1)
	addString("payee_address_line_2", patch.AddressLine2)
	addString("payee_city", patch.City)
	addString("payee_country", patch.Country)
	addString("payee_province_or_state", patch.ProvinceOrState)
	addString("payee_postal_code", patch.PostalCode)
	addString("payee_phone_number", patch.PhoneNumber)
	addString("payee_email", patch.Email)
	addString("currency", patch.Currency)
	addFloat("discount_percent", patch.DiscountPercent)
	addFloat("tax_percent", patch.TaxPercent)
	addFloat("due_amount", patch.DueAmount)
	addString("evidence_file_id", patch.EvidenceFileID)
	return fields
}

func utcNowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
