package models

import "time"

// Status is the lifecycle state of a payment
type Status string

const (
	StatusPending   Status = "pending"
	StatusDueNow    Status = "due_now"
	StatusOverdue   Status = "overdue"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDueNow, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

// Payment represents a payment owed by a payee
type Payment struct {
	ID              string    `json:"_id"`
	FirstName       string    `json:"payee_first_name" validate:"required"`
	LastName        string    `json:"payee_last_name" validate:"required"`
	Status          Status    `json:"payee_payment_status" validate:"required,oneof=pending due_now overdue completed"`
	AddedDate       time.Time `json:"payee_added_date_utc"`
	DueDate         Date      `json:"payee_due_date"`
	AddressLine1    string    `json:"payee_address_line_1" validate:"required"`
	AddressLine2    string    `json:"payee_address_line_2"`
	City            string    `json:"payee_city" validate:"required"`
	Country         string    `json:"payee_country" validate:"country_alpha2"`
	ProvinceOrState string    `json:"payee_province_or_state"`
	PostalCode      string    `json:"payee_postal_code" validate:"required"`
	PhoneNumber     string    `json:"payee_phone_number" validate:"phone_e164"`
	Email           string    `json:"payee_email" validate:"required,email"`
	Currency        string    `json:"currency" validate:"currency_alpha3"`
	DiscountPercent *float64  `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
	TaxPercent      *float64  `json:"tax_percent" validate:"omitempty,gte=0"`
	DueAmount       float64   `json:"due_amount" validate:"gte=0"`
	EvidenceFileID  string    `json:"evidence_file_id,omitempty"`

	// Derived on read, never persisted.
	TotalDue *float64 `json:"total_due,omitempty"`
	// EvidenceFile is left unresolved in listings.
	EvidenceFile *string `json:"evidence_file"`
}

// PaymentPatch is a partial update; nil fields are left untouched
type PaymentPatch struct {
	FirstName       *string    `json:"payee_first_name" validate:"omitempty,min=1"`
	LastName        *string    `json:"payee_last_name" validate:"omitempty,min=1"`
	Status          *Status    `json:"payee_payment_status" validate:"omitempty,oneof=pending due_now overdue completed"`
	AddedDate       *time.Time `json:"payee_added_date_utc"`
	DueDate         *Date      `json:"payee_due_date"`
	AddressLine1    *string    `json:"payee_address_line_1" validate:"omitempty,min=1"`
	AddressLine2    *string    `json:"payee_address_line_2"`
	City            *string    `json:"payee_city" validate:"omitempty,min=1"`
	Country         *string    `json:"payee_country" validate:"omitempty,country_alpha2"`
	ProvinceOrState *string    `json:"payee_province_or_state"`
	PostalCode      *string    `json:"payee_postal_code" validate:"omitempty,min=1"`
	PhoneNumber     *string    `json:"payee_phone_number" validate:"omitempty,phone_e164"`
	Email           *string    `json:"payee_email" validate:"omitempty,email"`
	Currency        *string    `json:"currency" validate:"omitempty,currency_alpha3"`
	DiscountPercent *float64   `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
	TaxPercent      *float64   `json:"tax_percent" validate:"omitempty,gte=0"`
	DueAmount       *float64   `json:"due_amount" validate:"omitempty,gte=0"`
	EvidenceFileID  *string    `json:"evidence_file_id"`
}

// Empty reports whether the patch changes nothing
func (pp PaymentPatch) Empty() bool {
	return pp == PaymentPatch{}
}

// Apply writes the non-nil fields of the patch onto p
func (pp PaymentPatch) Apply(p *Payment) {
	setString(&p.FirstName, pp.FirstName)
	setString(&p.LastName, pp.LastName)
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.AddedDate != nil {
		p.AddedDate = *pp.AddedDate
	}
	if pp.DueDate != nil {
		p.DueDate = *pp.DueDate
	}
	setString(&p.AddressLine1, pp.AddressLine1)
	setString(&p.AddressLine2, pp.AddressLine2)
	setString(&p.City, pp.City)
	setString(&p.Country, pp.Country)
	setString(&p.ProvinceOrState, pp.ProvinceOrState)
	setString(&p.PostalCode, pp.PostalCode)
	setString(&p.PhoneNumber, pp.PhoneNumber)
	setString(&p.Email, pp.Email)
	setString(&p.Currency, pp.Currency)
	if pp.DiscountPercent != nil {
		v := *pp.DiscountPercent
		p.DiscountPercent = &v
	}
	if pp.TaxPercent != nil {
		v := *pp.TaxPercent
		p.TaxPercent = &v
	}
	if pp.DueAmount != nil {
		p.DueAmount = *pp.DueAmount
	}
	setString(&p.EvidenceFileID, pp.EvidenceFileID)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ListQuery holds the listing parameters
type ListQuery struct {
	Page   int
	Limit  int
	Status Status
	Search string
}

// PaymentPage is one page of a listing
type PaymentPage struct {
	Total int64     `json:"total"`
	Data  []Payment `json:"data"`
}
