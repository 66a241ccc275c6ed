// Package ingest turns raw tabular input (CSV, XML) into payment candidates.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Dan9191/payments-tracker/internal/models"
)

// Column names shared by every input format
const (
	ColFirstName       = "payee_first_name"
	ColLastName        = "payee_last_name"
	ColStatus          = "payee_payment_status"
	ColAddedDate       = "payee_added_date_utc"
	ColDueDate         = "payee_due_date"
	ColAddressLine1    = "payee_address_line_1"
	ColAddressLine2    = "payee_address_line_2"
	ColCity            = "payee_city"
	ColCountry         = "payee_country"
	ColProvinceOrState = "payee_province_or_state"
	ColPostalCode      = "payee_postal_code"
	ColPhoneNumber     = "payee_phone_number"
	ColEmail           = "payee_email"
	ColCurrency        = "currency"
	ColDiscountPercent = "discount_percent"
	ColTaxPercent      = "tax_percent"
	ColDueAmount       = "due_amount"
	ColEvidenceFileID  = "evidence_file_id"
)

// ErrMalformed is returned when the input is not tabular at all
var ErrMalformed = errors.New("malformed input")

// ParseError reports a field that could not be parsed on ingestion
type ParseError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Row is one raw record keyed by column name
type Row struct {
	// Line locates the record in its source: the file line for CSV (the
	// header is line 1), the payment element ordinal for XML. 0 when unknown.
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of a column, or "" when absent
func (r Row) Get(col string) string {
	return strings.TrimSpace(r.Fields[col])
}

// Position returns Line, or fallback when the source did not record one
func (r Row) Position(fallback int) int {
	if r.Line > 0 {
		return r.Line
	}
	return fallback
}

// Normalize converts raw rows into payment candidates. Dates must parse;
// unparseable discount and tax become 0 and an unparseable due amount
// becomes NaN. Candidates are not validated.
func Normalize(rows []Row) ([]models.Payment, error) {
	payments := make([]models.Payment, 0, len(rows))
	for i, row := range rows {
		p, err := normalizeRow(row)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Row = row.Position(i + 1)
			}
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func normalizeRow(row Row) (models.Payment, error) {
	added, err := models.ParseTimestamp(row.Get(ColAddedDate))
	if err != nil {
		return models.Payment{}, &ParseError{Field: ColAddedDate, Value: row.Get(ColAddedDate), Err: err}
	}
	due, err := models.ParseDate(row.Get(ColDueDate))
	if err != nil {
		return models.Payment{}, &ParseError{Field: ColDueDate, Value: row.Get(ColDueDate), Err: err}
	}

	status := models.Status(row.Get(ColStatus))
	if status == "" {
		status = models.StatusPending
	}

	return models.Payment{
		FirstName:       row.Get(ColFirstName),
		LastName:        row.Get(ColLastName),
		Status:          status,
		AddedDate:       added,
		DueDate:         due,
		AddressLine1:    row.Get(ColAddressLine1),
		AddressLine2:    row.Get(ColAddressLine2),
		City:            row.Get(ColCity),
		Country:         row.Get(ColCountry),
		ProvinceOrState: row.Get(ColProvinceOrState),
		PostalCode:      row.Get(ColPostalCode),
		PhoneNumber:     row.Get(ColPhoneNumber),
		Email:           row.Get(ColEmail),
		Currency:        row.Get(ColCurrency),
		DiscountPercent: zeroIfMissing(parseNumber(row.Get(ColDiscountPercent))),
		TaxPercent:      zeroIfMissing(parseNumber(row.Get(ColTaxPercent))),
		DueAmount:       parseNumber(row.Get(ColDueAmount)),
		EvidenceFileID:  row.Get(ColEvidenceFileID),
	}, nil
}

// parseNumber returns NaN for anything that is not a finite number
func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func zeroIfMissing(f float64) *float64 {
	if math.IsNaN(f) {
		f = 0
	}
	return &f
}
