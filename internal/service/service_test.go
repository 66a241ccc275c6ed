package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/repository"
)

var testToday = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, *repository.MemoryStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := repository.NewMemoryStore()
	opts = append([]Option{WithClock(func() time.Time { return testToday })}, opts...)
	return NewService(store, store, log, opts...), store
}

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func float(v float64) *float64 { return &v }

func validPayment(t *testing.T) *models.Payment {
	return &models.Payment{
		FirstName:       "John",
		LastName:        "Smith",
		AddedDate:       time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		DueDate:         date(t, "2024-04-01"),
		AddressLine1:    "1 Main St",
		City:            "Springfield",
		Country:         "US",
		PostalCode:      "12345",
		PhoneNumber:     "+15551234567",
		Email:           "john.smith@example.com",
		Currency:        "USD",
		DiscountPercent: float(10),
		TaxPercent:      float(5),
		DueAmount:       100,
	}
}

func TestCreatePayment(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreatePayment(ctx, validPayment(t))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stored, err := store.GetPayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	got, err := svc.GetPayment(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.TotalDue)
	assert.Equal(t, 94.5, *got.TotalDue)
}

func TestCreatePaymentDerivesStatus(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		due  string
		want models.Status
	}{
		{"2024-03-15", models.StatusDueNow},
		{"2024-03-01", models.StatusOverdue},
		{"2024-03-16", models.StatusPending},
	}
	for _, tt := range tests {
		p := validPayment(t)
		p.DueDate = date(t, tt.due)
		id, err := svc.CreatePayment(ctx, p)
		require.NoError(t, err)
		stored, err := store.GetPayment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, stored.Status, tt.due)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.Payment)
		field  string
	}{
		{"lowercase country", func(p *models.Payment) { p.Country = "us" }, "payee_country"},
		{"phone without plus", func(p *models.Payment) { p.PhoneNumber = "5551234567" }, "payee_phone_number"},
		{"bad email", func(p *models.Payment) { p.Email = "not-an-email" }, "payee_email"},
		{"currency too long", func(p *models.Payment) { p.Currency = "USDT" }, "currency"},
		{"discount above 100", func(p *models.Payment) { p.DiscountPercent = float(101) }, "discount_percent"},
		{"negative tax", func(p *models.Payment) { p.TaxPercent = float(-1) }, "tax_percent"},
		{"negative amount", func(p *models.Payment) { p.DueAmount = -5 }, "due_amount"},
		{"unknown status", func(p *models.Payment) { p.Status = "paid" }, "payee_payment_status"},
		{"missing city", func(p *models.Payment) { p.City = "" }, "payee_city"},
		{"missing due date", func(p *models.Payment) { p.DueDate = models.Date{} }, "payee_due_date"},
		{"completed without evidence", func(p *models.Payment) { p.Status = models.StatusCompleted }, "evidence_file_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			p := validPayment(t)
			tt.mutate(p)
			_, err := svc.CreatePayment(context.Background(), p)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

const csvHeader = "payee_first_name,payee_last_name,payee_payment_status,payee_added_date_utc,payee_due_date," +
	"payee_address_line_1,payee_address_line_2,payee_city,payee_country,payee_province_or_state," +
	"payee_postal_code,payee_phone_number,payee_email,currency,discount_percent,tax_percent,due_amount\n"

func TestImportFileMatchesSingleCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := csvHeader +
		"John,Smith,pending,2024-01-02 10:00:00,2024-04-01,1 Main St,,Springfield,US,,12345,+15551234567,john.smith@example.com,USD,10,5,100\n"
	n, err := svc.ImportFile(ctx, "payments.csv", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	id, err := svc.CreatePayment(ctx, validPayment(t))
	require.NoError(t, err)

	page, err := svc.ListPayments(ctx, models.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, *page.Data[1].TotalDue, *page.Data[0].TotalDue)
	assert.Equal(t, id, page.Data[1].ID)
}

func TestImportFileRejectsWholeBatch(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := csvHeader +
		"John,Smith,,2024-01-02,2024-04-01,1 Main St,,Springfield,US,,12345,+15551234567,john@example.com,USD,,,100\n" +
		"\n" +
		"Jane,Doe,,2024-01-02,2024-04-01,2 Main St,,Springfield,US,,12345,+15551234568,jane@example.com,USD,,,\n"
	_, err := svc.ImportFile(ctx, "payments.csv", strings.NewReader(doc))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 4, ve.Row, "blank lines still count toward the file line")
	assert.Equal(t, "due_amount", ve.Field)
	assert.Equal(t, "row 4: due_amount is missing or not a number", ve.Error())

	n, err := store.CountPayments(ctx, repository.PaymentFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportFileBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFile(ctx, "payments.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadInput)

	_, err = svc.ImportFile(ctx, "payments.xml", strings.NewReader("<payments><<</payments>"))
	assert.ErrorIs(t, err, ErrBadInput)

	n, err := svc.ImportFile(ctx, "empty.csv", strings.NewReader(csvHeader))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func seed(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		p := validPayment(t)
		p.FirstName = fmt.Sprintf("Payee%02d", i)
		p.LastName = "Jones"
		p.Email = fmt.Sprintf("payee%02d@example.com", i)
		_, err := svc.CreatePayment(context.Background(), p)
		require.NoError(t, err)
	}
}

func TestListPaymentsPagination(t *testing.T) {
	svc, _ := newTestService(t)
	seed(t, svc, 25)

	page, err := svc.ListPayments(context.Background(), models.ListQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	require.Len(t, page.Data, 10)
	assert.Equal(t, "Payee10", page.Data[0].FirstName)
	assert.Equal(t, "Payee19", page.Data[9].FirstName)

	page, err = svc.ListPayments(context.Background(), models.ListQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "Payee20", page.Data[0].FirstName)
	for _, p := range page.Data {
		require.NotNil(t, p.TotalDue)
		assert.Nil(t, p.EvidenceFile)
	}

	page, err = svc.ListPayments(context.Background(), models.ListQuery{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Empty(t, page.Data)
}

func TestListPaymentsPageBeyondRange(t *testing.T) {
	svc, _ := newTestService(t)
	seed(t, svc, 25)

	for _, q := range []models.ListQuery{
		{Page: math.MaxInt/10 + 2, Limit: 10},
		{Page: math.MaxInt, Limit: 100},
	} {
		page, err := svc.ListPayments(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, int64(25), page.Total)
		assert.Empty(t, page.Data, "page %d must not wrap around to the first page", q.Page)
	}
}

func TestListPaymentsSearchAndStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, 3)

	smith := validPayment(t)
	_, err := svc.CreatePayment(ctx, smith)
	require.NoError(t, err)

	byEmail := validPayment(t)
	byEmail.FirstName, byEmail.LastName, byEmail.Email = "Ann", "Lee", "ann@smithco.example"
	byEmail.DueDate = date(t, "2024-03-01")
	_, err = svc.CreatePayment(ctx, byEmail)
	require.NoError(t, err)

	page, err := svc.ListPayments(ctx, models.ListQuery{Page: 1, Limit: 10, Search: "SMITH"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = svc.ListPayments(ctx, models.ListQuery{Page: 1, Limit: 10, Search: "smith", Status: models.StatusOverdue})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Ann", page.Data[0].FirstName)
}

func TestListPaymentsRejectsBadQuery(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []models.ListQuery{
		{Page: 0, Limit: 10},
		{Page: 1, Limit: 0},
		{Page: 1, Limit: 10, Status: "paid"},
	}
	for _, q := range tests {
		_, err := svc.ListPayments(context.Background(), q)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	}
}

func TestSweepStatuses(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Inserted directly so the stored statuses are stale
	_, err := store.InsertPayments(ctx, []models.Payment{
		{FirstName: "a", Status: models.StatusPending, DueDate: date(t, "2024-03-15")},
		{FirstName: "b", Status: models.StatusDueNow, DueDate: date(t, "2024-03-10")},
		{FirstName: "c", Status: models.StatusPending, DueDate: date(t, "2024-03-20")},
		{FirstName: "d", Status: models.StatusCompleted, EvidenceFileID: "e1", DueDate: date(t, "2024-01-01")},
		{FirstName: "e", Status: models.StatusCompleted, EvidenceFileID: "e2", DueDate: date(t, "2024-03-15")},
	})
	require.NoError(t, err)

	res, err := svc.SweepStatuses(ctx, svc.Today())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{DueNow: 1, Overdue: 1}, res)

	first, err := store.FindPayments(ctx, repository.PaymentFilter{}, 0, 0)
	require.NoError(t, err)
	want := []models.Status{models.StatusDueNow, models.StatusOverdue, models.StatusPending, models.StatusCompleted, models.StatusCompleted}
	for i, p := range first {
		assert.Equal(t, want[i], p.Status, p.FirstName)
	}

	res, err = svc.SweepStatuses(ctx, svc.Today())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
	second, err := store.FindPayments(ctx, repository.PaymentFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeriveStatus(t *testing.T) {
	today := date(t, "2024-03-15")
	tests := []struct {
		stored models.Status
		due    string
		want   models.Status
	}{
		{models.StatusPending, "2024-03-15", models.StatusDueNow},
		{models.StatusPending, "2024-03-14", models.StatusOverdue},
		{models.StatusDueNow, "2023-12-31", models.StatusOverdue},
		{models.StatusPending, "2024-03-16", models.StatusPending},
		{models.StatusOverdue, "2024-04-01", models.StatusOverdue},
		{models.StatusCompleted, "2024-03-01", models.StatusCompleted},
		{models.StatusCompleted, "2024-03-15", models.StatusCompleted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveStatus(tt.stored, date(t, tt.due), today), "%s due %s", tt.stored, tt.due)
	}
}

func TestUpdatePayment(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreatePayment(ctx, validPayment(t))
	require.NoError(t, err)

	completed := models.StatusCompleted
	err = svc.UpdatePayment(ctx, id, models.PaymentPatch{Status: &completed})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "evidence_file_id", ve.Field)

	evidenceID := "abc123"
	require.NoError(t, svc.UpdatePayment(ctx, id, models.PaymentPatch{Status: &completed, EvidenceFileID: &evidenceID}))
	stored, err := store.GetPayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, "abc123", stored.EvidenceFileID)
}

func TestUpdatePaymentRederivesStatus(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreatePayment(ctx, validPayment(t))
	require.NoError(t, err)

	due := date(t, "2024-03-15")
	require.NoError(t, svc.UpdatePayment(ctx, id, models.PaymentPatch{DueDate: &due}))
	stored, err := store.GetPayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDueNow, stored.Status)

	pending := models.StatusPending
	require.NoError(t, svc.UpdatePayment(ctx, id, models.PaymentPatch{Status: &pending}))
	stored, err = store.GetPayment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDueNow, stored.Status)
}

func TestUpdatePaymentErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreatePayment(ctx, validPayment(t))
	require.NoError(t, err)

	var ve *ValidationError
	assert.ErrorAs(t, svc.UpdatePayment(ctx, id, models.PaymentPatch{}), &ve)

	bad := "+0123"
	require.ErrorAs(t, svc.UpdatePayment(ctx, id, models.PaymentPatch{PhoneNumber: &bad}), &ve)
	assert.Equal(t, "payee_phone_number", ve.Field)

	city := "Shelbyville"
	assert.ErrorIs(t, svc.UpdatePayment(ctx, "999", models.PaymentPatch{City: &city}), ErrNotFound)
}

func TestDeletePayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id, err := svc.CreatePayment(ctx, validPayment(t))
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayment(ctx, id))
	assert.ErrorIs(t, svc.DeletePayment(ctx, id), ErrNotFound)
	_, err = svc.GetPayment(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingStore struct {
	*repository.MemoryStore
}

func (f failingStore) CountPayments(ctx context.Context, filter repository.PaymentFilter) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestListPaymentsStoreError(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := repository.NewMemoryStore()
	svc := NewService(failingStore{store}, store, log)

	_, err := svc.ListPayments(context.Background(), models.ListQuery{Page: 1, Limit: 10})
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "count payments", se.Op)
}
