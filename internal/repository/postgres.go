package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dan9191/payments-tracker/internal/models"
)

const paymentColumns = `payee_first_name, payee_last_name, payee_payment_status, payee_added_date_utc,
	payee_due_date, payee_address_line_1, payee_address_line_2, payee_city, payee_country,
	payee_province_or_state, payee_postal_code, payee_phone_number, payee_email, currency,
	discount_percent, tax_percent, due_amount, evidence_file_id`

const paymentColumnCount = 18

// PostgresRepository provides database operations on PostgreSQL via lib/pq
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository initializes a new repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func paymentArgs(p *models.Payment) []any {
	return []any{
		p.FirstName, p.LastName, string(p.Status), utcNowIfZero(p.AddedDate),
		p.DueDate, p.AddressLine1, p.AddressLine2, p.City, p.Country,
		p.ProvinceOrState, p.PostalCode, p.PhoneNumber, p.Email, p.Currency,
		p.DiscountPercent, p.TaxPercent, p.DueAmount, p.EvidenceFileID,
	}
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(parts, ", ")
}

var insertPaymentQuery = `
	INSERT INTO payments (` + paymentColumns + `)
	VALUES (` + placeholders(1, paymentColumnCount) + `)
	RETURNING id`

// InsertPayments inserts all payments in a single transaction
func (r *PostgresRepository) InsertPayments(ctx context.Context, payments []models.Payment) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertPaymentQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(payments))
	for i := range payments {
		var id int64
		if err := stmt.QueryRowContext(ctx, paymentArgs(&payments[i])...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert payment %d: %w", i+1, err)
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payments: %w", err)
	}
	return ids, nil
}

// InsertPayment inserts one payment and returns its identifier
func (r *PostgresRepository) InsertPayment(ctx context.Context, payment *models.Payment) (string, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, insertPaymentQuery, paymentArgs(payment)...).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to create payment: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// whereClause renders a filter as SQL, numbering placeholders after the given args
func whereClause(f PaymentFilter, args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Status != "" {
		add("payee_payment_status = ?", string(f.Status))
	}
	if f.ExcludeStatus != "" {
		add("payee_payment_status <> ?", string(f.ExcludeStatus))
	}
	if f.DueOn != nil {
		add("payee_due_date = ?", *f.DueOn)
	}
	if f.DueBefore != nil {
		add("payee_due_date < ?", *f.DueBefore)
	}
	if f.Search != "" {
		add("(payee_first_name ILIKE ? OR payee_last_name ILIKE ? OR payee_email ILIKE ?)",
			"%"+escapeLike(f.Search)+"%")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FindPayments returns matching payments ordered by identifier
func (r *PostgresRepository) FindPayments(ctx context.Context, filter PaymentFilter, skip, limit int) ([]models.Payment, error) {
	where, args := whereClause(filter, nil)
	query := `SELECT id, ` + paymentColumns + ` FROM payments` + where + ` ORDER BY id`
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	return payments, nil
}

// CountPayments counts matching payments
func (r *PostgresRepository) CountPayments(ctx context.Context, filter PaymentFilter) (int64, error) {
	where, args := whereClause(filter, nil)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return n, nil
}

// GetPayment retrieves a payment by identifier
func (r *PostgresRepository) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, `+paymentColumns+` FROM payments WHERE id = $1`, pk)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePayment applies a partial update to one payment
func (r *PostgresRepository) UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) error {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	fields := patchFields(patch)
	if len(fields) == 0 {
		_, err := r.GetPayment(ctx, id)
		return err
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		args = append(args, f.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.name, len(args)))
	}
	args = append(args, pk)
	query := fmt.Sprintf("UPDATE payments SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return requireAffected(res)
}

// UpdateStatus sets the status of every matching payment
func (r *PostgresRepository) UpdateStatus(ctx context.Context, filter PaymentFilter, status models.Status) (int64, error) {
	where, args := whereClause(filter, []any{string(status)})
	// Rows already at the target status are not counted as changed
	if where == "" {
		where = " WHERE payee_payment_status <> $1"
	} else {
		where += " AND payee_payment_status <> $1"
	}
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET payee_payment_status = $1`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update payment statuses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// DeletePayment removes a payment; its evidence is kept
func (r *PostgresRepository) DeletePayment(ctx context.Context, id string) error {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, pk)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireAffected(res)
}

// SaveEvidence stores an evidence artifact
func (r *PostgresRepository) SaveEvidence(ctx context.Context, evidence *models.Evidence) (string, error) {
	query := `
		INSERT INTO evidence (payment_id, filename, content_type, data, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		evidence.PaymentID, evidence.Filename, evidence.ContentType, evidence.Data, utcNowIfZero(evidence.UploadedAt)).
		Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save evidence: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// GetEvidence retrieves an evidence artifact by identifier
func (r *PostgresRepository) GetEvidence(ctx context.Context, id string) (*models.Evidence, error) {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	query := `
		SELECT id, payment_id, filename, content_type, data, uploaded_at
		FROM evidence
		WHERE id = $1`
	var e models.Evidence
	var eid int64
	err = r.db.QueryRowContext(ctx, query, pk).
		Scan(&eid, &e.PaymentID, &e.Filename, &e.ContentType, &e.Data, &e.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find evidence: %w", err)
	}
	e.ID = strconv.FormatInt(eid, 10)
	return &e, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool
func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p        models.Payment
		id       int64
		status   string
		discount sql.NullFloat64
		tax      sql.NullFloat64
	)
	err := row.Scan(&id,
		&p.FirstName, &p.LastName, &status, &p.AddedDate,
		&p.DueDate, &p.AddressLine1, &p.AddressLine2, &p.City, &p.Country,
		&p.ProvinceOrState, &p.PostalCode, &p.PhoneNumber, &p.Email, &p.Currency,
		&discount, &tax, &p.DueAmount, &p.EvidenceFileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	p.ID = strconv.FormatInt(id, 10)
	p.Status = models.Status(status)
	p.AddedDate = p.AddedDate.UTC()
	if discount.Valid {
		p.DiscountPercent = &discount.Float64
	}
	if tax.Valid {
		p.TaxPercent = &tax.Float64
	}
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
