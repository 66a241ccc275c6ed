package repository

import (
	"context"
	"strconv"
	"sync"

	"github.com/Dan9191/payments-tracker/internal/models"
)

// MemoryStore keeps payments and evidence in process memory, in insertion order
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	payments []models.Payment
	evidence map[string]models.Evidence
}

// NewMemoryStore initializes an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{evidence: make(map[string]models.Evidence)}
}

func (m *MemoryStore) nextID() string {
	m.seq++
	return strconv.FormatInt(m.seq, 10)
}

func (m *MemoryStore) indexOf(id string) int {
	for i := range m.payments {
		if m.payments[i].ID == id {
			return i
		}
	}
	return -1
}

// InsertPayments stores all payments and returns their identifiers
func (m *MemoryStore) InsertPayments(ctx context.Context, payments []models.Payment) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		p.ID = m.nextID()
		p.TotalDue = nil
		p.EvidenceFile = nil
		m.payments = append(m.payments, clonePayment(p))
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// InsertPayment stores one payment and returns its identifier
func (m *MemoryStore) InsertPayment(ctx context.Context, payment *models.Payment) (string, error) {
	ids, err := m.InsertPayments(ctx, []models.Payment{*payment})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// FindPayments returns matching payments in insertion order
func (m *MemoryStore) FindPayments(ctx context.Context, filter PaymentFilter, skip, limit int) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []models.Payment{}
	matched := 0
	for _, p := range m.payments {
		if !filter.Matches(p) {
			continue
		}
		matched++
		if matched <= skip {
			continue
		}
		result = append(result, clonePayment(p))
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// CountPayments counts matching payments
func (m *MemoryStore) CountPayments(ctx context.Context, filter PaymentFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, p := range m.payments {
		if filter.Matches(p) {
			n++
		}
	}
	return n, nil
}

// GetPayment retrieves a payment by identifier
func (m *MemoryStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := clonePayment(m.payments[i])
	return &p, nil
}

// UpdatePayment applies a partial update to one payment
func (m *MemoryStore) UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	patch.Apply(&m.payments[i])
	return nil
}

// UpdateStatus sets the status of every matching payment
func (m *MemoryStore) UpdateStatus(ctx context.Context, filter PaymentFilter, status models.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.payments {
		if filter.Matches(m.payments[i]) && m.payments[i].Status != status {
			m.payments[i].Status = status
			n++
		}
	}
	return n, nil
}

// DeletePayment removes a payment; its evidence is kept
func (m *MemoryStore) DeletePayment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	m.payments = append(m.payments[:i], m.payments[i+1:]...)
	return nil
}

// SaveEvidence stores an evidence artifact
func (m *MemoryStore) SaveEvidence(ctx context.Context, evidence *models.Evidence) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *evidence
	e.ID = m.nextID()
	e.UploadedAt = utcNowIfZero(e.UploadedAt)
	e.Data = append([]byte(nil), evidence.Data...)
	m.evidence[e.ID] = e
	return e.ID, nil
}

// GetEvidence retrieves an evidence artifact by identifier
func (m *MemoryStore) GetEvidence(ctx context.Context, id string) (*models.Evidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.evidence[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.Data = append([]byte(nil), e.Data...)
	return &e, nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func clonePayment(p models.Payment) models.Payment {
	if p.DiscountPercent != nil {
		v := *p.DiscountPercent
		p.DiscountPercent = &v
	}
	if p.TaxPercent != nil {
		v := *p.TaxPercent
		p.TaxPercent = &v
	}
	return p
}
