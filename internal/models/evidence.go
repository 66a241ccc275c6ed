package models

import "time"

// Evidence is a proof-of-payment file attached to a payment
type Evidence struct {
	ID          string    `json:"_id"`
	PaymentID   string    `json:"payment_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"` // Not serialized
	UploadedAt  time.Time `json:"uploaded_at"`
}
