package service

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/models"
)

var allowedEvidenceTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// UploadEvidence stores an artifact and points the payment at it.
// A previous artifact is left in the store unreferenced.
func (s *Service) UploadEvidence(ctx context.Context, paymentID string, upload models.Evidence) (string, error) {
	contentType := resolveContentType(upload.ContentType, upload.Data)
	if !allowedEvidenceTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}

	if _, err := s.payments.GetPayment(ctx, paymentID); err != nil {
		return "", storeErr("find payment", err)
	}

	upload.ID = ""
	upload.PaymentID = paymentID
	upload.ContentType = contentType
	upload.UploadedAt = s.now().UTC()
	if strings.TrimSpace(upload.Filename) == "" {
		upload.Filename = "evidence"
	}

	evidenceID, err := s.evidence.SaveEvidence(ctx, &upload)
	if err != nil {
		return "", storeErr("save evidence", err)
	}
	if err := s.payments.UpdatePayment(ctx, paymentID, models.PaymentPatch{EvidenceFileID: &evidenceID}); err != nil {
		s.log.WithFields(logrus.Fields{"payment_id": paymentID, "evidence_id": evidenceID}).
			Warnf("Evidence stored but payment reference not updated: %v", err)
		return "", storeErr("link evidence", err)
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":   paymentID,
		"evidence_id":  evidenceID,
		"content_type": contentType,
		"size":         len(upload.Data),
	}).Info("Evidence uploaded")
	return evidenceID, nil
}

// DownloadEvidence returns the artifact the payment currently references
func (s *Service) DownloadEvidence(ctx context.Context, paymentID string) (*models.Evidence, error) {
	p, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, storeErr("find payment", err)
	}
	if p.EvidenceFileID == "" {
		return nil, ErrNotFound
	}
	e, err := s.evidence.GetEvidence(ctx, p.EvidenceFileID)
	if err != nil {
		return nil, storeErr("find evidence", err)
	}
	return e, nil
}

// resolveContentType trusts the declared type unless it is missing or generic,
// in which case the bytes are sniffed
func resolveContentType(declared string, data []byte) string {
	ct := strings.TrimSpace(declared)
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		ct = mimetype.Detect(data).String()
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return strings.ToLower(ct)
}
