package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/Dan9191/payments-tracker/internal/models"
)

const evidenceKeyPrefix = "evidence/"

// S3API is the subset of the S3 client used for evidence
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3EvidenceStore keeps each evidence artifact as one S3 object
type S3EvidenceStore struct {
	client S3API
	bucket string
}

// NewS3EvidenceStore initializes an S3-backed evidence store
func NewS3EvidenceStore(client S3API, bucket string) *S3EvidenceStore {
	return &S3EvidenceStore{client: client, bucket: bucket}
}

// SaveEvidence uploads the artifact under a fresh UUID key
func (s *S3EvidenceStore) SaveEvidence(ctx context.Context, evidence *models.Evidence) (string, error) {
	id := uuid.New().String()
	uploadedAt := utcNowIfZero(evidence.UploadedAt)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(evidenceKeyPrefix + id),
		Body:        bytes.NewReader(evidence.Data),
		ContentType: aws.String(evidence.ContentType),
		Metadata: map[string]string{
			"filename":    url.QueryEscape(evidence.Filename),
			"payment-id":  evidence.PaymentID,
			"uploaded-at": uploadedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload evidence to S3: %w", err)
	}
	return id, nil
}

// GetEvidence downloads an artifact by identifier
func (s *S3EvidenceStore) GetEvidence(ctx context.Context, id string) (*models.Evidence, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(evidenceKeyPrefix + id),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download evidence from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence body: %w", err)
	}
	filename, err := url.QueryUnescape(out.Metadata["filename"])
	if err != nil {
		filename = out.Metadata["filename"]
	}
	uploadedAt, _ := time.Parse(time.RFC3339, out.Metadata["uploaded-at"])

	return &models.Evidence{
		ID:          id,
		PaymentID:   out.Metadata["payment-id"],
		Filename:    filename,
		ContentType: aws.ToString(out.ContentType),
		Data:        data,
		UploadedAt:  uploadedAt,
	}, nil
}
