package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Dan9191/payments-tracker/internal/models"
)

// MongoRepository stores payments and evidence as MongoDB documents
type MongoRepository struct {
	client   *mongo.Client
	payments *mongo.Collection
	evidence *mongo.Collection
}

// NewMongoRepository connects to MongoDB and opens the payments database
func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db := client.Database(database)
	return &MongoRepository{
		client:   client,
		payments: db.Collection("payments"),
		evidence: db.Collection("evidence"),
	}, nil
}

// EnsureIndexes creates the indexes used by listing and the status sweep
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.payments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "payee_payment_status", Value: 1}}},
		{Keys: bson.D{{Key: "payee_due_date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}

type paymentDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	FirstName       string             `bson:"payee_first_name"`
	LastName        string             `bson:"payee_last_name"`
	Status          string             `bson:"payee_payment_status"`
	AddedDate       time.Time          `bson:"payee_added_date_utc"`
	DueDate         string             `bson:"payee_due_date"`
	AddressLine1    string             `bson:"payee_address_line_1"`
	AddressLine2    string             `bson:"payee_address_line_2"`
	City            string             `bson:"payee_city"`
	Country         string             `bson:"payee_country"`
	ProvinceOrState string             `bson:"payee_province_or_state"`
	PostalCode      string             `bson:"payee_postal_code"`
	PhoneNumber     string             `bson:"payee_phone_number"`
	Email           string             `bson:"payee_email"`
	Currency        string             `bson:"currency"`
	DiscountPercent *float64           `bson:"discount_percent,omitempty"`
	TaxPercent      *float64           `bson:"tax_percent,omitempty"`
	DueAmount       float64            `bson:"due_amount"`
	EvidenceFileID  string             `bson:"evidence_file_id,omitempty"`
}

// Due dates are stored as YYYY-MM-DD strings so they compare lexically
func toPaymentDoc(p *models.Payment) paymentDoc {
	return paymentDoc{
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Status:          string(p.Status),
		AddedDate:       utcNowIfZero(p.AddedDate),
		DueDate:         p.DueDate.String(),
		AddressLine1:    p.AddressLine1,
		AddressLine2:    p.AddressLine2,
		City:            p.City,
		Country:         p.Country,
		ProvinceOrState: p.ProvinceOrState,
		PostalCode:      p.PostalCode,
		PhoneNumber:     p.PhoneNumber,
		Email:           p.Email,
		Currency:        p.Currency,
		DiscountPercent: p.DiscountPercent,
		TaxPercent:      p.TaxPercent,
		DueAmount:       p.DueAmount,
		EvidenceFileID:  p.EvidenceFileID,
	}
}

func (d paymentDoc) toModel() (models.Payment, error) {
	due, err := models.ParseDate(d.DueDate)
	if err != nil {
		return models.Payment{}, fmt.Errorf("payment %s has a bad due date: %w", d.ID.Hex(), err)
	}
	return models.Payment{
		ID:              d.ID.Hex(),
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Status:          models.Status(d.Status),
		AddedDate:       d.AddedDate.UTC(),
		DueDate:         due,
		AddressLine1:    d.AddressLine1,
		AddressLine2:    d.AddressLine2,
		City:            d.City,
		Country:         d.Country,
		ProvinceOrState: d.ProvinceOrState,
		PostalCode:      d.PostalCode,
		PhoneNumber:     d.PhoneNumber,
		Email:           d.Email,
		Currency:        d.Currency,
		DiscountPercent: d.DiscountPercent,
		TaxPercent:      d.TaxPercent,
		DueAmount:       d.DueAmount,
		EvidenceFileID:  d.EvidenceFileID,
	}, nil
}

func mongoFilter(f PaymentFilter) bson.M {
	filter := bson.M{}
	status := bson.M{}
	if f.Status != "" {
		status["$eq"] = string(f.Status)
	}
	if f.ExcludeStatus != "" {
		status["$ne"] = string(f.ExcludeStatus)
	}
	if len(status) > 0 {
		filter["payee_payment_status"] = status
	}
	due := bson.M{}
	if f.DueOn != nil {
		due["$eq"] = f.DueOn.String()
	}
	if f.DueBefore != nil {
		due["$lt"] = f.DueBefore.String()
	}
	if len(due) > 0 {
		filter["payee_due_date"] = due
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"payee_first_name": rx},
			bson.M{"payee_last_name": rx},
			bson.M{"payee_email": rx},
		}
	}
	return filter
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// InsertPayments inserts all payments with one insert-many call
func (r *MongoRepository) InsertPayments(ctx context.Context, payments []models.Payment) ([]string, error) {
	docs := make([]interface{}, 0, len(payments))
	for i := range payments {
		docs = append(docs, toPaymentDoc(&payments[i]))
	}
	res, err := r.payments.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payments: %w", err)
	}
	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
		}
	}
	return ids, nil
}

// InsertPayment inserts one payment and returns its identifier
func (r *MongoRepository) InsertPayment(ctx context.Context, payment *models.Payment) (string, error) {
	res, err := r.payments.InsertOne(ctx, toPaymentDoc(payment))
	if err != nil {
		return "", fmt.Errorf("failed to create payment: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// FindPayments returns matching payments ordered by identifier
func (r *MongoRepository) FindPayments(ctx context.Context, filter PaymentFilter, skip, limit int) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.payments.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	for cursor.Next(ctx) {
		var doc paymentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode payment: %w", err)
		}
		p, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	return payments, nil
}

// CountPayments counts matching payments
func (r *MongoRepository) CountPayments(ctx context.Context, filter PaymentFilter) (int64, error) {
	n, err := r.payments.CountDocuments(ctx, mongoFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return n, nil
}

// GetPayment retrieves a payment by identifier
func (r *MongoRepository) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc paymentDoc
	err = r.payments.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	p, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePayment applies a partial update to one payment
func (r *MongoRepository) UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	set := bson.M{}
	for _, f := range patchFields(patch) {
		if d, ok := f.value.(models.Date); ok {
			set[f.name] = d.String()
			continue
		}
		set[f.name] = f.value
	}
	if len(set) == 0 {
		_, err := r.GetPayment(ctx, id)
		return err
	}
	res, err := r.payments.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the status of every matching payment
func (r *MongoRepository) UpdateStatus(ctx context.Context, filter PaymentFilter, status models.Status) (int64, error) {
	res, err := r.payments.UpdateMany(ctx, mongoFilter(filter),
		bson.M{"$set": bson.M{"payee_payment_status": string(status)}})
	if err != nil {
		return 0, fmt.Errorf("failed to update payment statuses: %w", err)
	}
	return res.ModifiedCount, nil
}

// DeletePayment removes a payment; its evidence is kept
func (r *MongoRepository) DeletePayment(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.payments.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type evidenceDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	PaymentID   string             `bson:"payment_id"`
	Filename    string             `bson:"filename"`
	ContentType string             `bson:"content_type"`
	Data        []byte             `bson:"data"`
	UploadedAt  time.Time          `bson:"uploaded_at"`
}

// SaveEvidence stores an evidence artifact
func (r *MongoRepository) SaveEvidence(ctx context.Context, evidence *models.Evidence) (string, error) {
	res, err := r.evidence.InsertOne(ctx, evidenceDoc{
		PaymentID:   evidence.PaymentID,
		Filename:    evidence.Filename,
		ContentType: evidence.ContentType,
		Data:        evidence.Data,
		UploadedAt:  utcNowIfZero(evidence.UploadedAt),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save evidence: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// GetEvidence retrieves an evidence artifact by identifier
func (r *MongoRepository) GetEvidence(ctx context.Context, id string) (*models.Evidence, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc evidenceDoc
	err = r.evidence.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find evidence: %w", err)
	}
	return &models.Evidence{
		ID:          doc.ID.Hex(),
		PaymentID:   doc.PaymentID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Data:        doc.Data,
		UploadedAt:  doc.UploadedAt.UTC(),
	}, nil
}

// Ping checks the connection to the primary
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
