package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dan9191/payments-tracker/internal/models"
)

func TestMongoFilter(t *testing.T) {
	today := mustDate(t, "2024-06-01")
	got := mongoFilter(PaymentFilter{
		ExcludeStatus: models.StatusCompleted,
		DueOn:         &today,
		Search:        "o'brien.",
	})

	rx := primitive.Regex{Pattern: `o'brien\.`, Options: "i"}
	assert.Equal(t, bson.M{
		"payee_payment_status": bson.M{"$ne": "completed"},
		"payee_due_date":       bson.M{"$eq": "2024-06-01"},
		"$or": bson.A{
			bson.M{"payee_first_name": rx},
			bson.M{"payee_last_name": rx},
			bson.M{"payee_email": rx},
		},
	}, got)
}

func TestMongoFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, mongoFilter(PaymentFilter{}))
}

func TestObjectIDRejectsGarbage(t *testing.T) {
	_, err := objectID("xyz")
	assert.ErrorIs(t, err, ErrNotFound)
}
