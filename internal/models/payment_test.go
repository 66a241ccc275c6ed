package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentPatchApply(t *testing.T) {
	discount := 5.0
	p := Payment{FirstName: "Ann", City: "Springfield", Status: StatusPending, DueAmount: 10}

	var patch PaymentPatch
	assert.True(t, patch.Empty())

	city := "Shelbyville"
	status := StatusCompleted
	patch = PaymentPatch{City: &city, Status: &status, DiscountPercent: &discount}
	assert.False(t, patch.Empty())
	patch.Apply(&p)

	assert.Equal(t, "Ann", p.FirstName)
	assert.Equal(t, "Shelbyville", p.City)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, 10.0, p.DueAmount)
	discount = 50
	assert.Equal(t, 5.0, *p.DiscountPercent)
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusDueNow, StatusOverdue, StatusCompleted} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("paid").Valid())
	assert.False(t, Status("").Valid())
}
