package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestComputeTotalDue(t *testing.T) {
	tests := []struct {
		name     string
		due      float64
		discount *float64
		tax      *float64
		want     float64
	}{
		{"discount and tax", 100, ptr(10), ptr(5), 94.50},
		{"no discount no tax", 100, nil, nil, 100.00},
		{"zero amount", 0, ptr(50), ptr(20), 0},
		{"full discount", 250, ptr(100), ptr(19), 0},
		{"tax only", 19.99, nil, ptr(20), 23.99},
		{"rounds half up", 0.125, nil, nil, 0.13},
		{"fractional percents", 1234.56, ptr(2.5), ptr(7.25), 1290.96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTotalDue(tt.due, tt.discount, tt.tax))
		})
	}
}

func TestComputeTotalDueMonotonic(t *testing.T) {
	amounts := []float64{0, 1, 99.99, 1000, 12345.67}
	for _, amount := range amounts {
		prev := ComputeTotalDue(amount, ptr(0), ptr(0))
		assert.GreaterOrEqual(t, prev, 0.0)
		for tax := 1.0; tax <= 50; tax += 7 {
			got := ComputeTotalDue(amount, ptr(0), ptr(tax))
			assert.GreaterOrEqual(t, got, prev, "amount=%v tax=%v", amount, tax)
			prev = got
		}

		prev = ComputeTotalDue(amount, ptr(0), ptr(10))
		for discount := 5.0; discount <= 100; discount += 5 {
			got := ComputeTotalDue(amount, ptr(discount), ptr(10))
			assert.LessOrEqual(t, got, prev, "amount=%v discount=%v", amount, discount)
			assert.GreaterOrEqual(t, got, 0.0)
			prev = got
		}
	}
}
