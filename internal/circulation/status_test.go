package circulation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"librarium/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestLoanStatus(t *testing.T) {
	checkout := date(2024, 5, 1)
	due := date(2024, 5, 15)
	returned := date(2024, 5, 12)

	testCases := []struct {
		name       string
		returnDate *time.Time
		now        time.Time
		expected   string
	}{
		{"open before due date", nil, date(2024, 5, 10), LoanIssued},
		{"open on due date", nil, due, LoanIssued},
		{"open past due date", nil, date(2024, 5, 20), LoanOverdue},
		{"returned before due", &returned, date(2024, 5, 20), LoanReturned},
		{"returned, evaluation date irrelevant", &returned, date(2030, 1, 1), LoanReturned},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			rec := &models.LoanRecord{CheckoutDate: checkout, DueDate: due, ReturnDate: tt.returnDate}
			assert.Equal(t, tt.expected, LoanStatus(rec, tt.now))
		})
	}
}

func TestLoanStatusIdempotent(t *testing.T) {
	rec := &models.LoanRecord{CheckoutDate: date(2024, 5, 1), DueDate: date(2024, 5, 15)}
	now := date(2024, 5, 20)

	first := LoanStatus(rec, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, LoanStatus(rec, now))
	}

	returned := date(2024, 5, 21)
	rec.ReturnDate = &returned
	assert.Equal(t, LoanReturned, LoanStatus(rec, now))
}

func TestFineBucket(t *testing.T) {
	testCases := []struct {
		status   string
		expected string
	}{
		{models.FineUnpaid, BucketUnpaid},
		{models.FinePending, BucketPending},
		{models.FinePaid, BucketPaid},
	}

	for _, tt := range testCases {
		assert.Equal(t, tt.expected, FineBucket(tt.status))
	}
}

func TestDaysLate(t *testing.T) {
	due := date(2024, 5, 15)

	testCases := []struct {
		name     string
		returned time.Time
		expected int
	}{
		{"on time", date(2024, 5, 10), 0},
		{"exactly on due", due, 0},
		{"an hour late counts as a day", due.Add(time.Hour), 1},
		{"one day late", date(2024, 5, 16), 1},
		{"five days late", date(2024, 5, 20), 5},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysLate(due, tt.returned))
		})
	}
}

func TestOverdueAmount(t *testing.T) {
	due := date(2024, 5, 15)
	rate := decimal.RequireFromString("2.50")

	assert.True(t, OverdueAmount(due, date(2024, 5, 20), rate).Equal(decimal.RequireFromString("12.50")))
	assert.True(t, OverdueAmount(due, date(2024, 5, 10), rate).IsZero())
}

func TestEffectiveDefaults(t *testing.T) {
	eff := Effective(&models.Settings{})
	assert.Equal(t, DefaultLoanPeriodDays, eff.LoanPeriodDays)
	assert.Equal(t, DefaultMaxBooks, eff.MaxBooks)
	assert.True(t, eff.FineRate.Equal(DefaultFineRate))
	assert.Equal(t, DefaultCurrency, eff.CurrencySymbol)

	eff = Effective(nil)
	assert.Equal(t, DefaultLoanPeriodDays, eff.LoanPeriodDays)

	custom := &models.Settings{LoanPeriodDays: 30, MaxBooks: 5, FineRate: decimal.RequireFromString("0.50"), CurrencySymbol: "$"}
	eff = Effective(custom)
	assert.Equal(t, 30, eff.LoanPeriodDays)
	assert.Equal(t, 5, eff.MaxBooks)
	assert.True(t, eff.FineRate.Equal(decimal.RequireFromString("0.50")))
	assert.Equal(t, "$", eff.CurrencySymbol)
}
