package circulation

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"librarium/internal/models"
)

// Derived loan statuses. Never persisted; recomputed on every read.
const (
	LoanIssued   = "issued"
	LoanOverdue  = "overdue"
	LoanReturned = "returned"
)

// Display buckets for fines.
const (
	BucketUnpaid  = "Unpaid"
	BucketPending = "Pending Verification"
	BucketPaid    = "Paid"
)

// Defaults applied when the settings row leaves a field unset.
const (
	DefaultLoanPeriodDays = 15
	DefaultMaxBooks       = 3
	DefaultCurrency       = "₹"
)

var DefaultFineRate = decimal.NewFromInt(1)

// LoanStatus classifies a loan record at the given instant.
func LoanStatus(rec *models.LoanRecord, now time.Time) string {
	if rec.ReturnDate != nil {
		return LoanReturned
	}
	if now.After(rec.DueDate) {
		return LoanOverdue
	}
	return LoanIssued
}

// FineBucket maps a stored fine status to its display bucket.
func FineBucket(status string) string {
	switch status {
	case models.FinePending:
		return BucketPending
	case models.FinePaid:
		return BucketPaid
	default:
		return BucketUnpaid
	}
}

// DaysLate counts whole late days, any started day counting as one.
func DaysLate(dueDate, returnedAt time.Time) int {
	if !returnedAt.After(dueDate) {
		return 0
	}
	return int(math.Ceil(returnedAt.Sub(dueDate).Hours() / 24))
}

// OverdueAmount computes daysLate × ratePerDay rounded to two decimals.
func OverdueAmount(dueDate, returnedAt time.Time, ratePerDay decimal.Decimal) decimal.Decimal {
	days := DaysLate(dueDate, returnedAt)
	return ratePerDay.Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// Effective fills in defaults for unset settings fields.
func Effective(s *models.Settings) models.Settings {
	eff := models.Settings{}
	if s != nil {
		eff = *s
	}
	if eff.LoanPeriodDays <= 0 {
		eff.LoanPeriodDays = DefaultLoanPeriodDays
	}
	if eff.MaxBooks <= 0 {
		eff.MaxBooks = DefaultMaxBooks
	}
	if eff.FineRate.IsZero() {
		eff.FineRate = DefaultFineRate
	}
	if eff.CurrencySymbol == "" {
		eff.CurrencySymbol = DefaultCurrency
	}
	return eff
}
