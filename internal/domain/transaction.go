package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes ledger entries.
type TransactionType string

// Transaction types.
const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeDeposit TransactionType = "deposit"
)

// IsValid checks if the transaction type is known.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypePayment || t == TransactionTypeDeposit
}

// RentDuration is how long a rent payment grants access.
const RentDuration = 7 * 24 * time.Hour

// Transaction is an immutable ledger entry. Amount equals the balance delta it caused.
type Transaction struct {
	ID          int64
	Type        TransactionType
	Amount      decimal.Decimal
	UserID      string
	CourseID    *string
	CourseCode  *string
	CourseTitle *string
	CourseTier  *Tier
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}
