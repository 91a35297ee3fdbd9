package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is the pricing category of a course.
type Tier string

// Course tiers.
const (
	TierFree Tier = "free"
	TierRent Tier = "rent"
	TierBuy  Tier = "buy"
)

// IsValid checks if the tier is known.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierRent, TierBuy:
		return true
	}
	return false
}

// IsPaid reports whether the tier requires a price.
func (t Tier) IsPaid() bool {
	return t == TierRent || t == TierBuy
}

// Course is a catalog entry identified by its human-chosen code.
type Course struct {
	ID        string           `json:"id"`
	Code      string           `json:"code"`
	Title     string           `json:"title"`
	Tier      Tier             `json:"type"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PriceOrZero returns the course price, treating a missing price as zero.
func (c *Course) PriceOrZero() decimal.Decimal {
	if c.Price == nil {
		return decimal.Zero
	}
	return *c.Price
}
