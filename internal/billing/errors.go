package billing

import "errors"

// Billing errors.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrFreeCourse        = errors.New("course is free")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
