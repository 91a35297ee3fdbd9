package catalog

import "errors"

// Catalog errors.
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCodeExists     = errors.New("course code already exists")
	ErrPriceRequired  = errors.New("price required for paid course")
	ErrInvalidTier    = errors.New("invalid course type")
	ErrInvalidPrice   = errors.New("price must not be negative")
	ErrPriceTooLarge  = errors.New("price exceeds the maximum")
	ErrBlankCode      = errors.New("code must not be blank")
	ErrBlankTitle     = errors.New("title must not be blank")
)
