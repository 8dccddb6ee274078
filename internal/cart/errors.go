package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidSize     = errors.New("invalid size")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrMissingProduct  = errors.New("product id is required")
	ErrEmptyCheckout   = errors.New("nothing to check out")
	ErrUnknownSource   = errors.New("unknown checkout source")
)
