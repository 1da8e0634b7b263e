package domain

import "errors"

// Stock conditions are expected outcomes: the caller turns them into a short
// notice and the ledger is unchanged.
var (
	ErrOutOfStock         = errors.New("out of stock")
	ErrStockLimitExceeded = errors.New("stock limit exceeded")
)

var (
	ErrInvalidItem     = errors.New("invalid item")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// IsStockCondition reports whether err is one of the stock notices.
func IsStockCondition(err error) bool {
	return errors.Is(err, ErrOutOfStock) || errors.Is(err, ErrStockLimitExceeded)
}
