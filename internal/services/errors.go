package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fatal lookups: these abort before any persistence happens.
var (
	ErrLeadNotFound         = errors.New("lead not found")
	ErrPricingConfigMissing = errors.New("no pricing config for trade")
	ErrContractorNotFound   = errors.New("contractor not found")
)

// Expected business rejections from the purchase flow. They occur after state
// validation and before any wallet mutation.
var (
	ErrNoMatchFound     = errors.New("contractor was not offered this lead")
	ErrAlreadyPurchased = errors.New("lead already purchased by contractor")
	ErrLeadSoldOut      = errors.New("lead sold out")
)

// InsufficientBalanceError carries the amounts the caller needs to prompt a
// wallet top-up.
type InsufficientBalanceError struct {
	Required decimal.Decimal
	Balance  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: need %s, have %s", e.Required, e.Balance)
}
