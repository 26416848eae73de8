package domain

import "fmt"

// FailureKind is the closed set of ways a checkout can fail. Callers
// switch over the kind instead of probing error strings.
type FailureKind int

const (
	FailureEmptyCart FailureKind = iota + 1
	FailureMissingBankAccount
	FailureInvalidAccount
	FailureInsufficientFunds
	FailureInsufficientStock
	FailurePayment
	FailureInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailureEmptyCart:
		return "EMPTY_CART"
	case FailureMissingBankAccount:
		return "MISSING_BANK_ACCOUNT"
	case FailureInvalidAccount:
		return "INVALID_ACCOUNT"
	case FailureInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case FailureInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case FailurePayment:
		return "PAYMENT_FAILED"
	case FailureInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// CheckoutError is the structured failure a checkout returns.
// ProductID is set for stock failures; OrderNumber is set whenever an
// order row was created before the failure (payment failures).
type CheckoutError struct {
	Kind        FailureKind
	Reason      string
	ProductID   int64
	OrderNumber string
}

func (e *CheckoutError) Error() string {
	if e.ProductID != 0 {
		return fmt.Sprintf("%s (product %d): %s", e.Kind, e.ProductID, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}
