package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopbank/internal/pkg/money"
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusConfirmed     Status = "CONFIRMED"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
)

// OrderLine is a snapshot of one cart line at checkout time.
type OrderLine struct {
	ProductID int64
	Quantity  int
	UnitPrice money.Amount
}

// Order is created once per checkout attempt. Everything except the
// status, payment reference and failure reason is immutable after
// creation, and those three only move forward: PENDING -> CONFIRMED or
// PENDING -> PAYMENT_FAILED, never back.
type Order struct {
	ID            int64
	Number        string
	BuyerID       int64
	Total         money.Amount
	Status        Status
	PaymentRef    string
	FailureReason string
	CreatedAt     time.Time
	Lines         []OrderLine
}

// NewOrder builds a PENDING order from the checkout's cart snapshot.
func NewOrder(buyerID int64, total money.Amount, lines []*CartLine) *Order {
	orderLines := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return &Order{
		Number:    NewOrderNumber(),
		BuyerID:   buyerID,
		Total:     total,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		Lines:     orderLines,
	}
}

// NewOrderNumber generates "ORD-<epoch millis>-<8 uppercase chars>".
// Uniqueness is probabilistic; the order store surfaces the duplicate
// key loudly if the unlikely collision ever happens.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

// MarkConfirmed finalizes a successful checkout.
func (o *Order) MarkConfirmed(paymentRef string) error {
	if o.Status != StatusPending {
		return fmt.Errorf("order %s is %s, cannot confirm", o.Number, o.Status)
	}
	o.Status = StatusConfirmed
	o.PaymentRef = paymentRef
	return nil
}

// MarkPaymentFailed records a failed settlement. The row is kept as an
// audit record of the attempt.
func (o *Order) MarkPaymentFailed(reason string) error {
	if o.Status != StatusPending {
		return fmt.Errorf("order %s is %s, cannot mark failed", o.Number, o.Status)
	}
	o.Status = StatusPaymentFailed
	o.FailureReason = reason
	return nil
}
