package domain

import (
	"time"

	"shopbank/internal/pkg/money"
)

const (
	EventOrderSettled       = "ORDER_SETTLED"
	EventOrderPaymentFailed = "ORDER_PAYMENT_FAILED"
)

// OrderEvent is published to the order-events topic after a checkout
// reaches a terminal state.
type OrderEvent struct {
	Type        string       `json:"type"`
	OrderNumber string       `json:"orderNumber"`
	BuyerID     int64        `json:"buyerId"`
	Total       money.Amount `json:"total"`
	Reason      string       `json:"reason,omitempty"`
	At          time.Time    `json:"at"`
}
