package domain

import (
	"regexp"
	"testing"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d+-[A-Z0-9]{8}$`)

func TestNewOrderNumberFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		if !orderNumberPattern.MatchString(n) {
			t.Fatalf("order number %q does not match expected format", n)
		}
		if seen[n] {
			t.Fatalf("order number %q generated twice", n)
		}
		seen[n] = true
	}
}

func TestNewOrderSnapshotsCartLines(t *testing.T) {
	lines := []*CartLine{
		{ProductID: 1, Quantity: 2, UnitPrice: 2999},
		{ProductID: 2, Quantity: 1, UnitPrice: 500},
	}
	order := NewOrder(7, CartTotal(lines), lines)

	if order.Status != StatusPending {
		t.Fatalf("new order status = %s, want PENDING", order.Status)
	}
	if order.Total != 6498 {
		t.Fatalf("total = %d, want 6498", order.Total)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(order.Lines))
	}
	if order.Lines[0].ProductID != 1 || order.Lines[0].Quantity != 2 || order.Lines[0].UnitPrice != 2999 {
		t.Fatalf("unexpected first line %+v", order.Lines[0])
	}
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	order := NewOrder(1, 100, nil)
	if err := order.MarkConfirmed("42"); err != nil {
		t.Fatal(err)
	}
	if order.PaymentRef != "42" {
		t.Fatalf("payment ref = %q, want 42", order.PaymentRef)
	}
	if err := order.MarkPaymentFailed("late"); err == nil {
		t.Fatal("expected error marking a confirmed order failed")
	}
	if err := order.MarkConfirmed("43"); err == nil {
		t.Fatal("expected error confirming twice")
	}
	if order.Status != StatusConfirmed {
		t.Fatalf("status drifted to %s", order.Status)
	}

	failed := NewOrder(1, 100, nil)
	if err := failed.MarkPaymentFailed("insufficient balance"); err != nil {
		t.Fatal(err)
	}
	if failed.FailureReason != "insufficient balance" {
		t.Fatalf("failure reason = %q", failed.FailureReason)
	}
	if err := failed.MarkConfirmed("1"); err == nil {
		t.Fatal("expected error confirming a failed order")
	}
}

func TestCartTotal(t *testing.T) {
	lines := []*CartLine{
		{UnitPrice: 2999, Quantity: 2},
		{UnitPrice: 1, Quantity: 3},
	}
	if got := CartTotal(lines); got != 6001 {
		t.Fatalf("CartTotal = %d, want 6001", got)
	}
	if got := CartTotal(nil); got != 0 {
		t.Fatalf("CartTotal(nil) = %d, want 0", got)
	}
}
