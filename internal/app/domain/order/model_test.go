package order

import "testing"

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusShopping, true},
		{StatusShopping, StatusPurchased, true},
		{StatusPurchased, StatusDelivery, true},
		{StatusDelivery, StatusDelivered, true},
		{StatusPending, StatusPurchased, false}, // no skipping
		{StatusShopping, StatusPending, false},  // no going back
		{StatusDelivered, StatusDelivery, false},
		{StatusPending, StatusDelivered, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %t, want %t", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusShopping, StatusPurchased, StatusDelivery} {
		if !CanTransition(from, StatusCancelled) {
			t.Fatalf("cancel from %s should be allowed", from)
		}
	}
	if CanTransition(StatusDelivered, StatusCancelled) {
		t.Fatal("cancel after delivery should be rejected")
	}
	if CanTransition(StatusCancelled, StatusCancelled) {
		t.Fatal("cancel of a cancelled order should be rejected")
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StatusDelivered) || !Terminal(StatusCancelled) {
		t.Fatal("delivered and cancelled are terminal")
	}
	if Terminal(StatusPending) || Terminal(StatusDelivery) {
		t.Fatal("active states are not terminal")
	}
}
