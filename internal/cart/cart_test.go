package cart

import (
	"testing"

	"seaside/backend/internal/domain"
)

func TestAddItemMergesOnExactNameAndPrice(t *testing.T) {
	c := New()
	if err := c.AddItem("Americano", 2500, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem("Americano", 2500, 3); err != nil {
		t.Fatalf("add again: %v", err)
	}

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", lines[0].Quantity)
	}
	if lines[0].SubtotalCents != 12500 {
		t.Fatalf("expected subtotal 12500, got %d", lines[0].SubtotalCents)
	}
}

func TestAddItemSameNameDifferentPriceStaysSeparate(t *testing.T) {
	c := New()
	if err := c.AddItem("Americano", 2500, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddCustomItem("Americano", 2000, 1); err != nil {
		t.Fatalf("add custom: %v", err)
	}

	if got := len(c.Lines()); got != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", got)
	}
	if got := c.TotalCents(); got != 4500 {
		t.Fatalf("expected total 4500, got %d", got)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	c := New()
	if err := c.AddItem("Americano", 2500, 0); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.AddItem("Americano", 2500, -1); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.AddItem("Americano", -1, 1); err != ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if err := c.AddItem("   ", 2500, 1); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if !c.Empty() {
		t.Fatal("rejected adds must leave the cart empty")
	}
}

func TestTotalIsAlwaysFullFold(t *testing.T) {
	c := New()
	_ = c.AddItem("Americano", 2500, 2)
	_ = c.AddItem("Croissant", 2800, 1)
	_ = c.AddItem("Iced Tea", 2200, 3)

	want := int64(2*2500 + 2800 + 3*2200)
	if got := c.TotalCents(); got != want {
		t.Fatalf("expected total %d, got %d", want, got)
	}

	c.RemoveLine("Croissant", 2800)
	want -= 2800
	if got := c.TotalCents(); got != want {
		t.Fatalf("after remove: expected total %d, got %d", want, got)
	}

	c.AdjustQuantity("Iced Tea", 2200, -1)
	want -= 2200
	if got := c.TotalCents(); got != want {
		t.Fatalf("after adjust: expected total %d, got %d", want, got)
	}
}

func TestRemoveLineMissLeavesCartUnchanged(t *testing.T) {
	c := New()
	_ = c.AddItem("Americano", 2500, 2)

	if c.RemoveLine("Americano", 2600) {
		t.Fatal("remove with wrong price must miss")
	}
	if c.RemoveLine("Latte", 2500) {
		t.Fatal("remove with wrong name must miss")
	}
	if got := len(c.Lines()); got != 1 {
		t.Fatalf("expected 1 line after misses, got %d", got)
	}
	if got := c.TotalCents(); got != 5000 {
		t.Fatalf("expected total 5000, got %d", got)
	}
}

func TestAdjustQuantityToZeroRemovesLine(t *testing.T) {
	c := New()
	_ = c.AddItem("Americano", 2500, 2)

	if !c.AdjustQuantity("Americano", 2500, -2) {
		t.Fatal("adjust must report a hit")
	}
	if !c.Empty() {
		t.Fatal("line adjusted to zero must be removed")
	}

	if c.AdjustQuantity("Americano", 2500, 1) {
		t.Fatal("adjust on a missing line must miss")
	}
}

func TestSetCustomerNormalizesBlankToWalkIn(t *testing.T) {
	c := New()
	if got := c.Customer(); got != domain.WalkInCustomer {
		t.Fatalf("new cart customer: got %q", got)
	}

	c.SetCustomer("Dina")
	if got := c.Customer(); got != "Dina" {
		t.Fatalf("expected Dina, got %q", got)
	}

	c.SetCustomer("   ")
	if got := c.Customer(); got != domain.WalkInCustomer {
		t.Fatalf("blank name must normalize to %q, got %q", domain.WalkInCustomer, got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	c := New()
	_ = c.AddItem("Americano", 2500, 2)
	_ = c.AddItem("Croissant", 2800, 1)
	c.SetCustomer("Dina")

	state := c.State()
	if state.TotalCents != 7800 {
		t.Fatalf("state total: expected 7800, got %d", state.TotalCents)
	}

	rebuilt := FromState(state)
	if rebuilt.Customer() != "Dina" {
		t.Fatalf("rebuilt customer: got %q", rebuilt.Customer())
	}
	if got := rebuilt.TotalCents(); got != 7800 {
		t.Fatalf("rebuilt total: expected 7800, got %d", got)
	}
	if got := len(rebuilt.Lines()); got != 2 {
		t.Fatalf("rebuilt lines: expected 2, got %d", got)
	}
}

func TestClearResetsLinesAndCustomer(t *testing.T) {
	c := New()
	_ = c.AddItem("Americano", 2500, 2)
	c.SetCustomer("Dina")

	c.Clear()
	if !c.Empty() {
		t.Fatal("cleared cart must be empty")
	}
	if got := c.Customer(); got != domain.WalkInCustomer {
		t.Fatalf("cleared cart customer: got %q", got)
	}
	if got := c.TotalCents(); got != 0 {
		t.Fatalf("cleared cart total: got %d", got)
	}
}
