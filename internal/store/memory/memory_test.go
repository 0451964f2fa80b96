package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"seaside/backend/internal/domain"
	"seaside/backend/internal/store"
)

func TestCreateProductRejectsCaseInsensitiveDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.CreateProduct(ctx, domain.ProductCreateRequest{Name: "Latte", PriceCents: 3000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := s.CreateProduct(ctx, domain.ProductCreateRequest{Name: "latte", PriceCents: 3100})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSalesWithEqualTimestampsOrderNewestIDFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	fixed := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	first, err := s.CreateSale(ctx, domain.WalkInCustomer)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	second, err := s.CreateSale(ctx, domain.WalkInCustomer)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	sales, err := s.ListSalesInRange(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}
	if sales[0].ID != second || sales[1].ID != first {
		t.Fatalf("expected order [%d %d], got [%d %d]", second, first, sales[0].ID, sales[1].ID)
	}
}
