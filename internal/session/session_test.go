package session

import (
	"context"
	"testing"
	"time"

	"seaside/backend/internal/domain"
)

func TestMemoryCartStoreRoundTrip(t *testing.T) {
	s := NewMemoryCartStore()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "sess-1"); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	state := domain.CartState{
		Lines:        []domain.CartLine{{Name: "Kopi", UnitPriceCents: 2600, Quantity: 2, SubtotalCents: 5200}},
		CustomerName: "Dina",
		TotalCents:   5200,
	}
	if err := s.Put(ctx, "sess-1", state, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found, err := s.Get(ctx, "sess-1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.TotalCents != 5200 || got.CustomerName != "Dina" || len(got.Lines) != 1 {
		t.Fatalf("got %+v", got)
	}

	if _, found, _ := s.Get(ctx, "sess-other"); found {
		t.Fatal("sessions must not share carts")
	}

	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "sess-1"); found {
		t.Fatal("deleted cart must be gone")
	}
}

func TestMemoryCartStoreHonorsTTL(t *testing.T) {
	s := NewMemoryCartStore()
	ctx := context.Background()

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	if err := s.Put(ctx, "sess-ttl", domain.CartState{TotalCents: 100}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, found, _ := s.Get(ctx, "sess-ttl"); !found {
		t.Fatal("cart must survive within the TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := s.Get(ctx, "sess-ttl"); found {
		t.Fatal("expired cart must be treated as a miss")
	}
}
