package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"seaside/backend/internal/domain"
	"seaside/backend/internal/session"
	"seaside/backend/internal/store"
	"seaside/backend/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *session.MemoryCartStore) {
	t.Helper()
	repo := memory.New()
	carts := session.NewMemoryCartStore()
	svc := New(repo, carts, 10, time.Hour)
	return svc, repo, carts
}

func TestFinalizeCartRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	const sid = "sess-1"

	if _, err := svc.CartAddCustom(ctx, sid, "Nasi Goreng", 2000, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.CartAddCustom(ctx, sid, "Es Teh", 1550, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.CartSetCustomer(ctx, sid, "Dina"); err != nil {
		t.Fatalf("set customer: %v", err)
	}

	outcome, err := svc.FinalizeCart(ctx, sid)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if outcome.Status != domain.FinalizeOK {
		t.Fatalf("expected ok, got %q", outcome.Status)
	}
	if outcome.TotalCents != 5550 {
		t.Fatalf("expected total 5550, got %d", outcome.TotalCents)
	}

	sale, err := svc.GetSale(ctx, outcome.SaleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.TotalCents != 5550 {
		t.Fatalf("persisted total: expected 5550, got %d", sale.TotalCents)
	}
	if sale.CustomerName != "Dina" {
		t.Fatalf("customer snapshot: got %q", sale.CustomerName)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(sale.Items))
	}

	state, err := svc.CartState(ctx, sid)
	if err != nil {
		t.Fatalf("cart state: %v", err)
	}
	if len(state.Lines) != 0 {
		t.Fatal("cart must be cleared after a full finalize")
	}
}

func TestFinalizeEmptyCartRejected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.FinalizeCart(ctx, "sess-empty")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	count, err := repo.CountSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no sale row may be created for an empty cart, got %d", count)
	}
}

// faultyRepo fails AddSaleItem on selected calls to exercise the partial
// persistence path.
type faultyRepo struct {
	store.Repository
	calls     int
	failCalls map[int]bool
}

func (f *faultyRepo) AddSaleItem(ctx context.Context, saleID int64, productName string, quantity int, unitPriceCents int64) error {
	f.calls++
	if f.failCalls[f.calls] {
		return errors.New("injected insert failure")
	}
	return f.Repository.AddSaleItem(ctx, saleID, productName, quantity, unitPriceCents)
}

func TestFinalizePartialKeepsCartAndAccurateTotal(t *testing.T) {
	repo := &faultyRepo{Repository: memory.New(), failCalls: map[int]bool{2: true}}
	carts := session.NewMemoryCartStore()
	svc := New(repo, carts, 10, time.Hour)
	ctx := context.Background()
	const sid = "sess-partial"

	if _, err := svc.CartAddCustom(ctx, sid, "Nasi Goreng", 2000, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.CartAddCustom(ctx, sid, "Es Teh", 1550, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	outcome, err := svc.FinalizeCart(ctx, sid)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if outcome.Status != domain.FinalizePartial {
		t.Fatalf("expected partial, got %q", outcome.Status)
	}
	if len(outcome.FailedLines) != 1 || outcome.FailedLines[0] != "Es Teh" {
		t.Fatalf("failed lines: got %v", outcome.FailedLines)
	}
	if outcome.TotalCents != 4000 {
		t.Fatalf("total must cover persisted lines only, got %d", outcome.TotalCents)
	}

	sale, err := svc.GetSale(ctx, outcome.SaleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.TotalCents != 4000 {
		t.Fatalf("persisted total: expected 4000, got %d", sale.TotalCents)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected 1 persisted item, got %d", len(sale.Items))
	}

	state, err := svc.CartState(ctx, sid)
	if err != nil {
		t.Fatalf("cart state: %v", err)
	}
	if len(state.Lines) != 2 {
		t.Fatal("cart must be kept after a partial finalize")
	}
}

func TestRecalculateSaleTotalIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	const sid = "sess-recalc"

	if _, err := svc.CartAddCustom(ctx, sid, "Kopi", 2600, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	outcome, err := svc.FinalizeCart(ctx, sid)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	for i := 0; i < 3; i++ {
		total, err := repo.RecalculateSaleTotal(ctx, outcome.SaleID)
		if err != nil {
			t.Fatalf("recalc %d: %v", i, err)
		}
		if total != 7800 {
			t.Fatalf("recalc %d: expected 7800, got %d", i, total)
		}
	}
}

func TestCustomersPageClampsToLastPage(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := repo.CreateCustomer(ctx, domain.CustomerCreateRequest{Name: fmt.Sprintf("Customer %02d", i)})
		if err != nil {
			t.Fatalf("seed customer %d: %v", i, err)
		}
	}

	page3, err := svc.CustomersPage(ctx, 3)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3.Customers) != 5 {
		t.Fatalf("page 3: expected 5 customers, got %d", len(page3.Customers))
	}
	if page3.TotalPages != 3 || page3.TotalItems != 25 {
		t.Fatalf("page 3 frame: got pages=%d items=%d", page3.TotalPages, page3.TotalItems)
	}

	page4, err := svc.CustomersPage(ctx, 4)
	if err != nil {
		t.Fatalf("page 4: %v", err)
	}
	if page4.Page != 3 {
		t.Fatalf("page past the end must clamp to 3, got %d", page4.Page)
	}
	if len(page4.Customers) != 5 {
		t.Fatalf("clamped page: expected 5 customers, got %d", len(page4.Customers))
	}
}

func TestCustomersPageEmptyTable(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.CustomersPage(context.Background(), 7)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Page != 1 || page.TotalPages != 1 || len(page.Customers) != 0 {
		t.Fatalf("empty table: got page=%d pages=%d customers=%d", page.Page, page.TotalPages, len(page.Customers))
	}
}

func TestWeeklyReportDensifiesDays(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// Week of Monday 2026-08-17. Sales on Tuesday and Friday only.
	tue := time.Date(2026, 8, 18, 10, 0, 0, 0, time.UTC)
	fri := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)
	for _, day := range []struct {
		at    time.Time
		cents int64
	}{
		{tue, 5000},
		{fri, 7500},
	} {
		at := day.at
		repo.SetClock(func() time.Time { return at })
		saleID, err := repo.CreateSale(ctx, "")
		if err != nil {
			t.Fatalf("create sale: %v", err)
		}
		if err := repo.AddSaleItem(ctx, saleID, "Kopi", 1, day.cents); err != nil {
			t.Fatalf("add item: %v", err)
		}
		if _, err := repo.RecalculateSaleTotal(ctx, saleID); err != nil {
			t.Fatalf("recalc: %v", err)
		}
	}

	report := svc.WeeklyReport(ctx, time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC))
	if report.WeekStart != "2026-08-17" || report.WeekEnd != "2026-08-23" {
		t.Fatalf("week bounds: got %s..%s", report.WeekStart, report.WeekEnd)
	}
	if len(report.Chart.Labels) != 7 || len(report.Chart.DataCents) != 7 {
		t.Fatalf("chart must have 7 points, got %d labels %d points", len(report.Chart.Labels), len(report.Chart.DataCents))
	}
	if report.Chart.Labels[0] != "Mon" || report.Chart.Labels[6] != "Sun" {
		t.Fatalf("labels: got %v", report.Chart.Labels)
	}

	want := []int64{0, 5000, 0, 0, 7500, 0, 0}
	for i, cents := range want {
		if report.Chart.DataCents[i] != cents {
			t.Fatalf("day %d: expected %d, got %d", i, cents, report.Chart.DataCents[i])
		}
	}
	if report.Chart.TotalCents != 12500 {
		t.Fatalf("week total: expected 12500, got %d", report.Chart.TotalCents)
	}
}

func TestMonthlyReportFallsBackOnInvalidMonth(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.SetClock(func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) })

	report := svc.MonthlyReport(context.Background(), 2026, 13)
	if report.Year != 2026 || report.Month != 8 {
		t.Fatalf("expected fallback to 2026-08, got %d-%d", report.Year, report.Month)
	}
	if report.MonthName != "August" {
		t.Fatalf("month name: got %q", report.MonthName)
	}
	if len(report.Chart.DataCents) != 31 {
		t.Fatalf("August chart must have 31 points, got %d", len(report.Chart.DataCents))
	}
	if report.Chart.Labels[0] != "1" || report.Chart.Labels[30] != "31" {
		t.Fatalf("labels: got %v..%v", report.Chart.Labels[0], report.Chart.Labels[30])
	}
}

func TestSyncSaleSkipsInvalidItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.SyncSale(ctx, domain.SaleSyncRequest{
		CustomerName: "Dina",
		Items: []domain.SaleSyncItem{
			{Name: "Kopi", Quantity: 2, PriceAtSale: 2600},
			{Name: "", Quantity: 1, PriceAtSale: 1000},
			{Name: "Teh", Quantity: 0, PriceAtSale: 900},
			{Name: "Roti", Quantity: 1, PriceAtSale: -5},
		},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if resp.TotalAmountSynced != 5200 {
		t.Fatalf("expected synced total 5200, got %d", resp.TotalAmountSynced)
	}

	sale, err := svc.GetSale(ctx, resp.SaleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected 1 persisted item, got %d", len(sale.Items))
	}
}

func TestSyncSaleRejectsAllInvalid(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SyncSale(ctx, domain.SaleSyncRequest{
		Items: []domain.SaleSyncItem{{Name: "", Quantity: 0}},
	})
	if !errors.Is(err, ErrNoValidItems) {
		t.Fatalf("expected ErrNoValidItems, got %v", err)
	}

	count, err := repo.CountSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no sale row may be created, got %d", count)
	}
}

func TestSalesPagePaginatesNewestFirst(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		repo.SetClock(func() time.Time { return at })
		saleID, err := repo.CreateSale(ctx, "")
		if err != nil {
			t.Fatalf("create sale %d: %v", i, err)
		}
		if err := repo.AddSaleItem(ctx, saleID, "Kopi", 1, 1000); err != nil {
			t.Fatalf("add item %d: %v", i, err)
		}
		if _, err := repo.RecalculateSaleTotal(ctx, saleID); err != nil {
			t.Fatalf("recalc %d: %v", i, err)
		}
	}

	page1, err := svc.SalesPage(ctx, 1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Sales) != 10 || page1.TotalItems != 12 || page1.TotalPages != 2 {
		t.Fatalf("page 1 frame: got sales=%d items=%d pages=%d", len(page1.Sales), page1.TotalItems, page1.TotalPages)
	}
	if !page1.Sales[0].CreatedAt.After(page1.Sales[1].CreatedAt) {
		t.Fatal("sales must be ordered newest first")
	}

	page9, err := svc.SalesPage(ctx, 9, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if page9.Page != 2 || len(page9.Sales) != 2 {
		t.Fatalf("clamp: got page=%d sales=%d", page9.Page, len(page9.Sales))
	}
}

func TestDashboardTotals(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	today := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	svc.SetClock(func() time.Time { return today })

	for _, day := range []struct {
		at    time.Time
		cents int64
	}{
		{yesterday, 3000},
		{today, 4500},
	} {
		at := day.at
		repo.SetClock(func() time.Time { return at })
		saleID, err := repo.CreateSale(ctx, "")
		if err != nil {
			t.Fatalf("create sale: %v", err)
		}
		if err := repo.AddSaleItem(ctx, saleID, "Kopi", 3, day.cents/3); err != nil {
			t.Fatalf("add item: %v", err)
		}
		if _, err := repo.RecalculateSaleTotal(ctx, saleID); err != nil {
			t.Fatalf("recalc: %v", err)
		}
	}

	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.TodayTotalCents != 4500 {
		t.Fatalf("today: expected 4500, got %d", dash.TodayTotalCents)
	}
	if dash.WeekTotalCents != 7500 {
		t.Fatalf("week: expected 7500, got %d", dash.WeekTotalCents)
	}
	if len(dash.ItemsSoldToday) != 1 || dash.ItemsSoldToday[0].TotalQty != 3 {
		t.Fatalf("items sold today: got %+v", dash.ItemsSoldToday)
	}
}
