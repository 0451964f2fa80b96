package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"seaside/backend/internal/cart"
	"seaside/backend/internal/domain"
	"seaside/backend/internal/session"
	"seaside/backend/internal/store"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNoValidItems = errors.New("no valid items")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	carts    session.CartStore
	pageSize int
	cartTTL  time.Duration
	now      func() time.Time
}

func New(repo store.Repository, carts session.CartStore, pageSize int, cartTTL time.Duration) *Service {
	if pageSize < 1 {
		pageSize = 10
	}
	if cartTTL <= 0 {
		cartTTL = 12 * time.Hour
	}

	return &Service{
		repo:     repo,
		carts:    carts,
		pageSize: pageSize,
		cartTTL:  cartTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetProductByName matches case-insensitively.
func (s *Service) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.repo.GetProductByName(ctx, name)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents < 0 {
		return nil, store.ErrInvalid
	}
	return s.repo.CreateProduct(ctx, req)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (*domain.Product, error) {
	return s.repo.UpdateProduct(ctx, id, req)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// CustomersPage returns a 1-indexed page ordered case-insensitively by name.
// A page past the end clamps to the last valid page; an empty table serves
// page 1.
func (s *Service) CustomersPage(ctx context.Context, page int) (*domain.CustomerPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (total + s.pageSize - 1) / s.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	customers, err := s.repo.ListCustomersPage(ctx, page, s.pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.CustomerPage{
		Customers:  customers,
		Page:       page,
		PageSize:   s.pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	return s.repo.CreateCustomer(ctx, req)
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req domain.CustomerUpdateRequest) (*domain.Customer, error) {
	return s.repo.UpdateCustomer(ctx, id, req)
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.repo.DeleteCustomer(ctx, id)
}

// loadCart rebuilds the session's cart, starting fresh on a miss.
func (s *Service) loadCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	state, found, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return cart.New(), nil
	}
	return cart.FromState(*state), nil
}

func (s *Service) saveCart(ctx context.Context, sessionID string, c *cart.Cart) error {
	return s.carts.Put(ctx, sessionID, c.State(), s.cartTTL)
}

func (s *Service) CartState(ctx context.Context, sessionID string) (*domain.CartState, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

// CartAddProduct adds a catalog product to the session cart at its current
// catalog price.
func (s *Service) CartAddProduct(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.CartState, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.AddItem(product.Name, product.PriceCents, quantity); err != nil {
		return nil, err
	}
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

// CartAddCustom adds a free-form line with a caller-supplied price.
func (s *Service) CartAddCustom(ctx context.Context, sessionID string, name string, unitPriceCents int64, quantity int) (*domain.CartState, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.AddCustomItem(name, unitPriceCents, quantity); err != nil {
		return nil, err
	}
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

func (s *Service) CartRemoveLine(ctx context.Context, sessionID string, name string, unitPriceCents int64) (*domain.CartState, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveLine(name, unitPriceCents) {
		return nil, store.ErrNotFound
	}
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

func (s *Service) CartAdjustQuantity(ctx context.Context, sessionID string, name string, unitPriceCents int64, delta int) (*domain.CartState, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.AdjustQuantity(name, unitPriceCents, delta) {
		return nil, store.ErrNotFound
	}
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

func (s *Service) CartSetCustomer(ctx context.Context, sessionID string, name string) (*domain.CartState, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.SetCustomer(name)
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return nil, err
	}
	state := c.State()
	return &state, nil
}

func (s *Service) CartClear(ctx context.Context, sessionID string) error {
	return s.carts.Delete(ctx, sessionID)
}

// FinalizeCart converts the session cart into a persisted sale. Line inserts
// are not wrapped in a transaction: a per-line failure leaves earlier lines
// in place, the outcome reports which lines failed, and the cart is kept so
// the operator can retry or review. The header total is always re-derived
// from the persisted rows, so a partial sale still carries an accurate total.
func (s *Service) FinalizeCart(ctx context.Context, sessionID string) (*domain.FinalizeOutcome, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	saleID, err := s.repo.CreateSale(ctx, c.Customer())
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	var failed []string
	for _, line := range c.Lines() {
		if err := s.repo.AddSaleItem(ctx, saleID, line.Name, line.Quantity, line.UnitPriceCents); err != nil {
			log.Printf("[service] WARN: sale %d: persist line %q failed: %v", saleID, line.Name, err)
			failed = append(failed, line.Name)
		}
	}

	total, err := s.repo.RecalculateSaleTotal(ctx, saleID)
	if err != nil {
		log.Printf("[service] WARN: sale %d: total recalculation failed, stored total may be stale: %v", saleID, err)
		return &domain.FinalizeOutcome{
			Status:      domain.FinalizeTotalStale,
			SaleID:      saleID,
			FailedLines: failed,
		}, nil
	}

	if len(failed) > 0 {
		return &domain.FinalizeOutcome{
			Status:      domain.FinalizePartial,
			SaleID:      saleID,
			TotalCents:  total,
			FailedLines: failed,
		}, nil
	}

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		log.Printf("[service] WARN: sale %d: clearing session cart failed: %v", saleID, err)
	}

	return &domain.FinalizeOutcome{
		Status:     domain.FinalizeOK,
		SaleID:     saleID,
		TotalCents: total,
	}, nil
}

// SyncSale records a sale posted directly by an external client, without a
// session cart. Invalid items are skipped rather than failing the whole
// request; the recorded total covers only the items that persisted.
func (s *Service) SyncSale(ctx context.Context, req domain.SaleSyncRequest) (*domain.SaleSyncResponse, error) {
	valid := make([]domain.SaleSyncItem, 0, len(req.Items))
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity < 1 || item.PriceAtSale < 0 {
			log.Printf("[service] WARN: sale sync: skipping invalid item %+v", item)
			continue
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidItems
	}

	saleID, err := s.repo.CreateSale(ctx, req.CustomerName)
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	for _, item := range valid {
		if err := s.repo.AddSaleItem(ctx, saleID, item.Name, item.Quantity, item.PriceAtSale); err != nil {
			log.Printf("[service] WARN: sale %d: persist synced item %q failed: %v", saleID, item.Name, err)
		}
	}

	total, err := s.repo.RecalculateSaleTotal(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("recalculate total: %w", err)
	}

	return &domain.SaleSyncResponse{
		Message:           "sale synced",
		SaleID:            saleID,
		TotalAmountSynced: total,
	}, nil
}

func (s *Service) GetSale(ctx context.Context, saleID int64) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, saleID)
}

func (s *Service) DeleteSale(ctx context.Context, saleID int64) error {
	return s.repo.DeleteSale(ctx, saleID)
}

// SalesPage pages through sale history, newest first, optionally bounded to
// [from, to). The same clamp rules as CustomersPage apply.
func (s *Service) SalesPage(ctx context.Context, page int, from time.Time, to time.Time) (*domain.SalePage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.CountSales(ctx, from, to)
	if err != nil {
		return nil, err
	}

	totalPages := (total + s.pageSize - 1) / s.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	sales, err := s.repo.ListSalesPage(ctx, page, s.pageSize, from, to)
	if err != nil {
		return nil, err
	}

	return &domain.SalePage{
		Sales:      sales,
		Page:       page,
		PageSize:   s.pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) Receipts(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	return s.repo.ListSalesInRange(ctx, from, to)
}

// WeeklyReport covers the Monday-to-Sunday week containing weekOf. The chart
// always has exactly seven points, zero-filled for days without sales.
func (s *Service) WeeklyReport(ctx context.Context, weekOf time.Time) *domain.WeeklyReport {
	start, end := weekBounds(weekOf)

	report := &domain.WeeklyReport{
		WeekStart: start.Format("2006-01-02"),
		WeekEnd:   end.AddDate(0, 0, -1).Format("2006-01-02"),
	}

	labels := make([]string, 0, 7)
	days := make([]time.Time, 0, 7)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		labels = append(labels, d.Format("Mon"))
		days = append(days, d)
	}
	report.Chart = s.buildChart(ctx, labels, days, start, end)

	items, err := s.repo.ItemSummary(ctx, start, end)
	if err != nil {
		log.Printf("[service] WARN: weekly item summary failed: %v", err)
		items = []domain.ItemSummaryRow{}
	}
	report.Items = items

	return report
}

// MonthlyReport covers one calendar month. An out-of-range month or year
// falls back to the current month.
func (s *Service) MonthlyReport(ctx context.Context, year int, month int) *domain.MonthlyReport {
	now := s.now()
	if month < 1 || month > 12 || year < 2000 || year > now.Year()+1 {
		year, month = now.Year(), int(now.Month())
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	numDays := end.AddDate(0, 0, -1).Day()

	report := &domain.MonthlyReport{
		Year:      year,
		Month:     month,
		MonthName: start.Format("January"),
	}

	labels := make([]string, 0, numDays)
	days := make([]time.Time, 0, numDays)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		labels = append(labels, fmt.Sprintf("%d", d.Day()))
		days = append(days, d)
	}
	report.Chart = s.buildChart(ctx, labels, days, start, end)

	items, err := s.repo.ItemSummary(ctx, start, end)
	if err != nil {
		log.Printf("[service] WARN: monthly item summary failed: %v", err)
		items = []domain.ItemSummaryRow{}
	}
	report.Items = items

	return report
}

// buildChart densifies the sparse per-day totals into one point per calendar
// day. A store failure yields an empty chart carrying the error text so the
// caller can still render its frame.
func (s *Service) buildChart(ctx context.Context, labels []string, days []time.Time, from time.Time, to time.Time) domain.ChartData {
	totals, err := s.repo.DailyTotals(ctx, from, to)
	if err != nil {
		log.Printf("[service] WARN: daily totals %s..%s failed: %v", from.Format("2006-01-02"), to.Format("2006-01-02"), err)
		return domain.ChartData{
			Labels:    []string{},
			DataCents: []int64{},
			Err:       "sales data unavailable",
		}
	}

	data := make([]int64, len(days))
	var total int64
	for i, d := range days {
		cents := totals[d.Format("2006-01-02")]
		data[i] = cents
		total += cents
	}

	return domain.ChartData{
		Labels:     labels,
		DataCents:  data,
		TotalCents: total,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	today := s.now()
	weekStart, weekEnd := weekBounds(today)

	todayTotal, err := s.repo.TotalSalesOn(ctx, today)
	if err != nil {
		return nil, err
	}

	weekTotals, err := s.repo.DailyTotals(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	var weekTotal int64
	for _, cents := range weekTotals {
		weekTotal += cents
	}

	sold, err := s.repo.ItemsSoldOn(ctx, today)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		TodayTotalCents: todayTotal,
		WeekTotalCents:  weekTotal,
		WeekStart:       weekStart.Format("2006-01-02"),
		WeekEnd:         weekEnd.AddDate(0, 0, -1).Format("2006-01-02"),
		ItemsSoldToday:  sold,
	}, nil
}

// weekBounds returns the half-open [Monday 00:00, next Monday 00:00) UTC
// window containing t.
func weekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
