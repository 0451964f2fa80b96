// Package memory holds an in-process Repository used for tests and for
// running the server without PostgreSQL.
package memory

import (
	"cmp"
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"seaside/backend/internal/domain"
	"seaside/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[int64]domain.Product
	customers       map[int64]domain.Customer
	sales           map[int64]*domain.Sale
	usersByUsername map[string]domain.UserAccount
	nextProductID   int64
	nextCustomerID  int64
	nextSaleID      int64
	nextItemID      int64
	now             func() time.Time
}

func New() *Store {
	return &Store{
		products:        make(map[int64]domain.Product),
		customers:       make(map[int64]domain.Customer),
		sales:           make(map[int64]*domain.Sale),
		usersByUsername: seedUsers(),
		nextProductID:   1,
		nextCustomerID:  1,
		nextSaleID:      1,
		nextItemID:      1,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// NewSeeded returns a store preloaded with a small catalog for dev mode.
func NewSeeded() *Store {
	s := New()
	seed := []domain.Product{
		{Name: "Americano", PriceCents: 2500},
		{Name: "Cappuccino", PriceCents: 3200},
		{Name: "Flat White", PriceCents: 3400},
		{Name: "Croissant", PriceCents: 2800},
		{Name: "Banana Bread", PriceCents: 3000},
		{Name: "Iced Tea", PriceCents: 2200},
	}
	ctx := context.Background()
	for _, p := range seed {
		if _, err := s.CreateProduct(ctx, domain.ProductCreateRequest{Name: p.Name, PriceCents: p.PriceCents}); err != nil {
			log.Printf("[memory-store] seed product %q: %v", p.Name, err)
		}
	}
	return s
}

// SetClock overrides the timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. The memory store is
// never the production path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *Store) GetProductByName(_ context.Context, name string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if strings.EqualFold(p.Name, name) {
			out := p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(req.Name)
	if name == "" || req.PriceCents < 0 {
		return nil, store.ErrInvalid
	}
	for _, p := range s.products {
		if strings.EqualFold(p.Name, name) {
			return nil, store.ErrConflict
		}
	}

	p := domain.Product{ID: s.nextProductID, Name: name, PriceCents: req.PriceCents}
	s.nextProductID++
	s.products[p.ID] = p
	out := p
	return &out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id int64, req domain.ProductUpdateRequest) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, store.ErrInvalid
		}
		for otherID, other := range s.products {
			if otherID != id && strings.EqualFold(other.Name, name) {
				return nil, store.ErrConflict
			}
		}
		p.Name = name
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, store.ErrInvalid
		}
		p.PriceCents = *req.PriceCents
	}

	s.products[id] = p
	out := p
	return &out, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.sales {
		for _, item := range sale.Items {
			if strings.EqualFold(item.ProductName, p.Name) {
				return store.ErrInUse
			}
		}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCustomersLocked(), nil
}

func (s *Store) ListCustomersPage(_ context.Context, page int, pageSize int) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	all := s.sortedCustomersLocked()
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.Customer{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *Store) CountCustomers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), nil
}

func (s *Store) sortedCustomersLocked() []domain.Customer {
	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return customers
}

func (s *Store) GetCustomer(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := c
	return &out, nil
}

func (s *Store) CreateCustomer(_ context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, store.ErrInvalid
	}
	for _, c := range s.customers {
		if strings.EqualFold(c.Name, name) {
			return nil, store.ErrConflict
		}
	}

	c := domain.Customer{
		ID:        s.nextCustomerID,
		Name:      name,
		Contact:   req.Contact,
		Address:   req.Address,
		CreatedAt: s.now(),
	}
	s.nextCustomerID++
	s.customers[c.ID] = c
	out := c
	return &out, nil
}

func (s *Store) UpdateCustomer(_ context.Context, id int64, req domain.CustomerUpdateRequest) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, store.ErrInvalid
		}
		for otherID, other := range s.customers {
			if otherID != id && strings.EqualFold(other.Name, name) {
				return nil, store.ErrConflict
			}
		}
		c.Name = name
	}
	if req.Contact != nil {
		c.Contact = *req.Contact
	}
	if req.Address != nil {
		c.Address = *req.Address
	}

	s.customers[id] = c
	out := c
	return &out, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) CreateSale(_ context.Context, customerName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(customerName) == "" {
		customerName = domain.WalkInCustomer
	}
	sale := &domain.Sale{
		ID:           s.nextSaleID,
		CreatedAt:    s.now(),
		TotalCents:   0,
		CustomerName: customerName,
	}
	s.nextSaleID++
	s.sales[sale.ID] = sale
	return sale.ID, nil
}

func (s *Store) AddSaleItem(_ context.Context, saleID int64, productName string, quantity int, unitPriceCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 || unitPriceCents < 0 || strings.TrimSpace(productName) == "" {
		return store.ErrInvalid
	}
	sale, ok := s.sales[saleID]
	if !ok {
		return store.ErrNotFound
	}

	item := domain.SaleItem{
		ID:             s.nextItemID,
		SaleID:         saleID,
		ProductName:    productName,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		SubtotalCents:  int64(quantity) * unitPriceCents,
	}
	s.nextItemID++
	sale.Items = append(sale.Items, item)
	return nil
}

func (s *Store) RecalculateSaleTotal(_ context.Context, saleID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return 0, store.ErrNotFound
	}
	var total int64
	for _, item := range sale.Items {
		total += item.SubtotalCents
	}
	sale.TotalCents = total
	return total, nil
}

func (s *Store) GetSale(_ context.Context, saleID int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *sale
	out.Items = slices.Clone(sale.Items)
	return &out, nil
}

func (s *Store) ListSalesPage(_ context.Context, page int, pageSize int, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	all := s.salesInRangeLocked(from, to)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.Sale{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *Store) CountSales(_ context.Context, from time.Time, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.salesInRangeLocked(from, to)), nil
}

func (s *Store) ListSalesInRange(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesInRangeLocked(from, to), nil
}

func (s *Store) salesInRangeLocked(from time.Time, to time.Time) []domain.Sale {
	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		out := *sale
		out.Items = slices.Clone(sale.Items)
		sales = append(sales, out)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmp.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return sales
}

func (s *Store) DeleteSale(_ context.Context, saleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[saleID]; !ok {
		return store.ErrNotFound
	}
	delete(s.sales, saleID)
	return nil
}

func (s *Store) DailyTotals(_ context.Context, from time.Time, to time.Time) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	for _, sale := range s.sales {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		day := sale.CreatedAt.UTC().Format("2006-01-02")
		totals[day] += sale.TotalCents
	}
	return totals, nil
}

func (s *Store) ItemSummary(_ context.Context, from time.Time, to time.Time) ([]domain.ItemSummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		name  string
		qty   int64
		cents int64
	}
	byName := make(map[string]*agg)
	for _, sale := range s.sales {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		for _, item := range sale.Items {
			key := strings.ToLower(item.ProductName)
			a, ok := byName[key]
			if !ok {
				a = &agg{name: item.ProductName}
				byName[key] = a
			}
			a.qty += int64(item.Quantity)
			a.cents += item.SubtotalCents
		}
	}

	summary := make([]domain.ItemSummaryRow, 0, len(byName))
	for _, a := range byName {
		summary = append(summary, domain.ItemSummaryRow{Name: a.name, TotalQty: a.qty, TotalCents: a.cents})
	}
	slices.SortFunc(summary, func(a, b domain.ItemSummaryRow) int {
		if a.TotalCents != b.TotalCents {
			if a.TotalCents > b.TotalCents {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return summary, nil
}

func (s *Store) TotalSalesOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	totals, err := s.DailyTotals(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	return totals[start.Format("2006-01-02")], nil
}

func (s *Store) ItemsSoldOn(ctx context.Context, day time.Time) ([]domain.ItemsSoldRow, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	summary, err := s.ItemSummary(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	sold := make([]domain.ItemsSoldRow, 0, len(summary))
	for _, row := range summary {
		sold = append(sold, domain.ItemsSoldRow{Name: row.Name, TotalQty: row.TotalQty})
	}
	slices.SortFunc(sold, func(a, b domain.ItemsSoldRow) int {
		if a.TotalQty != b.TotalQty {
			if a.TotalQty > b.TotalQty {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return sold, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalid
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrConflict
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.usersByUsername[username] = u
	return nil
}
