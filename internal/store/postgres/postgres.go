package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"seaside/backend/internal/domain"
	"seaside/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables if they do not exist. Safe to run repeatedly.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id bigserial PRIMARY KEY,
			name text NOT NULL,
			price_cents bigint NOT NULL CHECK (price_cents >= 0)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS products_lower_name_idx ON products (lower(name))`,
		`CREATE TABLE IF NOT EXISTS customers (
			id bigserial PRIMARY KEY,
			name text NOT NULL,
			contact text NOT NULL DEFAULT '',
			address text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS customers_lower_name_idx ON customers (lower(name))`,
		`CREATE TABLE IF NOT EXISTS sales (
			id bigserial PRIMARY KEY,
			created_at timestamptz NOT NULL DEFAULT now(),
			total_cents bigint NOT NULL DEFAULT 0 CHECK (total_cents >= 0),
			customer_name text NOT NULL DEFAULT 'N/A'
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id bigserial PRIMARY KEY,
			sale_id bigint NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
			product_name text NOT NULL,
			quantity integer NOT NULL CHECK (quantity > 0),
			unit_price_cents bigint NOT NULL,
			subtotal_cents bigint NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sale_items_sale_id_idx ON sale_items (sale_id)`,
		`CREATE TABLE IF NOT EXISTS users (
			username text PRIMARY KEY,
			password text NOT NULL,
			role text NOT NULL DEFAULT 'cashier',
			active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price_cents
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents
		FROM products
		WHERE lower(name) = lower($1)
	`, name).Scan(&p.ID, &p.Name, &p.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.PriceCents < 0 {
		return nil, store.ErrInvalid
	}

	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, price_cents)
		VALUES ($1, $2)
		RETURNING id, name, price_cents
	`, name, req.PriceCents).Scan(&p.ID, &p.Name, &p.PriceCents)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (*domain.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	price := current.PriceCents
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if req.PriceCents != nil {
		price = *req.PriceCents
	}
	if name == "" || price < 0 {
		return nil, store.ErrInvalid
	}

	var p domain.Product
	err = s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, price_cents = $3
		WHERE id = $1
		RETURNING id, name, price_cents
	`, id, name, price).Scan(&p.ID, &p.Name, &p.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &p, nil
}

// DeleteProduct refuses to remove a product that appears in recorded sales.
// Sale items reference products by name snapshot, so the check is by name.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	var referenced bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM sale_items WHERE lower(product_name) = lower($1))
	`, p.Name).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return store.ErrInUse
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact, address, created_at
		FROM customers
		ORDER BY lower(name)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCustomers(rows)
}

func (s *Store) ListCustomersPage(ctx context.Context, page int, pageSize int) ([]domain.Customer, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact, address, created_at
		FROM customers
		ORDER BY lower(name)
		LIMIT $1 OFFSET $2
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCustomers(rows)
}

func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM customers`).Scan(&count)
	return count, err
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, contact, address, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Contact, &c.Address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, store.ErrInvalid
	}

	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, contact, address)
		VALUES ($1, $2, $3)
		RETURNING id, name, contact, address, created_at
	`, name, req.Contact, req.Address).Scan(&c.ID, &c.Name, &c.Contact, &c.Address, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id int64, req domain.CustomerUpdateRequest) (*domain.Customer, error) {
	current, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	contact := current.Contact
	address := current.Address
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if req.Contact != nil {
		contact = *req.Contact
	}
	if req.Address != nil {
		address = *req.Address
	}
	if name == "" {
		return nil, store.ErrInvalid
	}

	var c domain.Customer
	err = s.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name = $2, contact = $3, address = $4
		WHERE id = $1
		RETURNING id, name, contact, address, created_at
	`, id, name, contact, address).Scan(&c.ID, &c.Name, &c.Contact, &c.Address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSale(ctx context.Context, customerName string) (int64, error) {
	if strings.TrimSpace(customerName) == "" {
		customerName = domain.WalkInCustomer
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sales (created_at, total_cents, customer_name)
		VALUES (now(), 0, $1)
		RETURNING id
	`, customerName).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) AddSaleItem(ctx context.Context, saleID int64, productName string, quantity int, unitPriceCents int64) error {
	if quantity < 1 || unitPriceCents < 0 || strings.TrimSpace(productName) == "" {
		return store.ErrInvalid
	}

	subtotal := int64(quantity) * unitPriceCents
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sale_items (sale_id, product_name, quantity, unit_price_cents, subtotal_cents)
		VALUES ($1, $2, $3, $4, $5)
	`, saleID, productName, quantity, unitPriceCents, subtotal)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

// RecalculateSaleTotal re-derives the header total from the persisted items.
// The stored total is never trusted as an input.
func (s *Store) RecalculateSaleTotal(ctx context.Context, saleID int64) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE sales
		SET total_cents = COALESCE((
			SELECT SUM(subtotal_cents) FROM sale_items WHERE sale_id = sales.id
		), 0)
		WHERE id = $1
		RETURNING total_cents
	`, saleID).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return total, nil
}

func (s *Store) GetSale(ctx context.Context, saleID int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, total_cents, customer_name
		FROM sales
		WHERE id = $1
	`, saleID).Scan(&sale.ID, &sale.CreatedAt, &sale.TotalCents, &sale.CustomerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_name, quantity, unit_price_cents, subtotal_cents
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductName, &item.Quantity, &item.UnitPriceCents, &item.SubtotalCents); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &sale, nil
}

func (s *Store) ListSalesPage(ctx context.Context, page int, pageSize int, from time.Time, to time.Time) ([]domain.Sale, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, total_cents, customer_name
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, nullableTime(from), nullableTime(to), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

func (s *Store) CountSales(ctx context.Context, from time.Time, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
	`, nullableTime(from), nullableTime(to)).Scan(&count)
	return count, err
}

func (s *Store) ListSalesInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, total_cents, customer_name
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
	`, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

// DeleteSale removes the header; items go with it via ON DELETE CASCADE.
func (s *Store) DeleteSale(ctx context.Context, saleID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DailyTotals returns a sparse map of day (YYYY-MM-DD, UTC) to total cents.
// Days without sales are absent; callers zero-fill.
func (s *Store) DailyTotals(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(total_cents)
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var day string
		var cents int64
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, err
		}
		totals[day] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *Store) ItemSummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ItemSummaryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT min(si.product_name), SUM(si.quantity), SUM(si.subtotal_cents)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.created_at >= $1 AND s.created_at < $2
		GROUP BY lower(si.product_name)
		ORDER BY SUM(si.subtotal_cents) DESC, min(si.product_name) ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make([]domain.ItemSummaryRow, 0, 32)
	for rows.Next() {
		var row domain.ItemSummaryRow
		if err := rows.Scan(&row.Name, &row.TotalQty, &row.TotalCents); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Store) TotalSalesOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_cents), 0)
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
	`, start, start.AddDate(0, 0, 1)).Scan(&total)
	return total, err
}

func (s *Store) ItemsSoldOn(ctx context.Context, day time.Time) ([]domain.ItemsSoldRow, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.db.QueryContext(ctx, `
		SELECT min(si.product_name), SUM(si.quantity)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.created_at >= $1 AND s.created_at < $2
		GROUP BY lower(si.product_name)
		ORDER BY SUM(si.quantity) DESC, min(si.product_name) ASC
	`, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sold := make([]domain.ItemsSoldRow, 0, 16)
	for rows.Next() {
		var row domain.ItemsSoldRow
		if err := rows.Scan(&row.Name, &row.TotalQty); err != nil {
			return nil, err
		}
		sold = append(sold, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sold, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalid
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanCustomers(rows *sql.Rows) ([]domain.Customer, error) {
	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func scanSales(rows *sql.Rows) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 32)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.CreatedAt, &sale.TotalCents, &sale.CustomerName); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
