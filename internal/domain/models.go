package domain

import "time"

// All money fields are integer minor units (cents). Cart lines are matched
// by the exact (name, unit price) pair, so two lines with the same product
// name but different prices stay distinct.

type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Address *string `json:"address,omitempty"`
}

// CustomerPage is one page of the customer listing plus the pagination frame
// the caller needs to render page controls.
type CustomerPage struct {
	Customers  []Customer `json:"customers"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalItems int        `json:"total_items"`
	TotalPages int        `json:"total_pages"`
}

// Sale is the persisted sale header. CustomerName is a denormalized snapshot
// taken at creation; renaming or deleting a customer never rewrites history.
type Sale struct {
	ID           int64      `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	TotalCents   int64      `json:"total_cents"`
	CustomerName string     `json:"customer_name"`
	Items        []SaleItem `json:"items,omitempty"`
}

// SaleItem snapshots the product name and unit price at the time of sale,
// insulating historical records from later catalog edits.
type SaleItem struct {
	ID             int64  `json:"id"`
	SaleID         int64  `json:"sale_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type SalePage struct {
	Sales      []Sale `json:"sales"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
}

// CartLine is a single line of the in-progress sale. SubtotalCents is always
// Quantity * UnitPriceCents; the cart recomputes it on every mutation.
type CartLine struct {
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// WalkInCustomer is the sentinel customer name for sales without a customer.
const WalkInCustomer = "N/A"

// CartState is the serialized form of a session cart.
type CartState struct {
	Lines        []CartLine `json:"lines"`
	CustomerName string     `json:"customer_name"`
	TotalCents   int64      `json:"total_cents"`
}

const (
	FinalizeOK         = "ok"
	FinalizePartial    = "partial"
	FinalizeTotalStale = "total_stale"
)

// FinalizeOutcome reports how a finalize attempt ended. Partial means the
// sale header exists but some lines failed to persist; the cart is kept for
// operator review. TotalStale means the lines persisted but the authoritative
// total could not be written back.
type FinalizeOutcome struct {
	Status      string   `json:"status"`
	SaleID      int64    `json:"sale_id"`
	TotalCents  int64    `json:"total_cents"`
	FailedLines []string `json:"failed_lines,omitempty"`
}

type SaleSyncItem struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	PriceAtSale int64  `json:"price_at_sale"`
}

type SaleSyncRequest struct {
	CustomerName string         `json:"customer_name"`
	Items        []SaleSyncItem `json:"items"`
}

type SaleSyncResponse struct {
	Message           string `json:"message"`
	SaleID            int64  `json:"sale_id"`
	TotalAmountSynced int64  `json:"total_amount_synced"`
}

// ChartData is a dense time series for chart rendering: one point per
// calendar day in the requested range, zero-filled for days without sales.
// A store failure is reported through Err rather than an error return so the
// consumer can still render its frame.
type ChartData struct {
	Labels     []string `json:"labels"`
	DataCents  []int64  `json:"data_cents"`
	TotalCents int64    `json:"total_cents"`
	Err        string   `json:"error,omitempty"`
}

type ItemSummaryRow struct {
	Name       string `json:"name"`
	TotalQty   int64  `json:"total_qty"`
	TotalCents int64  `json:"total_cents"`
}

type WeeklyReport struct {
	WeekStart string           `json:"week_start"`
	WeekEnd   string           `json:"week_end"`
	Chart     ChartData        `json:"chart"`
	Items     []ItemSummaryRow `json:"items"`
}

type MonthlyReport struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	MonthName string           `json:"month_name"`
	Chart     ChartData        `json:"chart"`
	Items     []ItemSummaryRow `json:"items"`
}

type ItemsSoldRow struct {
	Name     string `json:"name"`
	TotalQty int64  `json:"total_qty"`
}

// Dashboard is the landing-page summary: today's takings, the running
// Monday-to-Sunday week total, and what moved today.
type Dashboard struct {
	TodayTotalCents int64          `json:"today_total_cents"`
	WeekTotalCents  int64          `json:"week_total_cents"`
	WeekStart       string         `json:"week_start"`
	WeekEnd         string         `json:"week_end"`
	ItemsSoldToday  []ItemsSoldRow `json:"items_sold_today"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor is the authenticated caller attached to a request context. SessionID
// is minted per login and keys the session cart.
type Actor struct {
	Username  string
	Role      string
	SessionID string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserInfo is the external view of an account, without the credential.
type UserInfo struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
