package store

import (
	"context"
	"errors"
	"time"

	"seaside/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInUse    = errors.New("referenced by existing records")
	ErrInvalid  = errors.New("invalid value")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	ListCustomersPage(ctx context.Context, page int, pageSize int) ([]domain.Customer, error)
	CountCustomers(ctx context.Context) (int, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, req domain.CustomerUpdateRequest) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	CreateSale(ctx context.Context, customerName string) (int64, error)
	AddSaleItem(ctx context.Context, saleID int64, productName string, quantity int, unitPriceCents int64) error
	RecalculateSaleTotal(ctx context.Context, saleID int64) (int64, error)
	GetSale(ctx context.Context, saleID int64) (*domain.Sale, error)
	ListSalesPage(ctx context.Context, page int, pageSize int, from time.Time, to time.Time) ([]domain.Sale, error)
	CountSales(ctx context.Context, from time.Time, to time.Time) (int, error)
	ListSalesInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)
	DeleteSale(ctx context.Context, saleID int64) error

	DailyTotals(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error)
	ItemSummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ItemSummaryRow, error)
	TotalSalesOn(ctx context.Context, day time.Time) (int64, error)
	ItemsSoldOn(ctx context.Context, day time.Time) ([]domain.ItemsSoldRow, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
