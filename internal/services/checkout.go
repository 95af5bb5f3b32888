package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/diewo77/go-kasir/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleLine is one requested line item of a checkout.
type SaleLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CheckoutInput carries everything RecordSale needs. CashierID is the acting
// operator, injected explicitly by the caller from the auth context.
// ExpectedTotal is the figure the till UI displayed; it is never trusted for
// persistence, only checked against the recomputed total.
type CheckoutInput struct {
	CustomerID    uint
	CashierID     uint
	Lines         []SaleLine
	ExpectedTotal int64
	Payment       int64
}

// CheckoutService records sales: it validates stock and payment, then writes
// the sale header, its details, and the stock decrements as one transaction.
type CheckoutService struct {
	DB *gorm.DB
}

func NewCheckoutService(db *gorm.DB) *CheckoutService { return &CheckoutService{DB: db} }

// RecordSale validates the request and persists it atomically. On any failure
// no sale row is written and no stock changes; the returned error is one of
// the typed errors in errors.go, or a wrapped storage error.
func (s *CheckoutService) RecordSale(ctx context.Context, in CheckoutInput) (*models.Sale, error) {
	if len(in.Lines) == 0 {
		return nil, ErrInvalidSale
	}
	seen := make(map[uint]bool, len(in.Lines))
	for _, l := range in.Lines {
		// The till merges repeated picks into one line, so a duplicate product
		// id means a malformed request.
		if l.ProductID == 0 || l.Quantity <= 0 || seen[l.ProductID] {
			return nil, ErrInvalidSale
		}
		seen[l.ProductID] = true
	}

	var sale models.Sale
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, in.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("load customer: %w", err)
		}

		ids := make([]uint, 0, len(in.Lines))
		for _, l := range in.Lines {
			ids = append(ids, l.ProductID)
		}
		var products []models.Product
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		// Recompute the total from authoritative prices; the client figure is
		// a display hint only.
		var total int64
		for _, l := range in.Lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return ErrProductNotFound
			}
			if p.Stock < l.Quantity {
				return &OutOfStockError{ProductName: p.Name, Requested: l.Quantity, Available: p.Stock}
			}
			total += p.Price * int64(l.Quantity)
		}
		if in.ExpectedTotal != 0 && in.ExpectedTotal != total {
			log.Printf("checkout: client total %d differs from recomputed total %d", in.ExpectedTotal, total)
		}
		if in.Payment < total {
			return &InsufficientPaymentError{Total: total, Payment: in.Payment}
		}

		sale = models.Sale{
			Code:       uuid.NewString(),
			CustomerID: customer.ID,
			UserID:     in.CashierID,
			Total:      total,
			Payment:    in.Payment,
			Change:     in.Payment - total,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		details := make([]models.SaleDetail, 0, len(in.Lines))
		for _, l := range in.Lines {
			p := byID[l.ProductID]
			// Conditional decrement closes the race between the stock check
			// above and a concurrent sale of the same product: the row only
			// changes if enough stock is still there. updated_at is bumped
			// explicitly since map updates skip GORM's timestamp hooks.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", p.ID, l.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", l.Quantity),
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return &OutOfStockError{ProductName: p.Name, Requested: l.Quantity, Available: p.Stock}
			}
			details = append(details, models.SaleDetail{
				SaleID:    sale.ID,
				ProductID: p.ID,
				Quantity:  l.Quantity,
				Subtotal:  p.Price * int64(l.Quantity),
			})
		}
		if err := tx.Create(&details).Error; err != nil {
			return fmt.Errorf("create sale details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with details and products for receipt rendering.
	if err := s.DB.WithContext(ctx).Preload("Details.Product").Preload("Customer").First(&sale, sale.ID).Error; err != nil {
		return nil, fmt.Errorf("reload sale: %w", err)
	}
	return &sale, nil
}

// ListSales returns sales newest first with details and customer preloaded.
func (s *CheckoutService) ListSales(ctx context.Context, limit, offset int) ([]models.Sale, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}
	var sales []models.Sale
	if err := s.DB.WithContext(ctx).
		Preload("Details.Product").
		Preload("Customer").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&sales).Error; err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	return sales, total, nil
}

// GetSale loads one sale with details for receipt rendering.
func (s *CheckoutService) GetSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := s.DB.WithContext(ctx).Preload("Details.Product").Preload("Customer").First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("load sale: %w", err)
	}
	return &sale, nil
}
