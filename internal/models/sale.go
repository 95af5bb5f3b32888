package models

import "time"

// Sale ("penjualan") is one checkout transaction header. Created exactly once
// by the checkout flow, immutable afterwards.
type Sale struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Code       string       `gorm:"uniqueIndex;not null;size:40" json:"code"`
	CustomerID uint         `gorm:"not null;index" json:"customer_id"`
	Customer   Customer     `gorm:"foreignKey:CustomerID" json:"customer"`
	UserID     uint         `gorm:"not null;index" json:"user_id"` // cashier who recorded the sale
	Total      int64        `gorm:"not null" json:"total"`
	Payment    int64        `gorm:"not null" json:"payment"` // amount tendered
	Change     int64        `gorm:"not null" json:"change"`
	Details    []SaleDetail `gorm:"foreignKey:SaleID" json:"details"`
	CreatedAt  time.Time    `json:"created_at"`
}

// SaleDetail ("detail penjualan") is one line of a sale. Subtotal captures
// unit price x quantity at sale time; later price changes never alter it.
type SaleDetail struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	SaleID    uint    `gorm:"not null;index" json:"sale_id"`
	ProductID uint    `gorm:"not null" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Subtotal  int64   `gorm:"not null" json:"subtotal"`
}
