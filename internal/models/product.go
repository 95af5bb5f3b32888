package models

import "time"

// Product is a sellable catalog entry. Price is an integer currency amount
// (rupiah); Stock is decremented by checkout and otherwise owned by catalog
// CRUD.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Price     int64     `gorm:"not null" json:"price"`
	Stock     int       `gorm:"not null" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
