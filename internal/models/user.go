package models

import "time"

// User levels. KASIR is the checkout operator; ADMIN has back-office access.
const (
	LevelAdmin = "ADMIN"
	LevelKasir = "KASIR"
)

// Levels lists the accepted user levels for validation.
var Levels = []string{LevelAdmin, LevelKasir}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:60" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash, never serialized
	Level     string    `gorm:"not null;default:'KASIR'" json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
