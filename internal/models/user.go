package models

// User represents an account in the system.
type User struct {
	Base
	Username     string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Bio          string `gorm:"size:200;not null;default:''" json:"bio"`
}
