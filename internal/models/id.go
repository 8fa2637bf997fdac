package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// NewID returns a fresh document identifier (24 hex characters).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s is a well-formed document identifier. Only the
// lowercase form produced by NewID is accepted, so both stores resolve the
// same string to the same row.
func ValidID(s string) bool {
	return primitive.IsValidObjectID(s) && s == strings.ToLower(s)
}

// Base holds the identifier and timestamps shared by every entity.
type Base struct {
	ID        string    `gorm:"primaryKey;size:24" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}
