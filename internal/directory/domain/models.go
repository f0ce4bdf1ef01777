// Package domain exposes read-only lookups into the user and property
// directories. CRUD on these records lives outside this service.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Party struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	FullName string       `json:"full_name" gorm:"type:text;not null"`
	Email    string       `json:"email" gorm:"type:text;not null"`
	Phone    *string      `json:"phone,omitempty" gorm:"type:text"`
}

func (Party) TableName() string { return "parties" }

type Property struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	LandlordID snowflake.ID `json:"landlord_id" gorm:"not null"`
	Address    string       `json:"address" gorm:"type:text;not null"`
	City       string       `json:"city" gorm:"type:text;not null"`
	Region     string       `json:"region" gorm:"type:text;not null"`
}

func (Property) TableName() string { return "properties" }

var (
	ErrPartyNotFound    = errors.New("party_not_found")
	ErrPropertyNotFound = errors.New("property_not_found")
)

type Directory interface {
	Party(ctx context.Context, id snowflake.ID) (*Party, error)
	Property(ctx context.Context, id snowflake.ID) (*Property, error)
}
