package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/directory/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Directory {
	return &repo{db: conn}
}

func (r *repo) Party(ctx context.Context, id snowflake.ID) (*domain.Party, error) {
	var party domain.Party
	err := r.db.WithContext(ctx).First(&party, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPartyNotFound
		}
		return nil, err
	}
	return &party, nil
}

func (r *repo) Property(ctx context.Context, id snowflake.ID) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).First(&property, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, err
	}
	return &property, nil
}
