package repository

import (
	"context"

	"amravatimarket/internal/domain/entity"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// Approve marks the product approved. transitioned is true only for the
	// call that moved it from unapproved to approved.
	Approve(ctx context.Context, id string) (product *entity.Product, transitioned bool, err error)
}
