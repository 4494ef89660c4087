package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
)

const productsCollection = "products"

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func decodeProduct(doc *firestore.DocumentSnapshot) (*entity.Product, error) {
	var p entity.Product
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	product, err := decodeProduct(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}
	return product, nil
}

func (r *firestoreProductRepository) Approve(ctx context.Context, id string) (*entity.Product, bool, error) {
	ref := r.client.Collection(productsCollection).Doc(id)

	var (
		product      *entity.Product
		transitioned bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		transitioned = false
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		product, err = decodeProduct(doc)
		if err != nil {
			return err
		}
		if product.Approved {
			return nil
		}
		transitioned = true
		product.Approved = true
		return tx.Update(ref, []firestore.Update{
			{Path: "approved", Value: true},
			{Path: "approvedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, errors.NotFound("Product", err)
		}
		return nil, false, errors.Internal("Failed to approve product", err)
	}
	return product, transitioned, nil
}
