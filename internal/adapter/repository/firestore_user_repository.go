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

const fcmTokensCollection = "fcmTokens"

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func decodeUser(doc *firestore.DocumentSnapshot) (*entity.User, error) {
	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, err
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	user, err := decodeUser(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return user, nil
}

// ListByPreferences filters on location server-side; Firestore allows a
// single array-contains clause, so the category match happens here.
func (r *firestoreUserRepository) ListByPreferences(ctx context.Context, location, category string) ([]*entity.User, error) {
	iter := r.client.Collection(usersCollection).
		Where("preferredLocations", "array-contains", location).
		Documents(ctx)

	candidates, err := collect(iter, decodeUser)
	if err != nil {
		return nil, errors.Internal("Failed to query users by preference", err)
	}

	users := make([]*entity.User, 0, len(candidates))
	for _, u := range candidates {
		if u.Wants(location, category) {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *firestoreUserRepository) UpdateProfile(ctx context.Context, id string, update repository.ProfileUpdate) (*entity.User, error) {
	var updates []firestore.Update
	if update.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *update.Name})
	}
	if update.SetLocations {
		updates = append(updates, firestore.Update{Path: "preferredLocations", Value: update.PreferredLocations})
	}
	if update.SetCategories {
		updates = append(updates, firestore.Update{Path: "preferredCategories", Value: update.PreferredCategories})
	}
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	if _, err := r.client.Collection(usersCollection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to update user profile", err)
	}
	return r.GetByID(ctx, id)
}

type firestoreDeviceTokenRepository struct {
	client *firestore.Client
}

func NewFirestoreDeviceTokenRepository(client *firestore.Client) repository.DeviceTokenRepository {
	return &firestoreDeviceTokenRepository{
		client: client,
	}
}

func (r *firestoreDeviceTokenRepository) Save(ctx context.Context, token *entity.DeviceToken) error {
	_, err := r.client.Collection(fcmTokensCollection).Doc(token.UserID).Set(ctx, map[string]interface{}{
		"token":     token.Token,
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to save device token", err)
	}
	return nil
}
