package repository

import (
	"context"
	"sort"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
)

type memoryUserRepository struct {
	store *MemoryStore
}

func NewMemoryUserRepository(store *MemoryStore) repository.UserRepository {
	return &memoryUserRepository{store: store}
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return copyUser(u), nil
}

func (r *memoryUserRepository) ListByPreferences(ctx context.Context, location, category string) ([]*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*entity.User, 0)
	for _, u := range r.store.users {
		if u.Wants(location, category) {
			users = append(users, copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memoryUserRepository) UpdateProfile(ctx context.Context, id string, update repository.ProfileUpdate) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.SetLocations {
		u.PreferredLocations = append([]string(nil), update.PreferredLocations...)
	}
	if update.SetCategories {
		u.PreferredCategories = append([]string(nil), update.PreferredCategories...)
	}
	return copyUser(u), nil
}

type memoryDeviceTokenRepository struct {
	store *MemoryStore
}

func NewMemoryDeviceTokenRepository(store *MemoryStore) repository.DeviceTokenRepository {
	return &memoryDeviceTokenRepository{store: store}
}

func (r *memoryDeviceTokenRepository) Save(ctx context.Context, token *entity.DeviceToken) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	cp.UpdatedAt = s.now()
	s.tokens[token.UserID] = &cp
	return nil
}

type memoryProductRepository struct {
	store *MemoryStore
}

func NewMemoryProductRepository(store *MemoryStore) repository.ProductRepository {
	return &memoryProductRepository{store: store}
}

func (r *memoryProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *memoryProductRepository) Approve(ctx context.Context, id string) (*entity.Product, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, false, errors.NotFound("Product", nil)
	}
	if p.Approved {
		cp := *p
		return &cp, false, nil
	}
	at := s.now()
	p.Approved = true
	p.ApprovedAt = &at
	cp := *p
	return &cp, true, nil
}
