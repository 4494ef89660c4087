package entity

import (
	"time"
)

type User struct {
	ID    string `json:"id" firestore:"-"`
	Name  string `json:"name" firestore:"name"`
	Email string `json:"email" firestore:"email"`
	Role  string `json:"role" firestore:"role"`

	// Catalog notification preferences.
	PreferredLocations  []string `json:"preferred_locations,omitempty" firestore:"preferredLocations,omitempty"`
	PreferredCategories []string `json:"preferred_categories,omitempty" firestore:"preferredCategories,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// Wants reports whether the user asked for products at location in category.
func (u *User) Wants(location, category string) bool {
	return containsString(u.PreferredLocations, location) && containsString(u.PreferredCategories, category)
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DeviceToken is the push address stored at fcmTokens/{userId}.
type DeviceToken struct {
	UserID    string    `json:"user_id" firestore:"-"`
	Token     string    `json:"token" firestore:"token"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt,serverTimestamp"`
}
