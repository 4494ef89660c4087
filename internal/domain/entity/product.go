package entity

import (
	"time"
)

// Product is the subset of a catalog listing the messaging core reads.
type Product struct {
	ID          string   `json:"id" firestore:"-"`
	Title       string   `json:"title" firestore:"title"`
	ImageURLs   []string `json:"image_urls" firestore:"imageUrls"`
	SellerID    string   `json:"seller_id" firestore:"userId"`
	SellerEmail string   `json:"seller_email" firestore:"userEmail"`
	Location    string   `json:"location" firestore:"location"`
	Category    string   `json:"category" firestore:"category"`
	Approved    bool     `json:"approved" firestore:"approved"`

	ApprovedAt *time.Time `json:"approved_at,omitempty" firestore:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"created_at" firestore:"createdAt"`
}

// CoverImage is the first image, used as the conversation thumbnail.
func (p *Product) CoverImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// Link is the product detail deep link.
func (p *Product) Link() string {
	return "/product/" + p.ID
}
