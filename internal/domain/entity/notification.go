package entity

import "time"

const (
	NotificationTypeChat       = "chat"
	NotificationTypeNewProduct = "new_product"
	NotificationTypeSystem     = "system"
)

// Notification lives under users/{recipient}/notifications.
type Notification struct {
	ID          string    `json:"id" firestore:"-"`
	RecipientID string    `json:"recipient_id" firestore:"-"`
	Title       string    `json:"title" firestore:"title"`
	Message     string    `json:"message" firestore:"message"`
	Type        string    `json:"type" firestore:"type"`
	Link        string    `json:"link,omitempty" firestore:"link,omitempty"`
	IsRead      bool      `json:"is_read" firestore:"isRead"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt,serverTimestamp"`
}

// NotificationInput is the caller-supplied part of a notification.
type NotificationInput struct {
	Title   string
	Message string
	Type    string
	Link    string
}

// NewNotification fills defaults for missing fields.
func NewNotification(recipientID string, in NotificationInput) *Notification {
	n := &Notification{
		RecipientID: recipientID,
		Title:       in.Title,
		Message:     in.Message,
		Type:        in.Type,
		Link:        in.Link,
	}
	if n.Title == "" {
		n.Title = "Notification"
	}
	if n.Type == "" {
		n.Type = NotificationTypeSystem
	}
	return n
}
