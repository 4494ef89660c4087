package entity

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleBuyer {
		return RoleSeller
	}
	return RoleBuyer
}

// UnreadField and TypingField name the per-party document fields.
func (r Role) UnreadField() string {
	if r == RoleBuyer {
		return "buyerUnread"
	}
	return "sellerUnread"
}

func (r Role) TypingField() string {
	if r == RoleBuyer {
		return "buyerTyping"
	}
	return "sellerTyping"
}

// Party is a participant identity with its display name.
type Party struct {
	ID   string
	Name string
}

// Conversation is one buyer/seller thread about one product. The product
// fields are a snapshot taken at creation and are never refreshed.
type Conversation struct {
	ID            string    `json:"id" firestore:"-"`
	ProductID     string    `json:"product_id" firestore:"productId"`
	ProductTitle  string    `json:"product_title" firestore:"productTitle"`
	ProductImage  string    `json:"product_image" firestore:"productImage"`
	BuyerID       string    `json:"buyer_id" firestore:"buyerId"`
	BuyerName     string    `json:"buyer_name" firestore:"buyerName"`
	SellerID      string    `json:"seller_id" firestore:"sellerId"`
	SellerName    string    `json:"seller_name" firestore:"sellerName"`
	Participants  []string  `json:"participants" firestore:"participants"`
	LastMessage   string    `json:"last_message" firestore:"lastMessage"`
	LastMessageAt time.Time `json:"last_message_at" firestore:"lastMessageAt,serverTimestamp"`
	BuyerUnread   int64     `json:"buyer_unread" firestore:"buyerUnread"`
	SellerUnread  int64     `json:"seller_unread" firestore:"sellerUnread"`
	BuyerTyping   bool      `json:"buyer_typing" firestore:"buyerTyping"`
	SellerTyping  bool      `json:"seller_typing" firestore:"sellerTyping"`
	IsBlocked     bool      `json:"is_blocked" firestore:"isBlocked"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt,serverTimestamp"`
}

var conversationNamespace = uuid.MustParse("6f1c9a52-3d0e-4c1b-9b8e-2a7d5e4f0c11")

// ConversationID derives the document id from the natural key, so creating
// the same (product, buyer, seller) conversation twice hits the same document.
func ConversationID(productID, buyerID, sellerID string) string {
	key := productID + "\x00" + buyerID + "\x00" + sellerID
	return uuid.NewSHA1(conversationNamespace, []byte(key)).String()
}

// NewConversation builds the initial state of a conversation.
func NewConversation(productID, productTitle, productImage string, buyer, seller Party) *Conversation {
	return &Conversation{
		ID:           ConversationID(productID, buyer.ID, seller.ID),
		ProductID:    productID,
		ProductTitle: productTitle,
		ProductImage: productImage,
		BuyerID:      buyer.ID,
		BuyerName:    displayName(buyer.Name, "Buyer"),
		SellerID:     seller.ID,
		SellerName:   displayName(seller.Name, "Seller"),
		Participants: []string{buyer.ID, seller.ID},
	}
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// RoleOf resolves userID to its role in the conversation.
func (c *Conversation) RoleOf(userID string) (Role, bool) {
	switch userID {
	case "":
		return "", false
	case c.BuyerID:
		return RoleBuyer, true
	case c.SellerID:
		return RoleSeller, true
	}
	return "", false
}

func (c *Conversation) HasParticipant(userID string) bool {
	_, ok := c.RoleOf(userID)
	return ok
}

// PartyID returns the user id holding role.
func (c *Conversation) PartyID(role Role) string {
	if role == RoleBuyer {
		return c.BuyerID
	}
	return c.SellerID
}

func (c *Conversation) Unread(role Role) int64 {
	if role == RoleBuyer {
		return c.BuyerUnread
	}
	return c.SellerUnread
}

func (c *Conversation) Typing(role Role) bool {
	if role == RoleBuyer {
		return c.BuyerTyping
	}
	return c.SellerTyping
}

// ThreadLink is the deep link to the conversation's thread view.
func (c *Conversation) ThreadLink() string {
	return "/messages/" + c.ID
}

// InboxEntry is a conversation as seen from one participant's inbox.
type InboxEntry struct {
	*Conversation
	Role              Role   `json:"role"`
	CounterpartID     string `json:"counterpart_id"`
	CounterpartName   string `json:"counterpart_name"`
	Unread            bool   `json:"unread"`
	UnreadCount       int64  `json:"unread_count"`
	CounterpartTyping bool   `json:"counterpart_typing"`
}

// InboxEntryFor projects c for viewerID. ok is false for non-participants.
func InboxEntryFor(c *Conversation, viewerID string) (InboxEntry, bool) {
	role, ok := c.RoleOf(viewerID)
	if !ok {
		return InboxEntry{}, false
	}
	counterpartName := c.SellerName
	if role == RoleSeller {
		counterpartName = c.BuyerName
	}
	return InboxEntry{
		Conversation:      c,
		Role:              role,
		CounterpartID:     c.PartyID(role.Other()),
		CounterpartName:   counterpartName,
		Unread:            c.Unread(role) > 0,
		UnreadCount:       c.Unread(role),
		CounterpartTyping: c.Typing(role.Other()),
	}, true
}
