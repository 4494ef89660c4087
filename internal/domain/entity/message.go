package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageStatusSent = "sent"

	// DeletedPlaceholder replaces the text of a message hidden from a viewer.
	DeletedPlaceholder = "This message was deleted"
)

type DeletionScope string

const (
	DeletedForMe       DeletionScope = "me"
	DeletedForEveryone DeletionScope = "everyone"
)

func (s DeletionScope) Valid() bool {
	return s == DeletedForMe || s == DeletedForEveryone
}

// Deletion is the soft-delete state of a message. A nil *Deletion is an
// active message, so "deleted without a scope" cannot be expressed.
type Deletion struct {
	Scope DeletionScope `json:"scope"`
	By    string        `json:"by"`
	At    time.Time     `json:"at"`
}

// Message is immutable apart from its Deletion, which changes at most from
// nil to "me" or "everyone", and from "me" to "everyone".
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	Deletion       *Deletion `json:"deletion,omitempty"`
}

func (m *Message) IsDeleted() bool {
	return m.Deletion != nil
}

// ApplyDeletion computes the next deletion state for a delete request by
// userID. changed is false when the request is a no-op: repeating the same
// deletion, or asking for "me" on a message already deleted for everyone.
// The only second transition allowed is the sender upgrading "me" to
// "everyone".
func (m *Message) ApplyDeletion(scope DeletionScope, userID string, at time.Time) (next *Deletion, changed bool, err error) {
	if !scope.Valid() {
		return m.Deletion, false, ErrInvalidDeletionScope
	}
	if scope == DeletedForEveryone && userID != m.SenderID {
		return m.Deletion, false, ErrNotMessageSender
	}

	current := m.Deletion
	switch {
	case current == nil:
	case current.Scope == DeletedForEveryone:
		return current, false, nil
	case scope == DeletedForMe && current.By == userID:
		return current, false, nil
	case scope == DeletedForMe:
		// The document has a single deletedBy slot.
		return current, false, ErrDeletedByOtherParty
	}
	return &Deletion{Scope: scope, By: userID, At: at}, true, nil
}

// VisibleTo reports whether viewerID sees the original text.
func (m *Message) VisibleTo(viewerID string) bool {
	if m.Deletion == nil {
		return true
	}
	if m.Deletion.Scope == DeletedForEveryone {
		return false
	}
	return m.Deletion.By != viewerID
}

// RenderedMessage is a message as a specific viewer should see it.
type RenderedMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Mine      bool      `json:"mine"`
	Deleted   bool      `json:"deleted"`
}

func (m *Message) RenderFor(viewerID string) RenderedMessage {
	r := RenderedMessage{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Type:      m.Type,
		CreatedAt: m.CreatedAt,
		Mine:      m.SenderID == viewerID,
	}
	if !m.VisibleTo(viewerID) {
		r.Text = DeletedPlaceholder
		r.Deleted = true
	}
	return r
}

// RenderThread renders an ordered message list for viewerID, keeping order.
func RenderThread(messages []*Message, viewerID string) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.RenderFor(viewerID))
	}
	return out
}
