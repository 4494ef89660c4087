package repository

import (
	"context"
	stderrors "errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/realtime"
)

const messagesCollection = "messages"

// messageDoc is the stored shape of a message. The flat deletion fields are
// what web and mobile clients read; entity.Message carries them as one value.
type messageDoc struct {
	SenderID   string     `firestore:"senderId"`
	Text       string     `firestore:"text"`
	Type       string     `firestore:"type"`
	Status     string     `firestore:"status"`
	CreatedAt  time.Time  `firestore:"createdAt,serverTimestamp"`
	IsDeleted  bool       `firestore:"isDeleted"`
	DeletedFor string     `firestore:"deletedFor,omitempty"`
	DeletedBy  string     `firestore:"deletedBy,omitempty"`
	DeletedAt  *time.Time `firestore:"deletedAt,omitempty"`
}

func toMessageDoc(m *entity.Message) messageDoc {
	d := messageDoc{
		SenderID:  m.SenderID,
		Text:      m.Text,
		Type:      m.Type,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
	if m.Deletion != nil {
		at := m.Deletion.At
		d.IsDeleted = true
		d.DeletedFor = string(m.Deletion.Scope)
		d.DeletedBy = m.Deletion.By
		d.DeletedAt = &at
	}
	return d
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var d messageDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}

	m := &entity.Message{
		ID:             doc.Ref.ID,
		ConversationID: doc.Ref.Parent.Parent.ID,
		SenderID:       d.SenderID,
		Text:           d.Text,
		Type:           d.Type,
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
	}
	if d.IsDeleted {
		scope := entity.DeletionScope(d.DeletedFor)
		if !scope.Valid() {
			// Older documents only carry the flag.
			scope = entity.DeletedForEveryone
		}
		m.Deletion = &entity.Deletion{Scope: scope, By: d.DeletedBy}
		if d.DeletedAt != nil {
			m.Deletion.At = *d.DeletedAt
		}
	}
	return m, nil
}

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) collection(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) Append(ctx context.Context, msg *entity.Message) error {
	ref := r.collection(msg.ConversationID).NewDoc()
	msg.ID = ref.ID
	msg.CreatedAt = time.Time{}

	result, err := ref.Create(ctx, toMessageDoc(msg))
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	msg.CreatedAt = result.UpdateTime
	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.collection(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	msg, err := decodeMessage(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return msg, nil
}

func (r *firestoreMessageRepository) Delete(ctx context.Context, conversationID, messageID, userID string, scope entity.DeletionScope) (*entity.Message, error) {
	ref := r.collection(conversationID).Doc(messageID)

	var result *entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		msg, err := decodeMessage(doc)
		if err != nil {
			return err
		}

		next, changed, err := msg.ApplyDeletion(scope, userID, time.Now())
		if err != nil {
			return err
		}
		msg.Deletion = next
		result = msg
		if !changed {
			return nil
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "isDeleted", Value: true},
			{Path: "deletedFor", Value: string(next.Scope)},
			{Path: "deletedBy", Value: next.By},
			{Path: "deletedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		switch {
		case status.Code(err) == codes.NotFound:
			return nil, errors.NotFound("Message", err)
		case stderrors.Is(err, entity.ErrInvalidDeletionScope),
			stderrors.Is(err, entity.ErrNotMessageSender),
			stderrors.Is(err, entity.ErrDeletedByOtherParty):
			return nil, err
		}
		return nil, errors.Internal("Failed to delete message", err)
	}
	return result, nil
}

func (r *firestoreMessageRepository) threadQuery(conversationID string) firestore.Query {
	return r.collection(conversationID).OrderBy("createdAt", firestore.Asc)
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	messages, err := collect(r.threadQuery(conversationID).Documents(ctx), decodeMessage)
	if err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}
	return messages, nil
}

func (r *firestoreMessageRepository) Listen(ctx context.Context, conversationID string) *realtime.Subscription[*entity.Message] {
	return listenQuery(ctx, "thread", r.threadQuery(conversationID), decodeMessage)
}
