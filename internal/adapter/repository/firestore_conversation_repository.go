package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/realtime"
)

const conversationsCollection = "conversations"

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection)
}

func decodeConversation(doc *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var c entity.Conversation
	if err := doc.DataTo(&c); err != nil {
		return nil, err
	}
	c.ID = doc.Ref.ID
	return &c, nil
}

func (r *firestoreConversationRepository) FindOrCreate(ctx context.Context, c *entity.Conversation) (string, bool, error) {
	// Conversations written before ids were derived from the key still
	// carry random ids, so the key lookup runs first.
	existing, err := r.findByKey(ctx, c.ProductID, c.BuyerID, c.SellerID)
	if err != nil {
		return "", false, err
	}
	if existing != "" {
		return existing, false, nil
	}

	ref := r.collection().Doc(c.ID)
	var created bool
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		_, err := tx.Get(ref)
		if err == nil {
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}
		created = true
		return tx.Create(ref, c)
	})
	if err != nil {
		return "", false, errors.Internal("Failed to create conversation", err)
	}

	if created {
		logger.Info("Conversation created", "conversation_id", c.ID, "product_id", c.ProductID)
	}
	return c.ID, created, nil
}

func (r *firestoreConversationRepository) findByKey(ctx context.Context, productID, buyerID, sellerID string) (string, error) {
	iter := r.collection().
		Where("productId", "==", productID).
		Where("buyerId", "==", buyerID).
		Where("sellerId", "==", sellerID).
		Limit(1).
		Documents(ctx)

	docs, err := iter.GetAll()
	if err != nil {
		return "", errors.Internal("Failed to look up conversation", err)
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].Ref.ID, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.ConversationNotFound(id, err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	c, err := decodeConversation(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return c, nil
}

func (r *firestoreConversationRepository) update(ctx context.Context, id string, updates []firestore.Update) error {
	_, err := r.collection().Doc(id).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.ConversationNotFound(id, err)
		}
		return errors.Internal("Failed to update conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) ApplySend(ctx context.Context, id string, u repository.SendUpdate) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "lastMessage", Value: u.Text},
		{Path: "lastMessageAt", Value: firestore.ServerTimestamp},
		{Path: u.SenderRole.Other().UnreadField(), Value: firestore.Increment(1)},
		{Path: u.SenderRole.UnreadField(), Value: 0},
		{Path: entity.RoleBuyer.TypingField(), Value: false},
		{Path: entity.RoleSeller.TypingField(), Value: false},
	})
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, id string, role entity.Role) error {
	ref := r.collection().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		c, err := decodeConversation(doc)
		if err != nil {
			return err
		}
		if c.Unread(role) == 0 {
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: role.UnreadField(), Value: 0}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.ConversationNotFound(id, err)
		}
		return errors.Internal("Failed to reset unread counter", err)
	}
	return nil
}

func (r *firestoreConversationRepository) SetTyping(ctx context.Context, id string, role entity.Role, typing bool) error {
	return r.update(ctx, id, []firestore.Update{{Path: role.TypingField(), Value: typing}})
}

func (r *firestoreConversationRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.update(ctx, id, []firestore.Update{{Path: "isBlocked", Value: blocked}})
}

func (r *firestoreConversationRepository) participantQuery(userID string) firestore.Query {
	return r.collection().
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	conversations, err := collect(r.participantQuery(userID).Documents(ctx), decodeConversation)
	if err != nil {
		return nil, errors.Internal("Failed to list conversations", err)
	}
	return conversations, nil
}

func (r *firestoreConversationRepository) ListenByParticipant(ctx context.Context, userID string) *realtime.Subscription[*entity.Conversation] {
	return listenQuery(ctx, "inbox", r.participantQuery(userID), decodeConversation)
}
