package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/internal/infrastructure/ratelimit"
	"amravatimarket/internal/infrastructure/telemetry"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/realtime"
)

var conversationTracer = telemetry.Tracer("conversation")

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	productRepo      repository.ProductRepository
	rateLimiter      RateLimiter
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	rateLimiter RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		productRepo:      productRepo,
		rateLimiter:      rateLimiter,
	}
}

type FindOrCreateInput struct {
	ProductID    string
	ProductTitle string
	ProductImage string
	Buyer        entity.Party
	Seller       entity.Party
}

type ContactResult struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
}

// FindOrCreate returns the conversation for (product, buyer, seller),
// creating it on first contact. An existing conversation is returned as-is;
// its product snapshot is not refreshed.
func (uc *ConversationUseCase) FindOrCreate(ctx context.Context, actorID string, input FindOrCreateInput) (*ContactResult, error) {
	ctx, span := conversationTracer.Start(ctx, "conversation.find_or_create")
	defer span.End()

	if err := requireIdentity(actorID); err != nil {
		return nil, err
	}
	if input.ProductID == "" || input.Buyer.ID == "" || input.Seller.ID == "" {
		return nil, errors.InvalidArgument("product, buyer and seller are required")
	}
	if input.Buyer.ID == input.Seller.ID {
		return nil, errors.InvalidArgument("You cannot start a conversation with yourself")
	}
	if actorID != input.Buyer.ID && actorID != input.Seller.ID {
		return nil, errors.Unauthorized("Only a participant can open this conversation")
	}

	c := entity.NewConversation(input.ProductID, input.ProductTitle, input.ProductImage, input.Buyer, input.Seller)
	id, created, err := uc.conversationRepo.FindOrCreate(ctx, c)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("conversation.id", id), attribute.Bool("conversation.created", created))

	return &ContactResult{ConversationID: id, Created: created}, nil
}

// ContactSeller opens (or reopens) buyerID's conversation about productID,
// resolving the seller and display names from the catalog and user profiles.
func (uc *ConversationUseCase) ContactSeller(ctx context.Context, buyerID, productID string) (*ContactResult, error) {
	if err := requireIdentity(buyerID); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, errors.InvalidArgument("product_id is required")
	}
	if err := checkRate(uc.rateLimiter, buyerID, ratelimit.ActionCreateConversation,
		"Rate limit exceeded. Please wait before contacting another seller"); err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == "" {
		return nil, errors.InvalidArgument("Product has no seller")
	}
	if product.SellerID == buyerID {
		return nil, errors.InvalidArgument("You cannot message yourself about your own product")
	}

	return uc.FindOrCreate(ctx, buyerID, FindOrCreateInput{
		ProductID:    product.ID,
		ProductTitle: product.Title,
		ProductImage: product.CoverImage(),
		Buyer:        entity.Party{ID: buyerID, Name: uc.displayName(ctx, buyerID)},
		Seller:       entity.Party{ID: product.SellerID, Name: uc.displayName(ctx, product.SellerID)},
	})
}

// displayName is cosmetic; lookup failures fall back to the role default.
func (uc *ConversationUseCase) displayName(ctx context.Context, userID string) string {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Warn("Failed to load user profile", "user_id", userID, "error", err)
		}
		return ""
	}
	return user.Name
}

// Get returns a conversation visible to userID.
func (uc *ConversationUseCase) Get(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	c, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, errors.Unauthorized("You are not a participant in this conversation")
	}
	return c, nil
}

// MarkRead zeroes userID's unread counter. Non-participants are ignored.
func (uc *ConversationUseCase) MarkRead(ctx context.Context, conversationID, userID string) error {
	ctx, span := conversationTracer.Start(ctx, "conversation.mark_read")
	defer span.End()

	if err := requireIdentity(userID); err != nil {
		return err
	}
	c, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	role, ok := c.RoleOf(userID)
	if !ok || c.Unread(role) == 0 {
		return nil
	}
	return uc.conversationRepo.ResetUnread(ctx, conversationID, role)
}

// SetBlocked is an administrative switch; authorization happens at the edge.
func (uc *ConversationUseCase) SetBlocked(ctx context.Context, conversationID string, blocked bool) error {
	if err := uc.conversationRepo.SetBlocked(ctx, conversationID, blocked); err != nil {
		return err
	}
	logger.Info("Conversation block state changed", "conversation_id", conversationID, "blocked", blocked)
	return nil
}

func (uc *ConversationUseCase) ListInbox(ctx context.Context, userID string) ([]entity.InboxEntry, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return inboxFor(conversations, userID), nil
}

// ListenInbox streams userID's inbox, newest activity first. The caller must
// Close the subscription.
func (uc *ConversationUseCase) ListenInbox(ctx context.Context, userID string) (*realtime.Subscription[entity.InboxEntry], error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	src := uc.conversationRepo.ListenByParticipant(ctx, userID)
	return realtime.Map(src, func(conversations []*entity.Conversation) []entity.InboxEntry {
		return inboxFor(conversations, userID)
	}), nil
}

func inboxFor(conversations []*entity.Conversation, userID string) []entity.InboxEntry {
	entries := make([]entity.InboxEntry, 0, len(conversations))
	for _, c := range conversations {
		if entry, ok := entity.InboxEntryFor(c, userID); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}
