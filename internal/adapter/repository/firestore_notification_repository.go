package repository

import (
	"context"
	stderrors "errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/realtime"
)

const (
	usersCollection         = "users"
	notificationsCollection = "notifications"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) collection(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(notificationsCollection)
}

func decodeNotification(doc *firestore.DocumentSnapshot) (*entity.Notification, error) {
	var n entity.Notification
	if err := doc.DataTo(&n); err != nil {
		return nil, err
	}
	n.ID = doc.Ref.ID
	n.RecipientID = doc.Ref.Parent.Parent.ID
	return &n, nil
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	ref := r.collection(n.RecipientID).NewDoc()
	n.ID = ref.ID

	result, err := ref.Create(ctx, n)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}
	n.CreatedAt = result.UpdateTime
	return nil
}

func (r *firestoreNotificationRepository) CreateBatch(ctx context.Context, ns []*entity.Notification) ([]*entity.Notification, error) {
	if len(ns) == 0 {
		return nil, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, len(ns))
	var errs []error
	for i, n := range ns {
		ref := r.collection(n.RecipientID).NewDoc()
		n.ID = ref.ID
		job, err := bw.Create(ref, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		jobs[i] = job
	}
	bw.End()

	created := make([]*entity.Notification, 0, len(ns))
	for i, job := range jobs {
		if job == nil {
			continue
		}
		result, err := job.Results()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ns[i].CreatedAt = result.UpdateTime
		created = append(created, ns[i])
	}

	if len(errs) > 0 {
		return created, errors.Internal("Failed to create some notifications", stderrors.Join(errs...))
	}
	return created, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := r.collection(userID).Doc(notificationID).Update(ctx, []firestore.Update{
		{Path: "isRead", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.Internal("Failed to mark notification read", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) unreadQuery(userID string) firestore.Query {
	return r.collection(userID).
		Where("isRead", "==", false).
		OrderBy("createdAt", firestore.Desc)
}

func (r *firestoreNotificationRepository) ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error) {
	notifications, err := collect(r.unreadQuery(userID).Documents(ctx), decodeNotification)
	if err != nil {
		return nil, errors.Internal("Failed to list notifications", err)
	}
	return notifications, nil
}

func (r *firestoreNotificationRepository) ListenUnread(ctx context.Context, userID string) *realtime.Subscription[*entity.Notification] {
	return listenQuery(ctx, "notifications", r.unreadQuery(userID), decodeNotification)
}
