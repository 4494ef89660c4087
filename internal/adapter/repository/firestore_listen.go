package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/realtime"
)

type decodeFunc[T any] func(doc *firestore.DocumentSnapshot) (T, error)

func collect[T any](iter *firestore.DocumentIterator, decode decodeFunc[T]) ([]T, error) {
	defer iter.Stop()

	items := make([]T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		item, err := decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// listenQuery runs a Firestore snapshot listener for q until the returned
// subscription is closed. Every snapshot is the full result set.
func listenQuery[T any](ctx context.Context, name string, q firestore.Query, decode decodeFunc[T]) *realtime.Subscription[T] {
	sub := realtime.New[T](ctx)

	go func() {
		it := q.Snapshots(sub.Context())
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if sub.Context().Err() != nil || status.Code(err) == codes.Canceled || err == iterator.Done {
					sub.Close()
					return
				}
				logger.Error("Snapshot listener failed", "listener", name, "error", err)
				sub.Fail(errors.Internal("Realtime listener failed", err))
				return
			}

			items, err := collect(snap.Documents, decode)
			if err != nil {
				logger.Error("Failed to decode snapshot", "listener", name, "error", err)
				sub.Fail(errors.Internal("Failed to decode snapshot", err))
				return
			}
			if !sub.Publish(items) {
				return
			}
		}
	}()

	return sub
}
