// Package firestore adapts Cloud Firestore to the session.Store contract:
// a realtime stream of full transaction snapshots plus insert/delete.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"grana/internal/domain/money"
	"grana/internal/domain/transaction"
)

type Store struct {
	client *firestore.Client
	appID  string
	log    zerolog.Logger
}

// New connects to Firestore. credentialsFile may be empty, in which case
// application-default credentials are used.
func New(ctx context.Context, projectID, appID, credentialsFile string, log zerolog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	return &Store{client: client, appID: appID, log: log}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) transactions(ownerID string) *firestore.CollectionRef {
	return s.client.Collection(fmt.Sprintf("artifacts/%s/users/%s/transactions", s.appID, ownerID))
}

// Watch subscribes to the owner's transaction collection. Every change
// event is decoded into a complete snapshot and sent on the first channel;
// subscription errors go to the second. Both channels close when ctx is
// cancelled or the stream fails terminally.
func (s *Store) Watch(ctx context.Context, ownerID string) (<-chan []transaction.Transaction, <-chan error) {
	snaps := make(chan []transaction.Transaction, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(snaps)
		defer close(errs)

		it := s.transactions(ownerID).Query.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
					return
				}
				select {
				case errs <- fmt.Errorf("snapshot stream failed: %w", err):
				case <-ctx.Done():
				}
				return
			}

			snapshot, err := s.decodeAll(qs)
			if err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case snaps <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return snaps, errs
}

func (s *Store) decodeAll(qs *firestore.QuerySnapshot) ([]transaction.Transaction, error) {
	var list []transaction.Transaction
	docs := qs.Documents
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			return list, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot documents: %w", err)
		}
		list = append(list, decode(doc))
	}
}

// decode maps a raw document into the domain model. Fields pass through
// normalization: whatever shape the date or value was stored in, downstream
// code only ever sees canonical types.
func decode(doc *firestore.DocumentSnapshot) transaction.Transaction {
	data := doc.Data()
	return transaction.Transaction{
		ID:          doc.Ref.ID,
		Date:        transaction.CanonicalDate(data["date"]),
		Description: str(data["description"]),
		Value:       money.Coerce(data["value"]),
		Type:        str(data["type"]),
		Category:    str(data["category"]),
		CreatedAt:   transaction.CanonicalDate(data["createdAt"]),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// Insert writes a new transaction document. The creation instant is
// assigned by the server, never by the client.
func (s *Store) Insert(ctx context.Context, ownerID string, p transaction.AddParams) (string, error) {
	id := uuid.NewString()
	_, err := s.transactions(ownerID).Doc(id).Set(ctx, map[string]any{
		"date":        p.Date,
		"description": p.Description,
		"value":       p.Value,
		"type":        p.Type,
		"category":    p.Category,
		"createdAt":   firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}

// Delete removes a transaction document. Window/ownership policy is the
// session's responsibility; this is the raw store operation.
func (s *Store) Delete(ctx context.Context, ownerID string, id string) error {
	if _, err := s.transactions(ownerID).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// UserName reads the owner's profile document and returns its userName
// field, or "" when the profile does not exist.
func (s *Store) UserName(ctx context.Context, uid string) (string, error) {
	doc, err := s.client.Doc(fmt.Sprintf("artifacts/%s/users/%s", s.appID, uid)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to read user profile: %w", err)
	}
	name, _ := doc.Data()["userName"].(string)
	return name, nil
}
