// Package session owns the identity-scoped, in-memory view of a user's
// transactions. The remote store pushes full snapshots; the session holds
// the latest one and answers every read as a pure derivation over it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"grana/internal/domain/report"
	"grana/internal/domain/transaction"
)

var (
	tracer              = otel.Tracer("grana/session")
	meter               = otel.Meter("grana/session")
	snapshotsApplied, _ = meter.Int64Counter("session.snapshots.applied", metric.WithDescription("Snapshot events applied to the in-memory store"))
	opsTotal, _         = meter.Int64Counter("session.ops.total", metric.WithDescription("Write operations by kind and status"))
)

// RecentLimit bounds the recent-activity feed.
const RecentLimit = 5

// ErrNoIdentity is returned by write operations when no identity is
// signed in.
var ErrNoIdentity = errors.New("no signed-in identity")

// Identity is the opaque key scoping the transaction store, plus the
// resolved display name.
type Identity struct {
	UID         string
	DisplayName string
}

// Store is the document-store boundary. Watch delivers complete snapshots
// (never deltas) until ctx is cancelled; both channels close on return.
type Store interface {
	Watch(ctx context.Context, ownerID string) (<-chan []transaction.Transaction, <-chan error)
	Insert(ctx context.Context, ownerID string, params transaction.AddParams) (string, error)
	Delete(ctx context.Context, ownerID string, id string) error
}

// SnapshotHook is called after each snapshot lands, with the new
// transaction count. May be nil. Called from the watch goroutine, so it
// must not block.
type SnapshotHook func(count int)

// Session holds the current identity and the last snapshot pushed for it.
// One Session is owned by the application root; there is no package-level
// state. Writes to the cell are sequenced through the mutex because the
// store delivers snapshots on its own goroutine.
type Session struct {
	store Store
	log   zerolog.Logger
	hook  SnapshotHook

	mu       sync.RWMutex
	identity *Identity
	snapshot []transaction.Transaction

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a session bound to a store. hook may be nil.
func New(store Store, log zerolog.Logger, hook SnapshotHook) *Session {
	return &Session{store: store, log: log, hook: hook}
}

// SignIn switches the session to the given identity. Any previous
// subscription is cancelled and drained first, so a superseded watcher can
// never write into the new identity's cell, then the cell is cleared and a
// new subscription established.
func (s *Session) SignIn(ctx context.Context, id Identity) {
	s.stopWatch()

	s.mu.Lock()
	s.identity = &id
	s.snapshot = nil
	s.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	snaps, errs := s.store.Watch(watchCtx, id.UID)

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.log.Info().Str("uid", id.UID).Str("user", id.DisplayName).Msg("session started")
	go s.consume(watchCtx, id.UID, snaps, errs, done)
}

// SignOut cancels the subscription and clears identity and cell.
func (s *Session) SignOut() {
	s.stopWatch()

	s.mu.Lock()
	if s.identity != nil {
		s.log.Info().Str("uid", s.identity.UID).Msg("session ended")
	}
	s.identity = nil
	s.snapshot = nil
	s.mu.Unlock()
}

// Identity returns the signed-in identity, if any.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) stopWatch() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Session) consume(ctx context.Context, uid string, snaps <-chan []transaction.Transaction, errs <-chan error, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			s.apply(ctx, uid, snap)
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.Error().Err(err).Str("uid", uid).Msg("subscription error")
		}
	}
}

// apply replaces the cell wholesale with the latest snapshot. The identity
// check guards against a stale watcher racing a sign-in; last write wins at
// the snapshot level, no merging.
func (s *Session) apply(ctx context.Context, uid string, snap []transaction.Transaction) {
	s.mu.Lock()
	if s.identity == nil || s.identity.UID != uid {
		s.mu.Unlock()
		s.log.Warn().Str("uid", uid).Msg("dropping snapshot for superseded identity")
		return
	}
	s.snapshot = snap
	s.mu.Unlock()

	snapshotsApplied.Add(ctx, 1, metric.WithAttributes(attribute.Int("snapshot.size", len(snap))))
	s.log.Debug().Str("uid", uid).Int("transactions", len(snap)).Msg("snapshot applied")

	if s.hook != nil {
		s.hook(len(snap))
	}
}

// Add validates and inserts a new transaction. The cell is not touched:
// the store's next push is the source of truth.
func (s *Session) Add(ctx context.Context, params transaction.AddParams) (string, error) {
	ctx, span := tracer.Start(ctx, "session.add",
		trace.WithAttributes(attribute.String("transaction.type", params.Type)),
	)
	defer span.End()

	id, ok := s.Identity()
	if !ok {
		span.SetStatus(codes.Error, ErrNoIdentity.Error())
		return "", ErrNoIdentity
	}
	if err := params.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	docID, err := s.store.Insert(ctx, id.UID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		opsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "add"), attribute.String("status", "error")))
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}

	opsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "add"), attribute.String("status", "success")))
	s.log.Info().Str("id", docID).Str("type", params.Type).Float64("value", params.Value).Msg("transaction added")
	return docID, nil
}

// Delete removes a transaction if it exists in the current snapshot and is
// still inside the delete window at now. The window is re-validated here
// regardless of what the caller rendered: a transaction can expire between
// render and request.
func (s *Session) Delete(ctx context.Context, txID string, now time.Time) error {
	ctx, span := tracer.Start(ctx, "session.delete",
		trace.WithAttributes(attribute.String("transaction.id", txID)),
	)
	defer span.End()

	id, ok := s.Identity()
	if !ok {
		span.SetStatus(codes.Error, ErrNoIdentity.Error())
		return ErrNoIdentity
	}

	target, found := s.find(txID)
	if !found {
		span.SetStatus(codes.Error, transaction.ErrNotFound.Error())
		return transaction.ErrNotFound
	}
	if !transaction.CanDelete(target, now) {
		span.SetStatus(codes.Error, transaction.ErrDeleteWindowExpired.Error())
		opsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "delete"), attribute.String("status", "expired")))
		return transaction.ErrDeleteWindowExpired
	}

	if err := s.store.Delete(ctx, id.UID, txID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		opsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "delete"), attribute.String("status", "error")))
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	opsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "delete"), attribute.String("status", "success")))
	s.log.Info().Str("id", txID).Msg("transaction deleted")
	return nil
}

func (s *Session) find(txID string) (transaction.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.snapshot {
		if t.ID == txID {
			return t, true
		}
	}
	return transaction.Transaction{}, false
}

// View returns the filtered, date-descending view of the current snapshot.
func (s *Session) View(f transaction.FilterState) []transaction.Transaction {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	return transaction.Filter(snap, f)
}

// Summary aggregates the filtered view.
func (s *Session) Summary(f transaction.FilterState) report.Summary {
	return report.Summarize(s.View(f))
}

// Insight classifies the filtered view's balance.
func (s *Session) Insight(f transaction.FilterState) report.Insight {
	view := s.View(f)
	return report.Observe(len(view), report.Summarize(view))
}

// Recent returns the newest entries of the filtered view, at most
// RecentLimit.
func (s *Session) Recent(f transaction.FilterState) []transaction.Transaction {
	view := s.View(f)
	if len(view) > RecentLimit {
		view = view[:RecentLimit]
	}
	return view
}

// Years lists the distinct years present in the snapshot, newest first.
func (s *Session) Years() []int {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	return transaction.Years(snap)
}

// Export builds the report document for the filtered view. An empty view
// yields report.ErrNoTransactions.
func (s *Session) Export(f transaction.FilterState) (*report.Document, error) {
	return report.BuildDocument(s.View(f), report.LabelsFromFilter(f))
}
