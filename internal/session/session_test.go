package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"grana/internal/domain/report"
	"grana/internal/domain/transaction"
	"grana/internal/shared/logger"
)

// MockStore is a mock implementation of the Store interface
type MockStore struct {
	WatchFunc  func(ctx context.Context, ownerID string) (<-chan []transaction.Transaction, <-chan error)
	InsertFunc func(ctx context.Context, ownerID string, params transaction.AddParams) (string, error)
	DeleteFunc func(ctx context.Context, ownerID string, id string) error
}

func (m *MockStore) Watch(ctx context.Context, ownerID string) (<-chan []transaction.Transaction, <-chan error) {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx, ownerID)
	}
	snaps := make(chan []transaction.Transaction)
	errs := make(chan error)
	go func() {
		<-ctx.Done()
		close(snaps)
		close(errs)
	}()
	return snaps, errs
}

func (m *MockStore) Insert(ctx context.Context, ownerID string, params transaction.AddParams) (string, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, ownerID, params)
	}
	return "generated-id", nil
}

func (m *MockStore) Delete(ctx context.Context, ownerID string, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, id)
	}
	return nil
}

// feed is a controllable snapshot source for one Watch call.
type feed struct {
	ctx   context.Context
	snaps chan []transaction.Transaction
	errs  chan error
}

func newFeedStore() (*MockStore, chan *feed) {
	feeds := make(chan *feed, 10)
	store := &MockStore{
		WatchFunc: func(ctx context.Context, ownerID string) (<-chan []transaction.Transaction, <-chan error) {
			f := &feed{
				ctx:   ctx,
				snaps: make(chan []transaction.Transaction, 1),
				errs:  make(chan error, 1),
			}
			feeds <- f
			return f.snaps, f.errs
		},
	}
	return store, feeds
}

func startSession(t *testing.T, store Store) (*Session, chan int) {
	t.Helper()
	updates := make(chan int, 10)
	sess := New(store, logger.NewWithWriter(io.Discard), func(n int) { updates <- n })
	return sess, updates
}

func waitUpdate(t *testing.T, updates chan int) int {
	t.Helper()
	select {
	case n := <-updates:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot to apply")
		return 0
	}
}

func sampleSnapshot(now time.Time) []transaction.Transaction {
	return []transaction.Transaction{
		{ID: "t1", Date: now.AddDate(0, 0, -1), Description: "Salário", Value: 3000, Type: transaction.TypeIncome, CreatedAt: now.Add(-time.Hour)},
		{ID: "t2", Date: now, Description: "Mercado", Value: 250, Type: transaction.TypeExpense, Category: "Alimentação", CreatedAt: now.Add(-5 * time.Minute)},
	}
}

func TestSignInAppliesSnapshots(t *testing.T) {
	store, feeds := newFeedStore()
	sess, updates := startSession(t, store)
	defer sess.SignOut()

	sess.SignIn(context.Background(), Identity{UID: "u1", DisplayName: "Ana"})
	f := <-feeds

	now := time.Now()
	f.snaps <- sampleSnapshot(now)
	if n := waitUpdate(t, updates); n != 2 {
		t.Fatalf("applied %d transactions, want 2", n)
	}

	view := sess.View(transaction.FilterState{})
	if len(view) != 2 {
		t.Fatalf("View() returned %d transactions, want 2", len(view))
	}
	if view[0].ID != "t2" {
		t.Errorf("view not sorted descending: first = %s", view[0].ID)
	}

	// A later push replaces the cell wholesale.
	f.snaps <- sampleSnapshot(now)[:1]
	waitUpdate(t, updates)
	if got := len(sess.View(transaction.FilterState{})); got != 1 {
		t.Errorf("snapshot not replaced: %d transactions", got)
	}
}

func TestIdentitySwitchCancelsPreviousSubscription(t *testing.T) {
	store, feeds := newFeedStore()
	sess, updates := startSession(t, store)
	defer sess.SignOut()

	sess.SignIn(context.Background(), Identity{UID: "u1"})
	first := <-feeds

	sess.SignIn(context.Background(), Identity{UID: "u2"})
	second := <-feeds

	select {
	case <-first.ctx.Done():
	default:
		t.Fatal("previous subscription context not cancelled")
	}

	second.snaps <- sampleSnapshot(time.Now())
	waitUpdate(t, updates)

	id, ok := sess.Identity()
	if !ok || id.UID != "u2" {
		t.Fatalf("identity = %+v, want u2", id)
	}
	if len(sess.View(transaction.FilterState{})) != 2 {
		t.Error("new identity's snapshot missing")
	}
}

func TestSignOutClearsStore(t *testing.T) {
	store, feeds := newFeedStore()
	sess, updates := startSession(t, store)

	sess.SignIn(context.Background(), Identity{UID: "u1"})
	f := <-feeds
	f.snaps <- sampleSnapshot(time.Now())
	waitUpdate(t, updates)

	sess.SignOut()

	if _, ok := sess.Identity(); ok {
		t.Error("identity still present after sign-out")
	}
	if len(sess.View(transaction.FilterState{})) != 0 {
		t.Error("snapshot still present after sign-out")
	}
	select {
	case <-f.ctx.Done():
	default:
		t.Error("subscription not cancelled on sign-out")
	}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	valid := transaction.AddParams{
		Date:        now,
		Description: "Mercado",
		Value:       100,
		Type:        transaction.TypeExpense,
		Category:    "Alimentação",
	}

	tests := []struct {
		name     string
		signedIn bool
		params   transaction.AddParams
		insert   func(ctx context.Context, ownerID string, params transaction.AddParams) (string, error)
		wantID   string
		wantErr  bool
	}{
		{
			name:     "success",
			signedIn: true,
			params:   valid,
			insert: func(ctx context.Context, ownerID string, params transaction.AddParams) (string, error) {
				if ownerID != "u1" {
					return "", fmt.Errorf("wrong owner %s", ownerID)
				}
				return "new-id", nil
			},
			wantID: "new-id",
		},
		{
			name:     "not signed in",
			signedIn: false,
			params:   valid,
			wantErr:  true,
		},
		{
			name:     "validation failure skips the store",
			signedIn: true,
			params:   transaction.AddParams{Description: ""},
			insert: func(ctx context.Context, ownerID string, params transaction.AddParams) (string, error) {
				t.Error("Insert called for invalid params")
				return "", nil
			},
			wantErr: true,
		},
		{
			name:     "store failure is wrapped",
			signedIn: true,
			params:   valid,
			insert: func(ctx context.Context, ownerID string, params transaction.AddParams) (string, error) {
				return "", errors.New("unavailable")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{InsertFunc: tt.insert}
			sess, _ := startSession(t, store)
			if tt.signedIn {
				sess.SignIn(ctx, Identity{UID: "u1"})
				defer sess.SignOut()
			}

			id, err := sess.Add(ctx, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.wantID {
				t.Errorf("Add() id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

// Write operations without a signed-in identity fail with the sentinel so
// callers can branch on it like the other domain errors.
func TestWriteOpsRequireIdentity(t *testing.T) {
	ctx := context.Background()
	sess, _ := startSession(t, &MockStore{})

	_, err := sess.Add(ctx, transaction.AddParams{
		Date:        time.Now(),
		Description: "Mercado",
		Value:       100,
		Type:        transaction.TypeExpense,
		Category:    "Alimentação",
	})
	if !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Add() error = %v, want ErrNoIdentity", err)
	}

	if err := sess.Delete(ctx, "t1", time.Now()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Delete() error = %v, want ErrNoIdentity", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name      string
		id        string
		deleteFn  func(ctx context.Context, ownerID string, id string) error
		wantErr   error
		wantNoErr bool
	}{
		{
			name:      "success inside the window",
			id:        "t2", // created 5 minutes ago
			wantNoErr: true,
		},
		{
			name:    "expired window",
			id:      "t1", // created an hour ago
			wantErr: transaction.ErrDeleteWindowExpired,
		},
		{
			name:    "not found",
			id:      "missing",
			wantErr: transaction.ErrNotFound,
		},
		{
			name: "store failure is wrapped",
			id:   "t2",
			deleteFn: func(ctx context.Context, ownerID string, id string) error {
				return errors.New("unavailable")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, feeds := newFeedStore()
			store.DeleteFunc = tt.deleteFn
			sess, updates := startSession(t, store)
			defer sess.SignOut()

			sess.SignIn(ctx, Identity{UID: "u1"})
			f := <-feeds
			f.snaps <- sampleSnapshot(now)
			waitUpdate(t, updates)

			err := sess.Delete(ctx, tt.id, now)
			if tt.wantNoErr {
				if err != nil {
					t.Fatalf("Delete() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Delete() expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// A delete that is allowed at render time must still be rejected once the
// window passes.
func TestDeleteRevalidatesAtRequestTime(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	store, feeds := newFeedStore()
	sess, updates := startSession(t, store)
	defer sess.SignOut()

	sess.SignIn(ctx, Identity{UID: "u1"})
	f := <-feeds
	f.snaps <- sampleSnapshot(now)
	waitUpdate(t, updates)

	view := sess.View(transaction.FilterState{})
	var target transaction.Transaction
	for _, tx := range view {
		if tx.ID == "t2" {
			target = tx
		}
	}
	if !transaction.CanDelete(target, now) {
		t.Fatal("t2 should be deletable at render time")
	}

	later := now.Add(transaction.DeleteWindow)
	err := sess.Delete(ctx, "t2", later.Add(time.Second))
	if !errors.Is(err, transaction.ErrDeleteWindowExpired) {
		t.Fatalf("Delete() after the window = %v, want ErrDeleteWindowExpired", err)
	}
}

func TestDerivedViews(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	snap := []transaction.Transaction{
		{ID: "a", Date: now, Value: 1000, Type: transaction.TypeIncome},
		{ID: "b", Date: now.AddDate(0, 0, -1), Value: 300, Type: transaction.TypeExpense, Category: "Alimentação"},
		{ID: "c", Date: now.AddDate(0, 0, -2), Value: 200, Type: transaction.TypeExpense, Category: "Alimentação"},
		{ID: "d", Date: now.AddDate(-1, 0, 0), Value: 50, Type: transaction.TypeExpense, Category: "Lazer"},
		{ID: "e", Date: now.AddDate(0, 0, -3), Value: 10, Type: transaction.TypeIncome},
		{ID: "f", Date: now.AddDate(0, 0, -4), Value: 10, Type: transaction.TypeIncome},
	}

	store, feeds := newFeedStore()
	sess, updates := startSession(t, store)
	defer sess.SignOut()
	sess.SignIn(ctx, Identity{UID: "u1"})
	f := <-feeds
	f.snaps <- snap
	waitUpdate(t, updates)

	s := sess.Summary(transaction.FilterState{})
	if s.TotalIncome != 1020 || s.TotalExpense != 550 || s.NetBalance != 470 {
		t.Errorf("Summary = %+v", s)
	}

	if got := sess.Insight(transaction.FilterState{}); got != report.InsightMildPositive {
		t.Errorf("Insight = %v, want mild positive", got)
	}

	recent := sess.Recent(transaction.FilterState{})
	if len(recent) != RecentLimit {
		t.Errorf("Recent returned %d entries, want %d", len(recent), RecentLimit)
	}
	if recent[0].ID != "a" {
		t.Errorf("Recent[0] = %s, want the newest entry", recent[0].ID)
	}

	years := sess.Years()
	if len(years) != 2 || years[0] != 2024 || years[1] != 2023 {
		t.Errorf("Years = %v", years)
	}

	// Filtered export carries only matching rows.
	doc, err := sess.Export(transaction.FilterState{Year: 2023})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(doc.Rows) != 1 {
		t.Errorf("Export rows = %d, want 1", len(doc.Rows))
	}

	// Nothing matches: fail fast, no document.
	if _, err := sess.Export(transaction.FilterState{Year: 1999}); !errors.Is(err, report.ErrNoTransactions) {
		t.Errorf("Export() on empty view = %v, want ErrNoTransactions", err)
	}
}
