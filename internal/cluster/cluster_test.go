package cluster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/cybernetics/kovert/internal/mq"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// fakeAnnouncer запоминает опубликованные события.
type fakeAnnouncer struct {
	mu     sync.Mutex
	events []domain.MemberEvent
	err    error
}

func (a *fakeAnnouncer) PublishMemberEvent(_ context.Context, ev domain.MemberEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return a.err
}

func (a *fakeAnnouncer) types() []domain.MemberEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.MemberEventType, len(a.events))
	for i, ev := range a.events {
		out[i] = ev.Type
	}
	return out
}

func newTestManager(store Store, group, pass string, ann Announcer) *Manager {
	return NewManager(Config{
		GroupName:       group,
		GroupPassphrase: pass,
		Store:           store,
		Announcer:       ann,
		PassphraseCost:  bcrypt.MinCost,
		Host:            "test-host",
	})
}

// --- Join / Leave Tests ---

func TestManager_Join_MissingCredentials(t *testing.T) {
	tests := []struct{ group, pass string }{
		{"", "secret"},
		{"edge", ""},
		{"  ", "  "},
	}

	for _, tt := range tests {
		m := newTestManager(NewMemoryStore(), tt.group, tt.pass, nil)
		if err := m.Join(context.Background(), uuid.New()); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("group=%q pass=%q: expected ErrMissingCredentials, got %v", tt.group, tt.pass, err)
		}
	}
}

func TestManager_JoinAndLeave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ann := &fakeAnnouncer{}
	m := newTestManager(store, "edge", "secret", ann)
	nodeID := uuid.New()

	if err := m.Join(ctx, nodeID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Leave(ctx)

	if got, ok := m.NodeID(); !ok || got != nodeID {
		t.Errorf("expected node %s joined, got %s (%v)", nodeID, got, ok)
	}

	members, err := m.Members(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].NodeID != nodeID || members[0].Host != "test-host" {
		t.Fatalf("unexpected members: %+v", members)
	}

	if err := m.Join(ctx, uuid.New()); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}

	if err := m.Leave(ctx); err != nil {
		t.Fatalf("unexpected leave error: %v", err)
	}
	if err := m.Leave(ctx); err != nil {
		t.Errorf("second Leave should be a no-op, got %v", err)
	}

	members, _ = m.Members(ctx)
	if len(members) != 0 {
		t.Errorf("expected no members after leave, got %+v", members)
	}

	types := ann.types()
	if len(types) != 2 || types[0] != domain.MemberJoined || types[1] != domain.MemberLeft {
		t.Errorf("expected [joined left], got %v", types)
	}
}

// gatedStore задерживает EnsureGroup до release.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) EnsureGroup(ctx context.Context, name string, hash []byte) (domain.Group, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStore.EnsureGroup(ctx, name, hash)
}

func TestManager_Join_ConcurrentCallsRegisterOnce(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{
		MemoryStore: NewMemoryStore(),
		entered:     make(chan struct{}, 2),
		release:     make(chan struct{}),
	}
	m := newTestManager(store, "edge", "secret", nil)
	defer m.Leave(ctx)

	first := make(chan error, 1)
	go func() { first <- m.Join(ctx, uuid.New()) }()

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first Join did not reach the store")
	}

	if err := m.Join(ctx, uuid.New()); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined while joining, got %v", err)
	}

	close(store.release)
	if err := <-first; err != nil {
		t.Fatalf("first Join: %v", err)
	}

	members, _ := m.Members(ctx)
	if len(members) != 1 {
		t.Errorf("expected one member, got %+v", members)
	}
}

func TestManager_Join_RetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	owner := newTestManager(store, "edge", "right", nil)
	if err := owner.Join(ctx, uuid.New()); err != nil {
		t.Fatal(err)
	}
	defer owner.Leave(ctx)

	m := newTestManager(store, "edge", "wrong", nil)
	for i := 0; i < 2; i++ {
		if err := m.Join(ctx, uuid.New()); !errors.Is(err, ErrInvalidPassphrase) {
			t.Errorf("attempt %d: expected ErrInvalidPassphrase, got %v", i+1, err)
		}
	}
}

func TestManager_Join_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := newTestManager(store, "edge", "secret", nil)
	if err := first.Join(ctx, uuid.New()); err != nil {
		t.Fatal(err)
	}
	defer first.Leave(ctx)

	intruder := newTestManager(store, "edge", "guess", nil)
	if err := intruder.Join(ctx, uuid.New()); !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("expected ErrInvalidPassphrase, got %v", err)
	}

	second := newTestManager(store, "edge", "secret", nil)
	if err := second.Join(ctx, uuid.New()); err != nil {
		t.Fatalf("second member with correct passphrase should join: %v", err)
	}
	defer second.Leave(ctx)

	members, _ := first.Members(ctx)
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}
}

func TestManager_AnnounceFailureDoesNotFailJoin(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryStore(), "edge", "secret", &fakeAnnouncer{err: errors.New("broker down")})

	if err := m.Join(ctx, uuid.New()); err != nil {
		t.Fatalf("announce errors should be logged only, got %v", err)
	}
	m.Leave(ctx)
}

// --- Heartbeat Tests ---

func TestManager_Beat_ReRegistersMissingMember(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ann := &fakeAnnouncer{}
	m := newTestManager(store, "edge", "secret", ann)
	nodeID := uuid.New()

	if err := m.Join(ctx, nodeID); err != nil {
		t.Fatal(err)
	}
	defer m.Leave(ctx)

	if err := store.DeleteMember(ctx, "edge", nodeID); err != nil {
		t.Fatal(err)
	}
	if err := m.beat(ctx); err != nil {
		t.Fatalf("unexpected heartbeat error: %v", err)
	}

	members, _ := store.ListMembers(ctx, "edge")
	if len(members) != 1 || members[0].NodeID != nodeID {
		t.Errorf("member should be re-registered, got %+v", members)
	}

	types := ann.types()
	if types[len(types)-1] != domain.MemberHeartbeat {
		t.Errorf("expected heartbeat event last, got %v", types)
	}
}

func TestManager_Beat_NotJoined(t *testing.T) {
	m := newTestManager(NewMemoryStore(), "edge", "secret", nil)
	if err := m.beat(context.Background()); !errors.Is(err, ErrNotJoined) {
		t.Errorf("expected ErrNotJoined, got %v", err)
	}
}

// --- Events Tests ---

func TestEventListener_Handle(t *testing.T) {
	self := uuid.New()
	peer := uuid.New()
	m := newTestManager(NewMemoryStore(), "edge", "secret", nil)
	l := NewEventListener(nil, "edge", self, m.logger, m.observe)

	deliver := func(ev domain.MemberEvent) {
		t.Helper()
		d := &mq.Delivery{Message: *mq.NewMemberEventMessage(ev)}
		if err := l.handle(context.Background(), d); err != nil {
			t.Fatalf("handle returned error: %v", err)
		}
	}

	deliver(domain.MemberEvent{Type: domain.MemberJoined, Group: "edge", NodeID: self})
	if len(m.Peers()) != 0 {
		t.Error("own events should be ignored")
	}

	deliver(domain.MemberEvent{Type: domain.MemberJoined, Group: "edge", NodeID: peer, Host: "b"})
	if ev, ok := m.Peers()[peer]; !ok || ev.Host != "b" {
		t.Errorf("peer should be tracked, got %+v", m.Peers())
	}

	deliver(domain.MemberEvent{Type: domain.MemberLeft, Group: "edge", NodeID: peer})
	if len(m.Peers()) != 0 {
		t.Errorf("peer should be removed after leave, got %+v", m.Peers())
	}

	// Некорректный payload отбрасывается без ошибки.
	bad := &mq.Delivery{Message: mq.Message{ID: "x", Payload: "not an event"}}
	if err := l.handle(context.Background(), bad); err != nil {
		t.Errorf("malformed events should be dropped, got %v", err)
	}
}

// --- Passphrase Tests ---

func TestPassphrase(t *testing.T) {
	hash, err := HashPassphrase("secret", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyPassphrase(hash, "secret"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := VerifyPassphrase(hash, "other"); !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("expected ErrInvalidPassphrase, got %v", err)
	}
	if err := VerifyPassphrase([]byte("garbage"), "secret"); err == nil || errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("expected non-mismatch error for invalid hash, got %v", err)
	}
}

// --- MemoryStore Tests ---

func TestMemoryStore_EnsureGroupKeepsFirstHash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	g1, _ := s.EnsureGroup(ctx, "edge", []byte("h1"))
	g2, _ := s.EnsureGroup(ctx, "edge", []byte("h2"))
	if string(g1.PassphraseHash) != "h1" || string(g2.PassphraseHash) != "h1" {
		t.Errorf("first hash should win, got %q and %q", g1.PassphraseHash, g2.PassphraseHash)
	}
}

func TestMemoryStore_TouchUnknown(t *testing.T) {
	found, err := NewMemoryStore().TouchMember(context.Background(), "edge", uuid.New(), time.Now())
	if err != nil || found {
		t.Errorf("expected (false, nil), got (%v, %v)", found, err)
	}
}
