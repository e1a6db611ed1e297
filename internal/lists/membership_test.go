package lists

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
	"github.com/mmcdole/servies/internal/store"
)

var (
	heat    = domain.MediaKey{ChildType: domain.ChildTypeMovie, ExternalID: 42}
	theWire = domain.MediaKey{ChildType: domain.ChildTypeSeries, ExternalID: 1438}
)

type fakeLists struct {
	mu          sync.Mutex
	lists       []domain.ListMeta
	members     map[int][]domain.MediaKey
	memberCalls int
	membersErr  error
	mutateErr   error
	added       []int
	removed     []int
}

func newFakeLists() *fakeLists {
	return &fakeLists{
		lists: []domain.ListMeta{
			{ID: 1, Name: "Watchlist", ItemCount: 2},
			{ID: 2, Name: "Favorites", ItemCount: 1},
			{ID: 3, Name: "Abandoned", ItemCount: 0},
		},
		members: map[int][]domain.MediaKey{
			1: {heat, theWire},
			2: {theWire},
		},
	}
}

func (f *fakeLists) GetLists(ctx context.Context) ([]domain.ListMeta, error) {
	return append([]domain.ListMeta(nil), f.lists...), nil
}

func (f *fakeLists) GetListMembers(ctx context.Context, listID int) ([]domain.MediaKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members[listID], nil
}

func (f *fakeLists) AddToList(ctx context.Context, listID int, key domain.MediaKey) error {
	f.added = append(f.added, listID)
	return f.mutateErr
}

func (f *fakeLists) RemoveFromList(ctx context.Context, listID int, key domain.MediaKey) error {
	f.removed = append(f.removed, listID)
	return f.mutateErr
}

type recorder struct{ kinds []notify.Kind }

func (r *recorder) Notify(kind notify.Kind, message string) { r.kinds = append(r.kinds, kind) }

func loaded(t *testing.T, repo *fakeLists, n notify.Notifier) (*Membership, *store.StateStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	m := New(repo, kv, n, nil)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m, kv
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoadFetchesEveryList(t *testing.T) {
	repo := newFakeLists()
	m, kv := loaded(t, repo, nil)

	if repo.memberCalls != 3 {
		t.Fatalf("member calls = %d, want 3", repo.memberCalls)
	}
	if got := m.ListsFor(theWire); !equalInts(got, []int{1, 2}) {
		t.Fatalf("ListsFor(theWire) = %v", got)
	}
	if got := m.ListsFor(heat); !equalInts(got, []int{1}) {
		t.Fatalf("ListsFor(heat) = %v", got)
	}
	if names := m.Lists(); names[0].Name != "Abandoned" || len(names) != 3 {
		t.Fatalf("Lists() = %+v", names)
	}

	var doc document
	if !kv.Get(StorageKey, &doc) {
		t.Fatal("membership not persisted")
	}
	if !equalInts(doc.Map["series-1438"], []int{1, 2}) || len(doc.ListDetails) != 3 {
		t.Fatalf("persisted doc = %+v", doc)
	}
}

func TestLoadPrefersPersistedCopy(t *testing.T) {
	repo := newFakeLists()
	_, kv := loaded(t, repo, nil)

	again := New(repo, kv, nil, nil)
	if err := again.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if repo.memberCalls != 3 {
		t.Fatalf("second load hit the server: %d calls", repo.memberCalls)
	}
	if !again.Contains(2, theWire) {
		t.Fatal("persisted membership lost")
	}
}

func TestLoadFailureLeavesCacheUnloaded(t *testing.T) {
	repo := newFakeLists()
	repo.membersErr = domain.ErrServerOffline
	m := New(repo, store.NewMemoryStore(), nil, nil)

	if err := m.Load(context.Background()); !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Loaded() {
		t.Fatal("cache marked loaded after failure")
	}
	if _, err := m.BeginAdd(1, heat); !errors.Is(err, domain.ErrNotLoaded) {
		t.Fatalf("BeginAdd() error = %v", err)
	}
}

func TestAddMovesCountWithMembership(t *testing.T) {
	repo := newFakeLists()
	rec := &recorder{}
	m, _ := loaded(t, repo, rec)

	a, err := m.BeginAdd(2, heat)
	if err != nil {
		t.Fatalf("BeginAdd() error = %v", err)
	}
	if !m.Contains(2, heat) {
		t.Fatal("optimistic add not applied")
	}
	if meta, _ := m.List(2); meta.ItemCount != 2 {
		t.Fatalf("count = %d, want 2", meta.ItemCount)
	}

	if outcome, err := a.Run(context.Background()); err != nil || outcome != optimistic.OutcomeConfirmed {
		t.Fatalf("Run() = %v, %v", outcome, err)
	}
	if !equalInts(repo.added, []int{2}) || len(rec.kinds) != 1 || rec.kinds[0] != notify.KindSuccess {
		t.Fatalf("added=%v notifications=%v", repo.added, rec.kinds)
	}
}

func TestFailedRemoveRollsBack(t *testing.T) {
	repo := newFakeLists()
	repo.mutateErr = domain.ErrMutationRejected
	rec := &recorder{}
	m, kv := loaded(t, repo, rec)

	if _, err := m.Remove(context.Background(), 1, theWire); !errors.Is(err, domain.ErrMutationRejected) {
		t.Fatalf("Remove() error = %v", err)
	}
	if !m.Contains(1, theWire) {
		t.Fatal("membership not restored")
	}
	if meta, _ := m.List(1); meta.ItemCount != 2 {
		t.Fatalf("count = %d, want 2", meta.ItemCount)
	}
	if len(rec.kinds) != 1 || rec.kinds[0] != notify.KindFailure {
		t.Fatalf("notifications = %v", rec.kinds)
	}

	var doc document
	kv.Get(StorageKey, &doc)
	if !equalInts(doc.Map["series-1438"], []int{1, 2}) {
		t.Fatalf("persisted after rollback = %v", doc.Map["series-1438"])
	}
}

func TestFailedAddKeepsOtherConfirmedCount(t *testing.T) {
	m, _ := loaded(t, newFakeLists(), nil)

	a, err := m.BeginAdd(3, heat)
	if err != nil {
		t.Fatalf("BeginAdd(heat) error = %v", err)
	}
	b, err := m.BeginAdd(3, theWire)
	if err != nil {
		t.Fatalf("BeginAdd(theWire) error = %v", err)
	}
	if meta, _ := m.List(3); meta.ItemCount != 2 {
		t.Fatalf("count = %d, want 2", meta.ItemCount)
	}

	a.Settle(domain.ErrMutationRejected)
	b.Settle(nil)

	if m.Contains(3, heat) || !m.Contains(3, theWire) {
		t.Fatalf("contains heat=%v theWire=%v", m.Contains(3, heat), m.Contains(3, theWire))
	}
	if meta, _ := m.List(3); meta.ItemCount != 1 {
		t.Fatalf("count = %d, want 1", meta.ItemCount)
	}
}

func TestNoChangeAndUnknownList(t *testing.T) {
	m, _ := loaded(t, newFakeLists(), nil)

	if _, err := m.BeginAdd(1, heat); !errors.Is(err, ErrNoChange) {
		t.Fatalf("add existing: %v", err)
	}
	if _, err := m.BeginRemove(3, heat); !errors.Is(err, ErrNoChange) {
		t.Fatalf("remove absent: %v", err)
	}
	if _, err := m.BeginAdd(99, heat); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("unknown list: %v", err)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	repo := newFakeLists()
	m, kv := loaded(t, repo, nil)

	if err := m.Invalidate(); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	var doc document
	if kv.Get(StorageKey, &doc) {
		t.Fatal("persisted copy survived invalidate")
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if repo.memberCalls != 6 {
		t.Fatalf("member calls = %d, want 6", repo.memberCalls)
	}
}
