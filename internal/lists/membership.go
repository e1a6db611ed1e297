// Package lists caches which user lists every servie belongs to.
//
// The cache is process-wide and persisted under StorageKey. It is loaded
// lazily on first use and then mutated optimistically on add and remove.
package lists

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/optimistic"
	"github.com/sourcegraph/conc/pool"
)

// StorageKey is the persisted key of the membership cache.
const StorageKey = "lists"

// ErrNoChange is returned when an item is already in the requested state.
var ErrNoChange = errors.New("list membership unchanged")

// maxFetchers bounds concurrent list member requests
const maxFetchers = 4

// document is the persisted layout
type document struct {
	Map         map[string][]int  `json:"map"`
	ListDetails []domain.ListMeta `json:"listDetails"`
}

// entry is the optimistic unit: one item's membership in one list, plus
// the change it makes to that list's item count. The count is shared by
// every item in the list, so it moves by delta rather than being restored.
type entry struct {
	member bool
	delta  int
}

// Membership is the list membership cache
type Membership struct {
	repo   domain.ListRepository
	kv     domain.KVStore
	logger *slog.Logger
	engine *optimistic.Engine[entry]

	mu      sync.RWMutex
	loaded  bool
	members map[string]map[int]struct{}
	lists   []domain.ListMeta
}

// New creates an unloaded cache.
func New(repo domain.ListRepository, kv domain.KVStore, notifier notify.Notifier, logger *slog.Logger) *Membership {
	if logger == nil {
		logger = slog.Default()
	}
	return &Membership{
		repo:    repo,
		kv:      kv,
		logger:  logger,
		engine:  optimistic.New[entry](notifier, logger),
		members: make(map[string]map[int]struct{}),
	}
}

// Loaded reports whether the cache holds data
func (m *Membership) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Load fills the cache on first use, from the persisted copy when there is
// one and from the server otherwise.
func (m *Membership) Load(ctx context.Context) error {
	if m.Loaded() {
		return nil
	}

	var doc document
	if m.kv.Get(StorageKey, &doc) {
		m.mu.Lock()
		m.install(doc)
		m.mu.Unlock()
		m.logger.Debug("list membership loaded from cache", "lists", len(doc.ListDetails))
		return nil
	}
	return m.Refresh(ctx)
}

// Refresh refetches the list catalog and every list's members.
func (m *Membership) Refresh(ctx context.Context) error {
	lists, err := m.repo.GetLists(ctx)
	if err != nil {
		m.logger.Error("failed to fetch lists", "error", err)
		return fmt.Errorf("fetch lists: %w", err)
	}

	type result struct {
		listID int
		keys   []domain.MediaKey
	}
	p := pool.NewWithResults[result]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(maxFetchers)
	for _, l := range lists {
		id := l.ID
		p.Go(func(ctx context.Context) (result, error) {
			keys, err := m.repo.GetListMembers(ctx, id)
			if err != nil {
				return result{}, fmt.Errorf("list %d: %w", id, err)
			}
			return result{listID: id, keys: keys}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		m.logger.Error("failed to fetch list members", "error", err)
		return fmt.Errorf("fetch list members: %w", err)
	}

	doc := document{Map: make(map[string][]int), ListDetails: lists}
	for _, r := range results {
		for _, key := range r.keys {
			doc.Map[key.String()] = append(doc.Map[key.String()], r.listID)
		}
	}

	m.mu.Lock()
	m.install(doc)
	m.mu.Unlock()
	m.persist()

	m.logger.Info("list membership fetched", "lists", len(lists), "items", len(doc.Map))
	return nil
}

// Invalidate drops the cache in memory and on disk; the next Load refetches.
func (m *Membership) Invalidate() error {
	m.mu.Lock()
	m.loaded = false
	m.members = make(map[string]map[int]struct{})
	m.lists = nil
	m.mu.Unlock()
	return m.kv.Delete(StorageKey)
}

// Lists returns the list catalog ordered by name
func (m *Membership) Lists() []domain.ListMeta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]domain.ListMeta(nil), m.lists...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// List returns the metadata of one list
func (m *Membership) List(id int) (domain.ListMeta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.lists[i], true
	}
	return domain.ListMeta{}, false
}

// ListsFor returns the ids of the lists key belongs to, ascending
func (m *Membership) ListsFor(key domain.MediaKey) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int, 0, len(m.members[key.String()]))
	for id := range m.members[key.String()] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Contains reports whether key is in list listID
func (m *Membership) Contains(listID int, key domain.MediaKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[key.String()][listID]
	return ok
}

// BeginAdd adds key to listID locally and returns the pending action.
func (m *Membership) BeginAdd(listID int, key domain.MediaKey) (*optimistic.Action, error) {
	return m.begin(listID, key, true)
}

// BeginRemove removes key from listID locally and returns the pending action.
func (m *Membership) BeginRemove(listID int, key domain.MediaKey) (*optimistic.Action, error) {
	return m.begin(listID, key, false)
}

// Add adds key to listID and waits for the server.
func (m *Membership) Add(ctx context.Context, listID int, key domain.MediaKey) (optimistic.Outcome, error) {
	a, err := m.BeginAdd(listID, key)
	if err != nil {
		return optimistic.OutcomeDropped, err
	}
	return a.Run(ctx)
}

// Remove removes key from listID and waits for the server.
func (m *Membership) Remove(ctx context.Context, listID int, key domain.MediaKey) (optimistic.Outcome, error) {
	a, err := m.BeginRemove(listID, key)
	if err != nil {
		return optimistic.OutcomeDropped, err
	}
	return a.Run(ctx)
}

func (m *Membership) begin(listID int, key domain.MediaKey, add bool) (*optimistic.Action, error) {
	m.mu.RLock()
	if !m.loaded {
		m.mu.RUnlock()
		return nil, domain.ErrNotLoaded
	}
	i := m.indexOf(listID)
	if i < 0 {
		m.mu.RUnlock()
		return nil, fmt.Errorf("list %d: %w", listID, domain.ErrItemNotFound)
	}
	meta := m.lists[i]
	_, member := m.members[key.String()][listID]
	m.mu.RUnlock()

	if member == add {
		return nil, ErrNoChange
	}

	delta := 1
	mutate := func(ctx context.Context) error { return m.repo.AddToList(ctx, listID, key) }
	if !add {
		delta = -1
		mutate = func(ctx context.Context) error { return m.repo.RemoveFromList(ctx, listID, key) }
	}

	return m.engine.Start(optimistic.Op[entry]{
		Key:    fmt.Sprintf("%d:%s", listID, key),
		Prev:   entry{member: member, delta: -delta},
		Next:   entry{member: add, delta: delta},
		Apply:  func(e entry) { m.apply(listID, key, e) },
		Mutate: mutate,
		Describe: func(next entry, ok bool) string {
			switch {
			case !ok:
				return fmt.Sprintf("Failed to update list %s !!", meta.Name)
			case next.member:
				return fmt.Sprintf("Added to %s", meta.Name)
			default:
				return fmt.Sprintf("Removed from %s", meta.Name)
			}
		},
	})
}

// apply writes one membership flag, moves the list count by e.delta and
// persists the cache.
func (m *Membership) apply(listID int, key domain.MediaKey, e entry) {
	m.mu.Lock()
	set := m.members[key.String()]
	if e.member {
		if set == nil {
			set = make(map[int]struct{})
			m.members[key.String()] = set
		}
		set[listID] = struct{}{}
	} else if set != nil {
		delete(set, listID)
		if len(set) == 0 {
			delete(m.members, key.String())
		}
	}
	if i := m.indexOf(listID); i >= 0 {
		m.lists[i].ItemCount += e.delta
	}
	m.mu.Unlock()
	m.persist()
}

// install replaces the in-memory cache with doc. Called with mu held.
func (m *Membership) install(doc document) {
	m.members = make(map[string]map[int]struct{}, len(doc.Map))
	for key, ids := range doc.Map {
		set := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		m.members[key] = set
	}
	m.lists = append([]domain.ListMeta(nil), doc.ListDetails...)
	m.loaded = true
}

func (m *Membership) persist() {
	m.mu.RLock()
	doc := document{Map: make(map[string][]int, len(m.members)), ListDetails: m.lists}
	for key, set := range m.members {
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		doc.Map[key] = ids
	}
	err := m.kv.Put(StorageKey, doc)
	m.mu.RUnlock()
	if err != nil {
		m.logger.Error("failed to persist list membership", "error", err)
	}
}

// indexOf returns the position of list id or -1. Called with mu held.
func (m *Membership) indexOf(id int) int {
	for i, l := range m.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}
