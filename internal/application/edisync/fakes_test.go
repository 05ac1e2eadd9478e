package edisync

import (
	"context"
	"errors"
	"maps"
	"path"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/shared"
	"github.com/erp/edisync/internal/domain/trade"
)

// memState is the data behind the in-memory repositories
type memState struct {
	actions    map[uuid.UUID]edi.SyncAction
	logs       []edi.LogEntry
	orders     map[uuid.UUID]trade.SalesOrder
	pickings   map[uuid.UUID]trade.Picking
	categories []catalog.Category
}

func newMemState() *memState {
	return &memState{
		actions:  map[uuid.UUID]edi.SyncAction{},
		orders:   map[uuid.UUID]trade.SalesOrder{},
		pickings: map[uuid.UUID]trade.Picking{},
	}
}

func clonePicking(p trade.Picking) trade.Picking {
	p.MoveLines = slices.Clone(p.MoveLines)
	return p
}

func (s *memState) clone() *memState {
	c := &memState{
		actions:    maps.Clone(s.actions),
		logs:       slices.Clone(s.logs),
		orders:     maps.Clone(s.orders),
		pickings:   make(map[uuid.UUID]trade.Picking, len(s.pickings)),
		categories: slices.Clone(s.categories),
	}
	for id, p := range s.pickings {
		c.pickings[id] = clonePicking(p)
	}
	return c
}

// memStore is a transactional in-memory store: Execute works on a copy that
// replaces the committed state only when fn succeeds
type memStore struct {
	mu        sync.Mutex
	state     *memState
	commits   int
	rollbacks int
	failLogs  bool
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	m.mu.Lock()
	work := m.state.clone()
	m.mu.Unlock()

	if err := fn(&memRepos{state: work, store: m}); err != nil {
		m.mu.Lock()
		m.rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.state = work
	m.commits++
	m.mu.Unlock()
	return nil
}

// committed returns the repositories over the committed state
func (m *memStore) committed() *memRepos {
	return &memRepos{state: m.state, store: m}
}

func (m *memStore) logs() []edi.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.logs)
}

func (m *memStore) logTitles() []string {
	var titles []string
	for _, l := range m.logs() {
		titles = append(titles, l.Title)
	}
	return titles
}

func (m *memStore) action(id uuid.UUID) edi.SyncAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.actions[id]
}

func (m *memStore) order(name string) trade.SalesOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.state.orders {
		if o.Name == name {
			return o
		}
	}
	return trade.SalesOrder{}
}

func (m *memStore) picking(id uuid.UUID) trade.Picking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.pickings[id]
}

type memRepos struct {
	state *memState
	store *memStore
}

func (r *memRepos) ActionRepo() edi.SyncActionRepository      { return (*memActionRepo)(r) }
func (r *memRepos) LogRepo() edi.LogRepository                { return (*memLogRepo)(r) }
func (r *memRepos) OrderRepo() trade.SalesOrderRepository     { return (*memOrderRepo)(r) }
func (r *memRepos) PickingRepo() trade.PickingRepository      { return (*memPickingRepo)(r) }
func (r *memRepos) CategoryRepo() catalog.CategoryRepository  { return (*memCategoryRepo)(r) }

var _ TransactionalRepositories = (*memRepos)(nil)

type memActionRepo memRepos

func (r *memActionRepo) sorted(keep func(edi.SyncAction) bool) []edi.SyncAction {
	var out []edi.SyncAction
	for _, a := range r.state.actions {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (r *memActionRepo) FindByID(_ context.Context, id uuid.UUID) (*edi.SyncAction, error) {
	a, ok := r.state.actions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *memActionRepo) FindDue(_ context.Context, now time.Time) ([]edi.SyncAction, error) {
	return r.sorted(func(a edi.SyncAction) bool { return a.IsDue(now) }), nil
}

func (r *memActionRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]edi.SyncAction, error) {
	return r.sorted(func(a edi.SyncAction) bool { return slices.Contains(ids, a.ID) }), nil
}

func (r *memActionRepo) FindByConfig(_ context.Context, configID uuid.UUID) ([]edi.SyncAction, error) {
	return r.sorted(func(a edi.SyncAction) bool { return a.ConfigID == configID }), nil
}

func (r *memActionRepo) UpdateLastSyncDate(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := r.state.actions[id]
	if !ok {
		return shared.ErrNotFound
	}
	if err := a.MarkSynced(at); err != nil {
		if errors.Is(err, edi.ErrWatermarkRegression) {
			return nil
		}
		return err
	}
	r.state.actions[id] = a
	return nil
}

func (r *memActionRepo) Save(_ context.Context, action *edi.SyncAction) error {
	r.state.actions[action.ID] = *action
	return nil
}

type memLogRepo memRepos

var errLogWrite = errors.New("log write failed")

func (r *memLogRepo) Append(_ context.Context, entry *edi.LogEntry) error {
	if r.store.failLogs {
		return errLogWrite
	}
	r.state.logs = append(r.state.logs, *entry)
	return nil
}

func (r *memLogRepo) FindByAction(_ context.Context, actionID uuid.UUID, limit int) ([]edi.LogEntry, error) {
	var out []edi.LogEntry
	for _, l := range r.state.logs {
		if l.ActionID != nil && *l.ActionID == actionID {
			out = append(out, l)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memOrderRepo memRepos

func (r *memOrderRepo) FindConfirmedSince(_ context.Context, since time.Time) ([]trade.SalesOrder, error) {
	var out []trade.SalesOrder
	for _, o := range r.state.orders {
		if o.IsConfirmed() && !o.DateOrder.Before(since) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memOrderRepo) FindByName(_ context.Context, name string) (*trade.SalesOrder, error) {
	for _, o := range r.state.orders {
		if o.Name == name {
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) UpdateShipmentStatus(_ context.Context, orderID uuid.UUID, status trade.ShipmentStatus) error {
	o, ok := r.state.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	o.Shipment = status
	r.state.orders[orderID] = o
	return nil
}

func (r *memOrderRepo) Save(_ context.Context, order *trade.SalesOrder) error {
	r.state.orders[order.ID] = *order
	return nil
}

type memPickingRepo memRepos

func (r *memPickingRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]trade.Picking, error) {
	var out []trade.Picking
	for _, p := range r.state.pickings {
		if p.OrderID == orderID {
			out = append(out, clonePicking(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memPickingRepo) Save(_ context.Context, picking *trade.Picking) error {
	r.state.pickings[picking.ID] = clonePicking(*picking)
	return nil
}

type memCategoryRepo memRepos

func (r *memCategoryRepo) FindAll(_ context.Context) ([]catalog.Category, error) {
	return slices.Clone(r.state.categories), nil
}

func (r *memCategoryRepo) Save(_ context.Context, category *catalog.Category) error {
	r.state.categories = append(r.state.categories, *category)
	return nil
}

// fakeRemote is an in-memory file server shared by every session it opens
type fakeRemote struct {
	mu         sync.Mutex
	files      map[string][]byte
	connectErr error
	putErr     error
	connects   int
	puts       int
	closes     int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{files: map[string][]byte{}}
}

func (f *fakeRemote) Connect(_ context.Context, endpoint edi.Endpoint) (edi.TransportSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return &fakeSession{remote: f, cwd: endpoint.ResolveDir("")}, nil
}

func (f *fakeRemote) file(p string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[p]
	return data, ok
}

func (f *fakeRemote) putFile(p string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = data
}

type fakeSession struct {
	remote *fakeRemote
	cwd    string
}

func (s *fakeSession) resolve(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(s.cwd, name)
}

func (s *fakeSession) ChangeDir(dir string) error {
	s.cwd = s.resolve(dir)
	return nil
}

func (s *fakeSession) Put(name string, data []byte) error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	s.remote.puts++
	if s.remote.putErr != nil {
		return s.remote.putErr
	}
	s.remote.files[s.resolve(name)] = slices.Clone(data)
	return nil
}

func (s *fakeSession) Get(name string) ([]byte, error) {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	data, ok := s.remote.files[s.resolve(name)]
	if !ok {
		return nil, errors.Join(edi.ErrTransport, errors.New("no such file: "+name))
	}
	return data, nil
}

func (s *fakeSession) List() ([]string, error) {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	var names []string
	for p := range s.remote.files {
		if path.Dir(p) == s.cwd {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeSession) Rename(from, to string) error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	src, dst := s.resolve(from), s.resolve(to)
	data, ok := s.remote.files[src]
	if !ok {
		return errors.Join(edi.ErrTransport, errors.New("no such file: "+from))
	}
	delete(s.remote.files, src)
	s.remote.files[dst] = data
	return nil
}

func (s *fakeSession) Close() error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	s.remote.closes++
	return nil
}

// fakeArchive records archived keys
type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *fakeArchive) Store(_ context.Context, key string, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return a.err
}

// recordingMetrics counts what the handlers and the dispatcher report
type recordingMetrics struct {
	mu        sync.Mutex
	actions   map[ActionStatus]int
	rows      int
	groups    int
	validated int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{actions: map[ActionStatus]int{}}
}

func (m *recordingMetrics) RecordAction(_ context.Context, _ edi.DocumentCode, status ActionStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[status]++
}

func (m *recordingMetrics) RecordExportedRows(_ context.Context, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows += rows
}

func (m *recordingMetrics) RecordImportedGroups(_ context.Context, groups int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups += groups
}

func (m *recordingMetrics) RecordValidatedPickings(_ context.Context, pickings int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validated += pickings
}

// liveActions reads whatever state is committed at call time
type liveActions struct {
	store *memStore
}

func (m *memStore) actionRepo() edi.SyncActionRepository {
	return liveActions{store: m}
}

func (l liveActions) repo() edi.SyncActionRepository {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return l.store.committed().ActionRepo()
}

func (l liveActions) FindByID(ctx context.Context, id uuid.UUID) (*edi.SyncAction, error) {
	return l.repo().FindByID(ctx, id)
}

func (l liveActions) FindDue(ctx context.Context, now time.Time) ([]edi.SyncAction, error) {
	return l.repo().FindDue(ctx, now)
}

func (l liveActions) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]edi.SyncAction, error) {
	return l.repo().FindByIDs(ctx, ids)
}

func (l liveActions) FindByConfig(ctx context.Context, configID uuid.UUID) ([]edi.SyncAction, error) {
	return l.repo().FindByConfig(ctx, configID)
}

func (l liveActions) UpdateLastSyncDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	return l.repo().UpdateLastSyncDate(ctx, id, at)
}

func (l liveActions) Save(ctx context.Context, action *edi.SyncAction) error {
	return l.repo().Save(ctx, action)
}
