package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Luismorlan/microblog/model"
)

// memStore is an in-memory implementation of all four persistence ports,
// used to exercise the synchronization algorithm without a database.
// updateMu stands in for the per-user row lock: Update holds it for the
// whole read-modify-write, like the real store's transaction. mu guards the
// maps only and is never held while the Update callback runs, because the
// callback reads back through the other port methods.
type memStore struct {
	updateMu sync.Mutex
	mu       sync.Mutex
	follows  map[string]map[string]model.UserFollow
	posts    map[string]model.Post
	entries  map[string]*Entry
	users    map[string]model.User
	now      func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		follows: map[string]map[string]model.UserFollow{},
		posts:   map[string]model.Post{},
		entries: map[string]*Entry{},
		users:   map[string]model.User{},
		now:     now,
	}
}

func (m *memStore) addUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = model.User{Id: id, Email: id + "@example.com", CreatedAt: m.now()}
}

func (m *memStore) addPost(id, ownerID string, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[id] = model.Post{Id: id, Title: "title " + id, Text: "text " + id, OwnerID: ownerID, CreatedAt: createdAt}
}

// --- FollowStore ---

func (m *memStore) Create(ctx context.Context, followerID, followeeID string) (*model.UserFollow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.follows[followerID] == nil {
		m.follows[followerID] = map[string]model.UserFollow{}
	}
	if _, ok := m.follows[followerID][followeeID]; ok {
		return nil, ErrDuplicateFollow
	}
	edge := model.UserFollow{UserID: followerID, FolloweeID: followeeID, CreatedAt: m.now()}
	m.follows[followerID][followeeID] = edge
	return &edge, nil
}

func (m *memStore) Delete(ctx context.Context, followerID, followeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.follows[followerID][followeeID]; !ok {
		return ErrNotFollowing
	}
	delete(m.follows[followerID], followeeID)
	return nil
}

func (m *memStore) ListFollowees(ctx context.Context, followerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.follows[followerID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) ListFollows(ctx context.Context, followerID string, offset, limit int) ([]model.UserFollow, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var edges []model.UserFollow
	for _, e := range m.follows[followerID] {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.After(edges[j].CreatedAt)
		}
		return edges[i].FolloweeID > edges[j].FolloweeID
	})
	total := len(edges)
	edges = slicePage(edges, offset, limit)
	return edges, total, nil
}

func slicePage(edges []model.UserFollow, offset, limit int) []model.UserFollow {
	if offset >= len(edges) {
		return nil
	}
	end := offset + limit
	if end > len(edges) {
		end = len(edges)
	}
	return edges[offset:end]
}

// --- PostStore ---

func (m *memStore) CreatePost(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.Id] = *post
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, ErrPostNotInFeed
	}
	return &post, nil
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var posts []model.Post
	for _, p := range m.posts {
		if p.OwnerID == ownerID {
			posts = append(posts, p)
		}
	}
	sortCanonical(posts)
	return posts, nil
}

func (m *memStore) ListSince(ctx context.Context, ownerIDs []string, since time.Time) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := map[string]bool{}
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var posts []model.Post
	for _, p := range m.posts {
		if owners[p.OwnerID] && !p.CreatedAt.Before(since) {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (m *memStore) FilterIDsByOwner(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []string
	for _, id := range ids {
		if p, ok := m.posts[id]; ok && p.OwnerID == ownerID {
			owned = append(owned, id)
		}
	}
	return owned, nil
}

func (m *memStore) ListByIDs(ctx context.Context, ids []string, offset, limit int) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var posts []model.Post
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			posts = append(posts, p)
		}
	}
	sortCanonical(posts)
	if offset >= len(posts) {
		return []model.Post{}, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end], nil
}

func sortCanonical(posts []model.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].Id > posts[j].Id
	})
}

// --- FeedStore ---

func (m *memStore) Update(ctx context.Context, userID string, fn func(*Entry) error) error {
	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	m.mu.Lock()
	stored, ok := m.entries[userID]
	if !ok {
		stored = NewEntry(userID, m.now())
	}
	work := cloneEntry(stored)
	m.mu.Unlock()

	if err := fn(work); err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[userID] = work
	m.mu.Unlock()
	return nil
}

func (m *memStore) Load(ctx context.Context, userID string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[userID]
	if !ok {
		return nil, nil
	}
	return cloneEntry(stored), nil
}

func cloneEntry(e *Entry) *Entry {
	return RestoreEntry(e.UserID, e.LastSyncedAt, e.FeedIDs(), e.ReadIDs())
}

// --- UserStore ---

func (m *memStore) GetOrCreate(ctx context.Context, id, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	u := model.User{Id: id, Email: email, CreatedAt: m.now()}
	m.users[id] = u
	return &u, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memStore) ListWithPostCounts(ctx context.Context, order PostCountOrder) ([]UserPostCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, p := range m.posts {
		counts[p.OwnerID]++
	}
	var rows []UserPostCount
	for id, u := range m.users {
		rows = append(rows, UserPostCount{Id: id, Email: u.Email, PostsCount: counts[id]})
	}
	sort.Slice(rows, func(i, j int) bool {
		switch order {
		case PostCountOrderAsc:
			if rows[i].PostsCount != rows[j].PostsCount {
				return rows[i].PostsCount < rows[j].PostsCount
			}
		case PostCountOrderDesc:
			if rows[i].PostsCount != rows[j].PostsCount {
				return rows[i].PostsCount > rows[j].PostsCount
			}
		}
		return rows[i].Id < rows[j].Id
	})
	return rows, nil
}

// memPostStore adapts memStore to the PostStore interface: the fake's
// CreatePost keeps the name Create free for the FollowStore method set.
type memPostStore struct {
	*memStore
}

func (m memPostStore) Create(ctx context.Context, post *model.Post) error {
	return m.CreatePost(ctx, post)
}

// fixture bundles a fake-backed feed stack with a manual clock.
type fixture struct {
	store   *memStore
	posts   memPostStore
	ledger  *Ledger
	query   *Query
	subs    *Subscriptions
	current time.Time
}

func newFixture() *fixture {
	f := &fixture{current: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)}
	f.store = newMemStore(func() time.Time { return f.current })
	f.posts = memPostStore{f.store}
	f.ledger = NewLedger(f.store, f.posts, f.store)
	f.ledger.now = f.store.now
	f.query = NewQuery(f.ledger, f.posts, f.store, f.store)
	f.subs = NewSubscriptions(f.store, f.store, f.ledger)
	return f
}

func (f *fixture) advance(d time.Duration) time.Time {
	f.current = f.current.Add(d)
	return f.current
}
