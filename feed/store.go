package feed

import (
	"context"
	"time"

	"github.com/Luismorlan/microblog/model"
)

// Persistence ports consumed by the feed subsystem. The gorm-backed
// implementations live in the store package; tests substitute in-memory
// fakes so the synchronization algorithm can be exercised without a
// database.

// FollowStore owns the directed, deduplicated follow relation.
type FollowStore interface {
	// Create persists a new follow edge. The implementation must enforce
	// uniqueness at the storage layer and return ErrDuplicateFollow when the
	// edge already exists, including when two identical requests race.
	Create(ctx context.Context, followerID, followeeID string) (*model.UserFollow, error)

	// Delete removes exactly one edge, or returns ErrNotFollowing when there
	// is none.
	Delete(ctx context.Context, followerID, followeeID string) error

	// ListFollowees returns the ids of all accounts the follower follows.
	ListFollowees(ctx context.Context, followerID string) ([]string, error)

	// ListFollows returns one page of the follower's outgoing edges, newest
	// first, together with the total edge count.
	ListFollows(ctx context.Context, followerID string, offset, limit int) ([]model.UserFollow, int, error)
}

// PostStore owns post records. Posts are append-only: no update or delete.
type PostStore interface {
	// Create persists a post, filling in id and creation time when unset.
	Create(ctx context.Context, post *model.Post) error

	// GetByID returns a single post with its owner resolved.
	GetByID(ctx context.Context, id string) (*model.Post, error)

	// ListByOwner returns the owner's posts in canonical order. An owner
	// with zero posts yields an empty slice, not an error.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error)

	// ListSince returns posts authored by any of ownerIDs with
	// created_at >= since. The boundary is inclusive: a post created at
	// exactly the watermark must be returned, the caller tolerates re-adds.
	ListSince(ctx context.Context, ownerIDs []string, since time.Time) ([]model.Post, error)

	// FilterIDsByOwner narrows ids down to the ones authored by ownerID.
	FilterIDsByOwner(ctx context.Context, ownerID string, ids []string) ([]string, error)

	// ListByIDs resolves ids to posts in canonical order, sliced by
	// offset/limit.
	ListByIDs(ctx context.Context, ids []string, offset, limit int) ([]model.Post, error)
}

// FeedStore owns ledger entry persistence.
type FeedStore interface {
	// Update runs fn against the user's ledger entry as one atomic
	// read-modify-write: the entry is loaded (or created empty, with the
	// watermark set to now) under a per-user lock, fn mutates it, and the
	// resulting state is persisted before the lock is released. An error
	// from fn aborts the write and is returned as-is.
	Update(ctx context.Context, userID string, fn func(*Entry) error) error

	// Load returns a read-only snapshot of the entry, or nil when the user
	// has never synchronized.
	Load(ctx context.Context, userID string) (*Entry, error)
}

// PostCountOrder controls the ordering of ListWithPostCounts.
type PostCountOrder int

const (
	PostCountOrderNone PostCountOrder = iota
	PostCountOrderAsc
	PostCountOrderDesc
)

// UserPostCount is one row of the users listing: an account plus the number
// of posts it has authored.
type UserPostCount struct {
	Id         string `json:"id"`
	Email      string `json:"email"`
	PostsCount int    `json:"posts_count"`
}

// UserStore owns the local mirror of identity-provider accounts.
type UserStore interface {
	// GetOrCreate returns the user row for id, creating it on first sight.
	// Never an error when the row already exists.
	GetOrCreate(ctx context.Context, id, email string) (*model.User, error)

	// Get returns the user row for id, or ErrUserNotFound.
	Get(ctx context.Context, id string) (*model.User, error)

	// Exists reports whether id corresponds to a known account.
	Exists(ctx context.Context, id string) (bool, error)

	// ListWithPostCounts returns every account with its post count,
	// optionally ordered by that count.
	ListWithPostCounts(ctx context.Context, order PostCountOrder) ([]UserPostCount, error)
}
