package feed

import (
	"context"

	"github.com/Luismorlan/microblog/model"
	"github.com/pkg/errors"
)

// Filter selects which slice of the ledger a feed listing resolves.
type Filter int

const (
	FilterAll Filter = iota
	FilterReadOnly
	FilterUnreadOnly
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a caller-supplied pagination request. Zero values mean "first
// page, default size".
type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// PostPage is one page of resolved posts plus the total match count.
type PostPage struct {
	Count   int
	Results []model.Post
	Number  int
	Size    int
}

func (p *PostPage) HasNext() bool {
	return p.Number*p.Size < p.Count
}

func (p *PostPage) HasPrevious() bool {
	return p.Number > 1
}

// FollowPage is one page of follow edges plus the total edge count.
type FollowPage struct {
	Count   int
	Results []model.UserFollow
	Number  int
	Size    int
}

func (p *FollowPage) HasNext() bool {
	return p.Number*p.Size < p.Count
}

func (p *FollowPage) HasPrevious() bool {
	return p.Number > 1
}

// Query is the read side of the feed subsystem: filtered, paginated feed
// listings and per-owner post listings. Every feed listing triggers a
// synchronization pass first, which is what makes the feed pull-based.
type Query struct {
	ledger *Ledger
	posts  PostStore
	feeds  FeedStore
	users  UserStore
}

func NewQuery(ledger *Ledger, posts PostStore, feeds FeedStore, users UserStore) *Query {
	return &Query{ledger: ledger, posts: posts, feeds: feeds, users: users}
}

// ListFeed refreshes the user's ledger entry, then resolves the requested
// slice of it to post records in canonical order. A page past the end of the
// results fails with ErrInvalidPage; the first page of an empty feed is an
// empty page.
func (q *Query) ListFeed(ctx context.Context, userID string, filter Filter, page Page) (*PostPage, error) {
	if err := q.ledger.Sync(ctx, userID); err != nil {
		return nil, err
	}

	entry, err := q.feeds.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load entry for feed listing")
	}
	if entry == nil {
		// Sync just ran, so the entry must exist; treat a missing one as an
		// empty feed rather than failing the listing.
		entry = NewEntry(userID, q.ledger.now())
	}

	var ids []string
	switch filter {
	case FilterReadOnly:
		ids = entry.ReadIDs()
	case FilterUnreadOnly:
		ids = entry.UnreadIDs()
	default:
		ids = entry.FeedIDs()
	}

	page = page.normalize()
	if page.Number > 1 && page.offset() >= len(ids) {
		return nil, ErrInvalidPage
	}
	results, err := q.posts.ListByIDs(ctx, ids, page.offset(), page.Size)
	if err != nil {
		return nil, errors.Wrap(err, "resolve feed posts")
	}

	return &PostPage{
		Count:   len(ids),
		Results: results,
		Number:  page.Number,
		Size:    page.Size,
	}, nil
}

// ListPostsByOwner returns the owner's posts in canonical order. An unknown
// owner fails with ErrUserNotFound; a known owner with zero posts yields an
// empty page.
func (q *Query) ListPostsByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	known, err := q.users.Exists(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "check owner")
	}
	if !known {
		return nil, ErrUserNotFound
	}
	return q.posts.ListByOwner(ctx, ownerID)
}

// ListUsers returns every account with its post count, optionally ordered by
// that count.
func (q *Query) ListUsers(ctx context.Context, order PostCountOrder) ([]UserPostCount, error) {
	return q.users.ListWithPostCounts(ctx, order)
}
