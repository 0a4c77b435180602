package feed

import (
	"context"

	"github.com/Luismorlan/microblog/model"
	"github.com/pkg/errors"
)

// Subscriptions coordinates follow-graph mutations with ledger maintenance.
// It is the only path through which follow edges are created or removed, so
// the ledger never drifts from the graph for longer than one trigger.
type Subscriptions struct {
	follows FollowStore
	users   UserStore
	ledger  *Ledger
}

func NewSubscriptions(follows FollowStore, users UserStore, ledger *Ledger) *Subscriptions {
	return &Subscriptions{follows: follows, users: users, ledger: ledger}
}

// Follow creates the edge follower → followee, then runs a sync pass for the
// follower. Fails with ErrSelfFollow, ErrUserNotFound (unknown followee) or
// ErrDuplicateFollow.
func (s *Subscriptions) Follow(ctx context.Context, followerID, followeeID string) (*model.UserFollow, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}

	known, err := s.users.Exists(ctx, followeeID)
	if err != nil {
		return nil, errors.Wrap(err, "check followee")
	}
	if !known {
		return nil, ErrUserNotFound
	}

	edge, err := s.follows.Create(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Sync(ctx, followerID); err != nil {
		return nil, errors.Wrap(err, "sync after follow")
	}
	return edge, nil
}

// Unfollow deletes the edge follower → followee, then prunes the followee's
// posts out of the follower's ledger entry. Fails with ErrNotFollowing when
// there is no such edge.
func (s *Subscriptions) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := s.follows.Delete(ctx, followerID, followeeID); err != nil {
		return err
	}
	return s.ledger.Prune(ctx, followerID, followeeID)
}

// List returns one page of the follower's outgoing edges, newest first.
// A page past the end of the results fails with ErrInvalidPage.
func (s *Subscriptions) List(ctx context.Context, followerID string, page Page) (*FollowPage, error) {
	page = page.normalize()
	edges, total, err := s.follows.ListFollows(ctx, followerID, page.offset(), page.Size)
	if err != nil {
		return nil, errors.Wrap(err, "list follows")
	}
	if page.Number > 1 && page.offset() >= total {
		return nil, ErrInvalidPage
	}
	return &FollowPage{
		Count:   total,
		Results: edges,
		Number:  page.Number,
		Size:    page.Size,
	}, nil
}
