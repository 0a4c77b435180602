package feed

import (
	"context"
	"time"

	"github.com/Luismorlan/microblog/model"
	. "github.com/Luismorlan/microblog/utils/log"
	"github.com/pkg/errors"
)

/*

Ledger owns the feed synchronization algorithm. It is pull-based: nothing
happens at post creation time, new posts are folded into a feed when the
feed is accessed (or right after a follow). This trades a sync pass per feed
read for the absence of fan-out write amplification on popular accounts.

Two triggers mutate the ledger:

 - Sync (refresh-on-access): union in every followee post with
   created_at >= the watermark, then advance the watermark. The >= boundary
   deliberately re-selects posts created at exactly the previous watermark;
   Entry.Add is a set union so the re-add is a no-op, while > could drop a
   post on a timestamp tie.
 - Prune (on unfollow): drop the ex-followee's posts from feed and read.
   The watermark is left alone, pruning is orthogonal to forward sync.

*/
type Ledger struct {
	follows FollowStore
	posts   PostStore
	feeds   FeedStore

	// now is the watermark clock, swappable in tests.
	now func() time.Time
}

func NewLedger(follows FollowStore, posts PostStore, feeds FeedStore) *Ledger {
	return &Ledger{
		follows: follows,
		posts:   posts,
		feeds:   feeds,
		now:     time.Now,
	}
}

// Sync is trigger A: refresh the user's ledger entry from the follow graph.
// Safe to call redundantly; a pass that finds nothing new still advances the
// watermark.
func (l *Ledger) Sync(ctx context.Context, userID string) error {
	return l.feeds.Update(ctx, userID, func(e *Entry) error {
		followees, err := l.follows.ListFollowees(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "list followees for sync")
		}

		if len(followees) > 0 {
			candidates, err := l.posts.ListSince(ctx, followees, e.LastSyncedAt)
			if err != nil {
				return errors.Wrap(err, "list candidate posts for sync")
			}
			for i := range candidates {
				e.Add(candidates[i].Id)
			}
			if len(candidates) > 0 {
				Log.WithField("user_id", userID).Infof("feed sync added %d posts", len(candidates))
			}
		}

		e.LastSyncedAt = l.now()
		return nil
	})
}

// Prune is trigger B: after an unfollow, drop every post authored by
// followeeID from the user's feed and read sets. A user who never synced has
// no entry and nothing to prune.
func (l *Ledger) Prune(ctx context.Context, userID, followeeID string) error {
	entry, err := l.feeds.Load(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load entry for prune")
	}
	if entry == nil {
		return nil
	}

	return l.feeds.Update(ctx, userID, func(e *Entry) error {
		ids, err := l.posts.FilterIDsByOwner(ctx, followeeID, e.FeedIDs())
		if err != nil {
			return errors.Wrap(err, "resolve followee posts for prune")
		}
		e.Remove(ids...)
		if len(ids) > 0 {
			Log.WithField("user_id", userID).Infof("feed prune removed %d posts of %s", len(ids), followeeID)
		}
		return nil
	})
}

// MarkRead records the post as consumed and returns the post record. Fails
// with ErrPostNotInFeed when the post is not materialized in the user's
// feed; marking an already-read post is a no-op.
func (l *Ledger) MarkRead(ctx context.Context, userID, postID string) (*model.Post, error) {
	err := l.feeds.Update(ctx, userID, func(e *Entry) error {
		return e.MarkRead(postID)
	})
	if err != nil {
		return nil, err
	}
	return l.posts.GetByID(ctx, postID)
}
