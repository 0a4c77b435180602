package feed

import (
	"sort"
	"time"
)

/*

Entry is the in-memory form of one user's feed ledger: the set of post ids
materialized into the feed, the subset marked read, and the synchronization
watermark.

The id sets are private on purpose. Add, Remove and MarkRead are the only
mutation surface, and they preserve the invariant read ⊆ feed by
construction: Remove cascades from feed to read, and MarkRead refuses ids
that are not in the feed.

*/
type Entry struct {
	UserID       string
	LastSyncedAt time.Time

	feed map[string]bool
	read map[string]bool
}

// NewEntry returns an empty ledger entry with the watermark set to now, so
// only posts created from this moment on are eligible for the feed.
func NewEntry(userID string, now time.Time) *Entry {
	return &Entry{
		UserID:       userID,
		LastSyncedAt: now,
		feed:         map[string]bool{},
		read:         map[string]bool{},
	}
}

// RestoreEntry rebuilds an entry from persisted state. Read ids without a
// matching feed id are dropped rather than resurrected, keeping the subset
// invariant even if the stored rows ever disagree.
func RestoreEntry(userID string, lastSyncedAt time.Time, feedIDs, readIDs []string) *Entry {
	e := NewEntry(userID, lastSyncedAt)
	for _, id := range feedIDs {
		e.feed[id] = true
	}
	for _, id := range readIDs {
		if e.feed[id] {
			e.read[id] = true
		}
	}
	return e
}

// Add unions the given post ids into the feed. Adding an id that is already
// present is a no-op, not an error, which is what makes re-adding posts on
// the >= watermark boundary safe.
func (e *Entry) Add(postIDs ...string) {
	for _, id := range postIDs {
		e.feed[id] = true
	}
}

// Remove deletes the given post ids from the feed and cascades the removal
// to the read set.
func (e *Entry) Remove(postIDs ...string) {
	for _, id := range postIDs {
		delete(e.feed, id)
		delete(e.read, id)
	}
}

// MarkRead records the post as consumed. It fails with ErrPostNotInFeed when
// the post is not materialized in the feed, and is idempotent otherwise.
func (e *Entry) MarkRead(postID string) error {
	if !e.feed[postID] {
		return ErrPostNotInFeed
	}
	e.read[postID] = true
	return nil
}

// Has reports whether the post is materialized in the feed.
func (e *Entry) Has(postID string) bool {
	return e.feed[postID]
}

// IsRead reports whether the post has been marked read.
func (e *Entry) IsRead(postID string) bool {
	return e.read[postID]
}

// Len returns the number of posts in the feed.
func (e *Entry) Len() int {
	return len(e.feed)
}

// FeedIDs returns all feed post ids, sorted for determinism.
func (e *Entry) FeedIDs() []string {
	return sortedKeys(e.feed)
}

// ReadIDs returns all read post ids, sorted for determinism.
func (e *Entry) ReadIDs() []string {
	return sortedKeys(e.read)
}

// UnreadIDs returns feed − read, sorted for determinism.
func (e *Entry) UnreadIDs() []string {
	unread := map[string]bool{}
	for id := range e.feed {
		if !e.read[id] {
			unread[id] = true
		}
	}
	return sortedKeys(unread)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
