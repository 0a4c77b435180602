package store

import (
	"context"
	"time"

	"github.com/Luismorlan/microblog/feed"
	"github.com/Luismorlan/microblog/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedStore persists feed ledger entries. Every mutation goes through
// Update, which runs the whole read-modify-write under one transaction with
// the ledger row locked, so two concurrent passes for the same user cannot
// clobber each other's additions.
type FeedStore struct {
	db *gorm.DB
}

var _ feed.FeedStore = (*FeedStore)(nil)

func NewFeedStore(db *gorm.DB) *FeedStore {
	return &FeedStore{db: db}
}

func (s *FeedStore) Update(ctx context.Context, userID string, fn func(*feed.Entry) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockedEntryRow(tx, userID)
		if err != nil {
			return err
		}

		feedIDs, err := joinIDs(tx, &model.UserFeedPost{}, userID)
		if err != nil {
			return errors.Wrap(err, "load feed ids")
		}
		readIDs, err := joinIDs(tx, &model.UserFeedRead{}, userID)
		if err != nil {
			return errors.Wrap(err, "load read ids")
		}

		entry := feed.RestoreEntry(userID, row.LastSyncedAt, feedIDs, readIDs)
		if err := fn(entry); err != nil {
			return err
		}

		if err := applySetDiff(tx, &model.UserFeedPost{}, userID, feedIDs, entry.FeedIDs(), newFeedPostRows); err != nil {
			return errors.Wrap(err, "persist feed set")
		}
		if err := applySetDiff(tx, &model.UserFeedRead{}, userID, readIDs, entry.ReadIDs(), newFeedReadRows); err != nil {
			return errors.Wrap(err, "persist read set")
		}

		if !entry.LastSyncedAt.Equal(row.LastSyncedAt) {
			if err := tx.Model(&model.UserFeed{}).
				Where("user_id = ?", userID).
				Update("last_synced_at", entry.LastSyncedAt).Error; err != nil {
				return errors.Wrap(err, "advance watermark")
			}
		}
		return nil
	})
}

func (s *FeedStore) Load(ctx context.Context, userID string) (*feed.Entry, error) {
	db := s.db.WithContext(ctx)

	var row model.UserFeed
	res := db.Where("user_id = ?", userID).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load ledger row")
	}

	feedIDs, err := joinIDs(db, &model.UserFeedPost{}, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load feed ids")
	}
	readIDs, err := joinIDs(db, &model.UserFeedRead{}, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load read ids")
	}
	return feed.RestoreEntry(userID, row.LastSyncedAt, feedIDs, readIDs), nil
}

// lockedEntryRow loads the user's ledger row under FOR UPDATE, creating it
// first when the user has never synced. Creation races resolve through
// ON CONFLICT DO NOTHING plus a locked re-read.
func lockedEntryRow(tx *gorm.DB, userID string) (*model.UserFeed, error) {
	var row model.UserFeed
	res := rowLock(tx).Where("user_id = ?", userID).First(&row)
	if res.Error == nil {
		return &row, nil
	}
	if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(res.Error, "lock ledger row")
	}

	row = model.UserFeed{UserID: userID, LastSyncedAt: time.Now()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, errors.Wrap(err, "create ledger row")
	}
	res = rowLock(tx).Where("user_id = ?", userID).First(&row)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "re-lock ledger row")
	}
	return &row, nil
}

// rowLock adds FOR UPDATE on postgres. sqlite has no row locks and no need
// for them, its writers are fully serialized.
func rowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func joinIDs(tx *gorm.DB, table interface{}, userID string) ([]string, error) {
	var ids []string
	res := tx.Model(table).Where("user_id = ?", userID).Pluck("post_id", &ids)
	if res.Error != nil {
		return nil, res.Error
	}
	return ids, nil
}

// applySetDiff persists the id-set delta produced by fn: freshly added ids
// become join rows, removed ids have theirs deleted.
func applySetDiff(tx *gorm.DB, table interface{}, userID string, before, after []string, rows func(userID string, ids []string) interface{}) error {
	beforeSet := map[string]bool{}
	for _, id := range before {
		beforeSet[id] = true
	}
	afterSet := map[string]bool{}
	for _, id := range after {
		afterSet[id] = true
	}

	var added, removed []string
	for _, id := range after {
		if !beforeSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !afterSet[id] {
			removed = append(removed, id)
		}
	}

	if len(added) > 0 {
		if err := tx.Create(rows(userID, added)).Error; err != nil {
			return err
		}
	}
	if len(removed) > 0 {
		if err := tx.Where("user_id = ? AND post_id IN ?", userID, removed).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func newFeedPostRows(userID string, ids []string) interface{} {
	rows := make([]model.UserFeedPost, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, model.UserFeedPost{UserID: userID, PostID: id, CreatedAt: time.Now()})
	}
	return &rows
}

func newFeedReadRows(userID string, ids []string) interface{} {
	rows := make([]model.UserFeedRead, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, model.UserFeedRead{UserID: userID, PostID: id, CreatedAt: time.Now()})
	}
	return &rows
}
