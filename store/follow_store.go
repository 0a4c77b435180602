// Package store holds the gorm-backed implementations of the persistence
// ports declared in the feed package.
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

// FollowStore persists the follow graph. Deduplication relies on the
// composite primary key of user_follows, never on a read-then-insert.
type FollowStore struct {
	db *gorm.DB
}

var _ feed.FollowStore = (*FollowStore)(nil)

func NewFollowStore(db *gorm.DB) *FollowStore {
	return &FollowStore{db: db}
}

func (s *FollowStore) Create(ctx context.Context, followerID, followeeID string) (*model.UserFollow, error) {
	edge := model.UserFollow{
		UserID:     followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}

	// ON CONFLICT DO NOTHING turns the primary key race into RowsAffected==0
	// for every request but the winner.
	res := s.db.WithContext(ctx).
		Omit("Followee").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create follow edge")
	}
	if res.RowsAffected == 0 {
		return nil, feed.ErrDuplicateFollow
	}
	return &edge, nil
}

func (s *FollowStore) Delete(ctx context.Context, followerID, followeeID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.UserFollow{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete follow edge")
	}
	if res.RowsAffected == 0 {
		return feed.ErrNotFollowing
	}
	return nil
}

func (s *FollowStore) ListFollowees(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	res := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("user_id = ?", followerID).
		Pluck("followee_id", &ids)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list followees")
	}
	return ids, nil
}

func (s *FollowStore) ListFollows(ctx context.Context, followerID string, offset, limit int) ([]model.UserFollow, int, error) {
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("user_id = ?", followerID).
		Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count follows")
	}

	var edges []model.UserFollow
	res := s.db.WithContext(ctx).
		Where("user_id = ?", followerID).
		Order("created_at DESC, followee_id DESC").
		Offset(offset).
		Limit(limit).
		Preload("Followee").
		Find(&edges)
	if res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "list follows")
	}
	return edges, int(total), nil
}
