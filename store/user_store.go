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

// UserStore persists the local mirror of identity-provider accounts.
type UserStore struct {
	db *gorm.DB
}

var _ feed.UserStore = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetOrCreate(ctx context.Context, id, email string) (*model.User, error) {
	var user model.User
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if res.Error == nil {
		return &user, nil
	}
	if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(res.Error, "get user")
	}

	user = model.User{Id: id, Email: email, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	// A concurrent request may have won the insert; read the surviving row.
	res = s.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "re-read user")
	}
	return &user, nil
}

func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, feed.ErrUserNotFound
	}
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get user")
	}
	return &user, nil
}

func (s *UserStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&count)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "check user exists")
	}
	return count > 0, nil
}

func (s *UserStore) ListWithPostCounts(ctx context.Context, order feed.PostCountOrder) ([]feed.UserPostCount, error) {
	q := s.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.id, users.email, count(posts.id) AS posts_count").
		Joins("LEFT JOIN posts ON posts.owner_id = users.id").
		Group("users.id, users.email")

	switch order {
	case feed.PostCountOrderAsc:
		q = q.Order("posts_count ASC")
	case feed.PostCountOrderDesc:
		q = q.Order("posts_count DESC")
	}

	rows := []feed.UserPostCount{}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list users with post counts")
	}
	return rows, nil
}
