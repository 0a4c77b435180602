package store

import (
	"context"
	"time"

	"github.com/Luismorlan/microblog/feed"
	"github.com/Luismorlan/microblog/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// canonicalOrder is the one listing order for posts everywhere: newest
// first, id as tiebreak so pagination stays stable on timestamp ties.
const canonicalOrder = "created_at DESC, id DESC"

// PostStore persists post records. Append-only: nothing here updates or
// deletes a post.
type PostStore struct {
	db *gorm.DB
}

var _ feed.PostStore = (*PostStore)(nil)

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	if post.Id == "" {
		post.Id = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Omit("Owner").Create(post).Error; err != nil {
		return errors.Wrap(err, "create post")
	}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	res := s.db.WithContext(ctx).
		Preload("Owner").
		Where("id = ?", id).
		First(&post)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, feed.ErrPostNotInFeed
	}
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get post")
	}
	return &post, nil
}

func (s *PostStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	posts := []model.Post{}
	res := s.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ?", ownerID).
		Order(canonicalOrder).
		Find(&posts)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list posts by owner")
	}
	return posts, nil
}

func (s *PostStore) ListSince(ctx context.Context, ownerIDs []string, since time.Time) ([]model.Post, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	var posts []model.Post
	// The boundary is >= on purpose: a post created at exactly the watermark
	// is re-selected rather than risked dropped on a timestamp tie.
	res := s.db.WithContext(ctx).
		Where("owner_id IN ? AND created_at >= ?", ownerIDs, since).
		Find(&posts)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list posts since watermark")
	}
	return posts, nil
}

func (s *PostStore) FilterIDsByOwner(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var owned []string
	res := s.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Pluck("id", &owned)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "filter post ids by owner")
	}
	return owned, nil
}

func (s *PostStore) ListByIDs(ctx context.Context, ids []string, offset, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	res := s.db.WithContext(ctx).
		Preload("Owner").
		Where("id IN ?", ids).
		Order(canonicalOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list posts by ids")
	}
	return posts, nil
}
