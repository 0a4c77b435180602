package model

import "time"

/*

Post is a single micro-blog entry. Posts are immutable once created: there is
no edit or delete operation, so feed pruning only ever removes references to
posts, never the posts themselves.

Id: primary key
CreatedAt: time when entity is created, canonical listing order is
           "created_at DESC, id DESC" (the id tiebreak keeps pagination
           stable when two posts share a timestamp)

Title: post's title in plain text
Text: post's body in plain text
OwnerID:
Owner: authoring user, "belongs-to" relation

*/
type Post struct {
	Id        string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	Title     string
	Text      string
	OwnerID   string `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Owner     User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
