package model

import "time"

/*

UserFeedPost is the "many-to-many" relation of a post materialized into a
user's feed.

UserID: user id
PostID: post id
CreatedAt: time when relation is created

*/
type UserFeedPost struct {
	UserID    string `gorm:"primaryKey"`
	PostID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
