package model

import "time"

/*

UserFeedRead is the "many-to-many" relation of a feed post the user marked
read. A row here always has a matching UserFeedPost row; pruning deletes
from both.

UserID: user id
PostID: post id
CreatedAt: time when relation is created

*/
type UserFeedRead struct {
	UserID    string `gorm:"primaryKey"`
	PostID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
