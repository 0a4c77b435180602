package model

import "time"

/*

UserFollow is a directed follow edge from one user to another.

UserID: the follower
FolloweeID: the account being followed
CreatedAt: time when relation is created

The composite primary key (UserID, FolloweeID) is what makes the relation
deduplicated: two concurrent identical follow requests race on the same key
and the storage layer rejects the loser, so an application-level existence
check is never needed.

*/
type UserFollow struct {
	UserID     string `gorm:"primaryKey"`
	FolloweeID string `gorm:"primaryKey"`
	CreatedAt  time.Time
	Followee   User `gorm:"foreignKey:FolloweeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
