package model

import "time"

/*

UserFeed is a user's materialized feed ledger, at most one row per user.

UserID: primary key, the owning user
LastSyncedAt: watermark of the most recent synchronization pass; posts with
              created_at >= LastSyncedAt are candidates for the next pass

Feed: all posts currently materialized for this user, "many-to-many" relation
Read: subset of Feed the user has marked consumed, "many-to-many" relation

Feed membership reflects the history of being added, not a live join against
the follow graph: an unfollow actively prunes the followee's posts out of
both relations.

*/
type UserFeed struct {
	UserID       string `gorm:"primaryKey"`
	LastSyncedAt time.Time
	Feed         []*Post `json:"feed" gorm:"many2many:user_feed_posts;foreignKey:UserID;joinForeignKey:UserID;references:Id;joinReferences:PostID"`
	Read         []*Post `json:"read" gorm:"many2many:user_feed_reads;foreignKey:UserID;joinForeignKey:UserID;references:Id;joinReferences:PostID"`
}
