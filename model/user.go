package model

import "time"

/*

User is a local mirror of an identity-provider account. Rows are created
lazily (get-or-create) the first time an authenticated subject touches the
API; the service never issues credentials itself.

Id: primary key, the identity provider's subject
CreatedAt: time when entity is created

Email: account email as reported by the identity provider
Posts: all posts authored by this user, "has-many" relation

*/
type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Email     string
	Posts     []*Post `json:"posts" gorm:"foreignKey:OwnerID"`
}
