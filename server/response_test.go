package server

import (
	"testing"
	"time"

	"github.com/Luismorlan/microblog/model"
	"github.com/stretchr/testify/require"
)

func TestPostResponseMapping(t *testing.T) {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &model.Post{
		Id:        "p1",
		Title:     "title",
		Text:      "text",
		OwnerID:   "alice",
		CreatedAt: created,
		Owner:     model.User{Id: "alice", Email: "alice@example.com"},
	}

	resp := toPostResponse(post)
	require.Equal(t, "p1", resp.Id)
	require.Equal(t, "title", resp.Title)
	require.Equal(t, "text", resp.Text)
	require.Equal(t, "alice", resp.Owner.Id)
	require.Equal(t, "alice@example.com", resp.Owner.Email)
	require.True(t, created.Equal(resp.CreatedAt))
}

func TestFollowResponseMapping(t *testing.T) {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	edge := &model.UserFollow{
		UserID:     "alice",
		FolloweeID: "bob",
		CreatedAt:  created,
		Followee:   model.User{Id: "bob", Email: "bob@example.com"},
	}

	resp := toFollowResponse(edge)
	require.Equal(t, "bob", resp.FollowTo.Id)
	require.Equal(t, "bob@example.com", resp.FollowTo.Email)
	require.True(t, created.Equal(resp.Created))
}
