package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Luismorlan/microblog/feed"
	"github.com/Luismorlan/microblog/model"
	. "github.com/Luismorlan/microblog/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Stable machine-readable error codes, one per caller-visible failure kind.
const (
	codeValidationFail = "validation_fail"
	codeSelfFollow     = "self_follow"
	codeDuplicate      = "duplicate_follow"
	codeNotFollowing   = "not_following"
	codePostNotInFeed  = "post_not_in_feed"
	codeUserNotFound   = "user_not_found"
	codeInvalidPage    = "invalid_page"
	codeAuthRequired   = "auth_required"
	codeInternal       = "internal_error"
)

type ownerResponse struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

type postResponse struct {
	Id        string        `json:"id"`
	Title     string        `json:"title"`
	Text      string        `json:"text"`
	Owner     ownerResponse `json:"owner"`
	CreatedAt time.Time     `json:"date_create"`
}

type followResponse struct {
	FollowTo ownerResponse `json:"follow_to"`
	Created  time.Time     `json:"created"`
}

// pageEnvelope is the wire shape of every paginated listing.
type pageEnvelope struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func toPostResponse(post *model.Post) postResponse {
	var resp postResponse
	if err := copier.Copy(&resp, post); err != nil {
		Log.Error("copy post into response: ", err)
	}
	return resp
}

func toPostResponses(posts []model.Post) []postResponse {
	resps := make([]postResponse, 0, len(posts))
	for i := range posts {
		resps = append(resps, toPostResponse(&posts[i]))
	}
	return resps
}

func toFollowResponse(edge *model.UserFollow) followResponse {
	var resp followResponse
	if err := copier.Copy(&resp.FollowTo, &edge.Followee); err != nil {
		Log.Error("copy followee into response: ", err)
	}
	resp.Created = edge.CreatedAt
	return resp
}

// nextPageURL rebuilds the request URL pointing at the next page, keeping
// any filter parameters, or returns nil when there is no next page.
func nextPageURL(c *gin.Context, number, size int, hasNext bool) *string {
	if !hasNext {
		return nil
	}
	return pageURL(c, number+1, size)
}

func prevPageURL(c *gin.Context, number, size int, hasPrev bool) *string {
	if !hasPrev {
		return nil
	}
	return pageURL(c, number-1, size)
}

func pageURL(c *gin.Context, number, size int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	q.Set("page_size", strconv.Itoa(size))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func abortWithValidation(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": codeValidationFail, "msg": msg})
}

// abortWithError maps the feed error taxonomy onto status codes: validation
// and conflict are 400, missing things are 404, missing identity is 401,
// anything unexpected is 500 and logged.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, feed.ErrSelfFollow):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": codeSelfFollow, "msg": err.Error()})
	case errors.Is(err, feed.ErrDuplicateFollow):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": codeDuplicate, "msg": err.Error()})
	case errors.Is(err, feed.ErrNotFollowing):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codeNotFollowing, "msg": err.Error()})
	case errors.Is(err, feed.ErrPostNotInFeed):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codePostNotInFeed, "msg": err.Error()})
	case errors.Is(err, feed.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codeUserNotFound, "msg": err.Error()})
	case errors.Is(err, feed.ErrInvalidPage):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": codeInvalidPage, "msg": err.Error()})
	case errors.Is(err, feed.ErrAuthRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": codeAuthRequired, "msg": err.Error()})
	default:
		Log.WithField("path", c.FullPath()).Error("unhandled error: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": codeInternal, "msg": "internal error"})
	}
}
