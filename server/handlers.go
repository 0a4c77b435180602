package server

import (
	"net/http"
	"strconv"

	"github.com/Luismorlan/microblog/feed"
	"github.com/Luismorlan/microblog/model"
	"github.com/Luismorlan/microblog/server/middlewares"
	"github.com/Luismorlan/microblog/store"
	"github.com/Luismorlan/microblog/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIServer wires the persistence ports and the feed services behind the
// HTTP handlers. One instance serves all requests.
type APIServer struct {
	users  feed.UserStore
	posts  feed.PostStore
	query  *feed.Query
	ledger *feed.Ledger
	subs   *feed.Subscriptions
}

// NewAPIServer is the composition root: gorm-backed stores plus the feed
// services built on top of them.
func NewAPIServer(db *gorm.DB) *APIServer {
	users := store.NewUserStore(db)
	posts := store.NewPostStore(db)
	follows := store.NewFollowStore(db)
	feeds := store.NewFeedStore(db)
	ledger := feed.NewLedger(follows, posts, feeds)

	return &APIServer{
		users:  users,
		posts:  posts,
		query:  feed.NewQuery(ledger, posts, feeds, users),
		ledger: ledger,
		subs:   feed.NewSubscriptions(follows, users, ledger),
	}
}

// RegisterRoutes binds all handlers. The users listings are public, the way
// the original API exposed them; everything else requires a verified
// subject.
func (s *APIServer) RegisterRoutes(router *gin.Engine) {
	router.GET("/users", s.ListUsers)
	router.GET("/users/:id/posts", s.ListUserPosts)

	authed := router.Group("/", middlewares.Auth())
	authed.POST("/posts", s.CreatePost)
	authed.POST("/follows", s.CreateFollow)
	authed.GET("/follows", s.ListFollows)
	authed.DELETE("/follows/:followee_id", s.DeleteFollow)
	authed.GET("/feed", s.ListFeed)
	authed.GET("/feed/:post_id", s.RetrieveFeedPost)
}

type createPostRequest struct {
	Title string `json:"title" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

// CreatePost persists a new post owned by the authenticated user. The post
// is not pushed into any feed here; followers pick it up on their next sync.
func (s *APIServer) CreatePost(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithValidation(c, "title and text are required")
		return
	}

	post := model.Post{Title: req.Title, Text: req.Text, OwnerID: user.Id}
	if err := s.posts.Create(c.Request.Context(), &post); err != nil {
		abortWithError(c, err)
		return
	}
	post.Owner = *user

	c.JSON(http.StatusCreated, toPostResponse(&post))
}

// ListUserPosts lists one owner's posts in canonical order. Unknown owner is
// 404; a postless owner is an empty list.
func (s *APIServer) ListUserPosts(c *gin.Context) {
	posts, err := s.query.ListPostsByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostResponses(posts))
}

// ListUsers lists every account with its post count. The ordering parameter
// mirrors the original API: "posts_count" or "-posts_count".
func (s *APIServer) ListUsers(c *gin.Context) {
	ordering := c.Query("ordering")
	if ordering != "" && !utils.ContainsString([]string{"posts_count", "-posts_count"}, ordering) {
		abortWithValidation(c, "unsupported ordering: "+ordering)
		return
	}

	order := feed.PostCountOrderNone
	switch ordering {
	case "posts_count":
		order = feed.PostCountOrderAsc
	case "-posts_count":
		order = feed.PostCountOrderDesc
	}

	users, err := s.query.ListUsers(c.Request.Context(), order)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type createFollowRequest struct {
	FolloweeID string `json:"followee_id" binding:"required"`
}

// CreateFollow subscribes the authenticated user to another account and
// synchronizes the feed right away.
func (s *APIServer) CreateFollow(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req createFollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithValidation(c, "followee_id is required")
		return
	}

	edge, err := s.subs.Follow(c.Request.Context(), user.Id, req.FolloweeID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	followee, err := s.users.Get(c.Request.Context(), edge.FolloweeID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	edge.Followee = *followee

	c.JSON(http.StatusCreated, toFollowResponse(edge))
}

// ListFollows lists the authenticated user's subscriptions, paginated.
func (s *APIServer) ListFollows(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	requested, err := requestedPage(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	page, err := s.subs.List(c.Request.Context(), user.Id, requested)
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]followResponse, 0, len(page.Results))
	for i := range page.Results {
		results = append(results, toFollowResponse(&page.Results[i]))
	}
	c.JSON(http.StatusOK, pageEnvelope{
		Count:    page.Count,
		Next:     nextPageURL(c, page.Number, page.Size, page.HasNext()),
		Previous: prevPageURL(c, page.Number, page.Size, page.HasPrevious()),
		Results:  results,
	})
}

// DeleteFollow unsubscribes the authenticated user from an account and
// prunes that account's posts out of the feed.
func (s *APIServer) DeleteFollow(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.subs.Unfollow(c.Request.Context(), user.Id, c.Param("followee_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFeed refreshes and lists the authenticated user's feed. The readed
// parameter filters the listing: absent for everything, "true" for read
// posts only, "false" for unread only.
func (s *APIServer) ListFeed(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	filter := feed.FilterAll
	switch readed, ok := c.GetQuery("readed"); {
	case !ok:
	case readed == "true":
		filter = feed.FilterReadOnly
	case readed == "false":
		filter = feed.FilterUnreadOnly
	default:
		abortWithValidation(c, "readed must be true or false")
		return
	}

	requested, err := requestedPage(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	page, err := s.query.ListFeed(c.Request.Context(), user.Id, filter, requested)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageEnvelope{
		Count:    page.Count,
		Next:     nextPageURL(c, page.Number, page.Size, page.HasNext()),
		Previous: prevPageURL(c, page.Number, page.Size, page.HasPrevious()),
		Results:  toPostResponses(page.Results),
	})
}

// RetrieveFeedPost marks a feed post read and returns it. Re-reading an
// already-read post just returns the post again.
func (s *APIServer) RetrieveFeedPost(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	post, err := s.ledger.MarkRead(c.Request.Context(), user.Id, c.Param("post_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post))
}

// currentUser resolves the verified subject to a user row, creating the row
// on first sight so identities exist locally as soon as they authenticate.
func (s *APIServer) currentUser(c *gin.Context) (*model.User, error) {
	sub := c.GetString(middlewares.ContextKeySub)
	if sub == "" {
		return nil, feed.ErrAuthRequired
	}
	return s.users.GetOrCreate(c.Request.Context(), sub, c.GetString(middlewares.ContextKeyEmail))
}

// requestedPage parses the pagination parameters. A page that is not a
// positive integer is rejected; a malformed page_size just falls back to the
// default, the way the original API treated it.
func requestedPage(c *gin.Context) (feed.Page, error) {
	var page feed.Page
	if raw, ok := c.GetQuery("page"); ok {
		number, err := strconv.Atoi(raw)
		if err != nil || number < 1 {
			return feed.Page{}, feed.ErrInvalidPage
		}
		page.Number = number
	}
	page.Size, _ = strconv.Atoi(c.Query("page_size"))
	return page, nil
}
