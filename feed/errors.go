package feed

import "errors"

// Sentinel errors surfaced by the feed subsystem. Callers match them with
// errors.Is; the HTTP layer owns the mapping to status codes.
var (
	// ErrSelfFollow rejects a follow edge whose two ends are the same user.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrDuplicateFollow is returned when the follow edge already exists.
	// Uniqueness is enforced by the storage layer, so of N concurrent
	// identical requests exactly one succeeds and the rest get this error.
	ErrDuplicateFollow = errors.New("already following this user")

	// ErrNotFollowing is returned by unfollow when no such edge exists.
	ErrNotFollowing = errors.New("not following this user")

	// ErrPostNotInFeed is returned by read-marking when the post is not
	// materialized in the user's feed.
	ErrPostNotInFeed = errors.New("post not found in feed")

	// ErrUserNotFound is returned when an operation references a user id
	// that no known account corresponds to.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPage is returned by paginated listings when the requested
	// page is malformed or past the end of the results.
	ErrInvalidPage = errors.New("invalid page")

	// ErrAuthRequired is returned for mutating operations issued without an
	// authenticated identity.
	ErrAuthRequired = errors.New("authentication required")
)
