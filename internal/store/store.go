package store

import (
	"context"
	"errors"

	"github.com/pulsefeed/pulsefeed/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrAlreadyLiked   = errors.New("already liked")
	ErrNotLiked       = errors.New("not liked")
)

// Store is the persistence boundary. Like and unlike are conditional
// writes executed inside the database (unique index on post+user,
// rows-affected check on delete), so concurrent mutations on the same
// post cannot lose updates.
type Store interface {
	UserStore
	PostStore
	GetSiteStats(ctx context.Context) (model.SiteStats, error)
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	// GetPost returns the post with likes and comments loaded
	// newest-first.
	GetPost(ctx context.Context, id string) (model.Post, error)
	// ListPosts returns all posts ordered by creation time descending.
	ListPosts(ctx context.Context) ([]model.Post, error)
	DeletePost(ctx context.Context, id string) error

	// AddLike inserts a like unless the user already holds one on the
	// post; returns ErrAlreadyLiked in that case.
	AddLike(ctx context.Context, postID, userID string) error
	// RemoveLike deletes the user's like; returns ErrNotLiked when no
	// like existed.
	RemoveLike(ctx context.Context, postID, userID string) error
	ListLikes(ctx context.Context, postID string) ([]model.Like, error)

	AddComment(ctx context.Context, postID string, comment *model.Comment) error
	GetComment(ctx context.Context, postID, commentID string) (model.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
}
