package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pulsefeed/pulsefeed/internal/model"
	"github.com/pulsefeed/pulsefeed/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func newTestUser(t *testing.T, st *Store, email string) model.User {
	t.Helper()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "x",
		Avatar:       "https://www.gravatar.com/avatar/0",
		CreatedAt:    time.Now(),
	}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestPost(t *testing.T, st *Store, user model.User, text string) model.Post {
	t.Helper()
	post := model.Post{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Text:      text,
		Name:      user.Name,
		Avatar:    user.Avatar,
		CreatedAt: time.Now(),
	}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestUserDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	newTestUser(t, st, "dup@example.com")
	second := model.User{
		ID:        uuid.NewString(),
		Name:      "Other",
		Email:     "dup@example.com",
		CreatedAt: time.Now(),
	}
	err := st.CreateUser(context.Background(), &second)
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "find@example.com")
	got, err := st.FindUserByEmail(context.Background(), "find@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("unexpected user id: %s", got.ID)
	}

	_, err = st.FindUserByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "author@example.com")
	post := newTestPost(t, st, user, "first post")

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Text != "first post" {
		t.Fatalf("unexpected text: %s", got.Text)
	}
	if got.UserID != user.ID {
		t.Fatalf("unexpected author: %s", got.UserID)
	}

	if err := st.DeletePost(context.Background(), post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	_, err = st.GetPost(context.Background(), post.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeletePost(context.Background(), post.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "lister@example.com")
	base := time.Now()
	for i := 0; i < 3; i++ {
		post := model.Post{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Text:      fmt.Sprintf("post %d", i),
			Name:      user.Name,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := st.CreatePost(context.Background(), &post); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	posts, err := st.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].Text != "post 2" || posts[2].Text != "post 0" {
		t.Fatalf("posts out of order: %q, %q, %q", posts[0].Text, posts[1].Text, posts[2].Text)
	}
}

func TestLikeUniqueness(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "liker@example.com")
	post := newTestPost(t, st, user, "like me")

	if err := st.AddLike(context.Background(), post.ID, user.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	err := st.AddLike(context.Background(), post.ID, user.ID)
	if !errors.Is(err, store.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}

	likes, err := st.ListLikes(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(likes) != 1 {
		t.Fatalf("expected 1 like, got %d", len(likes))
	}
}

func TestUnlikeRoundTrip(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "unliker@example.com")
	post := newTestPost(t, st, user, "text")

	if err := st.RemoveLike(context.Background(), post.ID, user.ID); !errors.Is(err, store.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked before liking, got %v", err)
	}
	if err := st.AddLike(context.Background(), post.ID, user.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if err := st.RemoveLike(context.Background(), post.ID, user.ID); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := st.RemoveLike(context.Background(), post.ID, user.ID); !errors.Is(err, store.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked after removal, got %v", err)
	}
	// The like slot is free again after removal.
	if err := st.AddLike(context.Background(), post.ID, user.ID); err != nil {
		t.Fatalf("re-add like: %v", err)
	}
}

func TestCommentLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "commenter@example.com")
	post := newTestPost(t, st, user, "discuss")

	comment := model.Comment{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Text:      "nice post",
		Name:      user.Name,
		CreatedAt: time.Now(),
	}
	if err := st.AddComment(context.Background(), post.ID, &comment); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	got, err := st.GetComment(context.Background(), post.ID, comment.ID)
	if err != nil {
		t.Fatalf("get comment: %v", err)
	}
	if got.Text != "nice post" {
		t.Fatalf("unexpected text: %s", got.Text)
	}

	if err := st.DeleteComment(context.Background(), post.ID, comment.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	_, err = st.GetComment(context.Background(), post.ID, comment.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeleteComment(context.Background(), post.ID, comment.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCommentsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "ordered@example.com")
	post := newTestPost(t, st, user, "thread")

	base := time.Now()
	for i := 0; i < 3; i++ {
		comment := model.Comment{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Text:      fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := st.AddComment(context.Background(), post.ID, &comment); err != nil {
			t.Fatalf("add comment %d: %v", i, err)
		}
	}

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(got.Comments))
	}
	if got.Comments[0].Text != "comment 2" || got.Comments[2].Text != "comment 0" {
		t.Fatalf("comments out of order: %q first", got.Comments[0].Text)
	}
}

func TestDeletePostCascades(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "cascade@example.com")
	post := newTestPost(t, st, user, "doomed")

	if err := st.AddLike(context.Background(), post.ID, user.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	comment := model.Comment{ID: uuid.NewString(), UserID: user.ID, Text: "bye", CreatedAt: time.Now()}
	if err := st.AddComment(context.Background(), post.ID, &comment); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	if err := st.DeletePost(context.Background(), post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	likes, err := st.ListLikes(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(likes) != 0 {
		t.Fatalf("expected likes removed with post, got %d", len(likes))
	}
	comments, err := st.ListComments(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected comments removed with post, got %d", len(comments))
	}
}

func TestSiteStats(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	user := newTestUser(t, st, "stats@example.com")
	post := newTestPost(t, st, user, "counted")
	comment := model.Comment{ID: uuid.NewString(), UserID: user.ID, Text: "one", CreatedAt: time.Now()}
	if err := st.AddComment(context.Background(), post.ID, &comment); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	stats, err := st.GetSiteStats(context.Background())
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Users != 1 || stats.Posts != 1 || stats.Comments != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
