package httpapp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/auth"
	"github.com/pulsefeed/pulsefeed/internal/client"
	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/rate"
	"github.com/pulsefeed/pulsefeed/internal/store/sqlite"
)

type testEnv struct {
	server *httptest.Server
	helper *client.TestHelper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		RateLimits: config.RateLimits{PostPerMinute: 1000, CommentPerMinute: 1000, LikePerMinute: 1000},
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
	}
	return newTestEnvWithConfig(t, cfg)
}

func newTestEnvWithConfig(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	dsnName := strings.NewReplacer("/", "_").Replace(t.Name())
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", dsnName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	limiter := rate.NewMemory()
	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	server := NewServer(st, authSvc, limiter, cfg)
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})
	return &testEnv{server: ts, helper: client.NewTestHelper(ts.URL)}
}

func (env *testEnv) authedClient(t *testing.T, name string) *client.Client {
	t.Helper()
	c, err := env.helper.CreateAuthenticatedClient(name)
	if err != nil {
		t.Fatalf("create client %s: %v", name, err)
	}
	return c
}

func TestLikeUnlikeFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")
	bob := env.authedClient(t, "bob")

	post, err := alice.CreatePost("like this")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	likes, err := bob.Like(post.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if len(likes) != 1 {
		t.Fatalf("expected 1 like, got %d", len(likes))
	}

	// A second like by the same user is rejected and the count holds.
	if _, err := bob.Like(post.ID); err == nil {
		t.Fatal("expected duplicate like to fail")
	} else if !strings.Contains(err.Error(), "post is already liked") {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := alice.GetPost(post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.Likes) != 1 {
		t.Fatalf("expected like count unchanged at 1, got %d", len(got.Likes))
	}

	likes, err = bob.Unlike(post.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if len(likes) != 0 {
		t.Fatalf("expected 0 likes after unlike, got %d", len(likes))
	}

	if _, err := bob.Unlike(post.ID); err == nil {
		t.Fatal("expected second unlike to fail")
	} else if !strings.Contains(err.Error(), "post has not yet been liked") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeletePostAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")
	bob := env.authedClient(t, "bob")

	post, err := alice.CreatePost("mine")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	err = bob.DeletePost(post.ID)
	if err == nil {
		t.Fatal("expected delete by non-author to fail")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "user not authorized") {
		t.Fatalf("unexpected error: %v", err)
	}

	// The post survives the failed delete.
	if _, err := alice.GetPost(post.ID); err != nil {
		t.Fatalf("post should still exist: %v", err)
	}

	if err := alice.DeletePost(post.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := alice.GetPost(post.ID); err == nil {
		t.Fatal("expected post gone after author delete")
	}
}

func TestCommentFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")
	bob := env.authedClient(t, "bob")

	post, err := alice.CreatePost("discuss")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := alice.AddComment(post.ID, "first"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	comments, err := bob.AddComment(post.ID, "second")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Text != "second" {
		t.Fatalf("expected newest comment first, got %q", comments[0].Text)
	}

	// Only the comment's author may remove it.
	bobComment := comments[0]
	if _, err := alice.DeleteComment(post.ID, bobComment.ID); err == nil {
		t.Fatal("expected delete by non-author to fail")
	} else if !strings.Contains(err.Error(), "user not authorized") {
		t.Fatalf("unexpected error: %v", err)
	}

	comments, err = bob.DeleteComment(post.ID, bobComment.ID)
	if err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if len(comments) != 1 || comments[0].Text != "first" {
		t.Fatalf("unexpected comments after delete: %+v", comments)
	}
}

func TestEmptyTextRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")

	if _, err := alice.CreatePost("   "); err == nil {
		t.Fatal("expected empty post text to fail")
	} else if !strings.Contains(err.Error(), "text is required") {
		t.Fatalf("unexpected error: %v", err)
	}

	post, err := alice.CreatePost("real post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := alice.AddComment(post.ID, ""); err == nil {
		t.Fatal("expected empty comment text to fail")
	} else if !strings.Contains(err.Error(), "text is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMissingPostIs404(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")

	for _, op := range []func() error{
		func() error { _, err := alice.GetPost("no-such-id"); return err },
		func() error { return alice.DeletePost("no-such-id") },
		func() error { _, err := alice.Like("no-such-id"); return err },
		func() error { _, err := alice.Unlike("no-such-id"); return err },
		func() error { _, err := alice.AddComment("no-such-id", "hi"); return err },
	} {
		err := op()
		if err == nil {
			t.Fatal("expected not-found error")
		}
		if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "post not found") {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestMissingCommentIs404(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")

	post, err := alice.CreatePost("thread")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := alice.DeleteComment(post.ID, "no-such-comment"); err == nil {
		t.Fatal("expected missing comment error")
	} else if !strings.Contains(err.Error(), "comment not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListPostsNewestFirstOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := env.authedClient(t, "alice")

	for i := 0; i < 3; i++ {
		if _, err := alice.CreatePost(fmt.Sprintf("post %d", i)); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}
	posts, err := alice.ListPosts()
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

func TestPostRateLimit(t *testing.T) {
	cfg := config.Config{
		RateLimits: config.RateLimits{PostPerMinute: 2, CommentPerMinute: 1000, LikePerMinute: 1000},
	}
	env := newTestEnvWithConfig(t, cfg)
	alice := env.authedClient(t, "alice")

	for i := 0; i < 2; i++ {
		if _, err := alice.CreatePost(fmt.Sprintf("post %d", i)); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}
	_, err := alice.CreatePost("one too many")
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if !strings.Contains(err.Error(), fmt.Sprint(http.StatusTooManyRequests)) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSwaggerJSONServed(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/openapi.json")
	if err != nil {
		t.Fatalf("get openapi.json: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
