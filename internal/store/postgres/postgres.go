// Package postgres implements the store on PostgreSQL via pgx. It is
// wire-compatible with the sqlite store; the server picks one at
// startup.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/model"
	"github.com/pulsefeed/pulsefeed/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT,
	avatar TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS likes (
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE(post_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT,
	avatar TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
`

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (id, name, email, password_hash, avatar, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, user.ID, user.Name, user.Email, user.PasswordHash, user.Avatar, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, COALESCE(avatar, ''), created_at
FROM users WHERE id = $1
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, COALESCE(avatar, ''), created_at
FROM users WHERE email = $1
`, email)
	return scanUser(row)
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO posts (id, user_id, text, name, avatar, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, post.ID, post.UserID, post.Text, post.Name, post.Avatar, post.CreatedAt)
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, user_id, text, COALESCE(name, ''), COALESCE(avatar, ''), created_at
FROM posts WHERE id = $1
`, id)
	var p model.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	var err error
	if p.Likes, err = s.ListLikes(ctx, id); err != nil {
		return model.Post{}, err
	}
	if p.Comments, err = s.ListComments(ctx, id); err != nil {
		return model.Post{}, err
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, text, COALESCE(name, ''), COALESCE(avatar, ''), created_at
FROM posts
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		if posts[i].Likes, err = s.ListLikes(ctx, posts[i].ID); err != nil {
			return nil, err
		}
		if posts[i].Comments, err = s.ListComments(ctx, posts[i].ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO likes (post_id, user_id, created_at)
VALUES ($1, $2, $3)
`, postID, userID, time.Now())
	if isUniqueViolation(err) {
		return store.ErrAlreadyLiked
	}
	return err
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM likes WHERE post_id = $1 AND user_id = $2
`, postID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotLiked
	}
	return nil
}

func (s *Store) ListLikes(ctx context.Context, postID string) ([]model.Like, error) {
	rows, err := s.pool.Query(ctx, `
SELECT user_id FROM likes
WHERE post_id = $1
ORDER BY created_at DESC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []model.Like
	for rows.Next() {
		var l model.Like
		if err := rows.Scan(&l.UserID); err != nil {
			return nil, err
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func (s *Store) AddComment(ctx context.Context, postID string, comment *model.Comment) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO comments (id, post_id, user_id, text, name, avatar, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, comment.ID, postID, comment.UserID, comment.Text, comment.Name, comment.Avatar, comment.CreatedAt)
	return err
}

func (s *Store) GetComment(ctx context.Context, postID, commentID string) (model.Comment, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, user_id, text, COALESCE(name, ''), COALESCE(avatar, ''), created_at
FROM comments
WHERE id = $1 AND post_id = $2
`, commentID, postID)
	var c model.Comment
	if err := row.Scan(&c.ID, &c.UserID, &c.Text, &c.Name, &c.Avatar, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, err
	}
	return c, nil
}

func (s *Store) DeleteComment(ctx context.Context, postID, commentID string) error {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM comments WHERE id = $1 AND post_id = $2
`, commentID, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, text, COALESCE(name, ''), COALESCE(avatar, ''), created_at
FROM comments
WHERE post_id = $1
ORDER BY created_at DESC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Text, &c.Name, &c.Avatar, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	var stats model.SiteStats
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users); err != nil {
		return stats, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&stats.Posts); err != nil {
		return stats, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments`).Scan(&stats.Comments); err != nil {
		return stats, err
	}
	return stats, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
