package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/model"
	"github.com/pulsefeed/pulsefeed/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	avatar TEXT,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT,
	avatar TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS likes (
	post_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_unique ON likes(post_id, user_id);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT,
	avatar TEXT,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name, email, password_hash, avatar, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, user.ID, user.Name, user.Email, user.PasswordHash, nullIfEmpty(user.Avatar), user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, avatar, created_at
FROM users
WHERE id = ?
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, avatar, created_at
FROM users
WHERE email = ?
`, email)
	return scanUser(row)
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, user_id, text, name, avatar, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, post.ID, post.UserID, post.Text, nullIfEmpty(post.Name), nullIfEmpty(post.Avatar), post.CreatedAt.Unix())
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, text, name, avatar, created_at
FROM posts
WHERE id = ?
LIMIT 1
`, id)
	post, err := scanPost(row)
	if err != nil {
		return model.Post{}, err
	}
	if post.Likes, err = s.ListLikes(ctx, id); err != nil {
		return model.Post{}, err
	}
	if post.Comments, err = s.ListComments(ctx, id); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, text, name, avatar, created_at
FROM posts
ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	likes, err := s.likesByPost(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentsByPost(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Likes = likes[posts[i].ID]
		posts[i].Comments = comments[posts[i].ID]
	}
	return posts, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddLike is a single guarded insert: the unique index on
// (post_id, user_id) rejects a second like atomically, so two
// concurrent likes by the same user cannot both land.
func (s *Store) AddLike(ctx context.Context, postID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO likes (post_id, user_id, created_at)
VALUES (?, ?, ?)
`, postID, userID, time.Now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyLiked
		}
		return err
	}
	return nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM likes WHERE post_id = ? AND user_id = ?
`, postID, userID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotLiked
	}
	return nil
}

func (s *Store) ListLikes(ctx context.Context, postID string) ([]model.Like, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id
FROM likes
WHERE post_id = ?
ORDER BY created_at DESC, rowid DESC
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
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, post_id, user_id, text, name, avatar, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, comment.ID, postID, comment.UserID, comment.Text, nullIfEmpty(comment.Name), nullIfEmpty(comment.Avatar), comment.CreatedAt.Unix())
	return err
}

func (s *Store) GetComment(ctx context.Context, postID, commentID string) (model.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, text, name, avatar, created_at
FROM comments
WHERE id = ? AND post_id = ?
LIMIT 1
`, commentID, postID)
	return scanComment(row)
}

func (s *Store) DeleteComment(ctx context.Context, postID, commentID string) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM comments WHERE id = ? AND post_id = ?
`, commentID, postID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, text, name, avatar, created_at
FROM comments
WHERE post_id = ?
ORDER BY created_at DESC, rowid DESC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	var stats model.SiteStats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	if err := row.Scan(&stats.Users); err != nil {
		return stats, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`)
	if err := row.Scan(&stats.Posts); err != nil {
		return stats, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`)
	if err := row.Scan(&stats.Comments); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *Store) likesByPost(ctx context.Context) (map[string][]model.Like, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT post_id, user_id
FROM likes
ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPost := make(map[string][]model.Like)
	for rows.Next() {
		var postID string
		var l model.Like
		if err := rows.Scan(&postID, &l.UserID); err != nil {
			return nil, err
		}
		byPost[postID] = append(byPost[postID], l)
	}
	return byPost, rows.Err()
}

func (s *Store) commentsByPost(ctx context.Context) (map[string][]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT post_id, id, user_id, text, name, avatar, created_at
FROM comments
ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPost := make(map[string][]model.Comment)
	for rows.Next() {
		var postID string
		var c model.Comment
		var name, avatar sql.NullString
		var created int64
		if err := rows.Scan(&postID, &c.ID, &c.UserID, &c.Text, &name, &avatar, &created); err != nil {
			return nil, err
		}
		c.Name = name.String
		c.Avatar = avatar.String
		c.CreatedAt = time.Unix(created, 0)
		byPost[postID] = append(byPost[postID], c)
	}
	return byPost, rows.Err()
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	var avatar sql.NullString
	var created int64
	if err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &avatar, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	if avatar.Valid {
		u.Avatar = avatar.String
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	var name, avatar sql.NullString
	var created int64
	if err := scanner.Scan(&p.ID, &p.UserID, &p.Text, &name, &avatar, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	if name.Valid {
		p.Name = name.String
	}
	if avatar.Valid {
		p.Avatar = avatar.String
	}
	p.CreatedAt = time.Unix(created, 0)
	return p, nil
}

func scanComment(scanner interface{ Scan(dest ...any) error }) (model.Comment, error) {
	var c model.Comment
	var name, avatar sql.NullString
	var created int64
	if err := scanner.Scan(&c.ID, &c.UserID, &c.Text, &name, &avatar, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, err
	}
	if name.Valid {
		c.Name = name.String
	}
	if avatar.Valid {
		c.Avatar = avatar.String
	}
	c.CreatedAt = time.Unix(created, 0)
	return c, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
