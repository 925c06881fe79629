// Package storage persists generated posts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for lookups of posts that do not exist.
var ErrNotFound = errors.New("post not found")

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL,
	video_url      TEXT NOT NULL,
	video_title    TEXT NOT NULL DEFAULT '',
	video_channel  TEXT NOT NULL DEFAULT '',
	video_duration TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
`

// Post is a persisted blog post with its source video metadata.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Content       string    `json:"content"`
	VideoURL      string    `json:"video_url"`
	VideoTitle    string    `json:"video_title"`
	VideoChannel  string    `json:"video_channel"`
	VideoDuration string    `json:"video_duration"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store wraps the posts database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path. ":memory:" opens an
// in-process database for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite misbehaves with concurrent writers on one connection
	// pool; a single connection sidesteps SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new post, assigning its ID and timestamps.
func (s *Store) Create(ctx context.Context, post *Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, description, content, video_url, video_title,
			video_channel, video_duration, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Description, post.Content, post.VideoURL,
		post.VideoTitle, post.VideoChannel, post.VideoDuration, post.Category,
		post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Get returns a post by ID.
func (s *Store) Get(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, content, video_url, video_title,
			video_channel, video_duration, category, created_at, updated_at
		FROM posts WHERE id = ?`, id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// List returns all posts, newest first.
func (s *Store) List(ctx context.Context) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, content, video_url, video_title,
			video_channel, video_duration, category, created_at, updated_at
		FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Update rewrites the editable fields of a post.
func (s *Store) Update(ctx context.Context, post *Post) error {
	post.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET title = ?, description = ?, content = ?, category = ?, updated_at = ?
		WHERE id = ?`,
		post.Title, post.Description, post.Content, post.Category, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*Post, error) {
	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Description, &post.Content,
		&post.VideoURL, &post.VideoTitle, &post.VideoChannel, &post.VideoDuration,
		&post.Category, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
