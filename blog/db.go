// blog/db.go
package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is raised when a lookup targets an id that does not exist. The
// HTTP boundary translates it; nothing in this package maps it to a status
// code.
var ErrNotFound = errors.New("not found")

// Posts are self-contained rows: the author snapshot is denormalized into
// author_id/author_name (deliberately no foreign key, the snapshot outlives
// the user) and the comment sequence is a JSONB array. A user's post list is
// the user_posts table: references owned by the user, resolved by join, never
// consulted by any search predicate.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS posts (
    id UUID PRIMARY KEY,
    date TIMESTAMPTZ NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    author_id UUID NOT NULL,
    author_name TEXT NOT NULL,
    comments JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS user_posts (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, post_id)
);
CREATE INDEX IF NOT EXISTS idx_posts_on_date ON posts(date);
`

type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(ctx context.Context, connectionString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{pool: pool}, nil
}

func (d *Database) CreateTables(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, schema)
	return err
}

func (d *Database) Close() {
	d.pool.Close()
}

// --- User Functions ---

func (d *Database) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	query := `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`
	_, err := d.pool.Exec(ctx, query, user.ID, user.Name, user.Email)
	return err
}

func (d *Database) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	query := `SELECT id, name, email FROM users WHERE id = $1`
	err := d.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, name, email FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser changes name and email only; everything else about a user is
// immutable.
func (d *Database) UpdateUser(ctx context.Context, user *User) error {
	query := `UPDATE users SET name = $2, email = $3 WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, user.ID, user.Name, user.Email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user and its post references. The posts themselves
// are left alone: a deleted author's posts stay readable through their
// embedded snapshot.
func (d *Database) DeleteUser(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Post Functions ---

func (d *Database) CreatePost(ctx context.Context, post *Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.Comments == nil {
		post.Comments = make([]Comment, 0)
	}
	commentsJSON, err := json.Marshal(post.Comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}
	query := `INSERT INTO posts (id, date, title, body, author_id, author_name, comments)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = d.pool.Exec(ctx, query,
		post.ID, post.Date, post.Title, post.Body,
		post.Author.ID, post.Author.Name, commentsJSON)
	return err
}

func (d *Database) GetPost(ctx context.Context, id string) (*Post, error) {
	query := `SELECT id, date, title, body, author_id, author_name, comments FROM posts WHERE id = $1`
	post, err := scanPost(d.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// AddComment appends one comment to the post's embedded sequence. Comments
// are never updated or removed individually.
func (d *Database) AddComment(ctx context.Context, postID string, comment Comment) error {
	commentJSON, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}
	query := `UPDATE posts SET comments = comments || $2::jsonb WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, postID, commentJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return nil
}

// AddPostRef records a post in a user's reference list.
func (d *Database) AddPostRef(ctx context.Context, userID, postID string) error {
	query := `INSERT INTO user_posts (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := d.pool.Exec(ctx, query, userID, postID)
	return err
}

// PostsOf resolves a user's post references to full post documents. This is
// navigation, not search: it reads the reference table, never the snapshot
// columns. A user with no references gets an empty slice.
func (d *Database) PostsOf(ctx context.Context, userID string) ([]Post, error) {
	query := `SELECT p.id, p.date, p.title, p.body, p.author_id, p.author_name, p.comments
	          FROM posts p JOIN user_posts up ON up.post_id = p.id
	          WHERE up.user_id = $1
	          ORDER BY p.date, p.id`
	rows, err := d.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// FindPosts executes a predicate against the posts collection. Read-only; the
// date,id order keeps repeated identical searches returning identical
// sequences.
func (d *Database) FindPosts(ctx context.Context, p Predicate) ([]Post, error) {
	where, args := p.SQL()
	query := `SELECT id, date, title, body, author_id, author_name, comments FROM posts WHERE ` +
		where + ` ORDER BY date, id`
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var post Post
	var commentsJSON []byte
	err := row.Scan(&post.ID, &post.Date, &post.Title, &post.Body,
		&post.Author.ID, &post.Author.Name, &commentsJSON)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(commentsJSON, &post.Comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
	}
	return &post, nil
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}
