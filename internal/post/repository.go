// AngelaMos | 2026
// repository.go

package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/blog-api/internal/core"
)

type Repository interface {
	NewID() string
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

const postColumns = `id, title, content, author_id, tags, image_key,
	created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) NewID() string {
	return uuid.New().String()
}

func (r *repository) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (id, title, content, author_id, tags, image_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.Tags,
		post.ImageKey,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Post, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var post Post
	err := r.db.GetContext(ctx, &post, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

func (r *repository) List(ctx context.Context) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`

	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

func (r *repository) ListByAuthor(
	ctx context.Context,
	authorID string,
) ([]Post, error) {
	if !validID(authorID) {
		return []Post{}, nil
	}

	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC`

	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, query, authorID); err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}

	return posts, nil
}

func (r *repository) Update(ctx context.Context, post *Post) error {
	if !validID(post.ID) {
		return fmt.Errorf("update post: %w", core.ErrNotFound)
	}

	query := `
		UPDATE posts
		SET title = $2, content = $3, tags = $4, image_key = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &post.UpdatedAt, query,
		post.ID,
		post.Title,
		post.Content,
		post.Tags,
		post.ImageKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update post: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
