package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postfeed/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PostRepositoryImpl struct {
	DB *sqlx.DB
}

// postRow is a posts row joined with its creator. The creator columns are
// nullable because the join is a LEFT JOIN.
type postRow struct {
	models.Post
	CreatorName  sql.NullString `db:"creator_name"`
	CreatorEmail sql.NullString `db:"creator_email"`
}

func NewPostRepository(db *sqlx.DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{DB: db}
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *models.Post) error {
	query := `
        INSERT INTO posts
        (post_id, creator_id, title, content, image_url, created_at, updated_at)
        VALUES
        (:post_id, :creator_id, :title, :content, :image_url, :created_at, :updated_at)
    `

	if post.PostID == "" {
		post.PostID = uuid.New().String()
	}

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("ошибка при создании поста: %w", err)
	}

	return nil
}

func (r *PostRepositoryImpl) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `
        SELECT post_id, creator_id, title, content, image_url, created_at, updated_at
        FROM posts
        WHERE post_id = $1
    `

	var post models.Post
	err := r.DB.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("пост с ID %s: %w", postID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении поста: %w", err)
	}

	return &post, nil
}

// GetAll returns every post, newest first, with the creator resolved.
// No rows is an empty slice, not an error.
func (r *PostRepositoryImpl) GetAll(ctx context.Context) ([]models.Post, error) {
	query := `
        SELECT p.post_id, p.creator_id, p.title, p.content, p.image_url, p.created_at, p.updated_at,
               u.name AS creator_name, u.email AS creator_email
        FROM posts p
        LEFT JOIN users u ON u.user_id = p.creator_id
        ORDER BY p.created_at DESC
    `

	var rows []postRow
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("ошибка при получении постов: %w", err)
	}

	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		post := row.Post
		if row.CreatorName.Valid {
			post.Creator = &models.Creator{
				UserID: post.CreatorID,
				Name:   row.CreatorName.String,
				Email:  row.CreatorEmail.String,
			}
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// Update writes title, content and image. creator_id is never part of the
// SET list.
func (r *PostRepositoryImpl) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts SET
			title = :title,
			content = :content,
			image_url = :image_url,
			updated_at = :updated_at
		WHERE post_id = :post_id
	`

	post.UpdatedAt = time.Now().UTC()

	result, err := r.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении поста: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("пост с ID %s: %w", post.PostID, ErrNotFound)
	}

	return nil
}

func (r *PostRepositoryImpl) Delete(ctx context.Context, postID string) error {
	query := `DELETE FROM posts WHERE post_id = $1`

	result, err := r.DB.ExecContext(ctx, query, postID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении поста: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке удаленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("пост с ID %s: %w", postID, ErrNotFound)
	}

	return nil
}
