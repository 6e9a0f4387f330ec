package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/davicafu/hrlab/internal/task/domain"
)

type CommentRepoSQLite struct {
	db *sql.DB
}

var _ domain.TaskCommentRepository = (*CommentRepoSQLite)(nil)

func NewCommentRepoSQLite(db *sql.DB) *CommentRepoSQLite {
	return &CommentRepoSQLite{db: db}
}

func (r *CommentRepoSQLite) Create(ctx context.Context, c *domain.TaskComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_comments (id, task_id, author_id, comment, comment_type, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		c.ID.String(), c.TaskID.String(), c.AuthorID.String(), c.Comment, string(c.Type), c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CommentRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskComment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, task_id, author_id, comment, comment_type, created_at, updated_at
		 FROM task_comments WHERE id = ?`, id.String())

	c, err := scanComment(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CommentRepoSQLite) Update(ctx context.Context, c *domain.TaskComment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE task_comments SET comment=?, updated_at=? WHERE id=?`,
		c.Comment, c.UpdatedAt, c.ID.String(),
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_comments WHERE id=?`, id.String())
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepoSQLite) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, author_id, comment, comment_type, created_at, updated_at
		 FROM task_comments
		 WHERE task_id = ?
		 ORDER BY created_at`, taskID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*domain.TaskComment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func scanComment(scan func(dest ...interface{}) error) (*domain.TaskComment, error) {
	var c domain.TaskComment
	var idStr, taskStr, authorStr, commentType string

	if err := scan(&idStr, &taskStr, &authorStr, &c.Comment, &commentType, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if c.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if c.TaskID, err = uuid.Parse(taskStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if c.AuthorID, err = uuid.Parse(authorStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	c.Type = domain.CommentType(commentType)

	return &c, nil
}
