package refundrepo

import (
	"context"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"go.uber.org/zap"
)

const taskColumns = "id, booking_id, user_id, amount, reference, status, attempts, last_error, created_at, updated_at"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Enqueue(ctx context.Context, task *domain.RefundTask) (*domain.RefundTask, error) {
	query := `
		INSERT INTO refund_tasks (booking_id, user_id, amount, reference, status, last_error)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING id, status, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, task.BookingID, task.UserID, task.Amount, task.Reference, task.LastError).
		Scan(&task.ID, &task.Status, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		zap.L().Error("can't enqueue refund task", zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (r *Repository) FindPending(ctx context.Context, limit uint32) ([]domain.RefundTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM refund_tasks
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, int(limit))
	if err != nil {
		zap.L().Error("can't get pending refund tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.RefundTask
	for rows.Next() {
		var t domain.RefundTask
		err := rows.Scan(&t.ID, &t.BookingID, &t.UserID, &t.Amount, &t.Reference, &t.Status, &t.Attempts, &t.LastError, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			zap.L().Error("can't scan refund task row", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *Repository) MarkDone(ctx context.Context, id int) error {
	query := `
		UPDATE refund_tasks
		SET status = 'done', attempts = attempts + 1, last_error = '', updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		zap.L().Error("can't mark refund task done", zap.Error(err))
		return err
	}
	return nil
}

// RecordFailure counts an attempt and moves the task to failed once
// maxAttempts is reached. It returns the resulting status.
func (r *Repository) RecordFailure(ctx context.Context, id int, reason string, maxAttempts int) (string, error) {
	query := `
		UPDATE refund_tasks
		SET attempts = attempts + 1,
			last_error = $2,
			status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING status
	`
	var status string
	if err := r.db.QueryRow(ctx, query, id, reason, maxAttempts).Scan(&status); err != nil {
		zap.L().Error("can't record refund task failure", zap.Error(err))
		return "", err
	}
	return status, nil
}
