package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(t *entity.Task) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority, due_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.UserID)

	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepository) GetByID(id string) (*entity.Task, error) {
	t := &entity.Task{}
	row := r.pool.QueryRow(context.Background(), `
		SELECT id, title, description, status, priority, due_date, user_id, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, id)

	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) List(f repository.TaskFilter) ([]*entity.Task, error) {
	sql := `
		SELECT id, title, description, status, priority, due_date, user_id, created_at, updated_at
		FROM tasks
		WHERE 1=1`
	args := []any{}

	add := func(clause string, v any) {
		args = append(args, v)
		sql += " AND " + clause + "$" + strconv.Itoa(len(args))
	}
	if f.UserID != "" {
		add("user_id = ", f.UserID)
	}
	if f.Status != "" {
		add("status = ", f.Status)
	}
	if f.Priority != "" {
		add("priority = ", f.Priority)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		sql += " AND (title ILIKE $" + n + " OR description ILIKE $" + n + ")"
	}
	sql += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		t := &entity.Task{}
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.DueDate, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(t *entity.Task) error {
	t.UpdatedAt = time.Now()
	res, err := r.pool.Exec(context.Background(), `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = $6
		WHERE id = $7
	`, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(id string) error {
	res, err := r.pool.Exec(context.Background(), `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
