package repository

import "taskvault-api/internal/domain/entity"

// TaskFilter narrows task listings. A zero-value field means "no filter".
// UserID scopes the listing to an owner; admins list with it empty.
type TaskFilter struct {
	UserID   string
	Status   string
	Priority string
	Search   string // matched against title and description
}

// TaskRepository persists the task resource.
type TaskRepository interface {
	Create(t *entity.Task) error
	GetByID(id string) (*entity.Task, error)
	List(f TaskFilter) ([]*entity.Task, error)
	Update(t *entity.Task) error
	Delete(id string) error
}
