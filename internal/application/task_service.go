package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"taskvault-api/internal/domain/entity"
	"taskvault-api/internal/domain/repository"
)

// TaskService fronts the task resource. Ownership rule: non-admin callers
// only ever see and mutate their own tasks; admins bypass the predicate.
type TaskService struct {
	Tasks        repository.TaskRepository
	Users        repository.UserRepository
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESTasksIndex string
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, logger *logrus.Logger, es *elasticsearch.Client, esTasksIndex string) *TaskService {
	return &TaskService{Tasks: tasks, Users: users, Logger: logger, ES: es, ESTasksIndex: esTasksIndex}
}

// Identity is the caller as established by the access-token middleware.
type Identity struct {
	UserID string
	Role   string
}

func (id Identity) isAdmin() bool { return id.Role == entity.RoleAdmin }

type CreateTaskInput struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	UserID      string // optional; admins may create for other users
}

func (s *TaskService) Create(ctx context.Context, caller Identity, in CreateTaskInput) (*entity.Task, error) {
	owner := in.UserID
	if owner == "" {
		owner = caller.UserID
	}
	if owner != caller.UserID && !caller.isAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.Users.GetByID(owner); err != nil {
		return nil, ErrUserNotFound
	}

	t := &entity.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		UserID:      owner,
	}
	if t.Status == "" {
		t.Status = entity.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = entity.TaskPriorityMedium
	}
	if err := s.Tasks.Create(t); err != nil {
		return nil, err
	}
	s.indexTask(ctx, t)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, caller Identity, id string) (*entity.Task, error) {
	t, err := s.Tasks.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	// Hide other users' tasks from non-admins instead of confirming they exist.
	if t.UserID != caller.UserID && !caller.isAdmin() {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, caller Identity, f repository.TaskFilter) ([]*entity.Task, error) {
	if !caller.isAdmin() {
		f.UserID = caller.UserID
	}
	return s.Tasks.List(f)
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
}

func (s *TaskService) Update(ctx context.Context, caller Identity, id string, in UpdateTaskInput) (*entity.Task, error) {
	t, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if err := s.Tasks.Update(t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	s.indexTask(ctx, t)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, caller Identity, id string) error {
	t, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.Tasks.Delete(t.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	s.deleteTaskIndex(ctx, t.ID)
	return nil
}

// indexTask mirrors the task into Elasticsearch best-effort; search is a
// convenience on top of the authoritative Postgres rows.
func (s *TaskService) indexTask(ctx context.Context, t *entity.Task) {
	if s.ES == nil || s.ESTasksIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         t.ID,
		"title":      t.Title,
		"status":     t.Status,
		"priority":   t.Priority,
		"user_id":    t.UserID,
		"created_at": t.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": t.UpdatedAt.Format(time.RFC3339Nano),
	}
	if t.Description != nil {
		doc["description"] = *t.Description
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESTasksIndex, DocumentID: t.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("task_id", t.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("task_id", t.ID).Warn("es index response error")
	}
}

func (s *TaskService) deleteTaskIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESTasksIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESTasksIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("task_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match query over title and description, scoped to
// the caller unless they are an admin.
func (s *TaskService) Search(ctx context.Context, caller Identity, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESTasksIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	must := []map[string]any{
		{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "description"},
			},
		},
	}
	if !caller.isAdmin() {
		must = append(must, map[string]any{
			"term": map[string]any{"user_id": caller.UserID},
		})
	}
	query := map[string]any{
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"size":  size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESTasksIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
