package api

import (
	"context"

	"github.com/Darksider96/Kanban-Dashboard/domain"
)

// Service abstracts the board domain for handlers.
type Service interface {
	CreateStartup(ctx context.Context, name, description string) (*domain.Startup, error)
	ListStartups(ctx context.Context) ([]domain.Startup, error)
	BoardByStartup(ctx context.Context, startupID string) (*domain.BoardView, error)
	CreateColumn(ctx context.Context, name, boardID string) (*domain.Column, error)
	UpdateColumn(ctx context.Context, id, name string) (*domain.Column, error)
	DeleteColumn(ctx context.Context, id string) error
	CreateTask(ctx context.Context, task domain.Task) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	MoveTask(ctx context.Context, taskID, newColumnID string) (*domain.Task, error)
	TasksByStartup(ctx context.Context, startupID string) ([]domain.Task, error)
}

type createStartupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createColumnRequest struct {
	Name    string `json:"name"`
	BoardID string `json:"boardId"`
}

type updateColumnRequest struct {
	Name string `json:"name"`
}

type createTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Priority     string `json:"priority"`
	StartDate    string `json:"startDate"`
	DueDate      string `json:"dueDate"`
	Responsible  string `json:"responsible"`
	Observations string `json:"observations"`
	Link         string `json:"link"`
	Status       string `json:"status"`
	ColumnID     string `json:"columnId"`
}

// updateTaskRequest carries a partial task update. ColumnID is accepted by
// the decoder only so it can be rejected with a pointed message; re-homing
// goes through the move endpoint.
type updateTaskRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Type         *string `json:"type"`
	Priority     *string `json:"priority"`
	StartDate    *string `json:"startDate"`
	DueDate      *string `json:"dueDate"`
	Responsible  *string `json:"responsible"`
	Observations *string `json:"observations"`
	Link         *string `json:"link"`
	Status       *string `json:"status"`
	ColumnID     *string `json:"columnId"`
}

type moveTaskRequest struct {
	NewColumnID string `json:"newColumnId"`
}

// messageResponse is the body of every error and confirmation response.
type messageResponse struct {
	Message string `json:"message"`
}
