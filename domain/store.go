package domain

import "context"

// Store is the document persistence capability the service is built on:
// collection-scoped create/get/find/update/delete, with reference-field
// lookups. Get and find methods return (nil, nil) when nothing matches;
// update and delete methods return a NotFoundError for unknown ids.
type Store interface {
	InsertStartup(ctx context.Context, s Startup) error
	ListStartups(ctx context.Context) ([]Startup, error)
	FindStartupByName(ctx context.Context, name string) (*Startup, error)

	InsertBoard(ctx context.Context, b Board) error
	GetBoard(ctx context.Context, id string) (*Board, error)
	FindBoardByStartup(ctx context.Context, startupID string) (*Board, error)
	ListBoards(ctx context.Context) ([]Board, error)
	UpdateBoard(ctx context.Context, id string, upd BoardUpdate) error
	DeleteBoard(ctx context.Context, id string) error

	InsertColumn(ctx context.Context, c Column) error
	GetColumn(ctx context.Context, id string) (*Column, error)
	ListColumnsByBoard(ctx context.Context, boardID string) ([]Column, error)
	UpdateColumn(ctx context.Context, id string, upd ColumnUpdate) error
	DeleteColumn(ctx context.Context, id string) error

	InsertTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasksByColumns(ctx context.Context, columnIDs []string) ([]Task, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) error
	SetTaskColumn(ctx context.Context, id, columnID string) error
	DeleteTask(ctx context.Context, id string) error
}

// ViewCache caches the two read-side fan-outs keyed by startup id. All
// methods must tolerate a missing or failing cache backend; Load methods
// report a miss instead of an error.
type ViewCache interface {
	LoadBoardView(ctx context.Context, startupID string) (*BoardView, bool)
	StoreBoardView(ctx context.Context, startupID string, view BoardView)
	LoadStartupTasks(ctx context.Context, startupID string) ([]Task, bool)
	StoreStartupTasks(ctx context.Context, startupID string, tasks []Task)
	Invalidate(ctx context.Context, startupID string)
}
