package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Service implements the board domain: startup/board/column/task lifecycle
// and the dashboard read side. Each multi-step mutation is a sequence of
// independent store calls; children are removed before parent references so
// a partial failure never leaves a task pointing at a deleted column.
type Service struct {
	store  Store
	cache  ViewCache
	events EventPublisher
}

// NewService creates a Service. cache and events may be nil, which disables
// view caching and change events respectively.
func NewService(store Store, cache ViewCache, events EventPublisher) *Service {
	if store == nil {
		panic("domain.NewService: store is nil")
	}
	return &Service{store: store, cache: cache, events: events}
}

// CreateStartup registers a tenant and its board. The startup name must be
// unique. If board creation fails after the startup persisted, the orphan
// startup is kept and the failure is surfaced.
func (s *Service) CreateStartup(ctx context.Context, name, description string) (*Startup, error) {
	if name == "" {
		return nil, NewValidationError("startup name is required")
	}
	existing, err := s.store.FindStartupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewValidationError("startup name %q is already taken", name)
	}

	startup := Startup{ID: uuid.NewString(), Name: name, Description: description}
	if err := s.store.InsertStartup(ctx, startup); err != nil {
		return nil, err
	}
	board := Board{ID: uuid.NewString(), StartupID: startup.ID, Columns: []string{}}
	if err := s.store.InsertBoard(ctx, board); err != nil {
		log.WithError(err).WithField("startup", startup.ID).Error("board creation failed, startup left without board")
		return nil, err
	}
	s.publish(ctx, EntityStartup, startup.ID, EventCreated)
	s.publish(ctx, EntityBoard, board.ID, EventCreated)
	return &startup, nil
}

// ListStartups returns all tenants in storage order.
func (s *Service) ListStartups(ctx context.Context) ([]Startup, error) {
	return s.store.ListStartups(ctx)
}

// BoardByStartup returns the startup's board with columns and tasks fully
// expanded, preserving both sequence orders. Ids in a sequence whose entity
// is gone are skipped rather than failing the read.
func (s *Service) BoardByStartup(ctx context.Context, startupID string) (*BoardView, error) {
	if s.cache != nil {
		if view, ok := s.cache.LoadBoardView(ctx, startupID); ok {
			return view, nil
		}
	}

	board, err := s.store.FindBoardByStartup(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, NewNotFoundError("no board found for this startup")
	}

	view, err := s.expandBoard(ctx, *board)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.StoreBoardView(ctx, startupID, *view)
	}
	return view, nil
}

func (s *Service) expandBoard(ctx context.Context, board Board) (*BoardView, error) {
	columns, err := s.store.ListColumnsByBoard(ctx, board.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Column, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}

	tasks, err := s.store.ListTasksByColumns(ctx, board.Columns)
	if err != nil {
		return nil, err
	}
	taskByID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		taskByID[t.ID] = t
	}

	view := &BoardView{ID: board.ID, StartupID: board.StartupID, Name: board.Name, Columns: []ColumnView{}}
	for _, colID := range board.Columns {
		col, ok := byID[colID]
		if !ok {
			log.WithFields(log.Fields{"board": board.ID, "column": colID}).Warn("board references missing column")
			continue
		}
		cv := ColumnView{ID: col.ID, Name: col.Name, BoardID: col.BoardID, Tasks: []Task{}}
		for _, taskID := range col.Tasks {
			if t, ok := taskByID[taskID]; ok {
				cv.Tasks = append(cv.Tasks, t)
			}
		}
		view.Columns = append(view.Columns, cv)
	}
	return view, nil
}

// CreateBoard is the generic board surface: it creates a named board that is
// not attached to any startup.
func (s *Service) CreateBoard(ctx context.Context, name string) (*Board, error) {
	if name == "" {
		return nil, NewValidationError("board name is required")
	}
	board := Board{ID: uuid.NewString(), Name: name, Columns: []string{}}
	if err := s.store.InsertBoard(ctx, board); err != nil {
		return nil, err
	}
	s.publish(ctx, EntityBoard, board.ID, EventCreated)
	return &board, nil
}

// ListBoards returns every board with a one-level column expansion.
func (s *Service) ListBoards(ctx context.Context) ([]BoardSummary, error) {
	boards, err := s.store.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]BoardSummary, 0, len(boards))
	for _, b := range boards {
		columns, err := s.store.ListColumnsByBoard(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]Column, len(columns))
		for _, c := range columns {
			byID[c.ID] = c
		}
		sum := BoardSummary{ID: b.ID, StartupID: b.StartupID, Name: b.Name, Columns: []Column{}}
		for _, colID := range b.Columns {
			if c, ok := byID[colID]; ok {
				sum.Columns = append(sum.Columns, c)
			}
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// UpdateBoard renames a board.
func (s *Service) UpdateBoard(ctx context.Context, id, name string) (*Board, error) {
	if name == "" {
		return nil, NewValidationError("board name is required")
	}
	board, err := s.store.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, NewNotFoundError("board not found")
	}
	if err := s.store.UpdateBoard(ctx, id, BoardUpdate{Name: &name}); err != nil {
		return nil, err
	}
	board.Name = name
	s.invalidateBoard(ctx, board)
	s.publish(ctx, EntityBoard, id, EventUpdated)
	return board, nil
}

// DeleteBoard removes a board, all its columns and all their tasks.
// Children go first so a partial failure cannot orphan a task.
func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	board, err := s.store.GetBoard(ctx, id)
	if err != nil {
		return err
	}
	if board == nil {
		return NewNotFoundError("board not found")
	}
	columns, err := s.store.ListColumnsByBoard(ctx, id)
	if err != nil {
		return err
	}
	columnIDs := make([]string, 0, len(columns))
	for _, c := range columns {
		columnIDs = append(columnIDs, c.ID)
	}
	tasks, err := s.store.ListTasksByColumns(ctx, columnIDs)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.store.DeleteTask(ctx, t.ID); err != nil {
			return err
		}
	}
	for _, c := range columns {
		if err := s.store.DeleteColumn(ctx, c.ID); err != nil {
			return err
		}
	}
	if err := s.store.DeleteBoard(ctx, id); err != nil {
		return err
	}
	s.invalidateBoard(ctx, board)
	s.publish(ctx, EntityBoard, id, EventDeleted)
	return nil
}

// CreateColumn creates a column on an existing board and appends its id to
// the board's column sequence.
func (s *Service) CreateColumn(ctx context.Context, name, boardID string) (*Column, error) {
	if name == "" {
		return nil, NewValidationError("column name is required")
	}
	if boardID == "" {
		return nil, NewValidationError("boardId is required")
	}
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, NewNotFoundError("board not found")
	}

	column := Column{ID: uuid.NewString(), Name: name, BoardID: boardID, Tasks: []string{}}
	if err := s.store.InsertColumn(ctx, column); err != nil {
		return nil, err
	}
	columns := append(board.Columns, column.ID)
	if err := s.store.UpdateBoard(ctx, boardID, BoardUpdate{Columns: &columns}); err != nil {
		return nil, err
	}
	s.invalidateBoard(ctx, board)
	s.publish(ctx, EntityColumn, column.ID, EventCreated)
	return &column, nil
}

// UpdateColumn renames a column in place.
func (s *Service) UpdateColumn(ctx context.Context, id, name string) (*Column, error) {
	if name == "" {
		return nil, NewValidationError("column name is required")
	}
	column, err := s.store.GetColumn(ctx, id)
	if err != nil {
		return nil, err
	}
	if column == nil {
		return nil, NewNotFoundError("column not found")
	}
	if err := s.store.UpdateColumn(ctx, id, ColumnUpdate{Name: &name}); err != nil {
		return nil, err
	}
	column.Name = name
	s.invalidateColumn(ctx, column)
	s.publish(ctx, EntityColumn, id, EventUpdated)
	return column, nil
}

// DeleteColumn removes a column, its tasks, and the board's reference to it.
// Tasks go first, then the board detach, then the column itself.
func (s *Service) DeleteColumn(ctx context.Context, id string) error {
	column, err := s.store.GetColumn(ctx, id)
	if err != nil {
		return err
	}
	if column == nil {
		return NewNotFoundError("column not found")
	}

	tasks, err := s.store.ListTasksByColumns(ctx, []string{id})
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.store.DeleteTask(ctx, t.ID); err != nil {
			return err
		}
	}

	board, err := s.store.GetBoard(ctx, column.BoardID)
	if err != nil {
		return err
	}
	if board != nil {
		columns := removeID(board.Columns, id)
		if err := s.store.UpdateBoard(ctx, board.ID, BoardUpdate{Columns: &columns}); err != nil {
			return err
		}
	}

	if err := s.store.DeleteColumn(ctx, id); err != nil {
		return err
	}
	s.invalidateBoard(ctx, board)
	s.publish(ctx, EntityColumn, id, EventDeleted)
	return nil
}

// ListColumnsByBoard returns the columns referencing the board, in storage
// order rather than the board's own sequence order.
func (s *Service) ListColumnsByBoard(ctx context.Context, boardID string) ([]Column, error) {
	return s.store.ListColumnsByBoard(ctx, boardID)
}

// CreateTask creates a task on an existing column and appends its id to the
// column's task sequence. Status defaults when not supplied.
func (s *Service) CreateTask(ctx context.Context, task Task) (*Task, error) {
	if err := validateTask(task); err != nil {
		return nil, err
	}
	column, err := s.store.GetColumn(ctx, task.ColumnID)
	if err != nil {
		return nil, err
	}
	if column == nil {
		return nil, NewNotFoundError("column not found")
	}

	task.ID = uuid.NewString()
	if task.Status == "" {
		task.Status = DefaultTaskStatus
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, err
	}
	tasks := append(column.Tasks, task.ID)
	if err := s.store.UpdateColumn(ctx, column.ID, ColumnUpdate{Tasks: &tasks}); err != nil {
		return nil, err
	}
	s.invalidateColumn(ctx, column)
	s.publish(ctx, EntityTask, task.ID, EventCreated)
	return &task, nil
}

func validateTask(t Task) error {
	required := []struct{ name, value string }{
		{"title", t.Title},
		{"type", t.Type},
		{"priority", t.Priority},
		{"startDate", t.StartDate},
		{"dueDate", t.DueDate},
		{"responsible", t.Responsible},
		{"columnId", t.ColumnID},
	}
	for _, f := range required {
		if f.value == "" {
			return NewValidationError("%s is required", f.name)
		}
	}
	return nil
}

// UpdateTask merges the supplied fields into an existing task. It never
// relocates the task between columns; MoveTask is the only re-homing path.
func (s *Service) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	if upd.Empty() {
		return nil, NewValidationError("update has no fields")
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, NewNotFoundError("task not found")
	}
	if err := s.store.UpdateTask(ctx, id, upd); err != nil {
		return nil, err
	}
	applyTaskUpdate(task, upd)
	s.invalidateTask(ctx, task)
	s.publish(ctx, EntityTask, id, EventUpdated)
	return task, nil
}

func applyTaskUpdate(t *Task, upd TaskUpdate) {
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Type != nil {
		t.Type = *upd.Type
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.StartDate != nil {
		t.StartDate = *upd.StartDate
	}
	if upd.DueDate != nil {
		t.DueDate = *upd.DueDate
	}
	if upd.Responsible != nil {
		t.Responsible = *upd.Responsible
	}
	if upd.Observations != nil {
		t.Observations = *upd.Observations
	}
	if upd.Link != nil {
		t.Link = *upd.Link
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
}

// DeleteTask removes a task and its id from the owning column's sequence.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return NewNotFoundError("task not found")
	}
	column, err := s.store.GetColumn(ctx, task.ColumnID)
	if err != nil {
		return err
	}
	if column != nil {
		tasks := removeID(column.Tasks, id)
		if err := s.store.UpdateColumn(ctx, column.ID, ColumnUpdate{Tasks: &tasks}); err != nil {
			return err
		}
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.invalidateColumn(ctx, column)
	s.publish(ctx, EntityTask, id, EventDeleted)
	return nil
}

// MoveTask relocates a task to another column: it leaves the source task
// sequence, is appended to the target sequence, and its columnId is updated.
// A move onto the task's current column re-appends it at the end.
func (s *Service) MoveTask(ctx context.Context, taskID, newColumnID string) (*Task, error) {
	if newColumnID == "" {
		return nil, NewValidationError("newColumnId is required")
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, NewNotFoundError("task not found")
	}
	target, err := s.store.GetColumn(ctx, newColumnID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, NewValidationError("target column not found")
	}

	if task.ColumnID == newColumnID {
		tasks := append(removeID(target.Tasks, taskID), taskID)
		if err := s.store.UpdateColumn(ctx, target.ID, ColumnUpdate{Tasks: &tasks}); err != nil {
			return nil, err
		}
	} else {
		source, err := s.store.GetColumn(ctx, task.ColumnID)
		if err != nil {
			return nil, err
		}
		if source != nil {
			tasks := removeID(source.Tasks, taskID)
			if err := s.store.UpdateColumn(ctx, source.ID, ColumnUpdate{Tasks: &tasks}); err != nil {
				return nil, err
			}
		}
		tasks := append(target.Tasks, taskID)
		if err := s.store.UpdateColumn(ctx, target.ID, ColumnUpdate{Tasks: &tasks}); err != nil {
			return nil, err
		}
		if err := s.store.SetTaskColumn(ctx, taskID, newColumnID); err != nil {
			return nil, err
		}
	}

	task.ColumnID = newColumnID
	s.invalidateColumn(ctx, target)
	s.publish(ctx, EntityTask, taskID, EventMoved)
	return task, nil
}

// ListTasksByColumn returns all tasks referencing the column.
func (s *Service) ListTasksByColumn(ctx context.Context, columnID string) ([]Task, error) {
	return s.store.ListTasksByColumns(ctx, []string{columnID})
}

// TasksByStartup resolves the startup's board and returns every task held by
// that board's columns, as a flat list for client-side grouping.
func (s *Service) TasksByStartup(ctx context.Context, startupID string) ([]Task, error) {
	if s.cache != nil {
		if tasks, ok := s.cache.LoadStartupTasks(ctx, startupID); ok {
			return tasks, nil
		}
	}
	board, err := s.store.FindBoardByStartup(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, NewNotFoundError("no board found for this startup")
	}
	tasks, err := s.store.ListTasksByColumns(ctx, board.Columns)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.StoreStartupTasks(ctx, startupID, tasks)
	}
	return tasks, nil
}

func (s *Service) invalidateBoard(ctx context.Context, board *Board) {
	if s.cache == nil || board == nil || board.StartupID == "" {
		return
	}
	s.cache.Invalidate(ctx, board.StartupID)
}

func (s *Service) invalidateColumn(ctx context.Context, column *Column) {
	if s.cache == nil || column == nil {
		return
	}
	board, err := s.store.GetBoard(ctx, column.BoardID)
	if err != nil {
		log.WithError(err).WithField("column", column.ID).Warn("cache invalidation lookup failed")
		return
	}
	s.invalidateBoard(ctx, board)
}

func (s *Service) invalidateTask(ctx context.Context, task *Task) {
	if s.cache == nil || task == nil {
		return
	}
	column, err := s.store.GetColumn(ctx, task.ColumnID)
	if err != nil {
		log.WithError(err).WithField("task", task.ID).Warn("cache invalidation lookup failed")
		return
	}
	s.invalidateColumn(ctx, column)
}

func (s *Service) publish(ctx context.Context, entityType, entityID, op string) {
	if s.events == nil {
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Type:       op,
		Time:       time.Now().UnixMilli(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.WithError(err).WithFields(log.Fields{"entity": entityID, "type": op}).Warn("failed to publish board event")
	}
}

func removeID(seq []string, id string) []string {
	out := make([]string, 0, len(seq))
	for _, v := range seq {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
