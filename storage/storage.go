package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/Darksider96/Kanban-Dashboard/domain"
)

// Each entity kind lives in its own table under a fixed partition key, with
// the entity id as RowKey. By-id operations are point reads; reference-field
// lookups go through OData filters. Ordered id sequences are stored as JSON
// array strings so their order survives round trips.
const (
	startupPartition = "startup"
	boardPartition   = "board"
	columnPartition  = "column"
	taskPartition    = "task"
)

// Storage provides access to the four entity tables.
type Storage struct {
	startupTable *aztables.Client
	boardTable   *aztables.Client
	columnTable  *aztables.Client
	taskTable    *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, startupsTable, boardsTable, columnsTable, tasksTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		startupTable: svc.NewClient(startupsTable),
		boardTable:   svc.NewClient(boardsTable),
		columnTable:  svc.NewClient(columnsTable),
		taskTable:    svc.NewClient(tasksTable),
	}, nil
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type startupEntity struct {
	entityKeys
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

type boardEntity struct {
	entityKeys
	StartupID string `json:"StartupId,omitempty"`
	Name      string `json:"Name,omitempty"`
	Columns   string `json:"Columns"`
}

type boardEntityUpdate struct {
	entityKeys
	Name    *string `json:"Name,omitempty"`
	Columns *string `json:"Columns,omitempty"`
}

type columnEntity struct {
	entityKeys
	Name    string `json:"Name"`
	BoardID string `json:"BoardId"`
	Tasks   string `json:"Tasks"`
}

type columnEntityUpdate struct {
	entityKeys
	Name  *string `json:"Name,omitempty"`
	Tasks *string `json:"Tasks,omitempty"`
}

type taskEntity struct {
	entityKeys
	Title        string `json:"Title"`
	Description  string `json:"Description,omitempty"`
	Type         string `json:"Type"`
	Priority     string `json:"Priority"`
	StartDate    string `json:"StartDate"`
	DueDate      string `json:"DueDate"`
	Responsible  string `json:"Responsible"`
	Observations string `json:"Observations,omitempty"`
	Link         string `json:"Link,omitempty"`
	Status       string `json:"Status"`
	ColumnID     string `json:"ColumnId"`
}

type taskEntityUpdate struct {
	entityKeys
	Title        *string `json:"Title,omitempty"`
	Description  *string `json:"Description,omitempty"`
	Type         *string `json:"Type,omitempty"`
	Priority     *string `json:"Priority,omitempty"`
	StartDate    *string `json:"StartDate,omitempty"`
	DueDate      *string `json:"DueDate,omitempty"`
	Responsible  *string `json:"Responsible,omitempty"`
	Observations *string `json:"Observations,omitempty"`
	Link         *string `json:"Link,omitempty"`
	Status       *string `json:"Status,omitempty"`
	ColumnID     *string `json:"ColumnId,omitempty"`
}

// InsertStartup persists a new startup.
func (s *Storage) InsertStartup(ctx context.Context, st domain.Startup) error {
	ent := startupEntity{
		entityKeys:  entityKeys{PartitionKey: startupPartition, RowKey: st.ID},
		Name:        st.Name,
		Description: st.Description,
	}
	return s.add(ctx, s.startupTable, "insert startup", ent)
}

// ListStartups retrieves all startups.
func (s *Storage) ListStartups(ctx context.Context) ([]domain.Startup, error) {
	filter := "PartitionKey eq '" + startupPartition + "'"
	pager := s.startupTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	startups := []domain.Startup{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.PersistenceError{Op: "list startups", Err: err}
		}
		for _, raw := range resp.Entities {
			var ent startupEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, domain.PersistenceError{Op: "decode startup", Err: err}
			}
			startups = append(startups, decodeStartup(ent))
		}
	}
	return startups, nil
}

// FindStartupByName returns the startup with the given name, or nil.
func (s *Storage) FindStartupByName(ctx context.Context, name string) (*domain.Startup, error) {
	filter := "PartitionKey eq '" + startupPartition + "' and Name eq '" + escapeFilterValue(name) + "'"
	pager := s.startupTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.PersistenceError{Op: "find startup by name", Err: err}
		}
		for _, raw := range resp.Entities {
			var ent startupEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, domain.PersistenceError{Op: "decode startup", Err: err}
			}
			st := decodeStartup(ent)
			return &st, nil
		}
	}
	return nil, nil
}

// InsertBoard persists a new board.
func (s *Storage) InsertBoard(ctx context.Context, b domain.Board) error {
	ent := boardEntity{
		entityKeys: entityKeys{PartitionKey: boardPartition, RowKey: b.ID},
		StartupID:  b.StartupID,
		Name:       b.Name,
		Columns:    encodeIDs(b.Columns),
	}
	return s.add(ctx, s.boardTable, "insert board", ent)
}

// GetBoard retrieves a board by id, or nil when absent.
func (s *Storage) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	raw, err := s.boardTable.GetEntity(ctx, boardPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, domain.PersistenceError{Op: "get board", Err: err}
	}
	var ent boardEntity
	if err := json.Unmarshal(raw.Value, &ent); err != nil {
		return nil, domain.PersistenceError{Op: "decode board", Err: err}
	}
	b, err := decodeBoard(ent)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindBoardByStartup returns the board owned by the startup, or nil.
func (s *Storage) FindBoardByStartup(ctx context.Context, startupID string) (*domain.Board, error) {
	filter := "PartitionKey eq '" + boardPartition + "' and StartupId eq '" + escapeFilterValue(startupID) + "'"
	pager := s.boardTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.PersistenceError{Op: "find board by startup", Err: err}
		}
		for _, raw := range resp.Entities {
			var ent boardEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, domain.PersistenceError{Op: "decode board", Err: err}
			}
			b, err := decodeBoard(ent)
			if err != nil {
				return nil, err
			}
			return &b, nil
		}
	}
	return nil, nil
}

// ListBoards retrieves all boards.
func (s *Storage) ListBoards(ctx context.Context) ([]domain.Board, error) {
	filter := "PartitionKey eq '" + boardPartition + "'"
	pager := s.boardTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	boards := []domain.Board{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.PersistenceError{Op: "list boards", Err: err}
		}
		for _, raw := range resp.Entities {
			var ent boardEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, domain.PersistenceError{Op: "decode board", Err: err}
			}
			b, err := decodeBoard(ent)
			if err != nil {
				return nil, err
			}
			boards = append(boards, b)
		}
	}
	return boards, nil
}

// UpdateBoard merges the supplied changes into an existing board.
func (s *Storage) UpdateBoard(ctx context.Context, id string, upd domain.BoardUpdate) error {
	ent := boardEntityUpdate{entityKeys: entityKeys{PartitionKey: boardPartition, RowKey: id}, Name: upd.Name}
	if upd.Columns != nil {
		encoded := encodeIDs(*upd.Columns)
		ent.Columns = &encoded
	}
	return s.merge(ctx, s.boardTable, "update board", ent, "board")
}

// DeleteBoard removes a board document. Column detachment is the caller's
// responsibility.
func (s *Storage) DeleteBoard(ctx context.Context, id string) error {
	return s.delete(ctx, s.boardTable, boardPartition, id, "delete board", "board")
}

// InsertColumn persists a new column.
func (s *Storage) InsertColumn(ctx context.Context, c domain.Column) error {
	ent := columnEntity{
		entityKeys: entityKeys{PartitionKey: columnPartition, RowKey: c.ID},
		Name:       c.Name,
		BoardID:    c.BoardID,
		Tasks:      encodeIDs(c.Tasks),
	}
	return s.add(ctx, s.columnTable, "insert column", ent)
}

// GetColumn retrieves a column by id, or nil when absent.
func (s *Storage) GetColumn(ctx context.Context, id string) (*domain.Column, error) {
	raw, err := s.columnTable.GetEntity(ctx, columnPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, domain.PersistenceError{Op: "get column", Err: err}
	}
	var ent columnEntity
	if err := json.Unmarshal(raw.Value, &ent); err != nil {
		return nil, domain.PersistenceError{Op: "decode column", Err: err}
	}
	c, err := decodeColumn(ent)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListColumnsByBoard returns all columns referencing the board.
func (s *Storage) ListColumnsByBoard(ctx context.Context, boardID string) ([]domain.Column, error) {
	filter := "PartitionKey eq '" + columnPartition + "' and BoardId eq '" + escapeFilterValue(boardID) + "'"
	pager := s.columnTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	columns := []domain.Column{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.PersistenceError{Op: "list columns", Err: err}
		}
		for _, raw := range resp.Entities {
			var ent columnEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, domain.PersistenceError{Op: "decode column", Err: err}
			}
			c, err := decodeColumn(ent)
			if err != nil {
				return nil, err
			}
			columns = append(columns, c)
		}
	}
	return columns, nil
}

// UpdateColumn merges the supplied changes into an existing column.
func (s *Storage) UpdateColumn(ctx context.Context, id string, upd domain.ColumnUpdate) error {
	ent := columnEntityUpdate{entityKeys: entityKeys{PartitionKey: columnPartition, RowKey: id}, Name: upd.Name}
	if upd.Tasks != nil {
		encoded := encodeIDs(*upd.Tasks)
		ent.Tasks = &encoded
	}
	return s.merge(ctx, s.columnTable, "update column", ent, "column")
}

// DeleteColumn removes a column document.
func (s *Storage) DeleteColumn(ctx context.Context, id string) error {
	return s.delete(ctx, s.columnTable, columnPartition, id, "delete column", "column")
}

// InsertTask persists a new task.
func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	ent := taskEntity{
		entityKeys:   entityKeys{PartitionKey: taskPartition, RowKey: t.ID},
		Title:        t.Title,
		Description:  t.Description,
		Type:         t.Type,
		Priority:     t.Priority,
		StartDate:    t.StartDate,
		DueDate:      t.DueDate,
		Responsible:  t.Responsible,
		Observations: t.Observations,
		Link:         t.Link,
		Status:       t.Status,
		ColumnID:     t.ColumnID,
	}
	return s.add(ctx, s.taskTable, "insert task", ent)
}

// GetTask retrieves a task by id, or nil when absent.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	raw, err := s.taskTable.GetEntity(ctx, taskPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, domain.PersistenceError{Op: "get task", Err: err}
	}
	var ent taskEntity
	if err := json.Unmarshal(raw.Value, &ent); err != nil {
		return nil, domain.PersistenceError{Op: "decode task", Err: err}
	}
	t := decodeTask(ent)
	return &t, nil
}

// ListTasksByColumns returns every task whose ColumnId is in the given set.
func (s *Storage) ListTasksByColumns(ctx context.Context, columnIDs []string) ([]domain.Task, error) {
	tasks := []domain.Task{}
	if len(columnIDs) == 0 {
		return tasks, nil
	}
	filter := "PartitionKey eq '" + taskPartition + "' and " + columnsFilter(columnIDs)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.PersistenceError{Op: "list tasks", Err: err}
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, domain.PersistenceError{Op: "decode task", Err: err}
			}
			tasks = append(tasks, decodeTask(ent))
		}
	}
	return tasks, nil
}

// UpdateTask merges the supplied changes into an existing task.
func (s *Storage) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) error {
	ent := taskEntityUpdate{
		entityKeys:   entityKeys{PartitionKey: taskPartition, RowKey: id},
		Title:        upd.Title,
		Description:  upd.Description,
		Type:         upd.Type,
		Priority:     upd.Priority,
		StartDate:    upd.StartDate,
		DueDate:      upd.DueDate,
		Responsible:  upd.Responsible,
		Observations: upd.Observations,
		Link:         upd.Link,
		Status:       upd.Status,
	}
	return s.merge(ctx, s.taskTable, "update task", ent, "task")
}

// SetTaskColumn re-points a task at a different column.
func (s *Storage) SetTaskColumn(ctx context.Context, id, columnID string) error {
	ent := taskEntityUpdate{
		entityKeys: entityKeys{PartitionKey: taskPartition, RowKey: id},
		ColumnID:   &columnID,
	}
	return s.merge(ctx, s.taskTable, "set task column", ent, "task")
}

// DeleteTask removes a task document.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	return s.delete(ctx, s.taskTable, taskPartition, id, "delete task", "task")
}

func (s *Storage) add(ctx context.Context, table *aztables.Client, op string, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.PersistenceError{Op: op, Err: err}
	}
	if _, err := table.AddEntity(ctx, payload, nil); err != nil {
		return domain.PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (s *Storage) merge(ctx context.Context, table *aztables.Client, op string, ent any, kind string) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.PersistenceError{Op: op, Err: err}
	}
	et := azcore.ETagAny
	_, err = table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		if isNotFound(err) {
			return domain.NewNotFoundError("%s not found", kind)
		}
		return domain.PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (s *Storage) delete(ctx context.Context, table *aztables.Client, pk, rk, op, kind string) error {
	if _, err := table.DeleteEntity(ctx, pk, rk, nil); err != nil {
		if isNotFound(err) {
			return domain.NewNotFoundError("%s not found", kind)
		}
		return domain.PersistenceError{Op: op, Err: err}
	}
	return nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func decodeStartup(ent startupEntity) domain.Startup {
	return domain.Startup{ID: ent.RowKey, Name: ent.Name, Description: ent.Description}
}

func decodeBoard(ent boardEntity) (domain.Board, error) {
	columns, err := decodeIDs(ent.Columns)
	if err != nil {
		return domain.Board{}, domain.PersistenceError{Op: "decode board columns", Err: err}
	}
	return domain.Board{ID: ent.RowKey, StartupID: ent.StartupID, Name: ent.Name, Columns: columns}, nil
}

func decodeColumn(ent columnEntity) (domain.Column, error) {
	tasks, err := decodeIDs(ent.Tasks)
	if err != nil {
		return domain.Column{}, domain.PersistenceError{Op: "decode column tasks", Err: err}
	}
	return domain.Column{ID: ent.RowKey, Name: ent.Name, BoardID: ent.BoardID, Tasks: tasks}, nil
}

func decodeTask(ent taskEntity) domain.Task {
	return domain.Task{
		ID:           ent.RowKey,
		Title:        ent.Title,
		Description:  ent.Description,
		Type:         ent.Type,
		Priority:     ent.Priority,
		StartDate:    ent.StartDate,
		DueDate:      ent.DueDate,
		Responsible:  ent.Responsible,
		Observations: ent.Observations,
		Link:         ent.Link,
		Status:       ent.Status,
		ColumnID:     ent.ColumnID,
	}
}

// encodeIDs stores an ordered id sequence as a JSON array string property.
func encodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func decodeIDs(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// columnsFilter builds an OData or-chain matching any of the column ids.
func columnsFilter(columnIDs []string) string {
	parts := make([]string, 0, len(columnIDs))
	for _, id := range columnIDs {
		parts = append(parts, "ColumnId eq '"+escapeFilterValue(id)+"'")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

// escapeFilterValue doubles single quotes per OData string literal rules.
func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
