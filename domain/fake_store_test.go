package domain

import "context"

type fakeStore struct {
	startups map[string]Startup
	boards   map[string]Board
	columns  map[string]Column
	tasks    map[string]Task
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		startups: map[string]Startup{},
		boards:   map[string]Board{},
		columns:  map[string]Column{},
		tasks:    map[string]Task{},
	}
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (f *fakeStore) InsertStartup(ctx context.Context, s Startup) error {
	f.startups[s.ID] = s
	return nil
}

func (f *fakeStore) ListStartups(ctx context.Context) ([]Startup, error) {
	out := []Startup{}
	for _, s := range f.startups {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) FindStartupByName(ctx context.Context, name string) (*Startup, error) {
	for _, s := range f.startups {
		if s.Name == name {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertBoard(ctx context.Context, b Board) error {
	b.Columns = cloneIDs(b.Columns)
	f.boards[b.ID] = b
	return nil
}

func (f *fakeStore) GetBoard(ctx context.Context, id string) (*Board, error) {
	b, ok := f.boards[id]
	if !ok {
		return nil, nil
	}
	b.Columns = cloneIDs(b.Columns)
	return &b, nil
}

func (f *fakeStore) FindBoardByStartup(ctx context.Context, startupID string) (*Board, error) {
	for _, b := range f.boards {
		if b.StartupID == startupID {
			b.Columns = cloneIDs(b.Columns)
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListBoards(ctx context.Context) ([]Board, error) {
	out := []Board{}
	for _, b := range f.boards {
		b.Columns = cloneIDs(b.Columns)
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) UpdateBoard(ctx context.Context, id string, upd BoardUpdate) error {
	b, ok := f.boards[id]
	if !ok {
		return NewNotFoundError("board not found")
	}
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.Columns != nil {
		b.Columns = cloneIDs(*upd.Columns)
	}
	f.boards[id] = b
	return nil
}

func (f *fakeStore) DeleteBoard(ctx context.Context, id string) error {
	if _, ok := f.boards[id]; !ok {
		return NewNotFoundError("board not found")
	}
	delete(f.boards, id)
	return nil
}

func (f *fakeStore) InsertColumn(ctx context.Context, c Column) error {
	c.Tasks = cloneIDs(c.Tasks)
	f.columns[c.ID] = c
	return nil
}

func (f *fakeStore) GetColumn(ctx context.Context, id string) (*Column, error) {
	c, ok := f.columns[id]
	if !ok {
		return nil, nil
	}
	c.Tasks = cloneIDs(c.Tasks)
	return &c, nil
}

func (f *fakeStore) ListColumnsByBoard(ctx context.Context, boardID string) ([]Column, error) {
	out := []Column{}
	for _, c := range f.columns {
		if c.BoardID == boardID {
			c.Tasks = cloneIDs(c.Tasks)
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateColumn(ctx context.Context, id string, upd ColumnUpdate) error {
	c, ok := f.columns[id]
	if !ok {
		return NewNotFoundError("column not found")
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Tasks != nil {
		c.Tasks = cloneIDs(*upd.Tasks)
	}
	f.columns[id] = c
	return nil
}

func (f *fakeStore) DeleteColumn(ctx context.Context, id string) error {
	if _, ok := f.columns[id]; !ok {
		return NewNotFoundError("column not found")
	}
	delete(f.columns, id)
	return nil
}

func (f *fakeStore) InsertTask(ctx context.Context, t Task) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) ListTasksByColumns(ctx context.Context, columnIDs []string) ([]Task, error) {
	member := map[string]bool{}
	for _, id := range columnIDs {
		member[id] = true
	}
	out := []Task{}
	for _, t := range f.tasks {
		if member[t.ColumnID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, id string, upd TaskUpdate) error {
	t, ok := f.tasks[id]
	if !ok {
		return NewNotFoundError("task not found")
	}
	applyTaskUpdate(&t, upd)
	f.tasks[id] = t
	return nil
}

func (f *fakeStore) SetTaskColumn(ctx context.Context, id, columnID string) error {
	t, ok := f.tasks[id]
	if !ok {
		return NewNotFoundError("task not found")
	}
	t.ColumnID = columnID
	f.tasks[id] = t
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return NewNotFoundError("task not found")
	}
	delete(f.tasks, id)
	return nil
}

type capturedEvent struct {
	EntityType string
	EntityID   string
	Type       string
}

type fakePublisher struct {
	events []capturedEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, ev Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{EntityType: ev.EntityType, EntityID: ev.EntityID, Type: ev.Type})
	return nil
}

type fakeCache struct {
	views       map[string]BoardView
	tasks       map[string][]Task
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{views: map[string]BoardView{}, tasks: map[string][]Task{}}
}

func (c *fakeCache) LoadBoardView(ctx context.Context, startupID string) (*BoardView, bool) {
	v, ok := c.views[startupID]
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *fakeCache) StoreBoardView(ctx context.Context, startupID string, view BoardView) {
	c.views[startupID] = view
}

func (c *fakeCache) LoadStartupTasks(ctx context.Context, startupID string) ([]Task, bool) {
	t, ok := c.tasks[startupID]
	return t, ok
}

func (c *fakeCache) StoreStartupTasks(ctx context.Context, startupID string, tasks []Task) {
	c.tasks[startupID] = tasks
}

func (c *fakeCache) Invalidate(ctx context.Context, startupID string) {
	delete(c.views, startupID)
	delete(c.tasks, startupID)
	c.invalidated = append(c.invalidated, startupID)
}
