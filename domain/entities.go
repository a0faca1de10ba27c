package domain

// Startup is an independent tenant. Each startup owns exactly one board,
// created together with the startup itself.
type Startup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Board is the top-level container of columns for one startup. Columns holds
// column ids in display order.
type Board struct {
	ID        string   `json:"id"`
	StartupID string   `json:"startupId,omitempty"`
	Name      string   `json:"name,omitempty"`
	Columns   []string `json:"columns"`
}

// Column is a named bucket of tasks within a board. Tasks holds task ids in
// append order, which is the only within-column ordering.
type Column struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	BoardID string   `json:"boardId"`
	Tasks   []string `json:"tasks"`
}

// Task is a single card. It belongs to exactly one column at a time.
type Task struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type"`
	Priority     string `json:"priority"`
	StartDate    string `json:"startDate"`
	DueDate      string `json:"dueDate"`
	Responsible  string `json:"responsible"`
	Observations string `json:"observations,omitempty"`
	Link         string `json:"link,omitempty"`
	Status       string `json:"status"`
	ColumnID     string `json:"columnId"`
}

// DefaultTaskStatus is assigned to new tasks when no status is supplied.
const DefaultTaskStatus = "In Progress"

// BoardUpdate carries partial changes for a board. Nil fields are untouched.
type BoardUpdate struct {
	Name    *string
	Columns *[]string
}

// ColumnUpdate carries partial changes for a column.
type ColumnUpdate struct {
	Name  *string
	Tasks *[]string
}

// TaskUpdate carries partial changes for a task. ColumnID is intentionally
// absent; re-homing a task between columns goes through Service.MoveTask.
type TaskUpdate struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Type         *string `json:"type,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	DueDate      *string `json:"dueDate,omitempty"`
	Responsible  *string `json:"responsible,omitempty"`
	Observations *string `json:"observations,omitempty"`
	Link         *string `json:"link,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// Empty reports whether the update carries no changes.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Type == nil &&
		u.Priority == nil && u.StartDate == nil && u.DueDate == nil &&
		u.Responsible == nil && u.Observations == nil && u.Link == nil &&
		u.Status == nil
}

// BoardView is a board with its column sequence fully expanded, and each
// column's task sequence expanded in turn. Sequence order is preserved.
type BoardView struct {
	ID        string       `json:"id"`
	StartupID string       `json:"startupId,omitempty"`
	Name      string       `json:"name,omitempty"`
	Columns   []ColumnView `json:"columns"`
}

// ColumnView is a column with its task sequence expanded.
type ColumnView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID string `json:"boardId"`
	Tasks   []Task `json:"tasks"`
}

// BoardSummary is a board with a one-level column expansion, used by the
// generic board listing.
type BoardSummary struct {
	ID        string   `json:"id"`
	StartupID string   `json:"startupId,omitempty"`
	Name      string   `json:"name,omitempty"`
	Columns   []Column `json:"columns"`
}
