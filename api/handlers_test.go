package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Darksider96/Kanban-Dashboard/domain"
)

type mockService struct {
	startup  *domain.Startup
	startups []domain.Startup
	view     *domain.BoardView
	column   *domain.Column
	task     *domain.Task
	tasks    []domain.Task
	err      error

	lastUpdateID  string
	lastUpdate    domain.TaskUpdate
	lastMoveTask  string
	lastMoveCol   string
	updateCalled  bool
	deletedColumn string
	deletedTask   string
}

func (m *mockService) CreateStartup(ctx context.Context, name, description string) (*domain.Startup, error) {
	return m.startup, m.err
}

func (m *mockService) ListStartups(ctx context.Context) ([]domain.Startup, error) {
	return m.startups, m.err
}

func (m *mockService) BoardByStartup(ctx context.Context, startupID string) (*domain.BoardView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *mockService) CreateColumn(ctx context.Context, name, boardID string) (*domain.Column, error) {
	return m.column, m.err
}

func (m *mockService) UpdateColumn(ctx context.Context, id, name string) (*domain.Column, error) {
	return m.column, m.err
}

func (m *mockService) DeleteColumn(ctx context.Context, id string) error {
	m.deletedColumn = id
	return m.err
}

func (m *mockService) CreateTask(ctx context.Context, task domain.Task) (*domain.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	created := task
	created.ID = "task-1"
	if created.Status == "" {
		created.Status = domain.DefaultTaskStatus
	}
	return &created, nil
}

func (m *mockService) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	m.updateCalled = true
	m.lastUpdateID = id
	m.lastUpdate = upd
	return m.task, m.err
}

func (m *mockService) DeleteTask(ctx context.Context, id string) error {
	m.deletedTask = id
	return m.err
}

func (m *mockService) MoveTask(ctx context.Context, taskID, newColumnID string) (*domain.Task, error) {
	m.lastMoveTask = taskID
	m.lastMoveCol = newColumnID
	return m.task, m.err
}

func (m *mockService) TasksByStartup(ctx context.Context, startupID string) ([]domain.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tasks, nil
}

func newTestServer(svc Service) *echo.Echo {
	e := echo.New()
	Register(e, svc, log.New())
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateStartupHandler(t *testing.T) {
	svc := &mockService{startup: &domain.Startup{ID: "s1", Name: "Acme"}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPost, "/api/kanban/startups", `{"name":"Acme"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.Startup
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "s1" || got.Name != "Acme" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestCreateStartupValidationMapsTo400(t *testing.T) {
	svc := &mockService{err: domain.NewValidationError("startup name is required")}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPost, "/api/kanban/startups", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var msg messageResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Message != "startup name is required" {
		t.Fatalf("unexpected message: %q", msg.Message)
	}
}

func TestListStartupsHandler(t *testing.T) {
	svc := &mockService{startups: []domain.Startup{{ID: "s1"}, {ID: "s2"}}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodGet, "/api/kanban/startups", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []domain.Startup
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 startups, got %d", len(got))
	}
}

func TestGetBoardHandler(t *testing.T) {
	view := &domain.BoardView{
		ID:        "b1",
		StartupID: "s1",
		Columns: []domain.ColumnView{
			{ID: "c1", Name: "Todo", BoardID: "b1", Tasks: []domain.Task{{ID: "t1", Title: "x"}}},
		},
	}
	svc := &mockService{view: view}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodGet, "/api/kanban/boards/s1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got domain.BoardView
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Columns) != 1 || len(got.Columns[0].Tasks) != 1 {
		t.Fatalf("expansion lost in response: %+v", got)
	}
}

func TestGetBoardMissingMapsTo404(t *testing.T) {
	svc := &mockService{err: domain.NewNotFoundError("no board found for this startup")}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodGet, "/api/kanban/boards/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var msg messageResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Message == "" {
		t.Fatal("expected error message in body")
	}
}

func TestCreateColumnHandler(t *testing.T) {
	svc := &mockService{column: &domain.Column{ID: "c1", Name: "Todo", BoardID: "b1", Tasks: []string{}}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPost, "/api/kanban/columns", `{"name":"Todo","boardId":"b1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUpdateColumnMissingMapsTo404(t *testing.T) {
	svc := &mockService{err: domain.NewNotFoundError("column not found")}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPut, "/api/kanban/columns/ghost", `{"name":"New"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteColumnConfirmation(t *testing.T) {
	svc := &mockService{}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodDelete, "/api/kanban/columns/c1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.deletedColumn != "c1" {
		t.Fatalf("wrong column deleted: %q", svc.deletedColumn)
	}
	var msg messageResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.Message == "" {
		t.Fatal("expected confirmation message")
	}
}

func TestCreateTaskHandlerDefaultsStatus(t *testing.T) {
	svc := &mockService{}
	e := newTestServer(svc)

	body := `{"title":"Write spec","type":"feature","priority":"high","startDate":"2025-01-01","dueDate":"2025-02-01","responsible":"ana","columnId":"c1"}`
	rec := doRequest(e, http.MethodPost, "/api/kanban/tasks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != domain.DefaultTaskStatus {
		t.Fatalf("expected default status, got %q", got.Status)
	}
}

func TestUpdateTaskRejectsColumnID(t *testing.T) {
	svc := &mockService{task: &domain.Task{ID: "t1"}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPut, "/api/kanban/tasks/t1", `{"title":"x","columnId":"c2"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.updateCalled {
		t.Fatal("service must not be reached when columnId is supplied")
	}
}

func TestUpdateTaskHandler(t *testing.T) {
	svc := &mockService{task: &domain.Task{ID: "t1", Title: "updated"}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPut, "/api/kanban/tasks/t1", `{"title":"updated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastUpdateID != "t1" {
		t.Fatalf("wrong task updated: %q", svc.lastUpdateID)
	}
	if svc.lastUpdate.Title == nil || *svc.lastUpdate.Title != "updated" {
		t.Fatalf("title not forwarded: %+v", svc.lastUpdate)
	}
}

func TestMoveTaskHandler(t *testing.T) {
	svc := &mockService{task: &domain.Task{ID: "t1", ColumnID: "c2"}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPut, "/api/kanban/tasks/t1/move", `{"newColumnId":"c2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastMoveTask != "t1" || svc.lastMoveCol != "c2" {
		t.Fatalf("move not forwarded: task=%q col=%q", svc.lastMoveTask, svc.lastMoveCol)
	}
	var got domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ColumnID != "c2" {
		t.Fatalf("unexpected columnId: %q", got.ColumnID)
	}
}

func TestMoveTaskTargetMissingMapsTo400(t *testing.T) {
	svc := &mockService{err: domain.NewValidationError("target column not found")}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPut, "/api/kanban/tasks/t1/move", `{"newColumnId":"ghost"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDashboardTasksHandler(t *testing.T) {
	svc := &mockService{tasks: []domain.Task{{ID: "t1"}, {ID: "t2"}}}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodGet, "/api/kanban/dashboard/s1/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
}

func TestInvalidBodyMapsTo400(t *testing.T) {
	svc := &mockService{}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodPost, "/api/kanban/startups", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestServer(&mockService{})
	rec := doRequest(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestWelcome(t *testing.T) {
	e := newTestServer(&mockService{})
	rec := doRequest(e, http.MethodGet, "/api/kanban/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Kanban") {
		t.Fatalf("unexpected welcome body: %q", rec.Body.String())
	}
}
