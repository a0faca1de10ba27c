package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Darksider96/Kanban-Dashboard/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Service, logger *log.Logger) {
	e.GET("/healthz", healthz())

	g := e.Group("/api/kanban")
	g.GET("/", welcome())

	g.POST("/startups", createStartup(svc))
	g.GET("/startups", listStartups(svc))

	g.GET("/boards/:startupId", getBoard(svc, logger))

	g.POST("/columns", createColumn(svc))
	g.PUT("/columns/:id", updateColumn(svc))
	g.DELETE("/columns/:id", deleteColumn(svc))

	g.POST("/tasks", createTask(svc))
	g.PUT("/tasks/:id", updateTask(svc))
	g.DELETE("/tasks/:id", deleteTask(svc))
	g.PUT("/tasks/:id/move", moveTask(svc))

	g.GET("/dashboard/:startupId/tasks", dashboardTasks(svc))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func welcome() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "Welcome to the Kanban API!")
	}
}

func createStartup(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createStartupRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		startup, err := svc.CreateStartup(c.Request().Context(), req.Name, req.Description)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, startup)
	}
}

func listStartups(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		startups, err := svc.ListStartups(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, startups)
	}
}

func getBoard(svc Service, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		view, fetchErr := svc.BoardByStartup(ctx, c.Param("startupId"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage(errorStage(fetchErr))
			err = respondError(c, fetchErr)
			return err
		}
		metrics.SetColumnsReturned(len(view.Columns))
		tasks := 0
		for _, col := range view.Columns {
			tasks += len(col.Tasks)
		}
		metrics.SetTasksReturned(tasks)

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, view)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createColumn(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createColumnRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		column, err := svc.CreateColumn(c.Request().Context(), req.Name, req.BoardID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, column)
	}
}

func updateColumn(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateColumnRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		column, err := svc.UpdateColumn(c.Request().Context(), c.Param("id"), req.Name)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, column)
	}
}

func deleteColumn(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.DeleteColumn(c.Request().Context(), c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "column and its tasks deleted"})
	}
}

func createTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		task, err := svc.CreateTask(c.Request().Context(), domain.Task{
			Title:        req.Title,
			Description:  req.Description,
			Type:         req.Type,
			Priority:     req.Priority,
			StartDate:    req.StartDate,
			DueDate:      req.DueDate,
			Responsible:  req.Responsible,
			Observations: req.Observations,
			Link:         req.Link,
			Status:       req.Status,
			ColumnID:     req.ColumnID,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func updateTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		if req.ColumnID != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "columnId cannot be changed here, use the move endpoint"})
		}
		upd := domain.TaskUpdate{
			Title:        req.Title,
			Description:  req.Description,
			Type:         req.Type,
			Priority:     req.Priority,
			StartDate:    req.StartDate,
			DueDate:      req.DueDate,
			Responsible:  req.Responsible,
			Observations: req.Observations,
			Link:         req.Link,
			Status:       req.Status,
		}
		task, err := svc.UpdateTask(c.Request().Context(), c.Param("id"), upd)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
	}
}

func moveTask(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req moveTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		task, err := svc.MoveTask(c.Request().Context(), c.Param("id"), req.NewColumnID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func dashboardTasks(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := svc.TasksByStartup(c.Request().Context(), c.Param("startupId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondError maps domain errors onto the HTTP contract: validation to 400,
// missing entities to 404, everything else to 500. Bodies are always
// {"message": ...}.
func respondError(c echo.Context, err error) error {
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, messageResponse{Message: notFound.Message})
	}
	var validation domain.ValidationError
	if errors.As(err, &validation) {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: validation.Message})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, messageResponse{Message: err.Error()})
}

func errorStage(err error) string {
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var validation domain.ValidationError
	if errors.As(err, &validation) {
		return "validation"
	}
	return "storage"
}
