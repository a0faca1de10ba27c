package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Darksider96/Kanban-Dashboard/api"
	"github.com/Darksider96/Kanban-Dashboard/domain"
	"github.com/Darksider96/Kanban-Dashboard/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	startupsTable := os.Getenv("STARTUPS_TABLE")
	boardsTable := os.Getenv("BOARDS_TABLE")
	columnsTable := os.Getenv("COLUMNS_TABLE")
	tasksTable := os.Getenv("TASKS_TABLE")
	if connStr == "" || startupsTable == "" || boardsTable == "" || columnsTable == "" || tasksTable == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, startupsTable, boardsTable, columnsTable, tasksTable)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var cache domain.ViewCache
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		ttl := 5 * time.Minute
		if v := os.Getenv("VIEW_CACHE_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid VIEW_CACHE_TTL: %v", err)
			}
			ttl = d
		}
		cache = storage.NewViewCache(redis.NewClient(redisOpts), ttl)
	}

	var events domain.EventPublisher
	if queueName := os.Getenv("BOARD_EVENTS_QUEUE"); queueName != "" {
		queue, err := storage.NewEventQueue(connStr, queueName)
		if err != nil {
			log.Fatalf("events queue: %v", err)
		}
		events = queue
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("tracer provider shutdown")
		}
	}()

	svc := domain.NewService(store, cache, events)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	logger := log.New()
	api.Register(e, svc, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
