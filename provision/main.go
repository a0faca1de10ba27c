// Command provision creates the Kanban tables and the board events queue,
// tolerating resources that already exist.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
)

func main() {
	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("STORAGE_CONNECTION_STRING must be set")
	}
	tables := []string{
		os.Getenv("STARTUPS_TABLE"),
		os.Getenv("BOARDS_TABLE"),
		os.Getenv("COLUMNS_TABLE"),
		os.Getenv("TASKS_TABLE"),
	}
	for _, t := range tables {
		if t == "" {
			log.Fatal("STARTUPS_TABLE, BOARDS_TABLE, COLUMNS_TABLE and TASKS_TABLE must be set")
		}
	}

	ctx := context.Background()
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		log.Fatalf("table service client: %v", err)
	}
	for _, t := range tables {
		if _, err := svc.CreateTable(ctx, t, nil); err != nil {
			var respErr *azcore.ResponseError
			if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
				log.Infof("table %s already exists", t)
				continue
			}
			log.Fatalf("create table %s: %v", t, err)
		}
		log.Infof("table %s created", t)
	}

	queueName := os.Getenv("BOARD_EVENTS_QUEUE")
	if queueName == "" {
		return
	}
	queue, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, nil)
	if err != nil {
		log.Fatalf("queue client: %v", err)
	}
	if _, err := queue.Create(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 409 {
			log.Infof("queue %s already exists", queueName)
			return
		}
		log.Fatalf("create queue %s: %v", queueName, err)
	}
	log.Infof("queue %s created", queueName)
}
