package fetcher

import (
	"context"
	"time"

	"fdly/internal/logger"
	"fdly/internal/models"
	"fdly/internal/queue"
)

// Publisher публикует задачи в очередь.
type Publisher interface {
	PublishTask(ctx context.Context, queueName string, task queue.Task) error
}

// Refresher обновляет список категорий. Fetcher.Categories отдаёт его из кэша,
// пока не истечёт TTL, поэтому Feedly опрашивается не чаще раза в TTL.
type Refresher interface {
	Categories(ctx context.Context) ([]models.Category, error)
}

// StartPolling раз в interval обновляет категории и ставит в очередь задачу
// sync_category для каждой категории. Первый цикл запускается сразу.
// Блокирует до отмены ctx.
func StartPolling(ctx context.Context, producer Publisher, refresher Refresher, categoryIDs []string, interval time.Duration, queueName string) {
	log := logger.Log.WithFields(logger.Fields{
		"service":  "poller",
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	poll(ctx, log, producer, refresher, categoryIDs, queueName)
	for {
		select {
		case <-ticker.C:
			poll(ctx, log, producer, refresher, categoryIDs, queueName)

		case <-ctx.Done():
			log.Info("Stopping poller by context")
			return
		}
	}
}

func poll(ctx context.Context, log *logger.Entry, producer Publisher, refresher Refresher, categoryIDs []string, queueName string) {
	log.Info("Starting new polling cycle")

	// ошибка обновления категорий не мешает синхронизации записей
	if categories, err := refresher.Categories(ctx); err != nil {
		log.Errorf("Failed to refresh categories: %v", err)
	} else {
		log.WithField("categories", len(categories)).Debug("Categories refreshed")
	}

	for _, id := range categoryIDs {
		task := queue.Task{Kind: queue.KindSyncCategory, CategoryID: id}
		if err := producer.PublishTask(ctx, queueName, task); err != nil {
			log.WithField("category", id).Errorf("Failed to publish task: %v", err)
		}
	}
}
