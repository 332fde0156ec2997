package worker

import (
	"context"
	"fmt"
	"time"

	"fdly/internal/logger"
	"fdly/internal/models"
	"fdly/internal/queue"
)

// Syncer синхронизирует одну категорию.
type Syncer interface {
	SyncCategory(ctx context.Context, categoryID string) (int, error)
}

// Marker - операции Feedly, изменяющие состояние пользователя.
type Marker interface {
	MarkEntriesAs(ctx context.Context, entryIDs []string, action models.Action) error
	MarkCategoryAs(ctx context.Context, categoryID string, action models.Action, lastReadEntryID string) error
	AddSubscription(ctx context.Context, feedURL, title string, categoryIDs ...string) error
}

// ReadStore хранит локальный признак прочтения.
type ReadStore interface {
	SetEntriesRead(ctx context.Context, ids []string, read bool) (int64, error)
	SetCategoryRead(ctx context.Context, categoryID string, read bool, lastReadEntryID string) (int64, error)
}

// Recorder учитывает обработанные задачи.
type Recorder interface {
	TaskHandled(kind string, err error)
}

type Worker struct {
	syncer   Syncer
	feedly   Marker
	store    ReadStore
	recorder Recorder
	timeout  time.Duration
}

// NewWorker создаёт Worker; recorder может быть nil.
// timeout ограничивает одну задачу, 0 - без ограничения.
func NewWorker(syncer Syncer, feedly Marker, store ReadStore, recorder Recorder, timeout time.Duration) *Worker {
	return &Worker{
		syncer:   syncer,
		feedly:   feedly,
		store:    store,
		recorder: recorder,
		timeout:  timeout,
	}
}

// HandleTask разбирает сообщение очереди и выполняет задачу.
func (w *Worker) HandleTask(ctx context.Context, body []byte) error {
	task, err := queue.DecodeTask(body)
	if err != nil {
		logger.Component("worker").Errorf("Decode task failed: %v", err)
		w.record("invalid", err)
		return err
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	log := logger.Component("worker").WithField("kind", task.Kind)
	err = w.dispatch(ctx, log, task)
	w.record(string(task.Kind), err)
	if err != nil {
		log.Errorf("Task failed: %v", err)
	}
	return err
}

func (w *Worker) dispatch(ctx context.Context, log *logger.Entry, task queue.Task) error {
	switch task.Kind {
	case queue.KindSyncCategory:
		saved, err := w.syncer.SyncCategory(ctx, task.CategoryID)
		if err != nil {
			return err
		}
		log.WithField("category", task.CategoryID).Infof("Synced %d new entries", saved)

	case queue.KindMarkEntries:
		if err := w.feedly.MarkEntriesAs(ctx, task.EntryIDs, task.Action); err != nil {
			return err
		}
		// локальная копия обновляется только после успешного ответа Feedly
		n, err := w.store.SetEntriesRead(ctx, task.EntryIDs, task.Action == models.ActionRead)
		if err != nil {
			return fmt.Errorf("update local read state: %w", err)
		}
		log.WithField("action", task.Action.String()).Infof("Marked %d entries", n)

	case queue.KindMarkCategory:
		if err := w.feedly.MarkCategoryAs(ctx, task.CategoryID, task.Action, task.LastReadEntryID); err != nil {
			return err
		}
		n, err := w.store.SetCategoryRead(ctx, task.CategoryID, task.Action == models.ActionRead, task.LastReadEntryID)
		if err != nil {
			return fmt.Errorf("update local read state: %w", err)
		}
		log.WithFields(logger.Fields{
			"category": task.CategoryID,
			"action":   task.Action.String(),
		}).Infof("Marked %d entries", n)

	case queue.KindSubscribe:
		if err := w.feedly.AddSubscription(ctx, task.FeedURL, task.Title, task.Categories...); err != nil {
			return err
		}
		log.WithField("feed", task.FeedURL).Info("Subscription added")
	}
	return nil
}

func (w *Worker) record(kind string, err error) {
	if w.recorder != nil {
		w.recorder.TaskHandled(kind, err)
	}
}
