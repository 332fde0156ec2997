package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"fdly/internal/models"
)

// Kind определяет тип задачи в очереди.
type Kind string

const (
	KindSyncCategory Kind = "sync_category"
	KindMarkEntries  Kind = "mark_entries"
	KindMarkCategory Kind = "mark_category"
	KindSubscribe    Kind = "subscribe"
)

// ErrMalformedTask помечает сообщения, которые бессмысленно возвращать в очередь.
var ErrMalformedTask = errors.New("malformed task")

// Task - сообщение очереди задач.
type Task struct {
	Kind            Kind          `json:"kind"`
	CategoryID      string        `json:"category_id,omitempty"`
	EntryIDs        []string      `json:"entry_ids,omitempty"`
	Action          models.Action `json:"action"`
	LastReadEntryID string        `json:"last_read_entry_id,omitempty"`
	FeedURL         string        `json:"feed_url,omitempty"`
	Title           string        `json:"title,omitempty"`
	Categories      []string      `json:"categories,omitempty"`
}

// Validate проверяет, что у задачи заполнены поля, нужные её типу.
func (t Task) Validate() error {
	switch t.Kind {
	case KindSyncCategory:
		if t.CategoryID == "" {
			return fmt.Errorf("%w: %s without category id", ErrMalformedTask, t.Kind)
		}
	case KindMarkEntries:
		if len(t.EntryIDs) == 0 {
			return fmt.Errorf("%w: %s without entry ids", ErrMalformedTask, t.Kind)
		}
		if t.Action.String() == "" {
			return fmt.Errorf("%w: %s with unknown action", ErrMalformedTask, t.Kind)
		}
	case KindMarkCategory:
		if t.CategoryID == "" {
			return fmt.Errorf("%w: %s without category id", ErrMalformedTask, t.Kind)
		}
		if t.Action.String() == "" {
			return fmt.Errorf("%w: %s with unknown action", ErrMalformedTask, t.Kind)
		}
	case KindSubscribe:
		if t.FeedURL == "" {
			return fmt.Errorf("%w: %s without feed url", ErrMalformedTask, t.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedTask, t.Kind)
	}
	return nil
}

// Encode сериализует задачу после проверки.
func (t Task) Encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// DecodeTask разбирает тело сообщения. Любая ошибка оборачивает ErrMalformedTask.
func DecodeTask(body []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(body, &t); err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}
