package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fdly/internal/cache"
	"fdly/internal/feedly"
	"fdly/internal/logger"
	"fdly/internal/models"
)

// ErrUnknownCategory возвращается, если метка категории не найдена в Feedly.
var ErrUnknownCategory = errors.New("unknown category")

// Source - часть клиента Feedly, нужная для синхронизации.
type Source interface {
	CategoryList(ctx context.Context) ([]models.Category, error)
	Entries(ctx context.Context, categoryID string, opts feedly.EntriesOptions) (*feedly.EntriesPage, error)
}

// Store - хранилище категорий и записей.
type Store interface {
	SaveCategory(ctx context.Context, c models.Category) error
	SaveEntry(ctx context.Context, categoryID string, e models.Entry) (bool, error)
}

// Recorder получает число новых записей по категориям.
type Recorder interface {
	EntriesSynced(category string, n int)
}

// Fetcher переносит записи из Feedly в локальное хранилище.
type Fetcher struct {
	source   Source
	store    Store
	cache    *cache.CategoryCache
	opts     feedly.EntriesOptions
	recorder Recorder
}

// NewFetcher создаёт Fetcher. recorder может быть nil.
func NewFetcher(source Source, store Store, categories *cache.CategoryCache, opts feedly.EntriesOptions, recorder Recorder) *Fetcher {
	return &Fetcher{
		source:   source,
		store:    store,
		cache:    categories,
		opts:     opts,
		recorder: recorder,
	}
}

// SyncCategory загружает одну страницу записей категории и сохраняет новые.
// Возвращает количество действительно добавленных записей.
func (f *Fetcher) SyncCategory(ctx context.Context, categoryID string) (int, error) {
	log := logger.Component("fetcher").WithField("category", categoryID)

	page, err := f.source.Entries(ctx, categoryID, f.opts)
	if err != nil {
		return 0, fmt.Errorf("fetch entries of %s: %w", categoryID, err)
	}

	saved := 0
	for _, entry := range page.Entries {
		inserted, err := f.store.SaveEntry(ctx, categoryID, entry)
		if err != nil {
			log.WithField("entry", entry.ID).Warnf("Failed to save entry: %v", err)
			continue
		}
		if inserted {
			saved++
		}
	}

	if f.recorder != nil {
		f.recorder.EntriesSynced(categoryID, saved)
	}
	log.WithFields(logger.Fields{
		"received": len(page.Entries),
		"saved":    saved,
	}).Info("Category synced")
	return saved, nil
}

// Categories возвращает категории пользователя, по возможности из кэша.
// Свежий список сохраняется в хранилище.
func (f *Fetcher) Categories(ctx context.Context) ([]models.Category, error) {
	if categories, ok := f.cache.Get(); ok {
		return categories, nil
	}

	categories, err := f.source.CategoryList(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.Component("fetcher")
	for _, c := range categories {
		if err := f.store.SaveCategory(ctx, c); err != nil {
			log.WithField("category", c.ID).Warnf("Failed to save category: %v", err)
		}
	}
	f.cache.Set(categories)
	return categories, nil
}

// ResolveCategories переводит метки категорий в идентификаторы.
// Псевдонимы потоков (All, Uncategorized, Saved) и готовые идентификаторы
// вида user/... передаются как есть.
func (f *Fetcher) ResolveCategories(ctx context.Context, labels []string) ([]string, error) {
	var categories []models.Category
	ids := make([]string, 0, len(labels))

	for _, label := range labels {
		if isStreamAlias(label) || strings.HasPrefix(label, "user/") {
			ids = append(ids, label)
			continue
		}

		if categories == nil {
			var err error
			if categories, err = f.Categories(ctx); err != nil {
				return nil, fmt.Errorf("resolve categories: %w", err)
			}
		}

		id, ok := lookup(categories, label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isStreamAlias(label string) bool {
	switch label {
	case feedly.StreamAll, feedly.StreamUncategorized, feedly.StreamSaved:
		return true
	}
	return false
}

// lookup ищет по метке; при повторяющихся метках побеждает последняя, как в Client.Categories.
func lookup(categories []models.Category, label string) (string, bool) {
	id, found := "", false
	for _, c := range categories {
		if c.Label == label {
			id, found = c.ID, true
		}
	}
	return id, found
}
