package db

import (
	"context"
	"fmt"
	"time"

	"fdly/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database инкапсулирует пул соединений к PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// StoredEntry - запись Feedly вместе с локальным состоянием.
type StoredEntry struct {
	models.Entry
	CategoryID string    `json:"category_id"`
	Read       bool      `json:"read"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NewDB создаёт новый пул соединений по connString и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() {
	db.Pool.Close()
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate создаёт таблицы, если их ещё нет.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveCategory сохраняет категорию; при конфликте по id обновляет метку.
func (db *Database) SaveCategory(ctx context.Context, c models.Category) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO categories (id, label)
        VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, updated_at = NOW()
    `, c.ID, c.Label)
	return err
}

// SaveEntry сохраняет запись категории categoryID.
// Если запись с таким id уже есть, операция игнорируется и возвращается false.
func (db *Database) SaveEntry(ctx context.Context, categoryID string, e models.Entry) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
        INSERT INTO entries (id, category_id, title, content, origin_url, origin_title)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO NOTHING
    `, e.ID, categoryID, e.Title, e.Content, e.OriginURL, e.OriginTitle)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Categories возвращает сохранённые категории, отсортированные по метке.
func (db *Database) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, label FROM categories ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Label); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Entries возвращает последние limit записей; пустой categoryID - все категории.
func (db *Database) Entries(ctx context.Context, categoryID string, limit int) ([]StoredEntry, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, category_id, title, content, origin_url, origin_title, is_read, fetched_at
        FROM entries
        WHERE $1 = '' OR category_id = $1
        ORDER BY fetched_at DESC, id
        LIMIT $2
    `, categoryID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]StoredEntry, 0)
	for rows.Next() {
		var e StoredEntry
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Title, &e.Content,
			&e.OriginURL, &e.OriginTitle, &e.Read, &e.FetchedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountEntriesSince возвращает количество записей, полученных после since.
func (db *Database) CountEntriesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM entries
        WHERE fetched_at > $1
    `, since).Scan(&count)
	return count, err
}

// SetEntriesRead обновляет локальный признак прочтения и возвращает число изменённых строк.
func (db *Database) SetEntriesRead(ctx context.Context, ids []string, read bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := db.Pool.Exec(ctx, `
        UPDATE entries SET is_read = $1 WHERE id = ANY($2)
    `, read, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetCategoryRead помечает записи категории. Если lastReadEntryID задан,
// затрагиваются только записи, полученные не позже неё, как это делает Feedly.
// Если такой записи нет локально, ничего не меняется.
func (db *Database) SetCategoryRead(ctx context.Context, categoryID string, read bool, lastReadEntryID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE entries SET is_read = $1
        WHERE category_id = $2
          AND ($3::text = '' OR fetched_at <= (SELECT fetched_at FROM entries WHERE id = $3::text))
    `, read, categoryID, lastReadEntryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
