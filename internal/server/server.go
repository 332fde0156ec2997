package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fdly/internal/db"
	"fdly/internal/logger"
	"fdly/internal/models"
	"fdly/internal/queue"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	maxBodyBytes = 1 << 20
)

// Store - данные, которые читают обработчики.
type Store interface {
	Ping(ctx context.Context) error
	Entries(ctx context.Context, categoryID string, limit int) ([]db.StoredEntry, error)
	CountEntriesSince(ctx context.Context, since time.Time) (int, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// Publisher ставит задачи в очередь.
type Publisher interface {
	PublishTask(ctx context.Context, queueName string, task queue.Task) error
}

// TitleResolver определяет заголовок ленты по её URL.
type TitleResolver interface {
	Resolve(ctx context.Context, feedURL string) (string, error)
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	store    Store
	tasks    Publisher
	queue    string
	resolver TitleResolver
	metrics  http.Handler
}

// NewServer создаёт Server. metrics может быть nil, тогда /metrics не регистрируется.
func NewServer(store Store, tasks Publisher, queueName string, resolver TitleResolver, metrics http.Handler) *Server {
	return &Server{
		store:    store,
		tasks:    tasks,
		queue:    queueName,
		resolver: resolver,
		metrics:  metrics,
	}
}

// Routes возвращает маршрутизатор со всеми обработчиками и middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HealthCheck)
	mux.HandleFunc("GET /api/entries/count", s.GetNewEntriesCount)
	mux.HandleFunc("GET /api/entries/{limit}", s.GetEntries)
	mux.HandleFunc("GET /api/categories", s.GetCategories)
	mux.HandleFunc("POST /api/entries/read", s.markEntries(models.ActionRead))
	mux.HandleFunc("POST /api/entries/unread", s.markEntries(models.ActionUnread))
	mux.HandleFunc("POST /api/categories/read", s.markCategory(models.ActionRead))
	mux.HandleFunc("POST /api/categories/unread", s.markCategory(models.ActionUnread))
	mux.HandleFunc("POST /api/subscriptions", s.AddSubscription)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return RequestIDMiddleware(LoggingMiddleware(mux))
}

// HealthCheck отвечает 200 OK, если база доступна, иначе 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// GetEntries возвращает JSON-массив последних limit записей.
// Необязательный параметр category ограничивает выборку одной категорией.
func (s *Server) GetEntries(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.PathValue("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	entries, err := s.store.Entries(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetNewEntriesCount возвращает JSON {"count": N} с количеством записей,
// полученных после времени since в параметре запроса.
func (s *Server) GetNewEntriesCount(w http.ResponseWriter, r *http.Request) {
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		http.Error(w, "Invalid time format", http.StatusBadRequest)
		return
	}

	count, err := s.store.CountEntriesSince(r.Context(), since)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// GetCategories возвращает сохранённые категории.
func (s *Server) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type markEntriesRequest struct {
	EntryIDs []string `json:"entryIds"`
}

func (s *Server) markEntries(action models.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markEntriesRequest
		if !decodeBody(w, r, &req) {
			return
		}
		ids := compact(req.EntryIDs)
		if len(ids) == 0 {
			http.Error(w, "entryIds must not be empty", http.StatusBadRequest)
			return
		}
		s.enqueue(w, r, queue.Task{Kind: queue.KindMarkEntries, EntryIDs: ids, Action: action})
	}
}

type markCategoryRequest struct {
	CategoryID      string `json:"categoryId"`
	LastReadEntryID string `json:"lastReadEntryId"`
}

func (s *Server) markCategory(action models.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markCategoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		categoryID := strings.TrimSpace(req.CategoryID)
		if categoryID == "" {
			http.Error(w, "categoryId is required", http.StatusBadRequest)
			return
		}
		s.enqueue(w, r, queue.Task{
			Kind:            queue.KindMarkCategory,
			CategoryID:      categoryID,
			Action:          action,
			LastReadEntryID: strings.TrimSpace(req.LastReadEntryID),
		})
	}
}

type subscriptionRequest struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
}

// AddSubscription ставит в очередь подписку на ленту.
// Если заголовок не передан, он берётся из самой ленты.
func (s *Server) AddSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		resolved, err := s.resolver.Resolve(r.Context(), req.URL)
		if err != nil {
			http.Error(w, "could not read feed: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		title = resolved
	}

	s.enqueue(w, r, queue.Task{
		Kind:       queue.KindSubscribe,
		FeedURL:    req.URL,
		Title:      title,
		Categories: compact(req.Categories),
	})
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, task queue.Task) {
	if err := s.tasks.PublishTask(r.Context(), s.queue, task); err != nil {
		if errors.Is(err, queue.ErrMalformedTask) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requestLog(r).Errorf("Failed to publish %s task: %v", task.Kind, err)
		http.Error(w, "Queue unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	requestLog(r).Errorf("Request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func requestLog(r *http.Request) *logger.Entry {
	return logger.Log.WithFields(logger.Fields{
		"path":       r.URL.Path,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}

// compact убирает пустые строки и повторы, сохраняя порядок.
func compact(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
