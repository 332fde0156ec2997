package feedly_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fdly/internal/feedly"
	"fdly/internal/logger"
	"fdly/internal/models"

	"github.com/stretchr/testify/require"
)

const (
	testUserID = "00000000-aaaa-bbbb-cccc-000000000001"
	testToken  = "secret-token"
)

type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

// fakeFeedly serves canned responses per path and records every request.
type fakeFeedly struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recorded
	routes   map[string]func(w http.ResponseWriter)
}

func newFakeFeedly(t *testing.T) (*fakeFeedly, *httptest.Server) {
	t.Helper()
	f := &fakeFeedly{t: t, routes: map[string]func(w http.ResponseWriter){}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		f.mu.Lock()
		f.requests = append(f.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		handler, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w)
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeFeedly) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func (f *fakeFeedly) all() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func (f *fakeFeedly) last() recorded {
	reqs := f.all()
	require.NotEmpty(f.t, reqs, "no request reached the fake server")
	return reqs[len(reqs)-1]
}

func newClient(server *httptest.Server, opts ...feedly.Option) *feedly.Client {
	base := []feedly.Option{
		feedly.WithBaseURL(server.URL),
		feedly.WithLogger(logger.Discard()),
	}
	return feedly.New(models.User{ID: testUserID, AuthToken: testToken}, append(base, opts...)...)
}

func TestNew_RootURL(t *testing.T) {
	c := feedly.New(models.User{ID: testUserID, AuthToken: testToken})
	require.Equal(t, "https://cloud.feedly.com/v3", c.RootURL())

	c = feedly.New(models.User{}, feedly.WithBaseURL("http://localhost:9000/"), feedly.WithAPIVersion("v4"))
	require.Equal(t, "http://localhost:9000/v4", c.RootURL())
}

func TestIsAvailable(t *testing.T) {
	fake, server := newFakeFeedly(t)
	client := newClient(server)

	require.False(t, client.IsAvailable(context.Background()))

	fake.on(http.MethodGet, "/", http.StatusOK, "")
	require.True(t, client.IsAvailable(context.Background()))
	require.Empty(t, fake.last().Header.Get("Authorization"))
}

func TestCanAuthenticate(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		expected bool
	}{
		{name: "token accepted", status: http.StatusOK, expected: true},
		{name: "token rejected", status: http.StatusUnauthorized, expected: false},
		{name: "server error", status: http.StatusInternalServerError, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake, server := newFakeFeedly(t)
			fake.on(http.MethodGet, "/v3/profile", tc.status, `{"id":"`+testUserID+`"}`)

			client := newClient(server)
			require.Equal(t, tc.expected, client.CanAuthenticate(context.Background()))

			req := fake.last()
			require.Equal(t, "OAuth "+testToken, req.Header.Get("Authorization"))
			require.NotEmpty(t, req.Header.Get("User-Agent"))
		})
	}
}

func TestCanAuthenticate_Unreachable(t *testing.T) {
	_, server := newFakeFeedly(t)
	client := newClient(server)
	server.Close()

	require.False(t, client.CanAuthenticate(context.Background()))
}

func TestProfile(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/profile", http.StatusOK,
		`{"id":"`+testUserID+`","email":"jim@example.com","fullName":"Jim Smith","locale":"en"}`)

	profile, err := newClient(server).Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, &models.Profile{ID: testUserID, Email: "jim@example.com", FullName: "Jim Smith"}, profile)
}

func TestCategories(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/categories", http.StatusOK, `[
		{"id": "user/`+testUserID+`/category/tech", "label": "Tech"},
		{"id": "user/`+testUserID+`/category/design", "label": "Design", "description": "ignored"}
	]`)

	client := newClient(server)

	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"Tech":   "user/" + testUserID + "/category/tech",
		"Design": "user/" + testUserID + "/category/design",
	}, categories)

	list, err := client.CategoryList(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Tech", list[0].Label)
	require.Equal(t, "Design", list[1].Label)
}

func TestCategories_NonOK(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/categories", http.StatusUnauthorized, `{"errorCode":401}`)

	_, err := newClient(server).Categories(context.Background())
	require.Error(t, err)
	require.EqualError(t, err, "could not get categories: 401")
	require.True(t, feedly.IsStatus(err, http.StatusUnauthorized))
	require.False(t, feedly.IsStatus(err, http.StatusForbidden))
}

func TestCategories_InvalidJSON(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/categories", http.StatusOK, `{not json`)

	_, err := newClient(server).Categories(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestEntries_DefaultOptions(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/streams/contents", http.StatusOK, `{
		"id": "user/x/category/tech",
		"continuation": "16d0f9c1a2b:3c1:5b1c",
		"items": [
			{
				"id": "entry-1",
				"title": "First",
				"originId": "https://example.com/first",
				"summary": {"content": "<p>Hello</p>", "direction": "ltr"},
				"origin": {"title": "Example Blog", "htmlUrl": "https://example.com"}
			},
			{
				"id": "entry-2",
				"title": "No summary",
				"originId": "https://example.com/second"
			},
			{
				"id": "entry-3",
				"title": "Odd types",
				"originId": "https://example.com/third",
				"summary": {"content": 42},
				"origin": {"title": null}
			}
		]
	}`)

	page, err := newClient(server).Entries(context.Background(), "user/x/category/tech", feedly.DefaultEntriesOptions())
	require.NoError(t, err)

	require.Equal(t, "16d0f9c1a2b:3c1:5b1c", page.Continuation)
	require.Equal(t, []models.Entry{
		{ID: "entry-1", Title: "First", Content: "<p>Hello</p>", OriginURL: "https://example.com/first", OriginTitle: "Example Blog"},
		{ID: "entry-2", Title: "No summary", OriginURL: "https://example.com/second"},
		{ID: "entry-3", Title: "Odd types", OriginURL: "https://example.com/third"},
	}, page.Entries)

	req := fake.last()
	require.Equal(t, []string{"newest"}, req.Query["ranked"])
	require.Equal(t, []string{"true"}, req.Query["unreadOnly"])
	require.Equal(t, []string{"20"}, req.Query["count"])
	require.Equal(t, []string{"user/x/category/tech"}, req.Query["streamId"])
	require.NotContains(t, req.Query, "continuation")
	require.NotContains(t, req.Query, "newerThan")
}

func TestEntries_Options(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/streams/contents", http.StatusOK, `{"items": []}`)

	newerThan := time.UnixMilli(1700000000123)
	page, err := newClient(server).Entries(context.Background(), "Saved", feedly.EntriesOptions{
		SortByOldest: true,
		Count:        5,
		UnreadOnly:   false,
		Continuation: "abc:def",
		NewerThan:    newerThan,
	})
	require.NoError(t, err)
	require.Empty(t, page.Entries)
	require.Empty(t, page.Continuation)

	req := fake.last()
	require.Equal(t, []string{"oldest"}, req.Query["ranked"])
	require.Equal(t, []string{"false"}, req.Query["unreadOnly"])
	require.Equal(t, []string{"5"}, req.Query["count"])
	require.Equal(t, []string{"abc:def"}, req.Query["continuation"])
	require.Equal(t, []string{"1700000000123"}, req.Query["newerThan"])
	require.Equal(t, []string{"user/" + testUserID + "/tag/global.saved"}, req.Query["streamId"])
}

func TestEntries_ZeroCountFallsBackToDefault(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/streams/contents", http.StatusOK, `{"items": []}`)

	_, err := newClient(server).Entries(context.Background(), "All", feedly.EntriesOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"20"}, fake.last().Query["count"])
}

func TestEntries_NonOK(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/streams/contents", http.StatusTooManyRequests, ``)

	_, err := newClient(server).Entries(context.Background(), "All", feedly.DefaultEntriesOptions())
	require.EqualError(t, err, "could not get entries: 429")
}

func TestStreamID(t *testing.T) {
	client := feedly.New(models.User{ID: testUserID, AuthToken: testToken})

	testCases := []struct {
		categoryID string
		expected   string
	}{
		{categoryID: "All", expected: "user/" + testUserID + "/category/global.all"},
		{categoryID: "Uncategorized", expected: "user/" + testUserID + "/category/global.uncategorized"},
		{categoryID: "Saved", expected: "user/" + testUserID + "/tag/global.saved"},
		{categoryID: "user/" + testUserID + "/category/tech", expected: "user/" + testUserID + "/category/tech"},
		{categoryID: "all", expected: "all"},
	}

	for _, tc := range testCases {
		t.Run(tc.categoryID, func(t *testing.T) {
			require.Equal(t, tc.expected, client.StreamID(tc.categoryID))
		})
	}
}

func TestMarkCategoryAs(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodPost, "/v3/markers", http.StatusOK, ``)
	client := newClient(server)

	err := client.MarkCategoryAs(context.Background(), "user/x/category/tech", models.ActionRead, "")
	require.NoError(t, err)

	req := fake.last()
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.Equal(t, "OAuth "+testToken, req.Header.Get("Authorization"))
	require.JSONEq(t, `{
		"type": "categories",
		"categoryIds": ["user/x/category/tech"],
		"action": "markAsRead"
	}`, string(req.Body))

	err = client.MarkCategoryAs(context.Background(), "user/x/category/tech", models.ActionUnread, "entry-9")
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "categories",
		"categoryIds": ["user/x/category/tech"],
		"lastReadEntryId": "entry-9",
		"action": "undoMarkAsRead"
	}`, string(fake.last().Body))
}

func TestMarkCategoryAs_EmptyID(t *testing.T) {
	fake, server := newFakeFeedly(t)

	err := newClient(server).MarkCategoryAs(context.Background(), "", models.ActionRead, "")
	require.ErrorIs(t, err, feedly.ErrEmptyCategoryID)
	require.Empty(t, fake.all())
}

func TestMarkCategoryAs_NonOK(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodPost, "/v3/markers", http.StatusInternalServerError, ``)

	err := newClient(server).MarkCategoryAs(context.Background(), "c", models.ActionRead, "")
	require.EqualError(t, err, "could not mark category with markAsRead: 500")
}

func TestMarkEntriesAs(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodPost, "/v3/markers", http.StatusOK, ``)

	err := newClient(server).MarkEntriesAs(context.Background(), []string{"e1", "e2"}, models.ActionUnread)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "entries",
		"entryIds": ["e1", "e2"],
		"action": "undoMarkAsRead"
	}`, string(fake.last().Body))
}

func TestMarkEntriesAs_EmptyIsNoop(t *testing.T) {
	fake, server := newFakeFeedly(t)

	require.NoError(t, newClient(server).MarkEntriesAs(context.Background(), nil, models.ActionRead))
	require.Empty(t, fake.all())
}

func TestMarkEntriesAs_NonOK(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodPost, "/v3/markers", http.StatusBadRequest, ``)

	err := newClient(server).MarkEntriesAs(context.Background(), []string{"e1"}, models.ActionRead)
	require.EqualError(t, err, "could not mark entries with markAsRead: 400")
}

func TestMarkFeedAs(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodPost, "/v3/markers", http.StatusOK, ``)
	client := newClient(server)

	require.ErrorIs(t, client.MarkFeedAs(context.Background(), "", models.ActionRead, ""), feedly.ErrEmptyFeedID)
	require.Empty(t, fake.all())

	require.NoError(t, client.MarkFeedAs(context.Background(), "feed/https://example.com/rss", models.ActionRead, "entry-3"))
	require.JSONEq(t, `{
		"type": "feeds",
		"feedIds": ["feed/https://example.com/rss"],
		"lastReadEntryId": "entry-3",
		"action": "markAsRead"
	}`, string(fake.last().Body))
}

func TestAddSubscription(t *testing.T) {
	testCases := []struct {
		name       string
		categories []string
		expected   string
	}{
		{
			name:     "without categories",
			expected: `{"id":"feed/http://feeds.feedburner.com/design-milk","title":"Design Milk","categories":[]}`,
		},
		{
			name:       "with categories",
			categories: []string{"user/x/category/design", "user/x/category/daily"},
			expected: `{"id":"feed/http://feeds.feedburner.com/design-milk","title":"Design Milk",
				"categories":[{"id":"user/x/category/design"},{"id":"user/x/category/daily"}]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake, server := newFakeFeedly(t)
			fake.on(http.MethodPost, "/v3/subscription", http.StatusOK, `[]`)

			err := newClient(server).AddSubscription(context.Background(),
				"http://feeds.feedburner.com/design-milk", "Design Milk", tc.categories...)
			require.NoError(t, err)
			require.JSONEq(t, tc.expected, string(fake.last().Body))
		})
	}
}

func TestAddSubscription_Errors(t *testing.T) {
	fake, server := newFakeFeedly(t)
	client := newClient(server)

	require.ErrorIs(t, client.AddSubscription(context.Background(), "", "title"), feedly.ErrEmptyFeedURL)
	require.Empty(t, fake.all())

	fake.on(http.MethodPost, "/v3/subscription", http.StatusForbidden, ``)
	err := client.AddSubscription(context.Background(), "https://example.com/rss", "Example")
	require.EqualError(t, err, "could not add subscription: 403")
}

func TestSubscriptions(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/subscriptions", http.StatusOK, `[
		{
			"id": "feed/http://feeds.feedburner.com/design-milk",
			"title": "Design Milk",
			"website": "http://design-milk.com",
			"visualUrl": "http://pbs.twimg.com/design-milk.png",
			"sortid": "26152F8F",
			"updated": 1367539068016,
			"added": 1367539068000,
			"categories": [{"id": "user/x/category/design", "label": "design"}]
		},
		{"id": "feed/https://example.com/rss", "title": "Example"}
	]`)

	feeds, err := newClient(server).Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	require.Equal(t, models.Feed{
		ID:         "feed/http://feeds.feedburner.com/design-milk",
		Title:      "Design Milk",
		URL:        "http://design-milk.com",
		VisualURL:  "http://pbs.twimg.com/design-milk.png",
		SortID:     "26152F8F",
		Updated:    time.UnixMilli(1367539068016).UTC(),
		Added:      time.UnixMilli(1367539068000).UTC(),
		Categories: []models.Category{{ID: "user/x/category/design", Label: "design"}},
	}, feeds[0])
	require.True(t, feeds[1].Updated.IsZero())
	require.Empty(t, feeds[1].Categories)
}

func TestUnreadCounts(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/markers/counts", http.StatusOK, `{
		"max": 1000,
		"unreadcounts": [
			{"id": "user/x/category/global.all", "count": 605, "updated": 1367539068016},
			{"id": "feed/https://example.com/rss", "count": 3, "updated": 0}
		]
	}`)

	counts, err := newClient(server).UnreadCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.UnreadCount{
		{ID: "user/x/category/global.all", Count: 605, Updated: time.UnixMilli(1367539068016).UTC()},
		{ID: "feed/https://example.com/rss", Count: 3},
	}, counts)
}

type observation struct {
	endpoint string
	status   int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recordingObserver) ObserveRequest(endpoint string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{endpoint: endpoint, status: status})
}

func TestObserver(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/categories", http.StatusOK, `[]`)

	obs := &recordingObserver{}
	client := newClient(server, feedly.WithObserver(obs))

	_, err := client.Categories(context.Background())
	require.NoError(t, err)
	_ = client.CanAuthenticate(context.Background())

	require.Equal(t, []observation{
		{endpoint: "GET /categories", status: http.StatusOK},
		{endpoint: "GET /profile", status: http.StatusNotFound},
	}, obs.obs)
}

func TestRateLimit_ContextCancelled(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodGet, "/v3/categories", http.StatusOK, `[]`)

	client := newClient(server, feedly.WithRateLimit(0.001, 1))

	_, err := client.Categories(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Categories(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
	require.Len(t, fake.all(), 1)
}

func TestWithTimeout_DoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	_ = feedly.New(models.User{}, feedly.WithHTTPClient(shared), feedly.WithTimeout(time.Second))
	require.Equal(t, time.Minute, shared.Timeout)
}

func TestRequestBodyIsJSON(t *testing.T) {
	fake, server := newFakeFeedly(t)
	fake.on(http.MethodPost, "/v3/markers", http.StatusOK, ``)

	require.NoError(t, newClient(server).MarkEntriesAs(context.Background(), []string{"e1"}, models.ActionRead))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(fake.last().Body, &decoded))
	require.Equal(t, "entries", decoded["type"])
}
