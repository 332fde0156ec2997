package discovery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fdly/internal/discovery"

	"github.com/stretchr/testify/require"
)

func serveFeed(t *testing.T, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		xml      string
		expected func(url string) string
	}{
		{
			name: "rss title",
			xml: `<?xml version="1.0" encoding="UTF-8"?>
			<rss version="2.0"><channel><title>  Design Milk </title>
			<item><title>Chair</title><link>http://example.com/chair</link></item>
			</channel></rss>`,
			expected: func(string) string { return "Design Milk" },
		},
		{
			name: "atom title",
			xml: `<?xml version="1.0" encoding="utf-8"?>
			<feed xmlns="http://www.w3.org/2005/Atom"><title>The Go Blog</title>
			<id>tag:blog.golang.org,2013:blog.golang.org</id><updated>2024-01-01T00:00:00Z</updated></feed>`,
			expected: func(string) string { return "The Go Blog" },
		},
		{
			name:     "empty title falls back to url",
			xml:      `<?xml version="1.0"?><rss version="2.0"><channel><title></title></channel></rss>`,
			expected: func(url string) string { return url },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			feedURL := serveFeed(t, tc.xml)

			title, err := discovery.NewTitleResolver().Resolve(context.Background(), feedURL)
			require.NoError(t, err)
			require.Equal(t, tc.expected(feedURL), title)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	r := discovery.NewTitleResolver()

	_, err := r.Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, discovery.ErrEmptyURL)

	_, err = r.Resolve(context.Background(), "not a url")
	require.Error(t, err)

	_, err = r.Resolve(context.Background(), serveFeed(t, "plain text, not a feed"))
	require.Error(t, err)
}
