package feedly

import (
	"context"
	"net/http"
	"time"

	"fdly/internal/models"
)

type categoryRef struct {
	ID string `json:"id"`
}

type subscriptionRequest struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Categories []categoryRef `json:"categories"`
}

// AddSubscription subscribes to feedURL under title, optionally filing it into
// the given categories.
func (c *Client) AddSubscription(ctx context.Context, feedURL, title string, categoryIDs ...string) error {
	if feedURL == "" {
		return ErrEmptyFeedURL
	}

	body := subscriptionRequest{
		ID:         "feed/" + feedURL,
		Title:      title,
		Categories: make([]categoryRef, 0, len(categoryIDs)),
	}
	for _, id := range categoryIDs {
		body.Categories = append(body.Categories, categoryRef{ID: id})
	}

	return c.do(ctx, request{
		op:     "add subscription",
		method: http.MethodPost,
		path:   "/subscription",
		body:   body,
	}, nil)
}

type wireFeed struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Website    string            `json:"website"`
	VisualURL  string            `json:"visualUrl"`
	SortID     string            `json:"sortid"`
	Updated    int64             `json:"updated"`
	Added      int64             `json:"added"`
	Categories []models.Category `json:"categories"`
}

// Subscriptions lists the feeds the user is subscribed to.
func (c *Client) Subscriptions(ctx context.Context) ([]models.Feed, error) {
	var wire []wireFeed
	if err := c.do(ctx, request{
		op:     "get subscriptions",
		method: http.MethodGet,
		path:   "/subscriptions",
	}, &wire); err != nil {
		return nil, err
	}

	feeds := make([]models.Feed, 0, len(wire))
	for _, f := range wire {
		feeds = append(feeds, models.Feed{
			ID:         f.ID,
			Title:      f.Title,
			URL:        f.Website,
			VisualURL:  f.VisualURL,
			SortID:     f.SortID,
			Updated:    fromMillis(f.Updated),
			Added:      fromMillis(f.Added),
			Categories: f.Categories,
		})
	}
	return feeds, nil
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
