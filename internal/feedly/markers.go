package feedly

import (
	"context"
	"net/http"

	"fdly/internal/models"
)

type markersRequest struct {
	Type            string        `json:"type"`
	EntryIDs        []string      `json:"entryIds,omitempty"`
	CategoryIDs     []string      `json:"categoryIds,omitempty"`
	FeedIDs         []string      `json:"feedIds,omitempty"`
	LastReadEntryID string        `json:"lastReadEntryId,omitempty"`
	Action          models.Action `json:"action"`
}

// MarkCategoryAs applies action to a whole category. lastReadEntryID is optional.
func (c *Client) MarkCategoryAs(ctx context.Context, categoryID string, action models.Action, lastReadEntryID string) error {
	if categoryID == "" {
		return ErrEmptyCategoryID
	}

	return c.do(ctx, request{
		op:     "mark category with " + action.String(),
		method: http.MethodPost,
		path:   "/markers",
		body: markersRequest{
			Type:            "categories",
			CategoryIDs:     []string{categoryID},
			LastReadEntryID: lastReadEntryID,
			Action:          action,
		},
	}, nil)
}

// MarkEntriesAs applies action to the given entries. An empty list is a no-op.
func (c *Client) MarkEntriesAs(ctx context.Context, entryIDs []string, action models.Action) error {
	if len(entryIDs) == 0 {
		return nil
	}

	return c.do(ctx, request{
		op:     "mark entries with " + action.String(),
		method: http.MethodPost,
		path:   "/markers",
		body: markersRequest{
			Type:     "entries",
			EntryIDs: entryIDs,
			Action:   action,
		},
	}, nil)
}

// MarkFeedAs applies action to every entry of one feed.
func (c *Client) MarkFeedAs(ctx context.Context, feedID string, action models.Action, lastReadEntryID string) error {
	if feedID == "" {
		return ErrEmptyFeedID
	}

	return c.do(ctx, request{
		op:     "mark feed with " + action.String(),
		method: http.MethodPost,
		path:   "/markers",
		body: markersRequest{
			Type:            "feeds",
			FeedIDs:         []string{feedID},
			LastReadEntryID: lastReadEntryID,
			Action:          action,
		},
	}, nil)
}

type wireUnreadCount struct {
	ID      string `json:"id"`
	Count   int    `json:"count"`
	Updated int64  `json:"updated"`
}

// UnreadCounts returns unread counters for every category and feed.
func (c *Client) UnreadCounts(ctx context.Context) ([]models.UnreadCount, error) {
	var resp struct {
		UnreadCounts []wireUnreadCount `json:"unreadcounts"`
	}
	if err := c.do(ctx, request{
		op:     "get unread counts",
		method: http.MethodGet,
		path:   "/markers/counts",
	}, &resp); err != nil {
		return nil, err
	}

	counts := make([]models.UnreadCount, 0, len(resp.UnreadCounts))
	for _, uc := range resp.UnreadCounts {
		counts = append(counts, models.UnreadCount{
			ID:      uc.ID,
			Count:   uc.Count,
			Updated: fromMillis(uc.Updated),
		})
	}
	return counts, nil
}
