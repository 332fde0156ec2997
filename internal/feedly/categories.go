package feedly

import (
	"context"
	"net/http"

	"fdly/internal/models"
)

// CategoryList returns the user's categories in the order Feedly sends them.
func (c *Client) CategoryList(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, request{
		op:     "get categories",
		method: http.MethodGet,
		path:   "/categories",
	}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Categories returns the available categories keyed by label.
// When two categories share a label the later one wins.
func (c *Client) Categories(ctx context.Context) (map[string]string, error) {
	list, err := c.CategoryList(ctx)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]string, len(list))
	for _, ctg := range list {
		categories[ctg.Label] = ctg.ID
	}
	return categories, nil
}
