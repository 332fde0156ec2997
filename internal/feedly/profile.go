package feedly

import (
	"context"
	"net/http"

	"fdly/internal/models"
)

// IsAvailable reports whether the Feedly host answers 200. No credentials are sent.
func (c *Client) IsAvailable(ctx context.Context) bool {
	err := c.do(ctx, request{
		op:     "reach feedly",
		method: http.MethodGet,
		path:   "/",
		rawURL: c.baseURL,
		noAuth: true,
	}, nil)
	return err == nil
}

// CanAuthenticate reports whether the token is accepted by /profile.
func (c *Client) CanAuthenticate(ctx context.Context) bool {
	err := c.do(ctx, request{
		op:     "authenticate",
		method: http.MethodGet,
		path:   "/profile",
	}, nil)
	return err == nil
}

type wireProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p wireProfile
	if err := c.do(ctx, request{
		op:     "get profile",
		method: http.MethodGet,
		path:   "/profile",
	}, &p); err != nil {
		return nil, err
	}
	return &models.Profile{ID: p.ID, Email: p.Email, FullName: p.FullName}, nil
}
