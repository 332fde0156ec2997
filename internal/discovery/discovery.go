// Package discovery resolves a feed's title before subscribing to it.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"fdly/internal/logger"

	"github.com/mmcdole/gofeed"
)

var ErrEmptyURL = errors.New("feed URL is empty")

type TitleResolver struct {
	parser *gofeed.Parser
	log    *logger.Entry
}

func NewTitleResolver() *TitleResolver {
	return &TitleResolver{
		parser: gofeed.NewParser(),
		log:    logger.Component("discovery"),
	}
}

// Resolve загружает ленту и возвращает её заголовок.
// Если заголовок пустой, возвращается сам URL.
func (r *TitleResolver) Resolve(ctx context.Context, feedURL string) (string, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return "", ErrEmptyURL
	}
	if _, err := url.ParseRequestURI(feedURL); err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		r.log.WithField("url", feedURL).Warn("Empty feed title, falling back to URL")
		return feedURL, nil
	}
	return title, nil
}
