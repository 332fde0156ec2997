// Package cache keeps the user's category list between poll cycles.
package cache

import (
	"time"

	"fdly/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

const categoriesKey = "categories"

type CategoryCache struct {
	cache *gocache.Cache
}

// NewCategoryCache создаёт кэш с временем жизни ttl; очистка раз в 2*ttl.
func NewCategoryCache(ttl time.Duration) *CategoryCache {
	return &CategoryCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *CategoryCache) Get() ([]models.Category, bool) {
	v, found := c.cache.Get(categoriesKey)
	if !found {
		return nil, false
	}
	categories, ok := v.([]models.Category)
	if !ok {
		return nil, false
	}
	return append([]models.Category(nil), categories...), true
}

func (c *CategoryCache) Set(categories []models.Category) {
	c.cache.SetDefault(categoriesKey, append([]models.Category(nil), categories...))
}

func (c *CategoryCache) Invalidate() {
	c.cache.Delete(categoriesKey)
}
