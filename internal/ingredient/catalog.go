package ingredient

import (
	"context"

	"foodgram/internal/cache"
	"foodgram/internal/logging"
	"foodgram/pkg/models"
)

const searchKeyPrefix = "ingredients:search:"

// Catalog puts a cache in front of prefix search. Cache failures degrade to
// a direct read.
type Catalog struct {
	Repo  *Repo
	Cache cache.Cache
}

func NewCatalog(repo *Repo, c cache.Cache) *Catalog {
	if c == nil {
		c = cache.Nop{}
	}
	return &Catalog{Repo: repo, Cache: c}
}

func (c *Catalog) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	return c.Repo.Get(ctx, id)
}

func (c *Catalog) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	key := searchKeyPrefix + SearchKey(prefix)

	var cached []models.Ingredient
	found, err := c.Cache.Get(ctx, key, &cached)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("ingredient cache read failed")
	}
	if found {
		return cached, nil
	}

	out, err := c.Repo.Search(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Set(ctx, key, out); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("ingredient cache write failed")
	}
	return out, nil
}

func (c *Catalog) GetOrCreate(ctx context.Context, in Input) (*models.Ingredient, bool, error) {
	ing, created, err := c.Repo.GetOrCreate(ctx, in)
	if err != nil {
		return nil, false, err
	}
	if created {
		if err := c.Cache.DeletePrefix(ctx, searchKeyPrefix); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("ingredient cache invalidation failed")
		}
	}
	return ing, created, nil
}
