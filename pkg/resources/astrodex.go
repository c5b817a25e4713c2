package resources

import (
	"context"
	"net/http"

	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/fetch"
)

// AddAstrodexItem adds item to the user's collection.
func (s *Store) AddAstrodexItem(ctx context.Context, item AstrodexItem) (*fetch.Payload, error) {
	if item.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "item name is required")
	}
	return s.Mutate(ctx, http.MethodPost, "/api/astrodex/items", item, Astrodex)
}

// UpdateAstrodexItem replaces the fields of item id.
func (s *Store) UpdateAstrodexItem(ctx context.Context, id string, item AstrodexItem) (*fetch.Payload, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "item id is required")
	}
	return s.Mutate(ctx, http.MethodPut, astrodexItemPath(id), item, Astrodex)
}

// DeleteAstrodexItem removes item id.
func (s *Store) DeleteAstrodexItem(ctx context.Context, id string) (*fetch.Payload, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "item id is required")
	}
	return s.Mutate(ctx, http.MethodDelete, astrodexItemPath(id), nil, Astrodex)
}

// SaveConfig posts a new server configuration. The server recomputes its
// astronomy caches for the new location, so those entries are dropped too.
func (s *Store) SaveConfig(ctx context.Context, cfg any) (*fetch.Payload, error) {
	return s.Mutate(ctx, http.MethodPost, Config.Path, cfg, configDependents()...)
}
