package service

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/repo"
)

// UserResolver batch-loads author briefs for history and audit listings and
// keeps a bounded cache in front of the users table. Unknown ids are simply
// absent from the result map.
type UserResolver struct {
	users *repo.UserRepo
	cache *lru.Cache[string, model.UserBrief]
}

func NewUserResolver(users *repo.UserRepo, cacheSize int) (*UserResolver, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, model.UserBrief](cacheSize)
	if err != nil {
		return nil, err
	}
	return &UserResolver{users: users, cache: cache}, nil
}

func (r *UserResolver) Resolve(ctx context.Context, userIDs []string) (map[string]model.UserBrief, error) {
	result := make(map[string]model.UserBrief, len(userIDs))
	missing := make([]string, 0)
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if brief, ok := r.cache.Get(id); ok {
			result[id] = brief
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}
	users, err := r.users.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		brief := model.UserBrief{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
		r.cache.Add(u.ID, brief)
		result[u.ID] = brief
	}
	return result, nil
}
