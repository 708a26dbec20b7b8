package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/pkg/logger"
)

// ProjectCacheService is a cache-aside layer for per-user project lists,
// keyed "projects:<userID>". Redis is optional; with no client every call
// is a no-op and reads fall through to the database. The cache is never
// the source of truth.
type ProjectCacheService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProjectCacheService(cfg *config.RedisConfig) *ProjectCacheService {
	svc := &ProjectCacheService{ttl: time.Hour}
	if cfg.CacheTTLHours > 0 {
		svc.ttl = time.Duration(cfg.CacheTTLHours) * time.Hour
	}
	if !cfg.Enabled {
		return svc
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("[Cache] Redis unavailable, project list cache disabled: %v", err)
		return svc
	}

	svc.rdb = rdb
	return svc
}

func projectListKey(userID uint) string {
	return fmt.Sprintf("projects:%d", userID)
}

// GetProjectList returns the cached project list for a user, if present.
func (s *ProjectCacheService) GetProjectList(ctx context.Context, userID uint) ([]models.Project, bool) {
	if s.rdb == nil {
		return nil, false
	}

	data, err := s.rdb.Get(ctx, projectListKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}

	var projects []models.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, false
	}
	return projects, true
}

// SetProjectList caches a user's project list. Best-effort.
func (s *ProjectCacheService) SetProjectList(ctx context.Context, userID uint, projects []models.Project) {
	if s.rdb == nil {
		return
	}

	data, err := json.Marshal(projects)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, projectListKey(userID), data, s.ttl).Err(); err != nil {
		logger.Warnf("[Cache] failed to set %s: %v", projectListKey(userID), err)
	}
}

// Invalidate drops the cached project list of each given user. Called
// after every membership mutation. Best-effort.
func (s *ProjectCacheService) Invalidate(ctx context.Context, userIDs ...uint) {
	if s.rdb == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, projectListKey(id))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warnf("[Cache] failed to invalidate project lists: %v", err)
	}
}

// Close releases the redis client.
func (s *ProjectCacheService) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
