package work

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/redis"
)

const (
	runStateKeyPrefix = "ingest:run:"
	runningState      = "running"
	// runTimeout sets how long a processing run may hold the guard before
	// it is considered dead. Prevents a crashed run from blocking a tenant
	// forever.
	runTimeout = 24 * time.Hour
)

// RunGuard serialises processing runs per tenant through Redis. Only one
// process-pending run may be active for a tenant at a time.
type RunGuard struct {
	redis *redis.RedisClient
}

// NewRunGuard creates a new RunGuard.
func NewRunGuard(redisClient *redis.RedisClient) *RunGuard {
	return &RunGuard{
		redis: redisClient,
	}
}

func (g *RunGuard) key(tenantID string) string {
	return fmt.Sprintf("%s%s", runStateKeyPrefix, tenantID)
}

// Acquire claims the run slot for a tenant. Returns ErrRunInProgress when
// another run already holds it.
func (g *RunGuard) Acquire(ctx context.Context, tenantID string) error {
	ok, err := g.redis.SetNX(ctx, g.key(tenantID), runningState, runTimeout)
	if err != nil {
		return fmt.Errorf("failed to acquire run guard for tenant %s: %w", tenantID, err)
	}
	if !ok {
		return common.ErrRunInProgress
	}
	return nil
}

// Release frees the run slot for a tenant.
func (g *RunGuard) Release(ctx context.Context, tenantID string) error {
	if err := g.redis.Delete(ctx, g.key(tenantID)); err != nil {
		return fmt.Errorf("failed to release run guard for tenant %s: %w", tenantID, err)
	}
	return nil
}

// IsRunning checks whether a run is currently active for a tenant.
func (g *RunGuard) IsRunning(ctx context.Context, tenantID string) (bool, error) {
	state, err := g.redis.Get(ctx, g.key(tenantID))
	if err != nil {
		if errors.Is(err, redisv9.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get run state for tenant %s: %w", tenantID, err)
	}
	return state == runningState, nil
}

// ListActiveTenants returns the tenant IDs of all currently active runs.
// It uses SCAN to avoid blocking the Redis server.
func (g *RunGuard) ListActiveTenants(ctx context.Context) ([]string, error) {
	var tenantIDs []string
	pattern := fmt.Sprintf("%s*", runStateKeyPrefix)

	iter := g.redis.GetClient().Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		tenantIDs = append(tenantIDs, strings.TrimPrefix(key, runStateKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan for active runs in Redis: %w", err)
	}

	return tenantIDs, nil
}
