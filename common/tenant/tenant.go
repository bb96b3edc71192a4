package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/repository"
)

type ctxKey struct{}

// WithID returns a context carrying the tenant ID.
func WithID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// FromContext extracts the tenant ID set by WithID.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithTenant pins a connection, sets the tenant session variable for
// row-level-security-enabled databases, and runs fn with queries bound to
// that connection. Statements inside fn autocommit individually so a failed
// insert cannot poison the rest of a batch.
//
// The session variable is defense in depth only: every query in this
// repository also filters by an explicit tenant_id argument.
func WithTenant(ctx context.Context, pool *pgxpool.Pool, tenantID string, fn func(ctx context.Context, q *repository.Queries) error) error {
	if tenantID == "" {
		return common.ErrTenantRequired
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring tenant connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT set_config('app.current_tenant_id', $1, false)", tenantID); err != nil {
		return fmt.Errorf("setting tenant context: %w", err)
	}
	defer func() {
		// Clear before the conn returns to the pool.
		_, _ = conn.Exec(context.Background(), "SELECT set_config('app.current_tenant_id', '', false)")
	}()

	return fn(WithID(ctx, tenantID), repository.New(conn))
}
