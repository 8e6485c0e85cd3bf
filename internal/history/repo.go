package history

import (
	"context"

	"github.com/ariefcatur/go-bookstore.git/internal/orders"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Record is idempotent on the event id.
func (r *Repo) Record(ctx context.Context, e orders.HistoryEntry) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_status_history (event_id, order_id, status, actor_role, occurred_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.OrderID, e.Status, e.ActorRole, e.OccurredAt)
	return err
}
