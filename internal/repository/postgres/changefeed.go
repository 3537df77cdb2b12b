package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/domain/models"
)

// FileChangeHandler receives one row change from the files table. op is
// the trigger's TG_OP: INSERT, UPDATE or DELETE.
type FileChangeHandler func(op string, file models.File)

// ChangeFeed listens on the files NOTIFY channel and delivers row changes
// to a handler. The server fans them out to connected clients.
type ChangeFeed struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewChangeFeed(pool *pgxpool.Pool, logger *slog.Logger) *ChangeFeed {
	return &ChangeFeed{pool: pool, logger: logger}
}

type changePayload struct {
	Op  string      `json:"op"`
	Row models.File `json:"row"`
}

// Run blocks on the channel until the context is canceled. The LISTEN
// session needs a connection of its own; notifications arrive outside
// any query, so the connection cannot go back to the pool. On connection
// loss it backs off and re-listens rather than giving up.
func (cf *ChangeFeed) Run(ctx context.Context, handler FileChangeHandler) error {
	for {
		err := cf.listen(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cf.logger.Warn("change feed disconnected, retrying", "error", err)

		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (cf *ChangeFeed) listen(ctx context.Context, handler FileChangeHandler) error {
	conn, err := cf.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+FileChangeChannel); err != nil {
		return fmt.Errorf("listen %s: %w", FileChangeChannel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var payload changePayload
		if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
			cf.logger.Warn("dropping malformed change notification", "error", err)
			continue
		}
		handler(payload.Op, payload.Row)
	}
}
