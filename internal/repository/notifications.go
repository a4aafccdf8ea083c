package repository

import (
	"context"

	"github.com/iplan/cellact/internal/model"
	"github.com/jmoiron/sqlx"
)

// NotificationsRepository persists delivery notifications. A notification is
// identified by (message_id, phone, gateway_status); storing it twice is a no-op
// apart from refreshing its mutable columns.
type NotificationsRepository interface {
	Upsert(ctx context.Context, tx *sqlx.Tx, n model.DeliveryNotification) error
}

type NotificationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationsRepository(db *sqlx.DB) *NotificationsRepositoryImpl {
	return &NotificationsRepositoryImpl{db: db}
}

func (r *NotificationsRepositoryImpl) Upsert(ctx context.Context, tx *sqlx.Tx, n model.DeliveryNotification) error {
	const q = `
		INSERT INTO delivery_notifications
		    (message_id, phone, sender, gateway_status, delivery_status, parts_count, completed_at, reason_not_delivered, created_at)
		VALUES
		    (:message_id, :phone, :sender, :gateway_status, :delivery_status, :parts_count, :completed_at, :reason_not_delivered, NOW())
		ON DUPLICATE KEY UPDATE
		    delivery_status = VALUES(delivery_status),
		    parts_count = VALUES(parts_count),
		    completed_at = VALUES(completed_at),
		    reason_not_delivered = VALUES(reason_not_delivered)
	`
	n.CompletedAt = n.CompletedAt.UTC()

	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, q, n)
		return err
	})
}
