package repository

import (
	"context"

	"github.com/iplan/cellact/internal/model"
	"github.com/jmoiron/sqlx"
)

type NotificationFilter struct {
	Phone  string
	Status model.DeliveryStatus
	Limit  int
	Offset int
}

// CHNotificationsRepository lists notifications from ClickHouse (final view).
type CHNotificationsRepository interface {
	List(ctx context.Context, f NotificationFilter) ([]model.DeliveryNotification, error)
}

type chNotificationsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHNotificationsRepository(ch *sqlx.DB) CHNotificationsRepository {
	return &chNotificationsRepository{ch: ch}
}

func (r *chNotificationsRepository) List(ctx context.Context, f NotificationFilter) ([]model.DeliveryNotification, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := `
		SELECT message_id, phone, sender, gateway_status, delivery_status, parts_count, completed_at, reason_not_delivered
		FROM cellact.delivery_notifications_latest
		WHERE 1 = 1
	`
	var args []any

	if f.Status != "" {
		q += " AND delivery_status = ?"
		args = append(args, f.Status.String())
	}
	if f.Phone != "" {
		q += " AND phone = ?"
		args = append(args, f.Phone)
	}

	q += " ORDER BY completed_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows := []model.DeliveryNotification{}
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
