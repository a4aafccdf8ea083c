package repository

import (
	"context"

	"github.com/iplan/cellact/internal/model"
	"github.com/jmoiron/sqlx"
)

// RepliesRepository persists inbound sms replies keyed by message id.
type RepliesRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, r model.SmsReply) (bool, error)
}

type RepliesRepositoryImpl struct {
	db *sqlx.DB
}

func NewRepliesRepository(db *sqlx.DB) *RepliesRepositoryImpl {
	return &RepliesRepositoryImpl{db: db}
}

// Insert stores r unless a reply with the same message id exists; it reports
// whether a row was written.
func (r *RepliesRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, reply model.SmsReply) (bool, error) {
	const q = `
		INSERT IGNORE INTO sms_replies
		    (message_id, phone, reply_to_phone, text, received_at, created_at)
		VALUES
		    (:message_id, :phone, :reply_to_phone, :text, :received_at, NOW())
	`
	reply.ReceivedAt = reply.ReceivedAt.UTC()

	var inserted bool
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, q, reply)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0

		return nil
	})

	return inserted, err
}
