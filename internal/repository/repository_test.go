package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iplan/cellact/internal/model"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	return sqlx.NewDb(raw, "mysql"), mock
}

func TestNotificationsUpsert(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2011, 8, 1, 11, 15, 0, 0, time.FixedZone("IDT", 3*3600))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_notifications")).
		WithArgs("1113333", model.PhoneNumber("97254290862"), model.PhoneNumber("972541234567"),
			model.GatewayStatusDelivered, model.DeliveryStatusDelivered, 3, at.UTC(), "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := NewNotificationsRepository(db).Upsert(context.Background(), nil, model.DeliveryNotification{
		GatewayStatus:  model.GatewayStatusDelivered,
		DeliveryStatus: model.DeliveryStatusDelivered,
		MessageID:      "1113333",
		Phone:          "97254290862",
		Sender:         "972541234567",
		PartsCount:     3,
		CompletedAt:    at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationsUpsertRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO delivery_notifications").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := NewNotificationsRepository(db).Upsert(context.Background(), nil, model.DeliveryNotification{MessageID: "1"})
	assert.EqualError(t, err, "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepliesInsert(t *testing.T) {
	db, mock := newMock(t)
	reply := model.SmsReply{MessageID: "m1", Phone: "972545290862", ReplyToPhone: "972522222222", Text: "yes", ReceivedAt: time.Unix(0, 0)}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO sms_replies")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO sms_replies")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewRepliesRepository(db)
	inserted, err := repo.Insert(context.Background(), nil, reply)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(context.Background(), nil, reply)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHNotificationsList(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2012, 3, 13, 8, 16, 56, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"message_id", "phone", "sender", "gateway_status", "delivery_status",
		"parts_count", "completed_at", "reason_not_delivered"}).
		AddRow("a1", "972527718999", "972545290862", "mt_del", "delivered", 1, at, "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM cellact.delivery_notifications_latest")).
		WithArgs("delivered", "972527718999", 50, 0).
		WillReturnRows(rows)

	got, err := NewCHNotificationsRepository(db).List(context.Background(), NotificationFilter{
		Phone: "972527718999", Status: model.DeliveryStatusDelivered, Limit: 5000, Offset: -1,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].MessageID)
	assert.Equal(t, model.DeliveryStatusDelivered, got[0].DeliveryStatus)
	assert.Equal(t, at, got[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
