package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iplan/cellact/internal/dedupe"
	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
)

type fakeNotifications struct {
	stored []model.DeliveryNotification
	err    error
}

func (f *fakeNotifications) Upsert(_ context.Context, _ *sqlx.Tx, n model.DeliveryNotification) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, n)
	return nil
}

type fakeReplies struct {
	stored []model.SmsReply
}

func (f *fakeReplies) Insert(_ context.Context, _ *sqlx.Tx, r model.SmsReply) (bool, error) {
	f.stored = append(f.stored, r)
	return true, nil
}

type fakePublisher struct {
	envs []model.Envelope
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, env model.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.envs = append(f.envs, env)
	return nil
}

type fixture struct {
	svc   *Service
	mr    *miniredis.Miniredis
	notes *fakeNotifications
	reps  *fakeReplies
	pub   *fakePublisher
}

func setup(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := fixture{mr: mr, notes: &fakeNotifications{}, reps: &fakeReplies{}, pub: &fakePublisher{}}
	f.svc = New(dedupe.New(rdb, time.Hour), f.notes, f.reps, f.pub, nil)
	f.svc.now = func() time.Time { return time.Date(2012, 3, 13, 8, 16, 56, 0, time.UTC) }

	return f
}

var delivered = model.DeliveryNotification{
	GatewayStatus: model.GatewayStatusDelivered, DeliveryStatus: model.DeliveryStatusDelivered,
	MessageID: "1113333", Phone: "97254290862", Sender: "972541234567", PartsCount: 3,
}

func TestAcceptNotificationOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.AcceptNotification(ctx, delivered, model.SourcePush)
	require.NoError(t, err)
	assert.Equal(t, Accepted, o)

	o, err = f.svc.AcceptNotification(ctx, delivered, model.SourcePush)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, o)

	require.Len(t, f.notes.stored, 1)
	require.Len(t, f.pub.envs, 1)
	env := f.pub.envs[0]
	assert.Equal(t, model.EventNotification, env.Kind)
	assert.Equal(t, model.SourcePush, env.Source)
	assert.Equal(t, "1113333", env.Key())
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, f.svc.now(), env.OccurredAt)
}

func TestSameMessageOtherRecipientIsNotDuplicate(t *testing.T) {
	f := setup(t)
	other := delivered
	other.Phone = "972529999999"

	_, err := f.svc.AcceptNotification(context.Background(), delivered, model.SourcePush)
	require.NoError(t, err)
	o, err := f.svc.AcceptNotification(context.Background(), other, model.SourcePush)
	require.NoError(t, err)
	assert.Equal(t, Accepted, o)
}

func TestFailedStoreReleasesClaim(t *testing.T) {
	f := setup(t)
	f.notes.err = errors.New("mysql gone")

	_, err := f.svc.AcceptNotification(context.Background(), delivered, model.SourcePush)
	require.ErrorContains(t, err, "mysql gone")
	assert.Empty(t, f.pub.envs)

	f.notes.err = nil
	o, err := f.svc.AcceptNotification(context.Background(), delivered, model.SourcePush)
	require.NoError(t, err)
	assert.Equal(t, Accepted, o)
}

func TestFailedPublishReleasesClaim(t *testing.T) {
	f := setup(t)
	f.pub.err = errors.New("no leader")
	reply := model.SmsReply{MessageID: "r1", Phone: "972545290862", ReplyToPhone: "972522222222"}

	_, err := f.svc.AcceptReply(context.Background(), reply, model.SourcePush)
	require.Error(t, err)

	f.pub.err = nil
	o, err := f.svc.AcceptReply(context.Background(), reply, model.SourcePush)
	require.NoError(t, err)
	assert.Equal(t, Accepted, o)
	assert.Len(t, f.reps.stored, 2)
}

func TestAcceptPull(t *testing.T) {
	f := setup(t)
	res := model.ReportPullResult{
		Status:        model.PullStatusOK,
		BatchSize:     4,
		Notifications: []model.DeliveryNotification{delivered, delivered},
		Replies:       []model.SmsReply{{MessageID: "r1", Phone: "972545290862"}},
		Errors: []model.ItemError{{
			RawItem: "<Message/>", Message: "unknown message type",
			Cause: gwerr.New(gwerr.PullUnknownMessageType, "unknown message type", nil),
		}},
	}

	sum := f.svc.AcceptPull(context.Background(), res)
	assert.Equal(t, Summary{Accepted: 2, Duplicates: 1, ItemErrors: 1}, sum)
	for _, env := range f.pub.envs {
		assert.Equal(t, model.SourcePull, env.Source)
	}
}

func TestRedisDownFailsEvent(t *testing.T) {
	f := setup(t)
	f.mr.Close()

	_, err := f.svc.AcceptNotification(context.Background(), delivered, model.SourcePush)
	assert.Error(t, err)
	assert.Empty(t, f.notes.stored)
}
