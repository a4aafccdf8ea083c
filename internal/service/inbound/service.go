package inbound

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/metrics"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/repository"
	"github.com/iplan/cellact/internal/util"
	"go.uber.org/zap"
)

type Deduper interface {
	FirstSeen(ctx context.Context, kind model.EventKind, id string) (bool, error)
	Forget(ctx context.Context, kind model.EventKind, id string) error
}

type Publisher interface {
	Publish(ctx context.Context, env model.Envelope) error
}

type Outcome string

const (
	Accepted  Outcome = "accepted"
	Duplicate Outcome = "duplicate"
)

// Summary counts what happened to one pulled batch.
type Summary struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
	ItemErrors int `json:"item_errors"`
}

// Service runs every parsed gateway event through dedupe, storage and
// publishing. A failed store or publish releases the dedupe claim so the
// gateway's re-delivery is processed again.
type Service struct {
	dedupe        Deduper
	notifications repository.NotificationsRepository
	replies       repository.RepliesRepository
	publisher     Publisher
	now           func() time.Time
	log           *zap.Logger
}

func New(
	dedupe Deduper,
	notifications repository.NotificationsRepository,
	replies repository.RepliesRepository,
	publisher Publisher,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		dedupe:        dedupe,
		notifications: notifications,
		replies:       replies,
		publisher:     publisher,
		now:           time.Now,
		log:           log.Named("inbound"),
	}
}

// notifications of one message id fan out per recipient and status
func notificationKey(n model.DeliveryNotification) string {
	return n.MessageID + ":" + n.Phone.String() + ":" + n.GatewayStatus.String()
}

func (s *Service) AcceptNotification(ctx context.Context, n model.DeliveryNotification, source string) (Outcome, error) {
	env := model.Envelope{Kind: model.EventNotification, Source: source, Notification: &n}

	return s.accept(ctx, env, notificationKey(n), func() error {
		return s.notifications.Upsert(ctx, nil, n)
	})
}

func (s *Service) AcceptReply(ctx context.Context, r model.SmsReply, source string) (Outcome, error) {
	env := model.Envelope{Kind: model.EventReply, Source: source, Reply: &r}

	return s.accept(ctx, env, r.MessageID, func() error {
		_, err := s.replies.Insert(ctx, nil, r)
		return err
	})
}

func (s *Service) accept(ctx context.Context, env model.Envelope, key string, store func() error) (Outcome, error) {
	first, err := s.dedupe.FirstSeen(ctx, env.Kind, key)
	if err != nil {
		s.count(env, "failed")
		return "", err
	}
	if !first {
		s.count(env, string(Duplicate))
		s.log.Debug("duplicate event dropped", zap.String("kind", string(env.Kind)), zap.String("key", key))
		return Duplicate, nil
	}

	if err := store(); err != nil {
		s.release(ctx, env.Kind, key)
		s.count(env, "failed")
		return "", fmt.Errorf("store %s: %w", env.Kind, err)
	}

	env.OccurredAt = s.now().UTC()
	env.ID = util.NewID(env.OccurredAt)
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.release(ctx, env.Kind, key)
		s.count(env, "failed")
		return "", fmt.Errorf("publish %s: %w", env.Kind, err)
	}

	s.count(env, string(Accepted))
	s.log.Info("event accepted",
		zap.String("id", env.ID), zap.String("kind", string(env.Kind)),
		zap.String("source", env.Source), zap.String("key", key))

	return Accepted, nil
}

func (s *Service) release(ctx context.Context, kind model.EventKind, key string) {
	if err := s.dedupe.Forget(ctx, kind, key); err != nil {
		s.log.Error("dedupe claim not released", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) count(env model.Envelope, outcome string) {
	metrics.InboundTotal.WithLabelValues(string(env.Kind), env.Source, outcome).Inc()
}

// AcceptPull feeds a pulled batch into the pipeline. Item parse errors and
// per-event failures are logged and counted; the rest of the batch goes on.
func (s *Service) AcceptPull(ctx context.Context, res model.ReportPullResult) Summary {
	var sum Summary

	tally := func(o Outcome, err error) {
		switch {
		case err != nil:
			sum.Failed++
			s.log.Error("pulled event not accepted", zap.Error(err))
		case o == Duplicate:
			sum.Duplicates++
		default:
			sum.Accepted++
		}
	}

	for _, n := range res.Notifications {
		tally(s.AcceptNotification(ctx, n, model.SourcePull))
	}
	for _, r := range res.Replies {
		tally(s.AcceptReply(ctx, r, model.SourcePull))
	}

	for _, ie := range res.Errors {
		sum.ItemErrors++
		s.ParseFailed(model.SourcePull, ie.Cause)
		s.log.Warn("pulled item rejected", zap.String("item", ie.RawItem), zap.String("error", ie.Message))
	}

	return sum
}

// ParseFailed counts a payload the parsers rejected.
func (s *Service) ParseFailed(source string, err error) {
	code := "unknown"
	if c, ok := gwerr.CodeOf(err); ok {
		code = strconv.Itoa(c)
	}
	metrics.ParseErrorsTotal.WithLabelValues(source, code).Inc()
}
