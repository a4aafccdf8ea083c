package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iplan/cellact/internal/config"
	"github.com/iplan/cellact/internal/db"
	"github.com/iplan/cellact/internal/dedupe"
	"github.com/iplan/cellact/internal/kafka"
	"github.com/iplan/cellact/internal/report"
	"github.com/iplan/cellact/internal/repository"
	"github.com/iplan/cellact/internal/sender"
	"github.com/iplan/cellact/internal/service/inbound"
	"github.com/iplan/cellact/internal/soap"
)

// Gateway wires the outbound side: one SOAP client shared by send and pull.
type Gateway struct {
	Client *soap.Client
	Sender *sender.Sender
	Puller *report.Puller
}

func NewGateway(cfg config.Config, loc *time.Location, log *zap.Logger) (*Gateway, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	client := soap.NewClient(cfg.Gateway.TimeoutMs, cfg.Gateway.Breaker.FailThreshold, cfg.Gateway.Breaker.OpenForMs, log)

	snd, err := sender.New(client, cfg.Gateway.URLs.SendSMS, soap.Credentials{
		Username: cfg.Gateway.Username,
		Password: cfg.Gateway.Password,
		Company:  cfg.Gateway.Company,
	}, cfg.Plan(), log)
	if err != nil {
		return nil, fmt.Errorf("build sender: %w", err)
	}

	opts := cfg.ParserOptions(loc)
	opts.Logger = log
	puller, err := report.NewPuller(client, cfg.Gateway.URLs.ReportPull, report.Credentials{
		Username: cfg.Gateway.Username,
		Password: cfg.Gateway.Password,
	}, report.NewDemuxer(opts), log)
	if err != nil {
		return nil, fmt.Errorf("build report puller: %w", err)
	}

	return &Gateway{Client: client, Sender: snd, Puller: puller}, nil
}

// Pipeline wires the inbound side: dedupe, storage and publishing.
type Pipeline struct {
	MySQL     *sqlx.DB
	Redis     *redis.Client
	Publisher *kafka.Publisher
	Inbound   *inbound.Service
}

func OpenPipeline(ctx context.Context, cfg config.Config, log *zap.Logger) (*Pipeline, error) {
	p := &Pipeline{}

	var err error
	if p.MySQL, err = db.OpenMySQL(ctx, cfg.MySQL); err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}

	if p.Redis, err = db.OpenRedis(ctx, cfg.Redis); err != nil {
		p.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	if p.Publisher, err = kafka.NewPublisher(cfg.Kafka); err != nil {
		p.Close()
		return nil, err
	}

	p.Inbound = inbound.New(
		dedupe.New(p.Redis, cfg.Dedupe.TTL),
		repository.NewNotificationsRepository(p.MySQL),
		repository.NewRepliesRepository(p.MySQL),
		p.Publisher,
		log,
	)

	return p, nil
}

func (p *Pipeline) Close() {
	if p.Publisher != nil {
		_ = p.Publisher.Close()
	}
	if p.Redis != nil {
		_ = p.Redis.Close()
	}
	if p.MySQL != nil {
		_ = p.MySQL.Close()
	}
}
