package report

import (
	"context"
	"errors"

	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/soap"
	"go.uber.org/zap"
)

// Transport posts one SOAP call and returns the raw answer.
type Transport interface {
	Call(ctx context.Context, endpoint, namespace, action string, payload any) ([]byte, error)
}

type Credentials struct {
	Username string
	Password string
}

// Puller drains pending notifications and replies from the report service.
type Puller struct {
	transport Transport
	endpoint  string
	creds     Credentials
	demux     *Demuxer
	log       *zap.Logger
}

func NewPuller(t Transport, endpoint string, creds Credentials, demux *Demuxer, log *zap.Logger) (*Puller, error) {
	if creds.Username == "" {
		return nil, errors.New("report puller: username is required")
	}
	if creds.Password == "" {
		return nil, errors.New("report puller: password is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Puller{transport: t, endpoint: endpoint, creds: creds, demux: demux, log: log.Named("puller")}, nil
}

// Pull asks for up to batchSize pending items.
func (p *Puller) Pull(ctx context.Context, batchSize int) (model.ReportPullResult, error) {
	body, err := p.transport.Call(ctx, p.endpoint, soap.PullNamespace, soap.ActionPull, soap.PullCall{
		UserName:  p.creds.Username,
		Password:  p.creds.Password,
		BatchSize: batchSize,
	})
	if err != nil {
		return model.ReportPullResult{}, err
	}

	res, err := p.demux.ParseResponse(body)
	if err != nil {
		return model.ReportPullResult{}, err
	}

	p.log.Info("report pulled",
		zap.Int("status", res.Status),
		zap.Int("batch_size", res.BatchSize),
		zap.Int("notifications", len(res.Notifications)),
		zap.Int("replies", len(res.Replies)),
		zap.Int("errors", len(res.Errors)))

	return res, nil
}
