package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/metrics"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/parser"
	"github.com/iplan/cellact/internal/phone"
	"github.com/iplan/cellact/internal/soap"
	"go.uber.org/zap"
)

// ErrInvalidArgument wraps every request validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

// Transport posts one SOAP call and returns the raw answer.
type Transport interface {
	Call(ctx context.Context, endpoint, namespace, action string, payload any) ([]byte, error)
}

type Sender struct {
	transport Transport
	endpoint  string
	creds     soap.Credentials
	plan      phone.Plan
	log       *zap.Logger
}

func New(t Transport, endpoint string, creds soap.Credentials, plan phone.Plan, log *zap.Logger) (*Sender, error) {
	required := []struct{ name, value string }{
		{"username", creds.Username},
		{"password", creds.Password},
		{"company", creds.Company},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, invalid("missing required attribute %s", r.name)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Sender{transport: t, endpoint: endpoint, creds: creds, plan: plan, log: log.Named("sender")}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

// Validate checks a request before anything goes on the wire.
func (s *Sender) Validate(req model.SendRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return invalid("text must be at least 1 character long")
	}
	if len(req.Phones) == 0 {
		return invalid("no phones were given")
	}
	name, number := strings.TrimSpace(req.SenderName), strings.TrimSpace(req.SenderNumber)
	if name == "" && number == "" {
		return invalid("either sender_name or sender_number is required")
	}
	if number != "" && !s.plan.ValidSenderNumber(number) {
		return invalid("reply to number must be between 4 to 14 digits: %s", number)
	}
	if name != "" && !phone.ValidSenderName(name) {
		return invalid("sender name must be between 2 and 11 latin chars")
	}
	for _, p := range req.Phones {
		if !s.plan.ValidCellular(p) {
			return invalid("phone number %q must be cellular phone with %s country code", p, s.plan.CountryCode)
		}
	}

	return nil
}

// Send submits req. A gateway that answers result=false is reported as a
// gateway error with code 111 carrying the parsed result.
func (s *Sender) Send(ctx context.Context, req model.SendRequest) (model.SendResult, error) {
	if err := s.Validate(req); err != nil {
		return model.SendResult{}, err
	}

	name, number := strings.TrimSpace(req.SenderName), strings.TrimSpace(req.SenderNumber)
	call := soap.NewSendCall(s.creds, req.Sender(), req.Text, req.Phones, strings.TrimSpace(req.DeliveryNotificationURL))
	body, err := s.transport.Call(ctx, s.endpoint, soap.SendNamespace, soap.ActionSend, call)
	if err != nil {
		metrics.SentTotal.WithLabelValues("failed").Inc()
		return model.SendResult{}, err
	}

	res, err := parser.ParseSendResponse(body)
	if err != nil {
		metrics.SentTotal.WithLabelValues("failed").Inc()
		return model.SendResult{}, err
	}

	res.SenderName = name
	res.SenderNumber = model.PhoneNumber(phone.WithoutStartingPlus(number))
	s.log.Debug("send response parsed", zap.Any("result", res))

	if !res.OK {
		metrics.SentTotal.WithLabelValues("rejected").Inc()
		return res, gwerr.New(gwerr.SendFailed,
			fmt.Sprintf("sms send failed, reason: %s", res.ErrorDescription),
			map[string]any{"soap_xml": string(body), "parsed_response": res})
	}

	metrics.SentTotal.WithLabelValues("accepted").Inc()
	s.log.Info("sms sent", zap.String("message_id", res.MessageID), zap.Int("recipients", len(req.Phones)))

	return res, nil
}
