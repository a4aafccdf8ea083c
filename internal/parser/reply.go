package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/phone"
	"go.uber.org/zap"
)

// ReplyFields are the raw values of one inbound reply. An empty ReceivedAt
// means the source carried no timestamp.
type ReplyFields struct {
	MessageID    string
	Phone        string
	ReplyToPhone string
	Text         string
	ReceivedAt   string
}

func (f ReplyFields) values() map[string]string {
	return map[string]string{
		"message_id":     f.MessageID,
		"phone":          f.Phone,
		"reply_to_phone": f.ReplyToPhone,
		"text":           f.Text,
		"received_at":    f.ReceivedAt,
	}
}

// Dialect selects how reply phones, ids and timestamps are read.
type Dialect string

const (
	// DialectPalo is the nested PALO document: +prefixed phones, a gateway
	// message id and YYYYMMDDHHMMSS timestamps.
	DialectPalo Dialect = "palo"
	// DialectIncoming is the flat IncomingData document and the pulled
	// MoMessage item: national or international phones, no message id,
	// DD/MM/YYYY HH:MM:SS timestamps.
	DialectIncoming Dialect = "incoming"
)

func (d Dialect) Valid() bool { return d == DialectPalo || d == DialectIncoming }

// ReplyParser turns raw reply fields into a typed reply.
type ReplyParser interface {
	Parse(f ReplyFields) (model.SmsReply, error)
}

type replyParser struct {
	dialect Dialect
	layout  string
	plan    phone.Plan
	policy  DatePolicy
	loc     *time.Location
	now     func() time.Time
	log     *zap.Logger
}

// NewReplyParser builds a parser for the given dialect.
func NewReplyParser(d Dialect, opts Options) ReplyParser {
	opts = opts.withDefaults()
	p := &replyParser{
		dialect: d,
		layout:  PushDateLayout,
		plan:    opts.Plan,
		policy:  opts.ReplyDatePolicy,
		loc:     opts.Location,
		now:     opts.Now,
		log:     opts.Logger.Named("replies").With(zap.String("dialect", string(d))),
	}
	if d == DialectIncoming {
		p.layout = PullDateLayout
	}
	return p
}

func (p *replyParser) required() []string {
	if p.dialect == DialectPalo {
		return []string{"phone", "reply_to_phone", "message_id"}
	}
	return []string{"phone", "reply_to_phone"}
}

func (p *replyParser) Parse(f ReplyFields) (model.SmsReply, error) {
	values := f.values()
	p.log.Debug("parsing sms reply values", zap.Any("values", values))

	for _, key := range p.required() {
		if strings.TrimSpace(values[key]) == "" {
			return model.SmsReply{}, gwerr.New(gwerr.ReplyMissingField,
				fmt.Sprintf("missing sms reply values key %s", key),
				map[string]any{"values": values})
		}
	}

	r := model.SmsReply{
		MessageID:    strings.TrimSpace(f.MessageID),
		Phone:        model.PhoneNumber(p.canonical(f.Phone)),
		ReplyToPhone: model.PhoneNumber(p.canonical(f.ReplyToPhone)),
		Text:         f.Text,
	}

	receivedAt, err := p.receivedAt(f.ReceivedAt, values)
	if err != nil {
		return model.SmsReply{}, err
	}
	r.ReceivedAt = receivedAt

	if r.MessageID == "" {
		r.MessageID = SynthesizeReplyID(r.Phone, r.ReplyToPhone, r.ReceivedAt)
	}
	return r, nil
}

func (p *replyParser) canonical(raw string) string {
	s := phone.WithoutStartingPlus(strings.TrimSpace(raw))
	if p.dialect == DialectIncoming {
		return p.plan.EnsureCountryCode(s)
	}
	return s
}

func (p *replyParser) receivedAt(raw string, values map[string]string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return p.now().In(p.loc), nil
	}
	t, err := time.ParseInLocation(p.layout, raw, p.loc)
	if err == nil {
		return t, nil
	}
	if p.policy == DateLenient {
		p.log.Warn("received_at could not be converted, using current time",
			zap.String("received_at", raw), zap.Error(err))
		return p.now().In(p.loc), nil
	}
	p.log.Error("received_at could not be converted", zap.String("received_at", raw), zap.Error(err))
	return time.Time{}, gwerr.New(gwerr.ReplyDateConversion,
		fmt.Sprintf("received date could not be converted to date, was: %q", raw),
		map[string]any{"values": values}).WithCause(err)
}

// SynthesizeReplyID builds a deterministic id for replies the gateway did not
// number: base36(phone)-base36(reply_to_phone)-base36(unix seconds).
func SynthesizeReplyID(from, to model.PhoneNumber, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s",
		phone.ToIDString(from.String()),
		phone.ToIDString(to.String()),
		strconv.FormatInt(at.Unix(), 36))
}
