package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
	"go.uber.org/zap"
)

// Form parameters carrying the pushed XML documents.
const (
	NotificationParam  = "CONFIRMATION"
	PaloReplyParam     = "XMLString"
	IncomingReplyParam = "IncomingXML"
)

// PushParser extracts field maps out of the XML documents the gateway pushes
// to our webhooks and hands them to the field parsers.
type PushParser struct {
	notifications NotificationParser
	replies       ReplyParser
	dialect       Dialect
	log           *zap.Logger
}

func NewPushParser(dialect Dialect, opts Options) *PushParser {
	opts = opts.withDefaults()
	return &PushParser{
		notifications: NewPushNotificationParser(opts),
		replies:       NewReplyParser(dialect, opts),
		dialect:       dialect,
		log:           opts.Logger.Named("push"),
	}
}

// ReplyParam is the form parameter holding the reply document.
func (p *PushParser) ReplyParam() string {
	if p.dialect == DialectIncoming {
		return IncomingReplyParam
	}
	return PaloReplyParam
}

// Notification parses a pushed delivery confirmation. The tags are looked up
// under whatever root the gateway sends, usually PALO:
//
//	<PALO><EVT>mt_del</EVT><RECIPIENT>+972...</RECIPIENT><BLMJ>id</BLMJ>
//	<MESSAGE_COUNT>1</MESSAGE_COUNT><FINAL_DATE>20110801111500</FINAL_DATE>
//	<SENDER>+972...</SENDER><REASON></REASON></PALO>
func (p *PushParser) Notification(params url.Values) (model.DeliveryNotification, error) {
	raw := params.Get(NotificationParam)
	if strings.TrimSpace(raw) == "" {
		return model.DeliveryNotification{}, gwerr.New(gwerr.NotificationMissingField,
			fmt.Sprintf("missing http parameter %s", NotificationParam),
			map[string]any{"params": params})
	}
	doc, err := p.parse(raw, params)
	if err != nil {
		return model.DeliveryNotification{}, err
	}
	return p.notifications.Parse(NotificationFields{
		GatewayStatus:      text(doc, "//EVT"),
		Phone:              text(doc, "//RECIPIENT"),
		MessageID:          text(doc, "//BLMJ"),
		PartsCount:         text(doc, "//MESSAGE_COUNT"),
		CompletedAt:        text(doc, "//FINAL_DATE"),
		Sender:             text(doc, "//SENDER"),
		ReasonNotDelivered: text(doc, "//REASON"),
	})
}

// Reply parses a pushed inbound sms in the configured dialect.
func (p *PushParser) Reply(params url.Values) (model.SmsReply, error) {
	name := p.ReplyParam()
	raw := params.Get(name)
	if strings.TrimSpace(raw) == "" {
		return model.SmsReply{}, gwerr.New(gwerr.ReplyMissingField,
			fmt.Sprintf("missing http parameter %s", name),
			map[string]any{"params": params})
	}
	doc, err := p.parse(raw, params)
	if err != nil {
		return model.SmsReply{}, err
	}

	var f ReplyFields
	if p.dialect == DialectIncoming {
		f = ReplyFields{
			Phone:        text(doc, "//IncomingData/PhoneNumber"),
			Text:         rawText(doc, "//IncomingData/Message"),
			ReplyToPhone: text(doc, "//IncomingData/ShortCode"),
		}
	} else {
		f = ReplyFields{
			MessageID:    text(doc, "//PALO/HEAD/BLMJ"),
			Phone:        text(doc, "//PALO/BODY/SENDER"),
			Text:         rawText(doc, "//PALO/BODY/CONTENT"),
			ReplyToPhone: text(doc, "//PALO/BODY/DEST_LIST/TO"),
			ReceivedAt:   text(doc, "//PALO/OTHER/DATE"),
		}
	}
	return p.replies.Parse(f)
}

func (p *PushParser) parse(raw string, params url.Values) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(raw))
	if err == nil && xmlquery.FindOne(doc, "/*") == nil {
		err = fmt.Errorf("document has no root element")
	}
	if err != nil {
		p.log.Warn("pushed xml could not be parsed", zap.Error(err))
		return nil, gwerr.New(gwerr.PushInvalidXML, "pushed xml could not be parsed",
			map[string]any{"params": params, "xml": raw}).WithCause(err)
	}
	return doc, nil
}

// text is the trimmed inner text of the first match, or "" when absent.
func text(top *xmlquery.Node, expr string) string {
	return strings.TrimSpace(rawText(top, expr))
}

func rawText(top *xmlquery.Node, expr string) string {
	n := xmlquery.FindOne(top, expr)
	if n == nil {
		return ""
	}
	return n.InnerText()
}
