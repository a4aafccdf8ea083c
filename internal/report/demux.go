package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/parser"
	"go.uber.org/zap"
)

// Item types found in a pulled batch.
const (
	TypeNotification = "Notification"
	TypeMoMessage    = "MoMessage"
)

var pullStatuses = map[string]int{
	"OK":                    model.PullStatusOK,
	"Failed":                model.PullStatusFailed,
	"BadUserNameOrPassword": model.PullStatusBadUserNameOrPassword,
	"UserNameNotExists":     model.PullStatusUserNameNotExists,
	"PasswordNotExists":     model.PullStatusPasswordNotExists,
}

// Demuxer splits a pulled batch into notifications and replies. A bad item
// lands in the result's Errors and never aborts the rest of the batch.
type Demuxer struct {
	notifications parser.NotificationParser
	replies       parser.ReplyParser
	log           *zap.Logger
}

func NewDemuxer(opts parser.Options) *Demuxer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts.Logger = log

	return &Demuxer{
		notifications: parser.NewPullNotificationParser(opts),
		replies:       parser.NewReplyParser(parser.DialectIncoming, opts),
		log:           log.Named("report"),
	}
}

// ParseResponse extracts the ClientNotification document embedded as text in
// a PullClientNotification SOAP answer and demultiplexes it.
func (d *Demuxer) ParseResponse(soapXML []byte) (model.ReportPullResult, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(soapXML))
	if err != nil {
		return model.ReportPullResult{}, gwerr.New(gwerr.PullInvalidStatus, "pull response is not valid xml",
			map[string]any{"soap_xml": string(soapXML)}).WithCause(err)
	}

	res := xmlquery.FindOne(doc, "//*[local-name()='PullClientNotificationResult']")
	if res == nil {
		return model.ReportPullResult{}, gwerr.New(gwerr.PullInvalidStatus, "pull response has no PullClientNotificationResult",
			map[string]any{"soap_xml": string(soapXML)})
	}

	return d.Demux(res.InnerText())
}

// Demux parses a ClientNotification document:
//
//	<ClientNotification><Status>OK</Status><BatchSize>1</BatchSize>
//	<Messages><Message><Type>Notification</Type>...</Message></Messages>
//	</ClientNotification>
func (d *Demuxer) Demux(reportXML string) (model.ReportPullResult, error) {
	d.log.Debug("demultiplexing pulled report", zap.String("xml", reportXML))

	doc, err := xmlquery.Parse(strings.NewReader(reportXML))
	if err != nil {
		return model.ReportPullResult{}, gwerr.New(gwerr.PullInvalidStatus, "pulled report is not valid xml",
			map[string]any{"xml": reportXML}).WithCause(err)
	}

	statusText := childText(doc, "/*/Status")
	status, ok := pullStatuses[statusText]
	if !ok {
		return model.ReportPullResult{}, gwerr.New(gwerr.PullInvalidStatus,
			fmt.Sprintf("pull status is invalid: %q", statusText),
			map[string]any{"xml": reportXML})
	}

	batchText := childText(doc, "/*/BatchSize")
	batch, err := strconv.Atoi(batchText)
	if err != nil {
		return model.ReportPullResult{}, gwerr.New(gwerr.PullConversion,
			fmt.Sprintf("batch size could not be converted to integer, was: %q", batchText),
			map[string]any{"xml": reportXML}).WithCause(err)
	}

	result := model.ReportPullResult{
		Status:        status,
		BatchSize:     batch,
		Notifications: []model.DeliveryNotification{},
		Replies:       []model.SmsReply{},
		Errors:        []model.ItemError{},
	}
	if status != model.PullStatusOK || batch <= 0 {
		return result, nil
	}

	for _, msg := range xmlquery.Find(doc, "//Messages/Message") {
		n, r, err := d.item(msg)
		switch {
		case err != nil:
			raw := msg.OutputXML(true)
			d.log.Warn("pulled item could not be parsed", zap.String("item", raw), zap.Error(err))
			result.Errors = append(result.Errors, model.ItemError{RawItem: raw, Message: err.Error(), Cause: err})
		case n != nil:
			result.Notifications = append(result.Notifications, *n)
		case r != nil:
			result.Replies = append(result.Replies, *r)
		}
	}

	return result, nil
}

func (d *Demuxer) item(msg *xmlquery.Node) (n *model.DeliveryNotification, r *model.SmsReply, err error) {
	defer func() {
		if p := recover(); p != nil {
			n, r, err = nil, nil, fmt.Errorf("panic while parsing pulled item: %v", p)
		}
	}()

	switch typ := childText(msg, "Type"); typ {
	case TypeNotification:
		parsed, err := d.notifications.Parse(parser.NotificationFields{
			GatewayStatus:      childText(msg, "Status"),
			PartsCount:         childText(msg, "SegmentsNumber"),
			MessageID:          childText(msg, "CustomerMessageId"),
			Phone:              childText(msg, "PhoneNumber"),
			Sender:             childText(msg, "SenderNumber"),
			ReasonNotDelivered: childText(msg, "StatusDescription"),
			CompletedAt:        childText(msg, "NotificationDate"),
		})
		if err != nil {
			return nil, nil, err
		}
		return &parsed, nil, nil
	case TypeMoMessage:
		parsed, err := d.replies.Parse(parser.ReplyFields{
			Phone:        childText(msg, "PhoneNumber"),
			Text:         childRaw(msg, "SentMessage"),
			ReplyToPhone: childText(msg, "SenderNumber"),
			ReceivedAt:   childText(msg, "NotificationDate"),
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, &parsed, nil
	default:
		return nil, nil, gwerr.New(gwerr.PullUnknownMessageType,
			fmt.Sprintf("unknown message type: %q", typ),
			map[string]any{"xml": msg.OutputXML(true)})
	}
}

func childText(top *xmlquery.Node, expr string) string {
	return strings.TrimSpace(childRaw(top, expr))
}

func childRaw(top *xmlquery.Node, expr string) string {
	n := xmlquery.FindOne(top, expr)
	if n == nil {
		return ""
	}
	return n.InnerText()
}
