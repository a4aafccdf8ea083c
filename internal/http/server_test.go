package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iplan/cellact/internal/config"
	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/parser"
	"github.com/iplan/cellact/internal/repository"
	"github.com/iplan/cellact/internal/sender"
	"github.com/iplan/cellact/internal/service/inbound"
)

type fakeInbound struct {
	notifications []model.DeliveryNotification
	replies       []model.SmsReply
	parseErrors   []error
	err           error
}

func (f *fakeInbound) AcceptNotification(_ context.Context, n model.DeliveryNotification, source string) (inbound.Outcome, error) {
	if f.err != nil {
		return "", f.err
	}
	f.notifications = append(f.notifications, n)
	return inbound.Accepted, nil
}

func (f *fakeInbound) AcceptReply(_ context.Context, r model.SmsReply, source string) (inbound.Outcome, error) {
	if f.err != nil {
		return "", f.err
	}
	f.replies = append(f.replies, r)
	return inbound.Accepted, nil
}

func (f *fakeInbound) ParseFailed(_ string, err error) { f.parseErrors = append(f.parseErrors, err) }

type fakeSender struct {
	req model.SendRequest
	res model.SendResult
	err error
}

func (f *fakeSender) Send(_ context.Context, req model.SendRequest) (model.SendResult, error) {
	f.req = req
	return f.res, f.err
}

type fakeReports struct {
	filter repository.NotificationFilter
	rows   []model.DeliveryNotification
}

func (f *fakeReports) List(_ context.Context, filter repository.NotificationFilter) ([]model.DeliveryNotification, error) {
	f.filter = filter
	return f.rows, nil
}

type harness struct {
	srv     *Server
	inbound *fakeInbound
	sender  *fakeSender
	reports *fakeReports
}

func newHarness(t *testing.T) harness {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	loc, err := cfg.Location()
	require.NoError(t, err)

	h := harness{inbound: &fakeInbound{}, sender: &fakeSender{}, reports: &fakeReports{}}
	h.srv = NewServer(cfg, Deps{
		Push:    parser.NewPushParser(parser.DialectPalo, cfg.ParserOptions(loc)),
		Inbound: h.inbound,
		Sender:  h.sender,
		Reports: h.reports,
	})
	return h
}

func (h harness) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func form(key, value string) string { return url.Values{key: {value}}.Encode() }

const confirmation = `<PALO><EVT>mt_del</EVT><RECIPIENT>+97254290862</RECIPIENT><BLMJ>1113333</BLMJ>` +
	`<MESSAGE_COUNT>3</MESSAGE_COUNT><FINAL_DATE>20110801111500</FINAL_DATE><SENDER>+972541234567</SENDER></PALO>`

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPushNotification(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/push/notification", "application/x-www-form-urlencoded", form("CONFIRMATION", confirmation))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, "1113333", body["message_id"])

	require.Len(t, h.inbound.notifications, 1)
	n := h.inbound.notifications[0]
	assert.Equal(t, model.PhoneNumber("972541234567"), n.Sender)
	assert.Equal(t, "01/08/2011 11:15:00", n.CompletedAt.Format(parser.PullDateLayout))
	assert.Equal(t, "Asia/Jerusalem", n.CompletedAt.Location().String())
}

func TestPushNotificationViaGet(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/push/notification?"+form("CONFIRMATION", confirmation), "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, h.inbound.notifications, 1)
}

func TestPushNotificationRejected(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/push/notification", "application/x-www-form-urlencoded", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, gwerr.NotificationMissingField, decode(t, rec)["code"])

	rec = h.do(http.MethodPost, "/push/notification", "application/x-www-form-urlencoded", form("CONFIRMATION", "<PALO>"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, gwerr.PushInvalidXML, decode(t, rec)["code"])

	assert.Len(t, h.inbound.parseErrors, 2)
	assert.Empty(t, h.inbound.notifications)
}

func TestPushPipelineFailureAsksForRetry(t *testing.T) {
	h := newHarness(t)
	h.inbound.err = errors.New("redis down")

	rec := h.do(http.MethodPost, "/push/notification", "application/x-www-form-urlencoded", form("CONFIRMATION", confirmation))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPushReply(t *testing.T) {
	h := newHarness(t)
	xml := `<PALO><HEAD><BLMJ>987654</BLMJ></HEAD><BODY><SENDER>+972545290862</SENDER><CONTENT>ok</CONTENT>` +
		`<DEST_LIST><TO>+972522222222</TO></DEST_LIST></BODY><OTHER><DATE>20120313101656</DATE></OTHER></PALO>`

	rec := h.do(http.MethodPost, "/push/reply", "application/x-www-form-urlencoded", form("XMLString", xml))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, h.inbound.replies, 1)
	assert.Equal(t, "987654", h.inbound.replies[0].MessageID)
	assert.Equal(t, time.Date(2012, 3, 13, 10, 16, 56, 0, h.inbound.replies[0].ReceivedAt.Location()), h.inbound.replies[0].ReceivedAt)
}

func TestSendSMS(t *testing.T) {
	h := newHarness(t)
	h.sender.res = model.SendResult{OK: true, MessageID: "c05b21a4", SenderName: "iplan"}

	rec := h.do(http.MethodPost, "/v1/sms/send", "application/json",
		`{"text":"hi","phones":[" 972541234567 "],"sender_name":"iplan"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "c05b21a4", decode(t, rec)["message_id"])
	assert.Equal(t, []string{"972541234567"}, h.sender.req.Phones)
}

func TestSendSMSErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{invalidArgument(), http.StatusBadRequest},
		{gwerr.New(gwerr.SendFailed, "sms send failed, reason: no credit", nil), http.StatusBadGateway},
		{gwerr.New(gwerr.IllegalResponseXML, "send response is not valid xml", nil), http.StatusUnprocessableEntity},
		{gwerr.New(gwerr.HTTPUnauthorized, "unauthorized", nil), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newHarness(t)
		h.sender.err = tc.err
		rec := h.do(http.MethodPost, "/v1/sms/send", "application/json", `{"text":"hi"}`)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func invalidArgument() error {
	return errors.Join(sender.ErrInvalidArgument, errors.New("no phones were given"))
}

func TestListNotifications(t *testing.T) {
	h := newHarness(t)
	h.reports.rows = []model.DeliveryNotification{{MessageID: "a1"}}

	rec := h.do(http.MethodGet, "/v1/reports/notifications?phone=0527718999&status=delivered&limit=10&offset=20", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, repository.NotificationFilter{
		Phone: "972527718999", Status: model.DeliveryStatusDelivered, Limit: 10, Offset: 20,
	}, h.reports.filter)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = h.do(http.MethodGet, "/v1/reports/notifications?status=lost", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", "").Code)
}
