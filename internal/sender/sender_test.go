package sender

import (
	"context"
	"testing"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/phone"
	"github.com/iplan/cellact/internal/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	calls   int
	action  string
	payload any
	body    string
	err     error
}

func (f *fakeTransport) Call(_ context.Context, _, _, action string, payload any) ([]byte, error) {
	f.calls++
	f.action, f.payload = action, payload
	return []byte(f.body), f.err
}

func sendResult(inner string) string {
	return `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<SendResponse xmlns="http://www.cellact.com/webservices/"><SendResult>` + inner +
		`</SendResult></SendResponse></soap:Body></soap:Envelope>`
}

var creds = soap.Credentials{Username: "u", Password: "p", Company: "c"}

func newSender(t *testing.T, ft *fakeTransport) *Sender {
	t.Helper()
	s, err := New(ft, "https://gw.example/send", creds, phone.Israel, nil)
	require.NoError(t, err)
	return s
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(&fakeTransport{}, "x", soap.Credentials{Username: "u", Password: "p"}, phone.Israel, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "company")
}

func TestSendValidation(t *testing.T) {
	cases := map[string]model.SendRequest{
		"empty text":       {Text: " ", Phones: []string{"972541234567"}, SenderNumber: "0501234567"},
		"no phones":        {Text: "hi", SenderNumber: "0501234567"},
		"no sender":        {Text: "hi", Phones: []string{"972541234567"}},
		"short number":     {Text: "hi", Phones: []string{"972541234567"}, SenderNumber: "123"},
		"bad sender name":  {Text: "hi", Phones: []string{"972541234567"}, SenderName: "a very long name"},
		"national phone":   {Text: "hi", Phones: []string{"0541234567"}, SenderName: "iplan"},
		"land line target": {Text: "hi", Phones: []string{"97231234567"}, SenderName: "iplan"},
	}
	for name, req := range cases {
		ft := &fakeTransport{}
		_, err := newSender(t, ft).Send(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidArgument, name)
		assert.Zero(t, ft.calls, name)
	}
}

func TestSendOK(t *testing.T) {
	ft := &fakeTransport{body: sendResult(`<result>true</result><sessionId>c05b21a4</sessionId>`)}
	res, err := newSender(t, ft).Send(context.Background(), model.SendRequest{
		Text:                    "hello",
		Phones:                  []string{"972541234567", "972521234567"},
		SenderNumber:            "972501234567",
		DeliveryNotificationURL: "https://example.com/push/notification",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "c05b21a4", res.MessageID)
	assert.Equal(t, model.PhoneNumber("972501234567"), res.SenderNumber)
	assert.Empty(t, res.SenderName)

	assert.Equal(t, soap.ActionSend, ft.action)
	call, ok := ft.payload.(soap.SendCall)
	require.True(t, ok)
	assert.Equal(t, creds, call.Credentials)
	assert.Equal(t, "+972501234567", call.Request.Sender)
	assert.Equal(t, "hello", call.Request.Content)
	require.NotNil(t, call.Request.DeliveryAddresses)
	assert.Equal(t, "https://example.com/push/notification", call.Request.DeliveryAddresses.Report.Address)
	assert.Equal(t, []soap.Destination{{Address: "+972541234567"}, {Address: "+972521234567"}}, call.Request.Destinations)
}

func TestSendNameWins(t *testing.T) {
	ft := &fakeTransport{body: sendResult(`<result>true</result><sessionId>1</sessionId>`)}
	res, err := newSender(t, ft).Send(context.Background(), model.SendRequest{
		Text: "hi", Phones: []string{"972541234567"}, SenderName: "iplan", SenderNumber: "0501234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "iplan", res.SenderName)
	assert.Equal(t, model.PhoneNumber("0501234567"), res.SenderNumber)
	assert.Equal(t, "iplan", ft.payload.(soap.SendCall).Request.Sender)
	assert.Nil(t, ft.payload.(soap.SendCall).Request.DeliveryAddresses)
}

func TestSendRejected(t *testing.T) {
	ft := &fakeTransport{body: sendResult(`<result>false</result><sessionId /><errorDescription>Address not allowed</errorDescription>`)}
	res, err := newSender(t, ft).Send(context.Background(), model.SendRequest{
		Text: "hi", Phones: []string{"972541234567"}, SenderName: "iplan",
	})

	var ge *gwerr.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, gwerr.SendFailed, ge.Code)
	assert.Contains(t, ge.Message, "Address not allowed")
	assert.False(t, res.OK)
	assert.Equal(t, res, ge.Context["parsed_response"])
}

func TestSendIllegalResponse(t *testing.T) {
	ft := &fakeTransport{body: `<html>maintenance</html>`}
	_, err := newSender(t, ft).Send(context.Background(), model.SendRequest{
		Text: "hi", Phones: []string{"972541234567"}, SenderName: "iplan",
	})
	assert.True(t, gwerr.Is(err, gwerr.IllegalResponseXML))
}

func TestSendTransportError(t *testing.T) {
	ft := &fakeTransport{err: gwerr.New(gwerr.HTTPNotFound, "not found", nil)}
	_, err := newSender(t, ft).Send(context.Background(), model.SendRequest{
		Text: "hi", Phones: []string{"972541234567"}, SenderName: "iplan",
	})
	assert.True(t, gwerr.Is(err, gwerr.HTTPNotFound))
}
