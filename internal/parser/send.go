package parser

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
)

// ParseSendResponse reads the SendResult of a send call's SOAP answer. Any
// structural problem is reported as code 250; a well formed answer with
// result=false is returned as a non-OK result, not an error.
func ParseSendResponse(soapXML []byte) (model.SendResult, error) {
	illegal := func(msg string, cause error) error {
		return gwerr.New(gwerr.IllegalResponseXML, msg,
			map[string]any{"soap_xml": string(soapXML)}).WithCause(cause)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(soapXML))
	if err != nil {
		return model.SendResult{}, illegal("send response is not valid xml", err)
	}
	result := xmlquery.FindOne(doc, "//*[local-name()='SendResult']")
	if result == nil {
		return model.SendResult{}, illegal("send response has no SendResult", nil)
	}
	ok := xmlquery.FindOne(result, "./*[local-name()='result']")
	if ok == nil {
		return model.SendResult{}, illegal("SendResult has no result", nil)
	}

	res := model.SendResult{OK: strings.EqualFold(strings.TrimSpace(ok.InnerText()), "true")}
	if res.OK {
		id := xmlquery.FindOne(result, "./*[local-name()='sessionId']")
		if id == nil || strings.TrimSpace(id.InnerText()) == "" {
			return model.SendResult{}, illegal("successful SendResult has no sessionId", nil)
		}
		res.MessageID = strings.TrimSpace(id.InnerText())
		return res, nil
	}
	desc := xmlquery.FindOne(result, "./*[local-name()='errorDescription']")
	if desc == nil {
		return model.SendResult{}, illegal("failed SendResult has no errorDescription", nil)
	}
	res.ErrorDescription = strings.TrimSpace(desc.InnerText())
	return res, nil
}
