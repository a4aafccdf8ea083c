package soap

import (
	"bytes"
	"encoding/xml"
)

// Namespaces of the two gateway web services.
const (
	SendNamespace = "http://www.cellact.com/webservices/"
	PullNamespace = "http://tempuri.org/"
)

const (
	ActionSend = "Send"
	ActionPull = "PullClientNotification"
)

type envelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	SOAP    string   `xml:"xmlns:soap,attr"`
	Body    struct {
		Payload any
	} `xml:"soap:Body"`
}

// Marshal wraps payload into a SOAP 1.1 envelope. The payload's XMLName
// names the operation element.
func Marshal(payload any) ([]byte, error) {
	env := envelope{
		XSI:  "http://www.w3.org/2001/XMLSchema-instance",
		XSD:  "http://www.w3.org/2001/XMLSchema",
		SOAP: "http://schemas.xmlsoap.org/soap/envelope/",
	}
	env.Body.Payload = payload

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

type Credentials struct {
	Username string `xml:"username"`
	Password string `xml:"password"`
	Company  string `xml:"company"`
}

// SendCall is the Send operation of the messaging service.
type SendCall struct {
	XMLName     xml.Name    `xml:"http://www.cellact.com/webservices/ Send"`
	Credentials Credentials `xml:"credentials"`
	Request     SendRequest `xml:"sendRequest"`
}

type SendRequest struct {
	Application       string             `xml:"application"`
	Command           string             `xml:"command"`
	DeliveryAddresses *DeliveryAddresses `xml:"deliveryAddresses,omitempty"`
	Sender            string             `xml:"sender"`
	Content           string             `xml:"content"`
	Destinations      []Destination      `xml:"destinationAddresses>DestinationAddress"`
}

type DeliveryAddresses struct {
	Report DeliveryReportAddress `xml:"DeliveryReportAddress"`
}

type DeliveryReportAddress struct {
	Type    string `xml:"type"`
	Address string `xml:"address"`
}

type Destination struct {
	Address string `xml:"address"`
}

// NewSendCall builds a sendtextmt request. phones must already carry their
// country code; they are sent in +international form.
func NewSendCall(creds Credentials, sender, text string, phones []string, reportURL string) SendCall {
	call := SendCall{
		Credentials: creds,
		Request: SendRequest{
			Application: "LA",
			Command:     "sendtextmt",
			Sender:      sender,
			Content:     text,
		},
	}
	if reportURL != "" {
		call.Request.DeliveryAddresses = &DeliveryAddresses{
			Report: DeliveryReportAddress{Type: "http", Address: reportURL},
		}
	}
	for _, p := range phones {
		call.Request.Destinations = append(call.Request.Destinations, Destination{Address: "+" + p})
	}

	return call
}

// PullCall drains up to BatchSize pending report items.
type PullCall struct {
	XMLName   xml.Name `xml:"http://tempuri.org/ PullClientNotification"`
	UserName  string   `xml:"userName"`
	Password  string   `xml:"password"`
	BatchSize int      `xml:"batchSize"`
}
