package model

import "strings"

// SendRequest is an outbound sms addressed to one or more cellular phones.
type SendRequest struct {
	Text                    string   `json:"text"`
	Phones                  []string `json:"phones"`
	SenderName              string   `json:"sender_name,omitempty"`
	SenderNumber            string   `json:"sender_number,omitempty"`
	DeliveryNotificationURL string   `json:"delivery_notification_url,omitempty"`
}

// Sender is the value placed in the request's sender field; a name wins over
// a number, which goes out with a leading '+'.
func (r SendRequest) Sender() string {
	if name := strings.TrimSpace(r.SenderName); name != "" {
		return name
	}
	return "+" + strings.TrimPrefix(strings.TrimSpace(r.SenderNumber), "+")
}

// SendResult is the parsed answer of a send call. MessageID is set iff OK,
// ErrorDescription iff !OK.
type SendResult struct {
	OK               bool        `json:"ok"`
	MessageID        string      `json:"message_id,omitempty"`
	ErrorDescription string      `json:"error_description,omitempty"`
	SenderName       string      `json:"sender_name,omitempty"`
	SenderNumber     PhoneNumber `json:"sender_number,omitempty"`
}
