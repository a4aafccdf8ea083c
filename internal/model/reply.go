package model

import "time"

// SmsReply is an inbound sms sent back to the gateway number.
type SmsReply struct {
	MessageID    string      `json:"message_id"     db:"message_id"`
	Phone        PhoneNumber `json:"phone"          db:"phone"`
	ReplyToPhone PhoneNumber `json:"reply_to_phone" db:"reply_to_phone"`
	Text         string      `json:"text"           db:"text"`
	ReceivedAt   time.Time   `json:"received_at"    db:"received_at"`
}
