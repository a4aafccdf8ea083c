package model

import "time"

type EventKind string

// Where an inbound event came from.
const (
	SourcePush = "push"
	SourcePull = "pull"
)

const (
	EventNotification EventKind = "notification"
	EventReply        EventKind = "reply"
)

// Envelope is the payload published to Kafka for every accepted inbound event.
type Envelope struct {
	ID           string                `json:"id"` // ULID
	Kind         EventKind             `json:"kind"`
	Source       string                `json:"source"` // push | pull
	OccurredAt   time.Time             `json:"occurred_at"`
	Notification *DeliveryNotification `json:"notification,omitempty"`
	Reply        *SmsReply             `json:"reply,omitempty"`
}

// Key is the partitioning key: the gateway message id of the payload.
func (e Envelope) Key() string {
	switch {
	case e.Notification != nil:
		return e.Notification.MessageID
	case e.Reply != nil:
		return e.Reply.MessageID
	}
	return e.ID
}
