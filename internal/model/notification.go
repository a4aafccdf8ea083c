package model

import "time"

// PhoneNumber is a canonical phone: digits only, no leading '+'.
type PhoneNumber string

func (p PhoneNumber) String() string { return string(p) }

// GatewayStatus is the raw event code the gateway reports for a sent message.
type GatewayStatus string

const (
	GatewayStatusOK        GatewayStatus = "mt_ok"
	GatewayStatusNotOK     GatewayStatus = "mt_nok"
	GatewayStatusDelivered GatewayStatus = "mt_del"
	GatewayStatusRejected  GatewayStatus = "mt_rej"
)

func (s GatewayStatus) String() string { return string(s) }

type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusUnknown   DeliveryStatus = "unknown"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) Valid() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusFailed || s == DeliveryStatusUnknown
}

// DeliveryNotification reports the outcome of a previously sent message.
type DeliveryNotification struct {
	GatewayStatus      GatewayStatus  `json:"gateway_status"       db:"gateway_status"`
	DeliveryStatus     DeliveryStatus `json:"delivery_status"      db:"delivery_status"`
	MessageID          string         `json:"message_id"           db:"message_id"`
	Phone              PhoneNumber    `json:"phone"                db:"phone"`
	Sender             PhoneNumber    `json:"sender"               db:"sender"`
	PartsCount         int            `json:"parts_count"          db:"parts_count"`
	CompletedAt        time.Time      `json:"completed_at"         db:"completed_at"`
	ReasonNotDelivered string         `json:"reason_not_delivered" db:"reason_not_delivered"`
}
