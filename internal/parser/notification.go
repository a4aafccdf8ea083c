package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/phone"
	"go.uber.org/zap"
)

// NotificationFields are the raw values of one delivery notification, as
// extracted from a push payload or a pulled report item.
type NotificationFields struct {
	GatewayStatus      string
	MessageID          string
	Phone              string
	Sender             string
	PartsCount         string
	CompletedAt        string
	ReasonNotDelivered string
}

func (f NotificationFields) values() map[string]string {
	return map[string]string{
		"gateway_status":       f.GatewayStatus,
		"message_id":           f.MessageID,
		"phone":                f.Phone,
		"sender":               f.Sender,
		"parts_count":          f.PartsCount,
		"completed_at":         f.CompletedAt,
		"reason_not_delivered": f.ReasonNotDelivered,
	}
}

// checked in this order before any conversion happens
var requiredNotificationFields = []string{"gateway_status", "message_id", "parts_count", "completed_at", "sender"}

// NotificationParser turns raw notification fields into a typed notification.
type NotificationParser interface {
	Parse(f NotificationFields) (model.DeliveryNotification, error)
}

type notificationParser struct {
	layout   string
	statusOf func(gatewayStatus, description string) model.DeliveryStatus
	canon    func(string) string
	loc      *time.Location
	log      *zap.Logger
}

// NewPushNotificationParser parses notifications pushed over http
// (YYYYMMDDHHMMSS timestamps, mt_* status codes).
func NewPushNotificationParser(opts Options) NotificationParser {
	opts = opts.withDefaults()
	return &notificationParser{
		layout:   PushDateLayout,
		statusOf: func(gs, _ string) model.DeliveryStatus { return DeliveryStatusOf(gs) },
		canon:    phone.WithoutStartingPlus,
		loc:      opts.Location,
		log:      opts.Logger.Named("notifications"),
	}
}

// NewPullNotificationParser parses notifications drained by a report pull
// (DD/MM/YYYY HH:MM:SS timestamps, national phones, status description
// fallback).
func NewPullNotificationParser(opts Options) NotificationParser {
	opts = opts.withDefaults()
	return &notificationParser{
		layout:   PullDateLayout,
		statusOf: pulledDeliveryStatus,
		canon: func(s string) string {
			return opts.Plan.EnsureCountryCode(phone.WithoutStartingPlus(s))
		},
		loc: opts.Location,
		log: opts.Logger.Named("notifications"),
	}
}

func (p *notificationParser) Parse(f NotificationFields) (model.DeliveryNotification, error) {
	values := f.values()
	p.log.Debug("parsing delivery notification values", zap.Any("values", values))

	for _, key := range requiredNotificationFields {
		if strings.TrimSpace(values[key]) == "" {
			return model.DeliveryNotification{}, gwerr.New(gwerr.NotificationMissingField,
				fmt.Sprintf("missing notification values key %s", key),
				map[string]any{"values": values})
		}
	}

	n := model.DeliveryNotification{
		GatewayStatus:      model.GatewayStatus(strings.TrimSpace(f.GatewayStatus)),
		MessageID:          strings.TrimSpace(f.MessageID),
		Phone:              model.PhoneNumber(p.canon(strings.TrimSpace(f.Phone))),
		Sender:             model.PhoneNumber(p.canon(strings.TrimSpace(f.Sender))),
		ReasonNotDelivered: strings.TrimSpace(f.ReasonNotDelivered),
	}
	n.DeliveryStatus = p.statusOf(n.GatewayStatus.String(), n.ReasonNotDelivered)

	parts, err := strconv.Atoi(strings.TrimSpace(f.PartsCount))
	if err != nil || parts < 1 {
		p.log.Error("parts count could not be converted to a positive integer",
			zap.String("parts_count", f.PartsCount), zap.Error(err))
		return model.DeliveryNotification{}, gwerr.New(gwerr.NotificationConversion,
			fmt.Sprintf("parts count could not be converted to integer, was: %q", f.PartsCount),
			map[string]any{"values": values}).WithCause(err)
	}
	n.PartsCount = parts

	completedAt, err := time.ParseInLocation(p.layout, strings.TrimSpace(f.CompletedAt), p.loc)
	if err != nil {
		p.log.Error("completion date could not be converted",
			zap.String("completed_at", f.CompletedAt), zap.Error(err))
		return model.DeliveryNotification{}, gwerr.New(gwerr.NotificationConversion,
			fmt.Sprintf("completion date could not be converted to date, was: %q", f.CompletedAt),
			map[string]any{"values": values}).WithCause(err)
	}
	n.CompletedAt = completedAt

	return n, nil
}

// DeliveryStatusOf maps a gateway mt_* status onto a delivery status.
func DeliveryStatusOf(gatewayStatus string) model.DeliveryStatus {
	switch model.GatewayStatus(gatewayStatus) {
	case model.GatewayStatusDelivered:
		return model.DeliveryStatusDelivered
	case model.GatewayStatusNotOK, model.GatewayStatusRejected:
		return model.DeliveryStatusFailed
	default:
		return model.DeliveryStatusUnknown
	}
}

// pulled items carry a numeric status plus a human readable description
func pulledDeliveryStatus(gatewayStatus, description string) model.DeliveryStatus {
	if st := DeliveryStatusOf(gatewayStatus); st != model.DeliveryStatusUnknown {
		return st
	}
	switch strings.ToLower(strings.ReplaceAll(description, " ", "")) {
	case "delivered":
		return model.DeliveryStatusDelivered
	case "failed", "notdelivered", "undelivered", "rejected", "blocked", "expired":
		return model.DeliveryStatusFailed
	default:
		return model.DeliveryStatusUnknown
	}
}
