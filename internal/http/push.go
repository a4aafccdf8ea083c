package http

import (
	"context"
	"net/http"

	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/parser"
	"github.com/iplan/cellact/internal/service/inbound"
	"github.com/labstack/echo/v4"
)

type inboundService interface {
	AcceptNotification(ctx context.Context, n model.DeliveryNotification, source string) (inbound.Outcome, error)
	AcceptReply(ctx context.Context, r model.SmsReply, source string) (inbound.Outcome, error)
	ParseFailed(source string, err error)
}

// pushNotificationHandler receives delivery confirmations (form field CONFIRMATION).
func pushNotificationHandler(pp *parser.PushParser, svc inboundService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params, err := c.FormParams()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		n, err := pp.Notification(params)
		if err != nil {
			svc.ParseFailed(model.SourcePush, err)
			c.Logger().Warnf("delivery notification rejected: %v", err)

			return writeError(c, err)
		}

		outcome, err := svc.AcceptNotification(c.Request().Context(), n, model.SourcePush)
		if err != nil {
			c.Logger().Errorf("delivery notification %s not accepted: %v", n.MessageID, err)

			// the gateway retries pushes that are not answered with 2xx
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":          outcome,
			"message_id":      n.MessageID,
			"delivery_status": n.DeliveryStatus,
		})
	}
}

// pushReplyHandler receives inbound sms (XMLString or IncomingXML, per dialect).
func pushReplyHandler(pp *parser.PushParser, svc inboundService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params, err := c.FormParams()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		r, err := pp.Reply(params)
		if err != nil {
			svc.ParseFailed(model.SourcePush, err)
			c.Logger().Warnf("sms reply rejected: %v", err)

			return writeError(c, err)
		}

		outcome, err := svc.AcceptReply(c.Request().Context(), r, model.SourcePush)
		if err != nil {
			c.Logger().Errorf("sms reply %s not accepted: %v", r.MessageID, err)

			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":     outcome,
			"message_id": r.MessageID,
		})
	}
}
