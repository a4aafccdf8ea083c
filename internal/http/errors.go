package http

import (
	"errors"
	"net/http"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/sender"
	"github.com/labstack/echo/v4"
)

// statusFor maps a gateway error band onto an http status:
// 3xx/6xx bad pushed payloads, 2xx unreadable gateway answers, 1xx/4xx/5xx
// failures on the gateway side.
func statusFor(err error) int {
	if errors.Is(err, sender.ErrInvalidArgument) {
		return http.StatusBadRequest
	}

	code, ok := gwerr.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch code / 100 {
	case 3, 6:
		return http.StatusBadRequest
	case 2:
		return http.StatusUnprocessableEntity
	case 1, 4, 5:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}

	var ge *gwerr.GatewayError
	if errors.As(err, &ge) {
		body["error"] = ge.Message
		body["code"] = ge.Code
	}
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("request failed: %v", err)
		body["error"] = "internal error"
	}

	return c.JSON(status, body)
}
