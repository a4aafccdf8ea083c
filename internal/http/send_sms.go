package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/iplan/cellact/internal/model"
	"github.com/labstack/echo/v4"
)

type smsSender interface {
	Send(ctx context.Context, req model.SendRequest) (model.SendResult, error)
}

func sendSMSHandler(s smsSender) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req model.SendRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.SenderName = strings.TrimSpace(req.SenderName)
		req.SenderNumber = strings.TrimSpace(req.SenderNumber)
		for i, p := range req.Phones {
			req.Phones[i] = strings.TrimSpace(p)
		}

		res, err := s.Send(c.Request().Context(), req)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}
