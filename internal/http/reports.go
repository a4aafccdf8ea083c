package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/iplan/cellact/internal/model"
	"github.com/iplan/cellact/internal/phone"
	"github.com/iplan/cellact/internal/repository"
	echo "github.com/labstack/echo/v4"
)

func listNotificationsHandler(chRepo repository.CHNotificationsRepository, plan phone.Plan) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var st model.DeliveryStatus
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			tmp := model.DeliveryStatus(raw)
			if !tmp.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status"})
			}
			st = tmp
		}

		p := phone.WithoutStartingPlus(strings.TrimSpace(c.QueryParam("phone")))
		p = plan.EnsureCountryCode(p)

		rows, err := chRepo.List(c.Request().Context(), repository.NotificationFilter{
			Phone:  p,
			Status: st,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
