package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iplan/cellact/internal/gwerr"
	"github.com/iplan/cellact/internal/metrics"
	"go.uber.org/zap"
)

var ErrCircuitOpen = errors.New("gateway circuit open")

// max bytes read from a gateway answer
const maxResponseSize = 4 << 20

// Client posts SOAP envelopes to the gateway behind a circuit breaker.
type Client struct {
	client *http.Client
	br     *Breaker
	log    *zap.Logger
}

func NewClient(timeoutMs, failThreshold, openForMs int, log *zap.Logger) *Client {
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}

	if openForMs <= 0 {
		openForMs = 15000
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		client: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:     NewBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
		log:    log.Named("soap"),
	}
}

func (c *Client) Breaker() *Breaker { return c.br }

// Call wraps payload into an envelope, posts it to endpoint and returns the
// raw answer. Transport failures come back as gateway errors in the 4xx band.
func (c *Client) Call(ctx context.Context, endpoint, namespace, action string, payload any) ([]byte, error) {
	if !c.br.Acquire() {
		metrics.GatewayCallsTotal.WithLabelValues(action, "circuit_open").Inc()
		return nil, gwerr.New(gwerr.GatewayServer, "gateway circuit is open",
			map[string]any{"endpoint": endpoint, "action": action}).WithCause(ErrCircuitOpen)
	}

	body, err := c.post(ctx, endpoint, namespace+action, payload)
	if err != nil {
		c.br.Failure()
		metrics.GatewayCallsTotal.WithLabelValues(action, "error").Inc()
		c.log.Warn("gateway call failed",
			zap.String("action", action), zap.String("breaker", c.br.State().String()), zap.Error(err))

		return nil, err
	}

	c.br.Success()
	metrics.GatewayCallsTotal.WithLabelValues(action, "ok").Inc()

	return body, nil
}

func (c *Client) post(ctx context.Context, endpoint, soapAction string, payload any) ([]byte, error) {
	b, err := Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal soap envelope: %w", err)
	}

	c.log.Debug("posting soap request", zap.String("endpoint", endpoint), zap.ByteString("xml", b))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build soap request: %w", err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+soapAction+`"`)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, gwerr.New(gwerr.GatewayServer, "gateway request failed",
			map[string]any{"endpoint": endpoint}).WithCause(err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, gwerr.New(gwerr.GatewayServer, "gateway response could not be read",
			map[string]any{"endpoint": endpoint, "status": res.StatusCode}).WithCause(err)
	}

	if res.StatusCode/100 != 2 {
		return nil, gwerr.New(gwerr.FromHTTPStatus(res.StatusCode),
			fmt.Sprintf("gateway answered http %d", res.StatusCode),
			map[string]any{"endpoint": endpoint, "status": res.StatusCode, "body": string(body)})
	}

	c.log.Debug("soap response", zap.ByteString("xml", body))

	return body, nil
}
