package gwerr

import (
	"errors"
	"fmt"
)

// Codes are grouped in bands:
//
//	1xx/4xx  transport and authentication failures reported by the provider
//	2xx      outbound send request rejected by the provider
//	3xx      malformed or missing delivery notification push parameters
//	5xx      malformed report pull response
//	6xx      malformed sms reply push
const (
	SendFailed = 111

	HTTPBadRequest   = 400
	HTTPUnauthorized = 401
	HTTPForbidden    = 402
	HTTPNotFound     = 404
	GatewayServer    = 450

	IllegalResponseXML = 250

	NotificationMissingField = 301
	NotificationConversion   = 302

	PullInvalidStatus      = 501
	PullConversion         = 502
	PullUnknownMessageType = 510

	ReplyMissingField   = 601
	PushInvalidXML      = 602
	ReplyDateConversion = 603
)

// GatewayError is the single error kind produced by the gateway parsers.
// Context carries the raw input (xml, params or field values) for diagnostics.
type GatewayError struct {
	Code    int
	Message string
	Context map[string]any
	Cause   error
}

// New builds a GatewayError. ctx may be nil.
func New(code int, message string, ctx map[string]any) *GatewayError {
	if ctx == nil {
		ctx = map[string]any{}
	}
	return &GatewayError{Code: code, Message: message, Context: ctx}
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gateway error %d: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

// WithCause records the lower level error that triggered e.
func (e *GatewayError) WithCause(err error) *GatewayError {
	e.Cause = err
	return e
}

// With adds one context entry.
func (e *GatewayError) With(key string, value any) *GatewayError {
	e.Context[key] = value
	return e
}

// CodeOf returns the code of the first GatewayError in err's chain.
func CodeOf(err error) (int, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Code, true
	}
	return 0, false
}

// Is reports whether err carries a GatewayError with the given code.
func Is(err error, code int) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

var sendStatusBands = map[int]map[int]int{
	100: {-1: 411, -2: 412, -3: 413, -4: 414, -22: 422, -26: 426},
	200: band200([]int{-6, -9, -11, -13, -14, -15, -16, -18, -20, -21, -28, -29}),
}

func band200(codes []int) map[int]int {
	m := make(map[int]int, len(codes))
	for _, c := range codes {
		m[c] = c*-1 + 200
	}
	return m
}

// MapSendStatus translates a provider send status code into a public code.
func MapSendStatus(status int) (int, bool) {
	for _, band := range []int{100, 200} {
		if code, ok := sendStatusBands[band][status]; ok {
			return code, true
		}
	}
	return 0, false
}

// FromHTTPStatus maps a non 2xx transport status onto the 4xx band.
func FromHTTPStatus(status int) int {
	switch status {
	case 400:
		return HTTPBadRequest
	case 401:
		return HTTPUnauthorized
	case 403:
		return HTTPForbidden
	case 404:
		return HTTPNotFound
	default:
		return GatewayServer
	}
}
