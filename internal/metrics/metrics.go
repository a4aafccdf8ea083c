package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	InboundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellact_inbound_total",
			Help: "Inbound gateway events by kind, source and outcome",
		},
		[]string{"kind", "source", "outcome"}, // notification|reply , push|pull , accepted|duplicate|failed
	)

	ParseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellact_parse_errors_total",
			Help: "Gateway payloads rejected by the parsers, by gateway error code",
		},
		[]string{"source", "code"},
	)

	GatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellact_gateway_calls_total",
			Help: "SOAP calls to the gateway by action and outcome",
		},
		[]string{"action", "outcome"}, // ok|error|circuit_open
	)

	SentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellact_sms_sent_total",
			Help: "Send requests by result",
		},
		[]string{"result"}, // accepted|rejected|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		InboundTotal,
		ParseErrorsTotal,
		GatewayCallsTotal,
		SentTotal,
	)
}
