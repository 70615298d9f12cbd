package sankhya

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	RequestCounter = "sankhya_requests_total"
)

// Labels
const (
	OperationLabel = "operation"
	OutcomeLabel   = "outcome"
)

// Label Values
const (
	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics returns the Metrics relevant to this package.
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RequestCounter,
				Help: "Counter for outbound Sankhya calls, by operation and success/failure outcome.",
			},
			OperationLabel,
			OutcomeLabel,
		),
	)
}

type Measures struct {
	fx.In
	Requests *prometheus.CounterVec `name:"sankhya_requests_total"`
}

func prometheusLabels(operation, outcome string) prometheus.Labels {
	return prometheus.Labels{
		OperationLabel: operation,
		OutcomeLabel:   outcome,
	}
}
