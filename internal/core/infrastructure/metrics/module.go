package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ModuleParams metrics module inputs.
type ModuleParams struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

// Module provides *Metrics registered with the supplied Registerer, or the
// Prometheus default registerer when none is supplied.
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(func(params ModuleParams) *Metrics {
			reg := params.Registerer
			if reg == nil {
				reg = prometheus.DefaultRegisterer
			}
			return New(reg)
		}),
	)
}
