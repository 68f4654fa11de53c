package classifier

import "github.com/prometheus/client_golang/prometheus"

// classificationsTotal counts results by source (model|fallback) and the
// degrade reason ("" when the model answered).
var classificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "classifications_total",
		Help: "Total number of message classifications by source and degrade reason.",
	},
	[]string{"source", "reason"},
)

func init() {
	prometheus.MustRegister(classificationsTotal)
}
