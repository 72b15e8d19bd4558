package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Counters are usable before registration so packages can increment them
// unconditionally; InitCustomMetrics only hooks them into the registry.
var (
	RefreshSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubedash_token_refresh_success_total",
		Help: "Total number of successful access token refreshes.",
	})
	RefreshInvalidGrantTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubedash_token_refresh_invalid_grant_total",
		Help: "Total number of refreshes rejected with invalid_grant.",
	})
	RefreshTransientFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubedash_token_refresh_transient_failure_total",
		Help: "Total number of refreshes that failed transiently.",
	})
	RefreshWriteConflictTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubedash_token_refresh_write_conflict_total",
		Help: "Total number of refresh persists lost to a concurrent writer.",
	})
	SessionsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubedash_sessions_opened_total",
		Help: "Total number of login sessions opened.",
	})
)

// InitCustomMetrics registers the application metrics with reg.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}

	collectors := []prometheus.Collector{
		RefreshSuccessTotal,
		RefreshInvalidGrantTotal,
		RefreshTransientFailureTotal,
		RefreshWriteConflictTotal,
		SessionsOpenedTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register Prometheus metric")
		}
	}
	log.Info().Msg("Custom Prometheus metrics registered.")
}
