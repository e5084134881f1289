package corrector

import (
	"time"

	"correctd/pkg/types"
)

// Status reports daemon-level counters alongside the resource snapshot.
func (o *Orchestrator) Status() types.StatusResponse {
	corrections, fallbacks := o.Totals()
	metrics := o.res.GetMetrics()
	return types.StatusResponse{
		Resource:         o.res.Status(),
		CorrectionsTotal: corrections,
		FallbacksTotal:   fallbacks,
		SwapsTotal:       metrics.SwapsTotal,
		UptimeSeconds:    metrics.UptimeSeconds,
		ServerTimeUnix:   time.Now().Unix(),
	}
}

// Ready reports whether the daemon can serve requests. The memory probe
// failing leaves the pipeline with nothing but guesses, so it gates
// readiness.
func (o *Orchestrator) Ready() bool {
	return o.res.CheckAvailableMemory().TotalGB > 0
}
