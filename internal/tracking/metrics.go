package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fixesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_fixes_total",
		Help: "Device fixes grouped by threshold outcome.",
	}, []string{"result"})

	redrawsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracking_redraws_total",
		Help: "Route segments redrawn between local and remote positions.",
	})
)
