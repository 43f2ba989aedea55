package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var subscriptionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "presence_subscription_errors_total",
	Help: "Failed state reads while serving a subscription.",
})
