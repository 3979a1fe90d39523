package middleware

import (
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
)

type Middleware struct {
	metrics *metrics.HTTP
	log     logger.Logger
}

func NewMiddleware(m *metrics.HTTP, log logger.Logger) *Middleware {
	return &Middleware{
		metrics: m,
		log:     log,
	}
}
