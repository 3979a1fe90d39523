package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
)

type Health struct {
	serviceName  string
	broker       BrokerStatus
	subscription SubscriptionStatus
	log          logger.Logger
}

func NewHealth(serviceName string, broker BrokerStatus, subscription SubscriptionStatus, log logger.Logger) *Health {
	return &Health{
		serviceName:  serviceName,
		broker:       broker,
		subscription: subscription,
		log:          log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the service status, broker connectivity and subscription state
// @Tags         Health
// @Produce      json
// @Success      200  {object}  handler.HealthResponse
// @Failure      503  {object}  handler.HealthResponse
// @Router       /health [get]
func (h *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	brokerUp := h.broker != nil && !h.broker.IsConnectionClosed()
	subscribed := h.subscription != nil && h.subscription.Subscribed()

	status, code := "available", http.StatusOK
	if !brokerUp || !subscribed {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status: status,
		SystemInfo: SystemInfo{
			ServiceName: h.serviceName,
			Broker:      connState(brokerUp),
			Subscribed:  subscribed,
		},
	}

	if err := respondJSON(w, code, response); err != nil {
		h.log.Error(ctx, "healthcheck", err)
	}
}

type HealthResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"system_info"`
}

type SystemInfo struct {
	ServiceName string `json:"service-name"`
	Broker      string `json:"broker"`
	Subscribed  bool   `json:"subscribed"`
}

// respondJSON writes v with status. Once the header is out an encode
// error can only be reported, not answered.
func respondJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(v)
}

func connState(up bool) string {
	if up {
		return "connected"
	}
	return "disconnected"
}
