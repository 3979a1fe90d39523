package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
	ws "github.com/Mark48Evo/gps-influxdb/pkg/wsHub"
)

type Stats struct {
	stats    StatsProvider
	writes   WriteQueue
	hub      *ws.ConnectionHub
	upgrader websocket.Upgrader
	interval time.Duration
	log      logger.Logger
}

func NewStats(stats StatsProvider, writes WriteQueue, hub *ws.ConnectionHub, interval time.Duration, log logger.Logger) *Stats {
	return &Stats{
		stats:    stats,
		writes:   writes,
		hub:      hub,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// StatsMessage is the payload of /stats and of every /ws/stats push.
type StatsMessage struct {
	Total          uint64    `json:"total"`
	PerMinute      float64   `json:"per_minute"`
	WritesInFlight int64     `json:"writes_in_flight"`
	Timestamp      time.Time `json:"timestamp"`
}

func (h *Stats) message() StatsMessage {
	snap := h.stats.Snapshot()

	msg := StatsMessage{
		Total:     snap.Total,
		PerMinute: snap.PerMinute,
		Timestamp: time.Now().UTC(),
	}
	if h.writes != nil {
		msg.WritesInFlight = h.writes.InFlight()
	}
	return msg
}

type StatsResponse struct {
	Stats StatsMessage `json:"stats"`
}

// GetStats godoc
// @Summary      Throughput counters
// @Description  Total GPS messages processed and the one-minute rate
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  handler.StatsResponse
// @Router       /stats [get]
func (h *Stats) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_stats")

	if err := respondJSON(w, http.StatusOK, StatsResponse{Stats: h.message()}); err != nil {
		h.log.Error(ctx, "write stats response", err)
	}
}

// StreamStats godoc
// @Summary      Live throughput counters
// @Description  WebSocket that pushes the throughput counters periodically
// @Tags         Stats
// @Success      101
// @Router       /ws/stats [get]
func (h *Stats) StreamStats(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "stream_stats")

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	conn := ws.NewConn(context.WithoutCancel(ctx), uuid.New(), wsConn)
	if err := h.hub.Add(conn); err != nil {
		h.log.Error(ctx, "register websocket client", err)
		_ = conn.Close()
		return
	}
	h.log.Debug(ctx, "stats client connected", "conn_id", conn.ID().String())

	// first snapshot right away, then on every broadcast tick
	if err := conn.Send(h.message()); err != nil {
		_ = h.hub.Delete(conn.ID())
		return
	}

	if err := conn.Listen(); err != nil {
		h.log.Debug(ctx, "stats client disconnected", "conn_id", conn.ID().String(), "reason", err.Error())
	}
	_ = h.hub.Delete(conn.ID())
}

// Broadcast pushes the counters to every websocket client until ctx is done.
func (h *Stats) Broadcast(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.hub.Len() > 0 {
				h.hub.Broadcast(h.message())
			}
		}
	}
}
