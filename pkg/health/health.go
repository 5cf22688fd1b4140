package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
	"github.com/saaga0h/jeeves-adaptive/pkg/postgres"
	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

// LoopStatus reports on the agent's processing loop
type LoopStatus interface {
	LastTick() time.Time
	Details() map[string]interface{}
}

// Checker serves the agent's health endpoints
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	loop     LoopStatus
	maxStale time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewChecker creates a health checker for the MQTT and Redis connections
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// WithPostgres adds the history database to the detailed check
func (h *Checker) WithPostgres(pg postgres.Client) *Checker {
	h.postgres = pg
	return h
}

// WithLoop adds the processing loop to the detailed check. The loop is
// reported stale when no tick happened within maxStale.
func (h *Checker) WithLoop(loop LoopStatus, maxStale time.Duration) *Checker {
	h.loop = loop
	h.maxStale = maxStale
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Services  *Services              `json:"services,omitempty"`
	Loop      map[string]interface{} `json:"loop,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres,omitempty"`
	Loop     string `json:"loop,omitempty"`
}

// HandlerFunc returns 200 while the process is alive without checking
// dependencies, keeping the probe fast for Nomad/Consul
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc checks every dependency and the loop. Any failing part
// turns the response into 503 "degraded".
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			MQTT:  "disconnected",
			Redis: "disconnected",
		}
		degraded := false

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		} else {
			degraded = true
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if h.redis != nil && h.redis.Ping(ctx) == nil {
			services.Redis = "connected"
		} else {
			degraded = true
		}

		if h.postgres != nil {
			services.Postgres = "disconnected"
			if status, err := h.postgres.HealthCheck(ctx); err == nil && status.Connected {
				services.Postgres = "connected"
			} else {
				degraded = true
			}
		}

		var loop map[string]interface{}
		if h.loop != nil {
			loop = h.loop.Details()
			services.Loop = "running"
			if last := h.loop.LastTick(); last.IsZero() || h.now().Sub(last) > h.maxStale {
				services.Loop = "stale"
				degraded = true
			}
		}

		response := HealthResponse{
			Status:    "healthy",
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
			Services:  services,
			Loop:      loop,
		}
		statusCode := http.StatusOK
		if degraded {
			response.Status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, response)
	}
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
