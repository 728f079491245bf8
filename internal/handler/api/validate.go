package api

import (
	"encoding/json"
	"net/http"
	"time"

	"SignalGuard/internal/domain/models"
	domsvc "SignalGuard/internal/domain/service"
	icache "SignalGuard/internal/service/cache"
	"SignalGuard/internal/service/metrics"
	"SignalGuard/internal/service/ratelimit"
	applogger "SignalGuard/pkg/logger"
)

// ValidationHandler serves the plain net/http validation endpoint.
// Verdicts are cached briefly by signal id so redelivered requests do
// not rerun the pipeline.
type ValidationHandler struct {
	orch  domsvc.Orchestrator
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewValidationHandler(orch domsvc.Orchestrator) *ValidationHandler {
	metrics.Register()
	return &ValidationHandler{orch: orch, rl: ratelimit.New()}
}

func (h *ValidationHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *ValidationHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *ValidationHandler) Validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "validate"
		defer func() { metrics.ValidationLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !h.rl.Allow(r.RemoteAddr+":validate", 10, 5) {
			if h.l != nil {
				h.l.Warn("validate rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		var req models.ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if h.l != nil {
				h.l.Warn("validate decode_error", applogger.Error(err))
			}
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if req.Symbol == "" || req.SignalID == "" {
			http.Error(w, "signal_id and symbol required", http.StatusBadRequest)
			return
		}

		cacheKey := "verdict:" + req.SignalID
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("validate cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("validate cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("validate write_error", applogger.Error(err))
				}
				return
			}
			if h.l != nil {
				h.l.Debug("validate cache_miss", applogger.String("key", cacheKey))
			}
		}

		verdict, err := h.orch.ValidateSignal(r.Context(), req.Signal())
		if err != nil {
			metrics.ValidationErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("validate error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(verdict)
		if err != nil {
			if h.l != nil {
				h.l.Error("validate marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("validate cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("validate write_error", applogger.Error(err))
		}
	}
}
