package handler

import (
	"net/http"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"

	httputil "contactcleaner/pkg/http"
	"contactcleaner/pkg/logger"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Uploads *int   `json:"uploads,omitempty"`
}

// UploadCounter reports the number of uploads currently held in memory.
type UploadCounter interface {
	Len() int
}

type HealthHandler struct {
	uploads  UploadCounter
	draining atomic.Bool
	log      *logger.Logger
}

func NewHealthHandler(uploads UploadCounter, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		uploads: uploads,
		log:     log,
	}
}

// Drain makes Ready report unavailable so load balancers stop routing new requests.
func (h *HealthHandler) Drain() {
	h.draining.Store(true)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.draining.Load() {
		if err := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "shutting_down",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
		}
		return
	}

	resp := HealthResponse{Status: "ready"}
	if h.uploads != nil {
		n := h.uploads.Len()
		resp.Uploads = &n
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
