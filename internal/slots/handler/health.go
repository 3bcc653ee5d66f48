package handler

import (
	"context"
	"net/http"
	"time"

	httputil "creatorclub/pkg/http"
	"creatorclub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     Pinger
	storeName string
	log       *logger.Logger
}

func NewHealthHandler(store Pinger, storeName string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		storeName: storeName,
		log:       log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httputil.WriteOK(w, HealthResponse{Status: "ok"})
}

// Ready reports whether the slot store answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Error("Slot store health check failed",
			"store", h.storeName,
			"error", err,
			"path", r.URL.Path,
		)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Store:  h.storeName,
		})
		return
	}

	httputil.WriteOK(w, HealthResponse{Status: "ready", Store: h.storeName})
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
