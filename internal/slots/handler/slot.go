package handler

import (
	"net/http"

	"creatorclub/internal/slots/service"
	httputil "creatorclub/pkg/http"
	"creatorclub/pkg/logger"
	"creatorclub/pkg/middleware"
	"creatorclub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	PathLock         = "/api/v1/slots/lock"
	PathLockRange    = "/api/v1/slots/lock-range"
	PathRelease      = "/api/v1/slots/release"
	PathConfirm      = "/api/v1/slots/confirm"
	PathConfirmRange = "/api/v1/slots/confirm-range"
	PathAdminDay     = "/api/v1/admin/slots/:resource_id/:date_key"
)

type releaseResponse struct {
	OK bool `json:"ok"`
}

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

// Lock holds one slot for the authenticated caller.
func (h *SlotHandler) Lock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.HolderID = middleware.HolderFromContext(r.Context())

	result, err := h.service.Lock(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w, result)
}

func (h *SlotHandler) LockRange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LockRangeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.HolderID = middleware.HolderFromContext(r.Context())

	result, err := h.service.LockRange(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w, result)
}

func (h *SlotHandler) Release(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReleaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.HolderID = middleware.HolderFromContext(r.Context())

	if err := h.service.Release(r.Context(), &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w, releaseResponse{OK: true})
}

// Confirm is called by the payment collaborator; the request signature, not the holder, authorizes it.
func (h *SlotHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ConfirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Confirm(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w, result)
}

func (h *SlotHandler) ConfirmRange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ConfirmRangeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ConfirmRange(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w, result)
}

func (h *SlotHandler) GetDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID, err := httputil.PathParam(ps, "resource_id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dateKey, err := httputil.PathParam(ps, "date_key")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := service.Caller{
		ID:   middleware.HolderFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}
	slots, err := h.service.GetDay(r.Context(), resourceID, dateKey, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if slots == nil {
		slots = []model.SlotView{}
	}
	httputil.WriteSuccess(w, slots)
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(PathLock, h.Lock)
	router.POST(PathLockRange, h.LockRange)
	router.POST(PathRelease, h.Release)
	router.POST(PathConfirm, h.Confirm)
	router.POST(PathConfirmRange, h.ConfirmRange)
	router.GET(PathAdminDay, h.GetDay)
}

// IsConfirmPath reports whether path is one of the payment-signed confirmation routes.
func IsConfirmPath(path string) bool {
	return path == PathConfirm || path == PathConfirmRange
}
