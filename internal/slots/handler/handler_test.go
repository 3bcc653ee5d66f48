package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creatorclub/internal/slots/service"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/logger"
	"creatorclub/pkg/middleware"
	"creatorclub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ──────────────────────────────────────────────────────────────
// Mocks
// ──────────────────────────────────────────────────────────────

type mockSlotService struct {
	lockFunc         func(ctx context.Context, req *model.LockRequest) (*model.LockResult, error)
	lockRangeFunc    func(ctx context.Context, req *model.LockRangeRequest) (*model.LockResult, error)
	releaseFunc      func(ctx context.Context, req *model.ReleaseRequest) error
	confirmFunc      func(ctx context.Context, req *model.ConfirmRequest) (*model.ConfirmResult, error)
	confirmRangeFunc func(ctx context.Context, req *model.ConfirmRangeRequest) (*model.ConfirmResult, error)
	getDayFunc       func(ctx context.Context, resourceID, dateKey string, caller service.Caller) ([]model.SlotView, error)
}

func (m *mockSlotService) Lock(ctx context.Context, req *model.LockRequest) (*model.LockResult, error) {
	return m.lockFunc(ctx, req)
}

func (m *mockSlotService) LockRange(ctx context.Context, req *model.LockRangeRequest) (*model.LockResult, error) {
	return m.lockRangeFunc(ctx, req)
}

func (m *mockSlotService) Release(ctx context.Context, req *model.ReleaseRequest) error {
	return m.releaseFunc(ctx, req)
}

func (m *mockSlotService) Confirm(ctx context.Context, req *model.ConfirmRequest) (*model.ConfirmResult, error) {
	return m.confirmFunc(ctx, req)
}

func (m *mockSlotService) ConfirmRange(ctx context.Context, req *model.ConfirmRangeRequest) (*model.ConfirmResult, error) {
	return m.confirmRangeFunc(ctx, req)
}

func (m *mockSlotService) GetDay(ctx context.Context, resourceID, dateKey string, caller service.Caller) ([]model.SlotView, error) {
	return m.getDayFunc(ctx, resourceID, dateKey, caller)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func newRouter(svc service.SlotService) http.Handler {
	router := httprouter.New()
	NewSlotHandler(svc, logger.Discard()).RegisterRoutes(router)
	// Gateway-header identity, as in a deployment without JWT_SECRET.
	return middleware.Authenticate("", logger.Discard())(router)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

// ──────────────────────────────────────────────────────────────
// Lock / LockRange / Release
// ──────────────────────────────────────────────────────────────

func TestLock(t *testing.T) {
	expires := time.Date(2025, 6, 1, 9, 10, 0, 0, time.UTC)
	var got *model.LockRequest
	svc := &mockSlotService{lockFunc: func(ctx context.Context, req *model.LockRequest) (*model.LockResult, error) {
		got = req
		return &model.LockResult{OK: true, ExpiresAt: expires}, nil
	}}

	rec := do(t, newRouter(svc), http.MethodPost, PathLock,
		`{"resource_id":"room-9","date_key":"20250601","slot_index":3,"hold_minutes":5}`,
		map[string]string{middleware.HolderIDHeader: "u1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got.HolderID != "u1" || got.ResourceID != "room-9" || *got.SlotIndex != 3 || got.HoldMinutes != 5 {
		t.Errorf("unexpected request: %+v", got)
	}

	var result model.LockResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.OK || !result.ExpiresAt.Equal(expires) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestLock_HolderIDNotReadFromBody(t *testing.T) {
	var got *model.LockRequest
	svc := &mockSlotService{lockFunc: func(ctx context.Context, req *model.LockRequest) (*model.LockResult, error) {
		got = req
		return nil, apperrors.Unauthenticated("Sign in required")
	}}

	// HolderID has no JSON name, so an unknown "HolderID" field is rejected outright.
	rec := do(t, newRouter(svc), http.MethodPost, PathLock,
		`{"resource_id":"room-9","date_key":"20250601","slot_index":3,"HolderID":"mallory"}`, nil)
	if rec.Code != http.StatusBadRequest || got != nil {
		t.Errorf("status = %d, service reached = %v", rec.Code, got != nil)
	}

	rec = do(t, newRouter(svc), http.MethodPost, PathLock, `{"resource_id":"room-9","date_key":"20250601","slot_index":3}`, nil)
	if rec.Code != http.StatusUnauthorized || got.HolderID != "" {
		t.Errorf("status = %d, holder = %q", rec.Code, got.HolderID)
	}
}

func TestLock_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidArgument},
		{name: "malformed json", body: `{"resource_id":`, wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidArgument},
		{name: "already locked", body: `{"resource_id":"r","date_key":"d","slot_index":1}`, svcErr: apperrors.AlreadyLocked(1), wantStatus: http.StatusConflict, wantCode: apperrors.CodeAlreadyLocked},
		{name: "already booked", body: `{"resource_id":"r","date_key":"d","slot_index":1}`, svcErr: apperrors.AlreadyBooked(1), wantStatus: http.StatusConflict, wantCode: apperrors.CodeAlreadyBooked},
		{name: "plain error", body: `{"resource_id":"r","date_key":"d","slot_index":1}`, svcErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSlotService{lockFunc: func(ctx context.Context, req *model.LockRequest) (*model.LockResult, error) {
				return nil, tt.svcErr
			}}
			rec := do(t, newRouter(svc), http.MethodPost, PathLock, tt.body, map[string]string{middleware.HolderIDHeader: "u1"})

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestLockRange_SlotConflictDetails(t *testing.T) {
	svc := &mockSlotService{lockRangeFunc: func(ctx context.Context, req *model.LockRangeRequest) (*model.LockResult, error) {
		if len(req.SlotIndices) != 3 || req.HolderID != "u1" {
			t.Errorf("unexpected request: %+v", req)
		}
		return nil, apperrors.SlotAlreadyLocked(4)
	}}

	rec := do(t, newRouter(svc), http.MethodPost, PathLockRange,
		`{"resource_id":"room-9","date_key":"20250601","slot_indices":[3,4,5]}`,
		map[string]string{middleware.HolderIDHeader: "u1"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != apperrors.CodeSlotAlreadyLocked || body.Details[apperrors.DetailSlotIndex] != float64(4) {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestRelease(t *testing.T) {
	var got *model.ReleaseRequest
	svc := &mockSlotService{releaseFunc: func(ctx context.Context, req *model.ReleaseRequest) error {
		got = req
		return nil
	}}

	rec := do(t, newRouter(svc), http.MethodPost, PathRelease,
		`{"resource_id":"room-9","date_key":"20250601","slot_indices":[1,2]}`,
		map[string]string{middleware.HolderIDHeader: "u1"})

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got.HolderID != "u1" || len(got.SlotIndices) != 2 {
		t.Errorf("unexpected request: %+v", got)
	}
}

// ──────────────────────────────────────────────────────────────
// Confirm
// ──────────────────────────────────────────────────────────────

func TestConfirm(t *testing.T) {
	svc := &mockSlotService{
		confirmFunc: func(ctx context.Context, req *model.ConfirmRequest) (*model.ConfirmResult, error) {
			if *req.SlotIndex == 9 {
				return nil, apperrors.NotLocked(9)
			}
			return &model.ConfirmResult{OK: true}, nil
		},
		confirmRangeFunc: func(ctx context.Context, req *model.ConfirmRangeRequest) (*model.ConfirmResult, error) {
			return &model.ConfirmResult{OK: true}, nil
		},
	}
	h := newRouter(svc)

	rec := do(t, h, http.MethodPost, PathConfirm, `{"resource_id":"room-9","date_key":"20250601","slot_index":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("confirm status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, PathConfirm, `{"resource_id":"room-9","date_key":"20250601","slot_index":9}`, nil)
	if rec.Code != http.StatusPreconditionFailed || errorCode(t, rec) != apperrors.CodeNotLocked {
		t.Errorf("not locked: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, PathConfirmRange, `{"resource_id":"room-9","date_key":"20250601","slot_indices":[1,2]}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("confirm range status = %d", rec.Code)
	}
}

func TestIsConfirmPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{PathConfirm, true},
		{PathConfirmRange, true},
		{PathLock, false},
		{"/api/v1/slots/confirm/", false},
	}
	for _, tt := range tests {
		if got := IsConfirmPath(tt.path); got != tt.want {
			t.Errorf("IsConfirmPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// ──────────────────────────────────────────────────────────────
// Admin day view
// ──────────────────────────────────────────────────────────────

func TestGetDay(t *testing.T) {
	var gotCaller service.Caller
	svc := &mockSlotService{getDayFunc: func(ctx context.Context, resourceID, dateKey string, caller service.Caller) ([]model.SlotView, error) {
		gotCaller = caller
		if resourceID != "room-9" || dateKey != "20250601" {
			t.Errorf("unexpected partition %s/%s", resourceID, dateKey)
		}
		return []model.SlotView{{SlotIndex: 1, Status: model.SlotBooked}}, nil
	}}

	rec := do(t, newRouter(svc), http.MethodGet, "/api/v1/admin/slots/room-9/20250601", "",
		map[string]string{middleware.HolderIDHeader: "admin-1", middleware.HolderRoleHeader: "moderator"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotCaller.ID != "admin-1" || gotCaller.Role != "moderator" {
		t.Errorf("unexpected caller: %+v", gotCaller)
	}

	var envelope struct {
		Data []model.SlotView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Status != model.SlotBooked {
		t.Errorf("unexpected data: %+v", envelope.Data)
	}
}

func TestGetDay_EmptyAndForbidden(t *testing.T) {
	svc := &mockSlotService{getDayFunc: func(ctx context.Context, resourceID, dateKey string, caller service.Caller) ([]model.SlotView, error) {
		if caller.Role == "" {
			return nil, apperrors.Forbidden("Missing admin role")
		}
		return nil, nil
	}}
	h := newRouter(svc)

	rec := do(t, h, http.MethodGet, "/api/v1/admin/slots/room-9/20250601", "",
		map[string]string{middleware.HolderIDHeader: "a", middleware.HolderRoleHeader: "superadmin"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("empty day: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/admin/slots/room-9/20250601", "", map[string]string{middleware.HolderIDHeader: "a"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("no role: status = %d", rec.Code)
	}
}

// ──────────────────────────────────────────────────────────────
// Health
// ──────────────────────────────────────────────────────────────

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "health", path: "/health", pingErr: errors.New("down"), wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "ready", path: "/ready", wantStatus: http.StatusOK, wantBody: `"status":"ready"`},
		{name: "not ready", path: "/ready", pingErr: errors.New("down"), wantStatus: http.StatusServiceUnavailable, wantBody: `"status":"unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(&mockPinger{err: tt.pingErr}, "memory", logger.Discard()).RegisterRoutes(router)

			rec := do(t, router, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.wantStatus || !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}
