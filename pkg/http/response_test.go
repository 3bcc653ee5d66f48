package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "creatorclub/pkg/errors"

	"github.com/julienschmidt/httprouter"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not locked", apperrors.NotLocked(1), http.StatusPreconditionFailed, apperrors.CodeNotLocked},
		{"booked", apperrors.SlotAlreadyBooked(2), http.StatusConflict, apperrors.CodeSlotAlreadyBooked},
		{"unauthenticated", apperrors.Unauthenticated("missing holder"), http.StatusUnauthorized, apperrors.CodeUnauthenticated},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, body.Code)
			}
		})
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperrors.Internal("Failed to lock slot", errors.New("mongo: secret host unreachable")))

	if strings.Contains(rec.Body.String(), "secret host") {
		t.Errorf("underlying cause leaked: %s", rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"resource_id":"room-9"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"resource_id":"room-9","extra":1}`, true},
		{"trailing object", `{"resource_id":"a"}{"resource_id":"b"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var target struct {
				ResourceID string `json:"resource_id"`
			}

			err := DecodeJSON(r, &target)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.HasCode(err, apperrors.CodeInvalidArgument) {
				t.Errorf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestPathParam(t *testing.T) {
	ps := httprouter.Params{{Key: "resource_id", Value: " room-9 "}, {Key: "date_key", Value: ""}}

	if v, err := PathParam(ps, "resource_id"); err != nil || v != "room-9" {
		t.Errorf("PathParam(resource_id) = %q, %v", v, err)
	}
	if _, err := PathParam(ps, "date_key"); err == nil {
		t.Error("expected error for empty date_key")
	}
}
